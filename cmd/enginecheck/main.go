// Command enginecheck verifies that the configured engine completes the UCI
// handshake and answers one search from the start position.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/chess/uci"
	"github.com/park285/cheese-desk/internal/config"
	"github.com/park285/cheese-desk/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "init logging:", err)
		os.Exit(1)
	}
	defer func() { _ = obslog.Sync() }()
	logger := obslog.L()

	if err := run(logger); err != nil {
		logger.Error("engine check failed", zap.Error(err))
		_ = obslog.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	session, err := uci.NewSession(ctx, uci.Command{Path: cfg.StockfishPath, Args: cfg.EngineArgs},
		uci.Options{Threads: 1, SkillLevel: cfg.SkillLevel, HashMB: 16, MultiPV: 1}, logger)
	if err != nil {
		return fmt.Errorf("handshake with %s: %w", cfg.StockfishPath, err)
	}
	defer func() { _ = session.Close() }()
	logger.Info("handshake ok", zap.String("engine", session.Name()), zap.Duration("took", time.Since(start)))

	if err := session.NewGame(ctx); err != nil {
		return fmt.Errorf("ucinewgame: %w", err)
	}

	start = time.Now()
	resp, err := session.Search(ctx, uci.SearchRequest{
		FEN:    "startpos",
		Limits: uci.Limits{MoveTimeMillis: cfg.MoveTimeMS},
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	logger.Info("search ok",
		zap.String("bestmove", resp.BestMove),
		zap.Int("candidates", len(resp.Candidates)),
		zap.Duration("took", time.Since(start)),
	)
	fmt.Printf("%s ok: bestmove %s\n", session.Name(), resp.BestMove)
	return nil
}
