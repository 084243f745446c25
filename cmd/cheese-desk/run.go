package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/archive"
	"github.com/park285/cheese-desk/internal/chess"
	"github.com/park285/cheese-desk/internal/chess/openingbook"
	"github.com/park285/cheese-desk/internal/chess/uci"
	"github.com/park285/cheese-desk/internal/chessrules"
	"github.com/park285/cheese-desk/internal/config"
	"github.com/park285/cheese-desk/internal/desk"
	"github.com/park285/cheese-desk/internal/game"
	"github.com/park285/cheese-desk/internal/gui"
	"github.com/park285/cheese-desk/internal/msgcat"
	"github.com/park285/cheese-desk/internal/obslog"
	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/internal/spectator"
)

const shutdownTimeout = 3 * time.Second

func run(ctx context.Context, c *cli.Command) error {
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = obslog.Sync() }()
	logger := obslog.L()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(cfg, c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return err
	}

	board, err := chessrules.FromFEN(cfg.StartFEN)
	if err != nil {
		return err
	}

	preset, err := resolvePreset(cfg)
	if err != nil {
		return err
	}
	book, err := openBook(cfg.PolyglotBookPath, logger)
	if err != nil {
		return err
	}
	engine, err := chess.StartEngine(ctx, chess.EngineConfig{
		Command: uci.Command{Path: cfg.StockfishPath, Args: cfg.EngineArgs},
		Preset:  preset,
		Book:    book,
		Opening: chess.OpeningOptions{MaxPly: cfg.OpeningMaxPly, MinWeight: cfg.OpeningMinWeight},
		Grace:   cfg.EngineGrace(),
	}, logger.Named("engine"))
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close failed", zap.Error(err))
		}
	}()
	if err := engine.Configure(ctx, preset.SkillLevel); err != nil {
		return err
	}

	repo, err := archive.Open(ctx, archive.Options{
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		TTL:         cfg.ArchiveTTL(),
		History:     cfg.ArchiveHistory,
	}, logger.Named("archive"))
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	recorder := archive.NewRecorder(repo, board, archive.RecorderConfig{
		Engine: engine.Name(),
		Preset: preset.Name,
	}, logger.Named("archive"))

	human := cfg.Human()
	renderer, err := render.New(
		game.Mapper{SquareSize: cfg.SquareSize(), Flipped: human == game.Black},
		render.WithCoordinates(cfg.Coordinates),
	)
	if err != nil {
		return err
	}

	budget := cfg.MoveBudget()
	resultText := func(rep game.Report) string { return catalog.ResultText(rep, budget) }
	opts := []game.Option{game.WithLogger(logger.Named("game")), game.WithObserver(recorder)}

	spect, err := startSpectator(ctx, cfg, board, renderer, spectator.SessionInfo{
		SessionUUID: recorder.SessionUUID(),
		Name:        recorder.Name(),
		Engine:      engine.Name(),
		Human:       human,
	}, resultText, logger.Named("spectator"))
	if err != nil {
		return err
	}
	defer spect.close(logger)
	if spect.hub != nil {
		opts = append(opts, game.WithObserver(spect.hub))
	}

	orch := game.NewOrchestrator(board, engine, game.Config{
		HumanColor: human,
		MoveBudget: budget,
		Mapper:     renderer.Mapper(),
	}, opts...)
	session := desk.NewSession(orch, board, renderer,
		desk.WithBanner(resultText),
		desk.WithLogger(logger.Named("desk")),
	)

	names := map[string]any{"Human": human.String(), "Engine": engine.Name()}
	title := catalog.MustRender("window.title", names)
	window := gui.NewWindow(ctx, session, gui.Options{
		Title:    title,
		Thinking: catalog.MustRender("window.thinking", names),
		Logger:   logger.Named("gui"),
	})
	logger.Info("session started",
		zap.String("session", recorder.SessionUUID()),
		zap.String("human", human.String()),
		zap.String("preset", preset.Name),
		zap.Duration("budget", budget),
	)
	if err := window.Run(); err != nil {
		return fmt.Errorf("window: %w", err)
	}

	rep := session.Report()
	stats := engine.Stats()
	logger.Info("session ended",
		zap.String("outcome", rep.Outcome.String()),
		zap.Int("plies", rep.Plies),
		zap.Int("engine_requests", stats.Requests),
		zap.Int("book_moves", stats.BookMoves),
	)
	printSummary(catalog, rep, budget, engine.Name())
	if saved, err := recorder.Saved(); err == nil && saved != nil {
		fmt.Println(catalog.MustRender("summary.archived", map[string]any{"Name": saved.Name}))
	}
	if cfg.ResultDialog && session.Finished() {
		gui.ShowResult(title, resultText(rep))
	}
	return nil
}

func applyFlags(cfg *config.AppConfig, c *cli.Command) {
	if c.IsSet("engine") {
		cfg.StockfishPath = c.String("engine")
	}
	if c.IsSet("skill") {
		cfg.SkillLevel = int(c.Int("skill"))
		cfg.Preset = ""
	}
	if c.IsSet("preset") {
		cfg.Preset = c.String("preset")
	}
	if c.IsSet("movetime") {
		cfg.MoveTimeMS = int(c.Int("movetime"))
	}
	if c.IsSet("color") {
		cfg.HumanColor = c.String("color")
	}
	if c.IsSet("size") {
		cfg.BoardSize = int(c.Int("size"))
	}
	if c.IsSet("fen") {
		cfg.StartFEN = c.String("fen")
	}
	if c.IsSet("book") {
		cfg.PolyglotBookPath = c.String("book")
	}
	if c.IsSet("coordinates") {
		cfg.Coordinates = c.Bool("coordinates")
	}
	if c.IsSet("dialog") {
		cfg.ResultDialog = c.Bool("dialog")
	}
	if c.IsSet("spectator") {
		cfg.SpectatorAddr = c.String("spectator")
	}
	if c.IsSet("relay") {
		cfg.SpectatorRelayURL = c.String("relay")
	}
}

func resolvePreset(cfg *config.AppConfig) (chess.DifficultyPreset, error) {
	if cfg.Preset != "" {
		return chess.GetPreset(cfg.Preset)
	}
	return chess.SkillPreset(cfg.SkillLevel), nil
}

func openBook(explicit string, logger *zap.Logger) (*openingbook.Book, error) {
	path, err := openingbook.ResolvePath(explicit)
	if err != nil || path == "" {
		return nil, err
	}
	book, err := openingbook.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Info("opening book loaded", zap.String("path", path))
	return book, nil
}

func printSummary(catalog *msgcat.Catalog, rep game.Report, budget time.Duration, engine string) {
	line := catalog.Summary(rep, budget, engine)
	var paint *color.Color
	switch {
	case rep.Err != nil:
		paint = color.New(color.FgMagenta)
	case rep.Outcome == game.HumanWin:
		paint = color.New(color.FgGreen, color.Bold)
	case rep.Outcome == game.OpponentWin:
		paint = color.New(color.FgRed, color.Bold)
	case rep.Outcome.IsDraw():
		paint = color.New(color.FgYellow)
	default:
		paint = color.New(color.Faint)
	}
	paint.Println(line)
}

type spectatorParts struct {
	hub    *spectator.Hub
	server *spectator.Server
	relay  *spectator.Relay
}

func startSpectator(ctx context.Context, cfg *config.AppConfig, board *chessrules.Board, renderer *render.Renderer,
	info spectator.SessionInfo, resultText func(game.Report) string, logger *zap.Logger) (*spectatorParts, error) {
	parts := &spectatorParts{}
	if cfg.SpectatorAddr == "" && cfg.SpectatorRelayURL == "" {
		return parts, nil
	}

	hubOpts := []spectator.HubOption{spectator.WithResultText(resultText), spectator.WithHubLogger(logger)}
	if cfg.SpectatorRelayURL != "" {
		parts.relay = spectator.NewRelay(cfg.SpectatorRelayURL, spectator.WithRelayLogger(logger))
		if err := parts.relay.Connect(ctx); err != nil {
			logger.Warn("relay not connected yet", zap.Error(err))
		}
		hubOpts = append(hubOpts, spectator.WithPublisher(parts.relay))
	}
	parts.hub = spectator.NewHub(board, renderer, info, hubOpts...)

	if cfg.SpectatorAddr != "" {
		parts.server = spectator.NewServer(parts.hub, spectator.WithServerLogger(logger))
		if _, err := parts.server.Start(cfg.SpectatorAddr); err != nil {
			parts.close(logger)
			return nil, fmt.Errorf("spectator listen %s: %w", cfg.SpectatorAddr, err)
		}
	}
	return parts, nil
}

func (p *spectatorParts) close(logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	if p.server != nil {
		errs = append(errs, p.server.Shutdown(ctx))
	}
	if p.relay != nil {
		errs = append(errs, p.relay.Close(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("spectator shutdown", zap.Error(err))
	}
}
