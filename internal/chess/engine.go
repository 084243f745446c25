package chess

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/chess/openingbook"
	"github.com/park285/cheese-desk/internal/chess/uci"
	"github.com/park285/cheese-desk/internal/game"
)

const (
	defaultOpeningMaxPly    = 12
	defaultOpeningMinWeight = 1
)

type OpeningOptions struct {
	MaxPly    int
	MinWeight int
}

type EngineConfig struct {
	Command uci.Command
	Preset  DifficultyPreset
	// Book is optional; when set it is consulted before searching.
	Book    *openingbook.Book
	Opening OpeningOptions
	// Grace is added to the move budget before a search counts as timed out.
	Grace time.Duration
	Seed  int64
}

// Stats summarises the engine's work over a session.
type Stats struct {
	Requests  int
	BookMoves int
	Think     time.Duration
}

// Engine is a game.MoveSource backed by one UCI process.
type Engine struct {
	session *uci.Session
	preset  DifficultyPreset
	book    *openingbook.Book
	opening OpeningOptions
	grace   time.Duration
	logger  *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
	stats  Stats
}

// StartEngine launches the engine process for the session. The caller owns
// the returned Engine and must Close it.
func StartEngine(ctx context.Context, cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ValidatePreset(cfg.Preset); err != nil {
		return nil, err
	}
	session, err := uci.NewSession(ctx, cfg.Command, optionsFromPreset(cfg.Preset), logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrOpponentUnavailable, err)
	}
	if err := session.NewGame(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: %v", game.ErrOpponentUnavailable, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		session: session,
		preset:  cfg.Preset,
		book:    cfg.Book,
		opening: normalizeOpening(cfg.Opening),
		grace:   cfg.Grace,
		logger:  logger,
		rand:    rand.New(rand.NewSource(seed)),
	}
	logger.Info("engine ready",
		zap.String("name", session.Name()),
		zap.String("preset", cfg.Preset.Name),
		zap.Int("skill", cfg.Preset.SkillLevel),
		zap.Bool("book", cfg.Book != nil),
	)
	return e, nil
}

func normalizeOpening(opts OpeningOptions) OpeningOptions {
	if opts.MaxPly <= 0 {
		opts.MaxPly = defaultOpeningMaxPly
	}
	if opts.MinWeight <= 0 {
		opts.MinWeight = defaultOpeningMinWeight
	}
	return opts
}

// Configure sets the engine's Skill Level (0-20). The preset's level is
// already part of the handshake, so asking for it again sends nothing.
func (e *Engine) Configure(ctx context.Context, strength int) error {
	if strength < 0 || strength > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", strength)
	}
	if strength == e.preset.SkillLevel {
		return nil
	}
	if err := e.session.SetOption(ctx, "Skill Level", strength); err != nil {
		return fmt.Errorf("%w: %v", game.ErrOpponentUnavailable, err)
	}
	e.preset.SkillLevel = strength
	return nil
}

// RequestMove returns the opponent's move for pos. The engine gets budget
// to think; the reply must arrive within budget plus the configured grace.
func (e *Engine) RequestMove(ctx context.Context, pos game.Position, budget time.Duration) (game.Move, error) {
	e.stats.Requests++
	if cand, ok := e.bookMove(pos); ok {
		e.stats.BookMoves++
		e.logger.Debug("book move", zap.String("move", cand.Move))
		return parseEngineMove(cand.Move)
	}

	limits, err := SearchLimits(e.preset, budget, e.grace)
	if err != nil {
		return game.Move{}, err
	}

	start := time.Now()
	resp, err := e.session.Search(ctx, uci.SearchRequest{
		FEN:    pos.StartFEN,
		Moves:  pos.Moves,
		Limits: limits,
	})
	e.stats.Think += time.Since(start)
	if err != nil {
		return game.Move{}, searchError(ctx, err)
	}

	candidates := convertCandidates(resp.Candidates)
	if len(candidates) == 0 && resp.BestMove != "" {
		candidates = []Candidate{{Move: resp.BestMove, Principal: []string{resp.BestMove}}}
	}
	candidates = usableCandidates(candidates)
	if len(candidates) == 0 {
		return game.Move{}, fmt.Errorf("%w: engine returned no move", game.ErrOpponentUnavailable)
	}

	e.randMu.Lock()
	candidates = rerank(candidates, e.preset.EvalNoise, e.rand)
	chosen, err := SelectCandidate(e.preset, candidates, e.rand)
	e.randMu.Unlock()
	if err != nil {
		return game.Move{}, err
	}
	if chosen.Move != resp.BestMove {
		e.logger.Debug("humanized move",
			zap.String("chosen", chosen.Move),
			zap.String("best", resp.BestMove),
		)
	}
	return parseEngineMove(chosen.Move)
}

func (e *Engine) bookMove(pos game.Position) (Candidate, bool) {
	if e.book == nil || len(pos.Moves) >= e.opening.MaxPly {
		return Candidate{}, false
	}
	results, err := e.book.Moves(pos.StartFEN, pos.Moves)
	if err != nil {
		e.logger.Warn("book lookup failed", zap.Error(err))
		return Candidate{}, false
	}
	filtered := results[:0]
	for _, res := range results {
		if int(res.Weight) >= e.opening.MinWeight {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) == 0 {
		return Candidate{}, false
	}
	e.randMu.Lock()
	picked := selectBookMove(filtered, e.rand)
	e.randMu.Unlock()
	return Candidate{Move: picked.Move, Principal: []string{picked.Move}, Forced: true}, true
}

func selectBookMove(candidates []openingbook.Result, r *rand.Rand) openingbook.Result {
	total := 0
	for _, cand := range candidates {
		total += int(cand.Weight)
	}
	if total <= 0 || r == nil {
		return candidates[0]
	}
	roll := r.Intn(total)
	cumulative := 0
	for _, cand := range candidates {
		cumulative += int(cand.Weight)
		if roll < cumulative {
			return cand
		}
	}
	return candidates[len(candidates)-1]
}

func searchError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("search aborted: %w", ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", game.ErrOpponentTimeout, err)
	}
	return fmt.Errorf("%w: %v", game.ErrOpponentUnavailable, err)
}

func usableCandidates(in []Candidate) []Candidate {
	out := in[:0]
	for _, c := range in {
		mv := strings.TrimSpace(c.Move)
		if mv == "" || mv == "(none)" || mv == "0000" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseEngineMove(text string) (game.Move, error) {
	mv, err := game.ParseMove(text)
	if err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", game.ErrOpponentUnavailable, err)
	}
	return mv, nil
}

func (e *Engine) Name() string { return e.session.Name() }

func (e *Engine) Preset() DifficultyPreset { return e.preset }

func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}

func (e *Engine) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Close()
}

func optionsFromPreset(p DifficultyPreset) uci.Options {
	return uci.Options{
		Threads:    p.Threads,
		SkillLevel: p.SkillLevel,
		HashMB:     p.HashMB,
		MultiPV:    p.MultiPV,
		Elo:        p.Elo,
	}
}

func convertCandidates(in []uci.Candidate) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		out = append(out, Candidate{
			Move:      c.Move,
			EvalCP:    c.EvalCP,
			Principal: append([]string(nil), c.Principal...),
		})
	}
	return out
}
