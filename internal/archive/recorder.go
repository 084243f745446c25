package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/game"
)

const defaultSaveTimeout = 3 * time.Second

// History exposes the move list kept by the rules adapter.
type History interface {
	StartFEN() string
	UCIHistory() []string
	SANHistory() []string
}

type RecorderConfig struct {
	Engine string
	Preset string
	// SaveTimeout bounds the archive write when the game ends.
	SaveTimeout time.Duration
}

// Recorder is a game.Observer that archives the session once it finishes.
// Sessions abandoned before a result are not written.
type Recorder struct {
	repo    Repository
	history History
	cfg     RecorderConfig
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	sessionUUID string
	name        string
	started     time.Time
	think       time.Duration
	engineMoves int
	saved       *GameRecord
	err         error
}

func NewRecorder(repo Repository, history History, cfg RecorderConfig, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = defaultSaveTimeout
	}
	r := &Recorder{
		repo:        repo,
		history:     history,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		sessionUUID: uuid.NewString(),
		name:        petname.Generate(2, "-"),
	}
	r.started = r.now()
	return r
}

func (r *Recorder) SessionUUID() string { return r.sessionUUID }

// Name is the short human-readable label of the session.
func (r *Recorder) Name() string { return r.name }

func (r *Recorder) MoveApplied(rec game.MoveRecord) {
	if rec.Side != game.Opponent {
		return
	}
	r.mu.Lock()
	r.think += rec.Think
	r.engineMoves++
	r.mu.Unlock()
}

func (r *Recorder) GameFinished(rep game.Report) {
	rec := r.buildRecord(rep)

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SaveTimeout)
	defer cancel()
	id, err := r.repo.SaveGame(ctx, rec)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.err = err
		if errors.Is(err, ErrDuplicateGame) {
			r.logger.Warn("game already archived", zap.String("session", r.sessionUUID))
			return
		}
		r.logger.Error("archive game failed", zap.String("session", r.sessionUUID), zap.Error(err))
		return
	}
	rec.ID = id
	r.saved = rec
	r.logger.Info("game archived",
		zap.Int64("id", id),
		zap.String("name", rec.Name),
		zap.String("outcome", rec.Outcome),
		zap.Int("plies", len(rec.MovesUCI)),
	)
}

// Saved returns the archived record, or the error from the last save.
func (r *Recorder) Saved() (*GameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved, r.err
}

func (r *Recorder) buildRecord(rep game.Report) *GameRecord {
	r.mu.Lock()
	think, engineMoves := r.think, r.engineMoves
	r.mu.Unlock()

	ended := r.now()
	human := rep.Human
	white, black := "Human", r.cfg.Engine
	if human == game.Black {
		white, black = r.cfg.Engine, "Human"
	}
	result := rep.Outcome.PGNResult(human)
	termination := rep.Outcome.String()
	failure := ""
	if rep.Err != nil {
		failure = rep.Err.Error()
		termination = "abandoned"
	}

	var latency time.Duration
	if engineMoves > 0 {
		latency = think / time.Duration(engineMoves)
	}

	san := r.history.SANHistory()
	return &GameRecord{
		SessionUUID: r.sessionUUID,
		Name:        r.name,
		HumanColor:  human.String(),
		Engine:      r.cfg.Engine,
		Preset:      r.cfg.Preset,
		Outcome:     rep.Outcome.String(),
		Result:      result,
		Failure:     failure,
		StartFEN:    r.history.StartFEN(),
		MovesUCI:    r.history.UCIHistory(),
		MovesSAN:    san,
		PGN: BuildPGN(PGNHeader{
			Date:        ended,
			White:       white,
			Black:       black,
			Result:      result,
			Termination: termination,
			StartFEN:    r.history.StartFEN(),
		}, san),
		StartedAt:     r.started,
		EndedAt:       ended,
		Duration:      ended.Sub(r.started),
		EngineLatency: latency,
	}
}
