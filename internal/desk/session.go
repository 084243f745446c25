// Package desk ties the orchestrator to the renderer: it turns sampled
// pointer state into input events, steps the game once per frame, and
// builds the frame to show.
package desk

import (
	"context"
	"errors"
	"image"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/game"
	"github.com/park285/cheese-desk/internal/render"
)

// BoardView is what the frame needs from the rules adapter.
type BoardView interface {
	Pieces() map[game.Square]game.Piece
	CheckSquare() game.Square
}

type Option func(*Session)

// WithBanner sets the text shown over the board once the game is over.
func WithBanner(fn func(game.Report) string) Option {
	return func(s *Session) { s.bannerText = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

type Session struct {
	orch       *game.Orchestrator
	board      BoardView
	renderer   *render.Renderer
	bannerText func(game.Report) string
	logger     *zap.Logger

	tracker PointerTracker
	banner  string
}

func NewSession(orch *game.Orchestrator, board BoardView, renderer *render.Renderer, opts ...Option) *Session {
	s := &Session{
		orch:     orch,
		board:    board,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick advances the game by one frame. It returns game.ErrQuit when the
// window is closing. Errors that finished the game are logged and the
// session keeps showing the final position; any other error is returned.
func (s *Session) Tick(ctx context.Context, p Pointer) error {
	err := s.orch.Step(ctx, s.tracker.Events(p))
	switch {
	case err == nil:
	case errors.Is(err, game.ErrQuit):
		return err
	case s.orch.Finished():
		s.logger.Warn("game ended with error", zap.Error(err))
	default:
		return err
	}
	if s.orch.Finished() && s.banner == "" && s.bannerText != nil {
		s.banner = s.bannerText(s.orch.Report())
	}
	return nil
}

// OpponentToMove reports whether the next Tick asks the engine for a move.
func (s *Session) OpponentToMove() bool {
	return !s.orch.Finished() && s.orch.SideToMove() == game.Opponent
}

func (s *Session) Finished() bool { return s.orch.Finished() }

func (s *Session) Report() game.Report { return s.orch.Report() }

func (s *Session) Size() int { return s.renderer.Size() }

// Frame describes the current picture.
func (s *Session) Frame() render.Frame {
	f := render.NewFrame(s.board.Pieces())
	f.Check = s.board.CheckSquare()
	if sq, ok := s.orch.Selected(); ok {
		f.Selected = sq
		f.Hints = s.orch.PossibleDestinations()
	}
	if mv, ok := s.orch.LastMove(); ok {
		f.LastMove = &mv
	}
	f.Banner = s.banner
	return f
}

func (s *Session) Compose() (*image.RGBA, error) {
	return s.renderer.Compose(s.Frame())
}
