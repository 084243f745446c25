package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type EventKind uint8

const (
	Press EventKind = iota
	Release
	Quit
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "quit"
	}
}

// InputEvent is one pointer or window event collected during a frame.
// X and Y are window pixels; they are ignored for Quit.
type InputEvent struct {
	Kind EventKind
	X, Y int
}

// MoveRecord describes an applied move.
type MoveRecord struct {
	Side  Side
	Color Color
	Move  Move
	Ply   int
	Think time.Duration
}

// Report is the terminal state of a session.
type Report struct {
	Outcome Outcome
	Err     error
	Plies   int
	Human   Color
}

// Observer receives notifications from the frame loop goroutine.
type Observer interface {
	MoveApplied(rec MoveRecord)
	GameFinished(rep Report)
}

type Config struct {
	HumanColor Color
	MoveBudget time.Duration
	Mapper     Mapper
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Orchestrator runs the turn loop. Step is called once per frame from a
// single goroutine; it never blocks longer than one opponent request.
type Orchestrator struct {
	rules     Rules
	opponent  MoveSource
	cfg       Config
	selection *Selection
	logger    *zap.Logger
	observers []Observer

	toMove   Side
	finished bool
	outcome  Outcome
	err      error
	lastMove Move
	hasLast  bool
	plies    int
}

func NewOrchestrator(r Rules, opp MoveSource, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:     r,
		opponent:  opp,
		cfg:       cfg,
		selection: NewSelection(r),
		logger:    zap.NewNop(),
		outcome:   InProgress,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.toMove = o.sideOf(r.Turn())
	return o
}

// Step advances the game by one frame.
//
// A Quit event ends the call with ErrQuit. On the human's turn the pointer
// events are fed to the selection machine until a move is applied; the
// rest of the frame's events are dropped. On the opponent's turn one move
// is requested and applied. Opponent failures finish the game and are
// returned once; later calls return nil.
func (o *Orchestrator) Step(ctx context.Context, events []InputEvent) error {
	for _, ev := range events {
		if ev.Kind == Quit {
			return ErrQuit
		}
	}
	if o.finished {
		return nil
	}
	if o.rules.IsGameOver() {
		return o.finish()
	}

	if o.toMove == Human {
		return o.humanTurn(events)
	}
	return o.opponentTurn(ctx)
}

func (o *Orchestrator) humanTurn(events []InputEvent) error {
	color := o.cfg.HumanColor
	for _, ev := range events {
		switch ev.Kind {
		case Press:
			if !o.cfg.Mapper.Contains(ev.X, ev.Y) {
				continue
			}
			o.selection.OnPress(o.cfg.Mapper.SquareFromPixel(ev.X, ev.Y), color)
		case Release:
			if !o.cfg.Mapper.Contains(ev.X, ev.Y) {
				o.selection.Deselect()
				continue
			}
			played, applied, err := o.selection.OnRelease(o.cfg.Mapper.SquareFromPixel(ev.X, ev.Y))
			if err != nil {
				return fmt.Errorf("human move: %w", err)
			}
			if applied {
				o.moveApplied(Human, color, played, 0)
				return o.checkGameOver()
			}
		}
	}
	return nil
}

func (o *Orchestrator) opponentTurn(ctx context.Context) error {
	pos := o.rules.Position()
	color := o.cfg.HumanColor.Other()

	start := time.Now()
	mv, err := o.opponent.RequestMove(ctx, pos, o.cfg.MoveBudget)
	think := time.Since(start)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return ErrQuit
		}
		return o.fail(opponentError(err))
	}
	played, err := o.rules.ApplyMove(mv)
	if err != nil {
		return o.fail(fmt.Errorf("%w: engine move %s rejected: %v", ErrOpponentUnavailable, mv, err))
	}
	mv = played
	o.logger.Debug("opponent moved",
		zap.String("move", mv.String()),
		zap.Duration("think", think),
	)
	o.moveApplied(Opponent, color, mv, think)
	return o.checkGameOver()
}

func opponentError(err error) error {
	switch {
	case errors.Is(err, ErrOpponentTimeout), errors.Is(err, ErrOpponentUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrOpponentTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrOpponentUnavailable, err)
	}
}

func (o *Orchestrator) moveApplied(side Side, color Color, mv Move, think time.Duration) {
	o.selection.Deselect()
	o.lastMove, o.hasLast = mv, true
	o.plies++
	o.toMove = o.sideOf(o.rules.Turn())

	rec := MoveRecord{Side: side, Color: color, Move: mv, Ply: o.plies, Think: think}
	for _, obs := range o.observers {
		obs.MoveApplied(rec)
	}
}

func (o *Orchestrator) checkGameOver() error {
	if !o.rules.IsGameOver() {
		return nil
	}
	return o.finish()
}

func (o *Orchestrator) finish() error {
	outcome, err := Classify(o.rules, o.cfg.HumanColor)
	if err != nil {
		o.logger.Warn("game over without recognised outcome", zap.Int("plies", o.plies))
	}
	o.terminate(outcome, err)
	return err
}

func (o *Orchestrator) fail(err error) error {
	o.logger.Error("opponent failed", zap.Error(err), zap.Int("plies", o.plies))
	o.terminate(Unknown, err)
	return err
}

func (o *Orchestrator) terminate(outcome Outcome, err error) {
	o.selection.Deselect()
	o.finished = true
	o.outcome = outcome
	o.err = err

	rep := o.Report()
	for _, obs := range o.observers {
		obs.GameFinished(rep)
	}
}

func (o *Orchestrator) sideOf(c Color) Side {
	if c == o.cfg.HumanColor {
		return Human
	}
	return Opponent
}

// PossibleDestinations lists the targets of the held piece for hint drawing.
func (o *Orchestrator) PossibleDestinations() []Square {
	if o.finished || o.toMove != Human {
		return nil
	}
	return o.selection.PossibleDestinations()
}

// Selected returns the square of the held piece.
func (o *Orchestrator) Selected() (Square, bool) {
	sq, _, ok := o.selection.Held()
	return sq, ok
}

func (o *Orchestrator) LastMove() (Move, bool) { return o.lastMove, o.hasLast }

func (o *Orchestrator) SideToMove() Side { return o.toMove }

func (o *Orchestrator) Finished() bool { return o.finished }

func (o *Orchestrator) Outcome() Outcome { return o.outcome }

// Err is the error that finished the game, if any.
func (o *Orchestrator) Err() error { return o.err }

func (o *Orchestrator) HumanColor() Color { return o.cfg.HumanColor }

func (o *Orchestrator) Plies() int { return o.plies }

func (o *Orchestrator) Report() Report {
	return Report{Outcome: o.outcome, Err: o.err, Plies: o.plies, Human: o.cfg.HumanColor}
}
