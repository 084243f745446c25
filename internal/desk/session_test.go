package desk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/cheese-desk/internal/chessrules"
	"github.com/park285/cheese-desk/internal/game"
	"github.com/park285/cheese-desk/internal/render"
)

type scriptedOpponent struct {
	moves []string
	err   error
}

func (o *scriptedOpponent) Configure(context.Context, int) error { return nil }

func (o *scriptedOpponent) RequestMove(context.Context, game.Position, time.Duration) (game.Move, error) {
	if o.err != nil {
		return game.Move{}, o.err
	}
	if len(o.moves) == 0 {
		return game.Move{}, game.ErrOpponentUnavailable
	}
	text := o.moves[0]
	o.moves = o.moves[1:]
	return game.ParseMove(text)
}

var testMapper = game.Mapper{SquareSize: 20}

func newTestSession(t *testing.T, opp game.MoveSource) (*Session, *chessrules.Board) {
	t.Helper()
	board := chessrules.New()
	r, err := render.New(testMapper, render.WithCoordinates(false))
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	orch := game.NewOrchestrator(board, opp, game.Config{
		HumanColor: game.White,
		MoveBudget: 100 * time.Millisecond,
		Mapper:     testMapper,
	})
	s := NewSession(orch, board, r, WithBanner(func(rep game.Report) string {
		return "over: " + rep.Outcome.String()
	}))
	return s, board
}

func pointerAt(t *testing.T, square string, down bool) Pointer {
	t.Helper()
	sq, err := game.ParseSquare(square)
	if err != nil {
		t.Fatalf("ParseSquare(%s): %v", square, err)
	}
	x, y := testMapper.Center(sq)
	return Pointer{X: x, Y: y, Down: down}
}

func TestPointerTrackerEdges(t *testing.T) {
	var tr PointerTracker
	if evs := tr.Events(Pointer{X: 1, Y: 2}); len(evs) != 0 {
		t.Fatalf("idle = %v", evs)
	}
	evs := tr.Events(Pointer{X: 1, Y: 2, Down: true})
	if len(evs) != 1 || evs[0].Kind != game.Press || evs[0].X != 1 {
		t.Fatalf("press = %v", evs)
	}
	if evs := tr.Events(Pointer{X: 5, Y: 5, Down: true}); len(evs) != 0 {
		t.Fatalf("held = %v", evs)
	}
	evs = tr.Events(Pointer{X: 9, Y: 9})
	if len(evs) != 1 || evs[0].Kind != game.Release || evs[0].Y != 9 {
		t.Fatalf("release = %v", evs)
	}
	evs = tr.Events(Pointer{Down: true, Closing: true})
	if len(evs) != 1 || evs[0].Kind != game.Quit {
		t.Fatalf("closing = %v", evs)
	}
}

func TestSessionHumanThenOpponent(t *testing.T) {
	s, board := newTestSession(t, &scriptedOpponent{moves: []string{"e7e5"}})
	ctx := context.Background()

	if err := s.Tick(ctx, pointerAt(t, "e2", true)); err != nil {
		t.Fatalf("press: %v", err)
	}
	f := s.Frame()
	if f.Selected.String() != "e2" || len(f.Hints) != 2 {
		t.Fatalf("selected = %s hints = %v", f.Selected, f.Hints)
	}

	if err := s.Tick(ctx, pointerAt(t, "e4", false)); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !s.OpponentToMove() {
		t.Fatalf("opponent should be to move")
	}
	f = s.Frame()
	if f.Selected.Valid() || f.LastMove == nil || f.LastMove.String() != "e2e4" {
		t.Fatalf("after human move: %+v", f)
	}

	if err := s.Tick(ctx, Pointer{}); err != nil {
		t.Fatalf("opponent: %v", err)
	}
	if got := board.UCIHistory(); len(got) != 2 || got[1] != "e7e5" {
		t.Fatalf("history = %v", got)
	}
	if img, err := s.Compose(); err != nil || img.Bounds().Dx() != s.Size() {
		t.Fatalf("Compose: %v", err)
	}
}

func TestSessionQuit(t *testing.T) {
	s, _ := newTestSession(t, &scriptedOpponent{})
	err := s.Tick(context.Background(), Pointer{Closing: true})
	if !errors.Is(err, game.ErrQuit) {
		t.Fatalf("err = %v, want ErrQuit", err)
	}
	if s.Finished() {
		t.Fatalf("quit must not finish the game")
	}
}

func TestSessionOpponentFailureShowsBanner(t *testing.T) {
	s, _ := newTestSession(t, &scriptedOpponent{err: game.ErrOpponentTimeout})
	ctx := context.Background()
	_ = s.Tick(ctx, pointerAt(t, "d2", true))
	_ = s.Tick(ctx, pointerAt(t, "d4", false))

	if err := s.Tick(ctx, Pointer{}); err != nil {
		t.Fatalf("finished game must not surface the error: %v", err)
	}
	if !s.Finished() || s.Report().Outcome != game.Unknown {
		t.Fatalf("report = %+v", s.Report())
	}
	if got := s.Frame().Banner; got != "over: unknown" {
		t.Fatalf("banner = %q", got)
	}
	if err := s.Tick(ctx, Pointer{}); err != nil {
		t.Fatalf("tick after finish: %v", err)
	}
}
