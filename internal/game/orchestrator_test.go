package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var testMapper = Mapper{SquareSize: 80}

func press(square string) InputEvent {
	x, y := testMapper.Center(sq(square))
	return InputEvent{Kind: Press, X: x, Y: y}
}

func release(square string) InputEvent {
	x, y := testMapper.Center(sq(square))
	return InputEvent{Kind: Release, X: x, Y: y}
}

func newTestOrchestrator(r *fakeRules, opp *fakeOpponent, human Color, obs ...Observer) *Orchestrator {
	opts := make([]Option, 0, len(obs))
	for _, o := range obs {
		opts = append(opts, WithObserver(o))
	}
	return NewOrchestrator(r, opp, Config{
		HumanColor: human,
		MoveBudget: 200 * time.Millisecond,
		Mapper:     testMapper,
	}, opts...)
}

func TestStepHumanMoveFlipsTurn(t *testing.T) {
	r := heldRules()
	opp := &fakeOpponent{moves: []Move{mv("e7e5")}}
	rec := &recordingObserver{}
	o := newTestOrchestrator(r, opp, White, rec)

	err := o.Step(context.Background(), []InputEvent{
		press("e2"), release("e4"),
		press("g1"), release("f3"),
	})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(r.applied) != 1 || r.applied[0].String() != "e2e4" {
		t.Fatalf("applied = %v, want only e2e4", r.applied)
	}
	if o.SideToMove() != Opponent {
		t.Fatalf("side to move = %s, want opponent", o.SideToMove())
	}
	if _, held := o.Selected(); held {
		t.Fatalf("selection should be cleared after a move")
	}
	if last, ok := o.LastMove(); !ok || last.String() != "e2e4" {
		t.Fatalf("last move = %v %v", last, ok)
	}
	if opp.calls != 0 {
		t.Fatalf("opponent must not move in the same frame")
	}
	if len(rec.moves) != 1 || rec.moves[0].Side != Human || rec.moves[0].Ply != 1 {
		t.Fatalf("observer moves = %+v", rec.moves)
	}
}

func TestStepOpponentMove(t *testing.T) {
	r := heldRules()
	opp := &fakeOpponent{moves: []Move{mv("e7e5")}}
	o := newTestOrchestrator(r, opp, White)

	if err := o.Step(context.Background(), []InputEvent{press("e2"), release("e4")}); err != nil {
		t.Fatalf("human step: %v", err)
	}
	if err := o.Step(context.Background(), []InputEvent{press("g1")}); err != nil {
		t.Fatalf("opponent step: %v", err)
	}
	if opp.calls != 1 {
		t.Fatalf("opponent calls = %d, want 1", opp.calls)
	}
	if opp.lastBudget != 200*time.Millisecond {
		t.Fatalf("budget = %v", opp.lastBudget)
	}
	if len(opp.lastPos.Moves) != 1 || opp.lastPos.Moves[0] != "e2e4" {
		t.Fatalf("opponent saw moves %v", opp.lastPos.Moves)
	}
	if o.SideToMove() != Human {
		t.Fatalf("side to move = %s, want human", o.SideToMove())
	}
	if _, held := o.Selected(); held {
		t.Fatalf("events during the opponent turn must not select")
	}
}

func TestStepIllegalAttemptKeepsTurn(t *testing.T) {
	r := heldRules()
	o := newTestOrchestrator(r, &fakeOpponent{}, White)

	if err := o.Step(context.Background(), []InputEvent{press("e2"), release("d5")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if o.SideToMove() != Human || len(r.applied) != 0 {
		t.Fatalf("illegal attempt changed state: side=%s applied=%v", o.SideToMove(), r.applied)
	}
}

func TestStepHeldAcrossFrames(t *testing.T) {
	r := heldRules()
	o := newTestOrchestrator(r, &fakeOpponent{}, White)

	if err := o.Step(context.Background(), []InputEvent{press("g1")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := o.PossibleDestinations(); len(got) != 2 {
		t.Fatalf("destinations = %v", got)
	}
	if err := o.Step(context.Background(), []InputEvent{release("f3")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(r.applied) != 1 || r.applied[0].String() != "g1f3" {
		t.Fatalf("applied = %v", r.applied)
	}
}

func TestStepReleaseOffBoardDrops(t *testing.T) {
	r := heldRules()
	o := newTestOrchestrator(r, &fakeOpponent{}, White)

	err := o.Step(context.Background(), []InputEvent{
		press("e2"),
		{Kind: Release, X: 900, Y: 50},
	})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, held := o.Selected(); held {
		t.Fatalf("off-board release should drop the piece")
	}
	if len(r.applied) != 0 {
		t.Fatalf("applied = %v", r.applied)
	}
}

func TestStepQuit(t *testing.T) {
	o := newTestOrchestrator(heldRules(), &fakeOpponent{}, White)
	err := o.Step(context.Background(), []InputEvent{press("e2"), {Kind: Quit}})
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Step = %v, want ErrQuit", err)
	}
}

func TestStepOpponentTimeout(t *testing.T) {
	r := heldRules()
	r.turn = Black
	opp := &fakeOpponent{err: fmt.Errorf("search: %w", context.DeadlineExceeded)}
	rec := &recordingObserver{}
	o := newTestOrchestrator(r, opp, White, rec)

	err := o.Step(context.Background(), nil)
	if !errors.Is(err, ErrOpponentTimeout) {
		t.Fatalf("Step = %v, want ErrOpponentTimeout", err)
	}
	if !o.Finished() || !errors.Is(o.Err(), ErrOpponentTimeout) {
		t.Fatalf("game should finish with timeout, finished=%v err=%v", o.Finished(), o.Err())
	}
	if len(rec.finished) != 1 {
		t.Fatalf("observer finish calls = %d", len(rec.finished))
	}
	if err := o.Step(context.Background(), nil); err != nil {
		t.Fatalf("Step after finish = %v, want nil", err)
	}
	if opp.calls != 1 {
		t.Fatalf("opponent called %d times", opp.calls)
	}
}

func TestStepOpponentUnavailable(t *testing.T) {
	r := heldRules()
	r.turn = Black
	o := newTestOrchestrator(r, &fakeOpponent{err: errors.New("broken pipe")}, White)

	err := o.Step(context.Background(), nil)
	if !errors.Is(err, ErrOpponentUnavailable) {
		t.Fatalf("Step = %v, want ErrOpponentUnavailable", err)
	}
	if o.Outcome() != Unknown {
		t.Fatalf("outcome = %s", o.Outcome())
	}
}

func TestStepOpponentIllegalMove(t *testing.T) {
	r := heldRules()
	r.turn = Black
	r.applyErr = errors.New("illegal")
	o := newTestOrchestrator(r, &fakeOpponent{moves: []Move{mv("a1a8")}}, White)

	err := o.Step(context.Background(), nil)
	if !errors.Is(err, ErrOpponentUnavailable) {
		t.Fatalf("Step = %v, want ErrOpponentUnavailable", err)
	}
	if !o.Finished() {
		t.Fatalf("game should be finished")
	}
}

func TestStepCancelledContextQuits(t *testing.T) {
	r := heldRules()
	r.turn = Black
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(r, &fakeOpponent{err: context.Canceled}, White)

	if err := o.Step(ctx, nil); !errors.Is(err, ErrQuit) {
		t.Fatalf("Step = %v, want ErrQuit", err)
	}
	if o.Finished() {
		t.Fatalf("cancellation should not finish the game")
	}
}

func TestStepGameOverAfterHumanMove(t *testing.T) {
	r := heldRules()
	r.overAfter = 1
	r.checkmate = true
	opp := &fakeOpponent{}
	rec := &recordingObserver{}
	o := newTestOrchestrator(r, opp, White, rec)

	if err := o.Step(context.Background(), []InputEvent{press("e2"), release("e4")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !o.Finished() || o.Outcome() != HumanWin {
		t.Fatalf("finished=%v outcome=%s", o.Finished(), o.Outcome())
	}
	if err := o.Step(context.Background(), nil); err != nil {
		t.Fatalf("Step after finish: %v", err)
	}
	if opp.calls != 0 {
		t.Fatalf("opponent asked to move after game over")
	}
	if len(rec.finished) != 1 || rec.finished[0].Outcome != HumanWin {
		t.Fatalf("finish reports = %+v", rec.finished)
	}
}

func TestStepGameOverAtStart(t *testing.T) {
	r := heldRules()
	r.gameOver = true
	r.stalemate = true
	o := newTestOrchestrator(r, &fakeOpponent{}, White)

	if err := o.Step(context.Background(), []InputEvent{press("e2")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if o.Outcome() != Stalemate {
		t.Fatalf("outcome = %s", o.Outcome())
	}
	if _, held := o.Selected(); held {
		t.Fatalf("no selection once finished")
	}
}

func TestStepUnclassifiedOutcome(t *testing.T) {
	r := heldRules()
	r.gameOver = true
	o := newTestOrchestrator(r, &fakeOpponent{}, White)

	err := o.Step(context.Background(), nil)
	if !errors.Is(err, ErrUnclassifiedOutcome) {
		t.Fatalf("Step = %v", err)
	}
	if !o.Finished() || o.Outcome() != Unknown {
		t.Fatalf("finished=%v outcome=%s", o.Finished(), o.Outcome())
	}
}

func TestHumanAsBlackOpponentMovesFirst(t *testing.T) {
	r := heldRules()
	opp := &fakeOpponent{moves: []Move{mv("e2e4")}}
	o := newTestOrchestrator(r, opp, Black)

	if o.SideToMove() != Opponent {
		t.Fatalf("opponent should move first when human plays black")
	}
	if err := o.Step(context.Background(), []InputEvent{press("e7")}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if opp.calls != 1 || o.SideToMove() != Human {
		t.Fatalf("calls=%d side=%s", opp.calls, o.SideToMove())
	}
}
