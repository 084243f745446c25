package game

import (
	"context"
	"errors"
	"time"
)

type fakeRules struct {
	turn     Color
	pieces   map[Square]Piece
	legal    []Move
	applied  []Move
	applyErr error

	overAfter    int
	gameOver     bool
	checkmate    bool
	stalemate    bool
	insufficient bool
	seventyFive  bool
	fivefold     bool
	claimable    bool
}

func newFakeRules() *fakeRules {
	return &fakeRules{turn: White, pieces: make(map[Square]Piece)}
}

func sq(text string) Square {
	s, err := ParseSquare(text)
	if err != nil {
		panic(err)
	}
	return s
}

func mv(text string) Move {
	m, err := ParseMove(text)
	if err != nil {
		panic(err)
	}
	return m
}

func (f *fakeRules) put(square string, kind PieceKind, c Color) {
	f.pieces[sq(square)] = Piece{Kind: kind, Color: c}
}

func (f *fakeRules) PieceAt(s Square) (Piece, bool) {
	p, ok := f.pieces[s]
	return p, ok
}

func (f *fakeRules) LegalMoves(c Color) []Move {
	if c != f.turn {
		return nil
	}
	return f.legal
}

func (f *fakeRules) ApplyMove(m Move) (Move, error) {
	if f.applyErr != nil {
		return Move{}, f.applyErr
	}
	for _, legal := range f.legal {
		if m.Promotion == NoPieceKind && legal.From == m.From && legal.To == m.To {
			m = legal
			break
		}
	}
	f.applied = append(f.applied, m)
	if p, ok := f.pieces[m.From]; ok {
		delete(f.pieces, m.From)
		f.pieces[m.To] = p
	}
	f.turn = f.turn.Other()
	if f.overAfter > 0 && len(f.applied) >= f.overAfter {
		f.gameOver = true
	}
	return m, nil
}

func (f *fakeRules) Turn() Color { return f.turn }

func (f *fakeRules) Position() Position {
	moves := make([]string, 0, len(f.applied))
	for _, m := range f.applied {
		moves = append(moves, m.String())
	}
	return Position{StartFEN: StartFEN, Moves: moves}
}

func (f *fakeRules) IsGameOver() bool             { return f.gameOver }
func (f *fakeRules) IsCheckmate() bool            { return f.checkmate }
func (f *fakeRules) IsStalemate() bool            { return f.stalemate }
func (f *fakeRules) IsInsufficientMaterial() bool { return f.insufficient }
func (f *fakeRules) IsSeventyFiveMoves() bool     { return f.seventyFive }
func (f *fakeRules) IsFivefoldRepetition() bool   { return f.fivefold }
func (f *fakeRules) CanClaimDraw() bool           { return f.claimable }

type fakeOpponent struct {
	moves      []Move
	err        error
	calls      int
	lastPos    Position
	lastBudget time.Duration
}

func (f *fakeOpponent) Configure(ctx context.Context, strength int) error { return nil }

func (f *fakeOpponent) RequestMove(ctx context.Context, pos Position, budget time.Duration) (Move, error) {
	f.calls++
	f.lastPos = pos
	f.lastBudget = budget
	if f.err != nil {
		return Move{}, f.err
	}
	if len(f.moves) == 0 {
		return Move{}, errors.New("no scripted move")
	}
	next := f.moves[0]
	f.moves = f.moves[1:]
	return next, nil
}

type recordingObserver struct {
	moves    []MoveRecord
	finished []Report
}

func (r *recordingObserver) MoveApplied(rec MoveRecord) { r.moves = append(r.moves, rec) }
func (r *recordingObserver) GameFinished(rep Report)    { r.finished = append(r.finished, rep) }
