package game

import (
	"context"
	"time"
)

// Rules is the chess rules oracle. It owns the board; the orchestrator only
// mutates it through ApplyMove.
type Rules interface {
	PieceAt(sq Square) (Piece, bool)
	// LegalMoves returns the legal moves of c, empty when c is not to move.
	LegalMoves(c Color) []Move
	// ApplyMove plays a legal move and returns it as played. A move without
	// promotion that matches a promoting pawn move promotes to a queen.
	ApplyMove(m Move) (Move, error)
	Turn() Color
	// Position snapshots the game for the opponent.
	Position() Position

	IsGameOver() bool
	IsCheckmate() bool
	IsStalemate() bool
	IsInsufficientMaterial() bool
	IsSeventyFiveMoves() bool
	IsFivefoldRepetition() bool
	CanClaimDraw() bool
}

// MoveSource produces the non-human side's moves.
type MoveSource interface {
	// Configure sets the playing strength once, before the first move.
	Configure(ctx context.Context, strength int) error
	// RequestMove returns a legal move for pos within budget. It fails with
	// ErrOpponentTimeout or ErrOpponentUnavailable, never with a null move.
	RequestMove(ctx context.Context, pos Position, budget time.Duration) (Move, error)
}
