// Package chessrules adapts github.com/corentings/chess/v2 to game.Rules.
package chessrules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-desk/internal/game"
)

// Board is a game.Rules backed by a corentings game. It also keeps the UCI
// and SAN history for the opponent and the archive.
type Board struct {
	game     *nchess.Game
	startFEN string
	uci      []string
	san      []string
}

func New() *Board {
	return &Board{game: nchess.NewGame(), startFEN: game.StartFEN}
}

// FromFEN starts from an arbitrary position. Empty or "startpos" means the
// standard initial position.
func FromFEN(fen string) (*Board, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return New(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &Board{game: nchess.NewGame(opt), startFEN: fen}, nil
}

func (b *Board) PieceAt(sq game.Square) (game.Piece, bool) {
	if !sq.Valid() {
		return game.Piece{}, false
	}
	p := b.game.Position().Board().Piece(nchess.Square(sq))
	if p == nchess.NoPiece {
		return game.Piece{}, false
	}
	return game.Piece{Kind: kindFrom(p.Type()), Color: colorFrom(p.Color())}, true
}

func (b *Board) LegalMoves(c game.Color) []game.Move {
	if b.Turn() != c {
		return nil
	}
	valid := b.game.ValidMoves()
	out := make([]game.Move, 0, len(valid))
	for i := range valid {
		out = append(out, moveFrom(&valid[i]))
	}
	return out
}

// ApplyMove plays m. Without an explicit promotion a promoting pawn move
// becomes a queen promotion. The returned move carries the promotion that
// was played.
func (b *Board) ApplyMove(m game.Move) (game.Move, error) {
	chosen, err := b.resolve(m)
	if err != nil {
		return game.Move{}, err
	}
	played := moveFrom(chosen)
	pos := b.game.Position()
	san := nchess.AlgebraicNotation{}.Encode(pos, chosen)
	uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, chosen))
	if err := b.game.Move(chosen, nil); err != nil {
		return game.Move{}, fmt.Errorf("apply %s: %w", m, err)
	}
	b.uci = append(b.uci, uci)
	b.san = append(b.san, san)
	return played, nil
}

func (b *Board) resolve(m game.Move) (*nchess.Move, error) {
	if b.game.Outcome() != nchess.NoOutcome {
		return nil, fmt.Errorf("move %s: game already finished", m)
	}
	valid := b.game.ValidMoves()
	var fallback *nchess.Move
	for i := range valid {
		cand := &valid[i]
		if game.Square(cand.S1()) != m.From || game.Square(cand.S2()) != m.To {
			continue
		}
		promo := kindFrom(cand.Promo())
		if m.Promotion != game.NoPieceKind {
			if promo == m.Promotion {
				return cand, nil
			}
			continue
		}
		if promo == game.NoPieceKind || promo == game.Queen {
			return cand, nil
		}
		if fallback == nil {
			fallback = cand
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("move %s is not legal in %s", m, b.game.FEN())
}

func (b *Board) Turn() game.Color { return colorFrom(b.game.Position().Turn()) }

func (b *Board) Position() game.Position {
	return game.Position{
		StartFEN: b.startFEN,
		FEN:      b.game.FEN(),
		Moves:    append([]string(nil), b.uci...),
	}
}

func (b *Board) IsGameOver() bool { return b.game.Outcome() != nchess.NoOutcome }

func (b *Board) IsCheckmate() bool { return b.game.Method() == nchess.Checkmate }

func (b *Board) IsStalemate() bool { return b.game.Method() == nchess.Stalemate }

func (b *Board) IsInsufficientMaterial() bool {
	return b.game.Method() == nchess.InsufficientMaterial
}

func (b *Board) IsSeventyFiveMoves() bool {
	return b.game.Method() == nchess.SeventyFiveMoveRule
}

func (b *Board) IsFivefoldRepetition() bool {
	return b.game.Method() == nchess.FivefoldRepetition
}

// CanClaimDraw reports a threefold repetition or fifty-move claim. It never
// applies the draw.
func (b *Board) CanClaimDraw() bool {
	for _, m := range b.game.EligibleDraws() {
		if m == nchess.ThreefoldRepetition || m == nchess.FiftyMoveRule {
			return true
		}
	}
	return false
}

// UCIHistory returns the moves played so far in UCI notation.
func (b *Board) UCIHistory() []string { return append([]string(nil), b.uci...) }

// SANHistory returns the moves played so far in SAN.
func (b *Board) SANHistory() []string { return append([]string(nil), b.san...) }

func (b *Board) FEN() string { return b.game.FEN() }

func (b *Board) StartFEN() string { return b.startFEN }

// Pieces snapshots every occupied square.
func (b *Board) Pieces() map[game.Square]game.Piece {
	sm := b.game.Position().Board().SquareMap()
	out := make(map[game.Square]game.Piece, len(sm))
	for sq, p := range sm {
		if p == nchess.NoPiece {
			continue
		}
		out[game.Square(sq)] = game.Piece{Kind: kindFrom(p.Type()), Color: colorFrom(p.Color())}
	}
	return out
}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	moves := b.game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

func moveFrom(m *nchess.Move) game.Move {
	return game.Move{
		From:      game.Square(m.S1()),
		To:        game.Square(m.S2()),
		Promotion: kindFrom(m.Promo()),
	}
}

func colorFrom(c nchess.Color) game.Color {
	if c == nchess.Black {
		return game.Black
	}
	return game.White
}

func kindFrom(t nchess.PieceType) game.PieceKind {
	switch t {
	case nchess.Pawn:
		return game.Pawn
	case nchess.Knight:
		return game.Knight
	case nchess.Bishop:
		return game.Bishop
	case nchess.Rook:
		return game.Rook
	case nchess.Queen:
		return game.Queen
	case nchess.King:
		return game.King
	default:
		return game.NoPieceKind
	}
}
