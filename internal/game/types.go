// Package game holds the turn orchestration core: pointer-to-square mapping,
// the piece selection state machine, the turn loop and outcome
// classification. Chess legality lives behind Rules and move search behind
// MoveSource.
package game

import (
	"fmt"
	"strings"
)

// Square indexes the board from a1 (0) to h8 (63), file + rank*8.
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(file + rank*8)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(text string) (Square, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", text)
	}
	file := int(text[0] - 'a')
	rank := int(text[1] - '1')
	sq := NewSquare(file, rank)
	if sq == NoSquare {
		return NoSquare, fmt.Errorf("invalid square %q", text)
	}
	return sq, nil
}

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(text string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", text)
	}
}

// Side names who is at the board, independent of colour.
type Side uint8

const (
	Human Side = iota
	Opponent
)

func (s Side) String() string {
	if s == Human {
		return "human"
	}
	return "opponent"
}

type PieceKind uint8

const (
	NoPieceKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceKindNames = [...]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k PieceKind) String() string {
	if int(k) < len(pieceKindNames) {
		return pieceKindNames[k]
	}
	return "unknown"
}

// Letter is the lower-case UCI promotion letter, empty for pawns and kings.
func (k PieceKind) Letter() string {
	switch k {
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	default:
		return ""
	}
}

func pieceKindFromLetter(b byte) PieceKind {
	switch b {
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'r', 'R':
		return Rook
	case 'q', 'Q':
		return Queen
	default:
		return NoPieceKind
	}
}

type Piece struct {
	Kind  PieceKind
	Color Color
}

func (p Piece) String() string {
	return p.Color.String() + " " + p.Kind.String()
}

// Move is a from/to pair. Promotion stays NoPieceKind for moves built from
// pointer input; the rules implementation picks the piece.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
}

// String renders the move in UCI long algebraic form ("e7e8q").
func (m Move) String() string {
	return m.From.String() + m.To.String() + m.Promotion.Letter()
}

// ParseMove reads UCI long algebraic notation.
func ParseMove(text string) (Move, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 4 && len(text) != 5 {
		return Move{}, fmt.Errorf("invalid move %q", text)
	}
	from, err := ParseSquare(text[:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", text, err)
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", text, err)
	}
	mv := Move{From: from, To: to}
	if len(text) == 5 {
		mv.Promotion = pieceKindFromLetter(text[4])
		if mv.Promotion == NoPieceKind {
			return Move{}, fmt.Errorf("invalid promotion in %q", text)
		}
	}
	return mv, nil
}

// Position is the read-only handle given to the opponent: the starting FEN
// plus the UCI moves played since, and the current FEN for convenience.
type Position struct {
	StartFEN string
	FEN      string
	Moves    []string
}

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
