package game

import (
	"fmt"
	"sort"
)

type SelectionState uint8

const (
	Idle SelectionState = iota
	PieceHeld
)

func (s SelectionState) String() string {
	if s == PieceHeld {
		return "piece-held"
	}
	return "idle"
}

// Selection tracks the piece picked up by a press until the matching
// release turns it into a move attempt.
type Selection struct {
	rules  Rules
	state  SelectionState
	square Square
	piece  Piece
}

func NewSelection(r Rules) *Selection {
	return &Selection{rules: r, square: NoSquare}
}

func (s *Selection) State() SelectionState { return s.state }

// Held returns the held square and piece.
func (s *Selection) Held() (Square, Piece, bool) {
	if s.state != PieceHeld {
		return NoSquare, Piece{}, false
	}
	return s.square, s.piece, true
}

// OnPress picks up the piece on sq if it belongs to toMove. Presses while a
// piece is already held are ignored.
func (s *Selection) OnPress(sq Square, toMove Color) {
	if s.state != Idle || !sq.Valid() {
		return
	}
	piece, ok := s.rules.PieceAt(sq)
	if !ok || piece.Color != toMove {
		return
	}
	s.state = PieceHeld
	s.square = sq
	s.piece = piece
}

// OnRelease attempts the move from the held square to sq. It reports true
// and the move as the rules played it when the move was legal. An illegal
// target just drops the piece; the returned error is reserved for the rules
// rejecting a move it listed as legal.
func (s *Selection) OnRelease(sq Square) (Move, bool, error) {
	if s.state != PieceHeld {
		return Move{}, false, nil
	}
	from, color := s.square, s.piece.Color
	s.Deselect()

	if !sq.Valid() || !containsMove(s.rules.LegalMoves(color), from, sq) {
		return Move{}, false, nil
	}
	mv := Move{From: from, To: sq}
	played, err := s.rules.ApplyMove(mv)
	if err != nil {
		return Move{}, false, fmt.Errorf("apply %s: %w", mv, err)
	}
	return played, true, nil
}

func (s *Selection) Deselect() {
	s.state = Idle
	s.square = NoSquare
	s.piece = Piece{}
}

// PossibleDestinations lists the target squares of the held piece in
// ascending order, each at most once.
func (s *Selection) PossibleDestinations() []Square {
	if s.state != PieceHeld {
		return nil
	}
	seen := make(map[Square]struct{})
	out := make([]Square, 0, 8)
	for _, mv := range s.rules.LegalMoves(s.piece.Color) {
		if mv.From != s.square {
			continue
		}
		if _, dup := seen[mv.To]; dup {
			continue
		}
		seen[mv.To] = struct{}{}
		out = append(out, mv.To)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsMove(moves []Move, from, to Square) bool {
	for _, mv := range moves {
		if mv.From == from && mv.To == to {
			return true
		}
	}
	return false
}
