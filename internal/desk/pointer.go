package desk

import "github.com/park285/cheese-desk/internal/game"

// Pointer is the raw input state sampled once per frame.
type Pointer struct {
	X, Y    int
	Down    bool
	Closing bool
}

// PointerTracker turns sampled button state into press and release edges.
type PointerTracker struct {
	prevDown bool
}

// Events returns the edges since the previous sample. A closing window
// yields a single Quit.
func (t *PointerTracker) Events(p Pointer) []game.InputEvent {
	if p.Closing {
		return []game.InputEvent{{Kind: game.Quit}}
	}
	var out []game.InputEvent
	switch {
	case p.Down && !t.prevDown:
		out = append(out, game.InputEvent{Kind: game.Press, X: p.X, Y: p.Y})
	case !p.Down && t.prevDown:
		out = append(out, game.InputEvent{Kind: game.Release, X: p.X, Y: p.Y})
	}
	t.prevDown = p.Down
	return out
}
