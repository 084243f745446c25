package chessrules

import (
	"strings"
	"testing"

	"github.com/park285/cheese-desk/internal/game"
)

func TestMaterial(t *testing.T) {
	b := New()
	w, bl := b.Material()
	if w != 39 || bl != 39 {
		t.Fatalf("start material = %d/%d", w, bl)
	}
	// 1.e4 d5 2.exd5 wins a pawn
	play(t, b, "e2e4", "d7d5", "e4d5")
	w, bl = b.Material()
	if w != 39 || bl != 38 {
		t.Fatalf("material after exd5 = %d/%d", w, bl)
	}
}

func TestCheckSquare(t *testing.T) {
	b := New()
	if sq := b.CheckSquare(); sq != game.NoSquare {
		t.Fatalf("no check at start, got %s", sq)
	}
	if sq := b.KingSquare(game.Black); sq.String() != "e8" {
		t.Fatalf("black king = %s", sq)
	}
	play(t, b, "e2e4", "f7f6", "d2d4", "g7g5", "d1h5")
	if sq := b.CheckSquare(); sq.String() != "e8" {
		t.Fatalf("check square = %s, want e8", sq)
	}
}

func TestOpeningName(t *testing.T) {
	b := New()
	if code, _ := b.Opening(); code != "" {
		t.Fatalf("no opening before the first move, got %s", code)
	}
	play(t, b, "e2e4", "e7e5", "g1f3", "b8c6", "f1b5")
	code, title := b.Opening()
	if !strings.HasPrefix(code, "C6") || title == "" {
		t.Fatalf("opening = %q %q", code, title)
	}

	custom := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	play(t, custom, "e2e4")
	if code, _ := custom.Opening(); code != "" {
		t.Fatalf("custom start must not name an opening, got %s", code)
	}
}
