package game

import (
	"errors"
	"testing"
)

func heldRules() *fakeRules {
	r := newFakeRules()
	r.put("e2", Pawn, White)
	r.put("g1", Knight, White)
	r.put("e7", Pawn, Black)
	r.legal = []Move{mv("e2e3"), mv("e2e4"), mv("g1f3"), mv("g1h3")}
	return r
}

func TestSelectionPressEmptyOrForeign(t *testing.T) {
	r := heldRules()
	s := NewSelection(r)

	s.OnPress(sq("e4"), White)
	if s.State() != Idle {
		t.Fatalf("press on empty square should stay idle")
	}
	s.OnPress(sq("e7"), White)
	if s.State() != Idle {
		t.Fatalf("press on opponent piece should stay idle")
	}
	if got := s.PossibleDestinations(); len(got) != 0 {
		t.Fatalf("idle destinations = %v, want none", got)
	}
}

func TestSelectionPressOwnPiece(t *testing.T) {
	s := NewSelection(heldRules())
	s.OnPress(sq("g1"), White)

	held, piece, ok := s.Held()
	if !ok || held != sq("g1") || piece.Kind != Knight {
		t.Fatalf("held = %s %v %v", held, piece, ok)
	}
	got := s.PossibleDestinations()
	if len(got) != 2 || got[0] != sq("f3") || got[1] != sq("h3") {
		t.Fatalf("destinations = %v", got)
	}
}

func TestSelectionSecondPressIgnored(t *testing.T) {
	s := NewSelection(heldRules())
	s.OnPress(sq("g1"), White)
	s.OnPress(sq("e2"), White)
	if held, _, _ := s.Held(); held != sq("g1") {
		t.Fatalf("second press changed selection to %s", held)
	}
}

func TestSelectionIllegalRelease(t *testing.T) {
	r := heldRules()
	s := NewSelection(r)
	s.OnPress(sq("e2"), White)

	_, applied, err := s.OnRelease(sq("e5"))
	if err != nil || applied {
		t.Fatalf("illegal release = %v, %v", applied, err)
	}
	if s.State() != Idle {
		t.Fatalf("illegal release should return to idle")
	}
	if len(r.applied) != 0 {
		t.Fatalf("illegal move reached rules: %v", r.applied)
	}
}

func TestSelectionLegalRelease(t *testing.T) {
	r := heldRules()
	s := NewSelection(r)
	s.OnPress(sq("e2"), White)

	played, applied, err := s.OnRelease(sq("e4"))
	if err != nil || !applied || played.String() != "e2e4" {
		t.Fatalf("legal release = %s, %v, %v", played, applied, err)
	}
	if len(r.applied) != 1 || r.applied[0].String() != "e2e4" {
		t.Fatalf("applied = %v", r.applied)
	}
	if s.State() != Idle {
		t.Fatalf("selection should be idle after move")
	}
}

func TestSelectionReleaseWhileIdle(t *testing.T) {
	r := heldRules()
	s := NewSelection(r)
	_, applied, err := s.OnRelease(sq("e4"))
	if applied || err != nil || len(r.applied) != 0 {
		t.Fatalf("idle release = %v, %v, applied %v", applied, err, r.applied)
	}
}

func TestSelectionApplyFailure(t *testing.T) {
	r := heldRules()
	r.applyErr = errors.New("boom")
	s := NewSelection(r)
	s.OnPress(sq("e2"), White)

	_, applied, err := s.OnRelease(sq("e4"))
	if applied || err == nil {
		t.Fatalf("expected apply error, got %v, %v", applied, err)
	}
	if s.State() != Idle {
		t.Fatalf("selection should be idle after failure")
	}
}

func TestPossibleDestinationsDedupSorted(t *testing.T) {
	r := newFakeRules()
	r.put("b7", Pawn, White)
	r.legal = []Move{
		mv("b7b8q"), mv("b7b8n"), mv("b7a8q"), mv("b7a8r"), mv("b7c8b"),
	}
	s := NewSelection(r)
	s.OnPress(sq("b7"), White)

	got := s.PossibleDestinations()
	want := []Square{sq("a8"), sq("b8"), sq("c8")}
	if len(got) != len(want) {
		t.Fatalf("destinations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("destinations = %v, want %v", got, want)
		}
	}
}
