package game

import "testing"

func TestSquareFromPixel(t *testing.T) {
	m := Mapper{SquareSize: 80}
	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"top-left", 0, 0, "a8"},
		{"bottom-right", 639, 639, "h1"},
		{"b1", 85, 560, "b1"},
		{"e4", 4*80 + 40, 4*80 + 1, "e4"},
		{"square edge", 80, 80, "b7"},
		{"clamp negative", -5, -30, "a8"},
		{"clamp beyond", 900, 700, "h1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.SquareFromPixel(tc.x, tc.y); got.String() != tc.want {
				t.Fatalf("SquareFromPixel(%d,%d) = %s, want %s", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestSquareFromPixelFlipped(t *testing.T) {
	m := Mapper{SquareSize: 80, Flipped: true}
	if got := m.SquareFromPixel(0, 0); got.String() != "h1" {
		t.Fatalf("flipped top-left = %s, want h1", got)
	}
	if got := m.SquareFromPixel(639, 639); got.String() != "a8" {
		t.Fatalf("flipped bottom-right = %s, want a8", got)
	}
}

func TestMapperRoundTrip(t *testing.T) {
	for _, flipped := range []bool{false, true} {
		m := Mapper{SquareSize: 64, Flipped: flipped}
		for s := Square(0); s < 64; s++ {
			x, y := m.PixelOrigin(s)
			if got := m.SquareFromPixel(x, y); got != s {
				t.Fatalf("flipped=%v origin of %s maps back to %s", flipped, s, got)
			}
			cx, cy := m.Center(s)
			if got := m.SquareFromPixel(cx, cy); got != s {
				t.Fatalf("flipped=%v centre of %s maps back to %s", flipped, s, got)
			}
		}
	}
}

func TestMapperContains(t *testing.T) {
	m := Mapper{SquareSize: 10}
	cases := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{79, 79, true},
		{80, 0, false},
		{0, -1, false},
	}
	for _, c := range cases {
		if got := m.Contains(c.x, c.y); got != c.want {
			t.Fatalf("Contains(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove("e7e8q")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if m.From.String() != "e7" || m.To.String() != "e8" || m.Promotion != Queen {
		t.Fatalf("unexpected move %+v", m)
	}
	if m.String() != "e7e8q" {
		t.Fatalf("String() = %s", m.String())
	}
	for _, bad := range []string{"", "e2", "e9e4", "e7e8k", "i2i4"} {
		if _, err := ParseMove(bad); err == nil {
			t.Fatalf("ParseMove(%q) expected error", bad)
		}
	}
}
