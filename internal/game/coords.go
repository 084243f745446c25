package game

// Mapper converts window pixels to board squares for a square board of
// 8*SquareSize pixels with its origin in the top-left corner. Rank 8 is the
// top row unless Flipped, in which case the board is seen from Black.
type Mapper struct {
	SquareSize int
	Flipped    bool
}

func (m Mapper) BoardSize() int { return m.SquareSize * 8 }

// Contains reports whether the pixel lies on the board.
func (m Mapper) Contains(x, y int) bool {
	size := m.BoardSize()
	return m.SquareSize > 0 && x >= 0 && y >= 0 && x < size && y < size
}

// SquareFromPixel maps a pixel to the square under it. Coordinates outside
// the board are clamped to the nearest edge square.
func (m Mapper) SquareFromPixel(x, y int) Square {
	if m.SquareSize <= 0 {
		return NoSquare
	}
	col := clamp(floorDiv(x, m.SquareSize))
	row := clamp(floorDiv(y, m.SquareSize))
	file, rank := col, 7-row
	if m.Flipped {
		file, rank = 7-col, row
	}
	return NewSquare(file, rank)
}

// PixelOrigin returns the top-left pixel of the square.
func (m Mapper) PixelOrigin(sq Square) (int, int) {
	col, row := sq.File(), 7-sq.Rank()
	if m.Flipped {
		col, row = 7-sq.File(), sq.Rank()
	}
	return col * m.SquareSize, row * m.SquareSize
}

// Center returns the middle pixel of the square.
func (m Mapper) Center(sq Square) (int, int) {
	x, y := m.PixelOrigin(sq)
	half := m.SquareSize / 2
	return x + half, y + half
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 7 {
		return 7
	}
	return v
}
