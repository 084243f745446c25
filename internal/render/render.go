// Package render composes board frames: squares, pieces, selection and
// move hints, last-move markers and the result banner.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/park285/cheese-desk/internal/game"
)

const minSquareSize = 16

// Frame is everything the renderer needs for one picture of the board.
// Use NewFrame so the optional squares start empty.
type Frame struct {
	Pieces   map[game.Square]game.Piece
	Selected game.Square
	Hints    []game.Square
	LastMove *game.Move
	Check    game.Square
	Banner   string
}

func NewFrame(pieces map[game.Square]game.Piece) Frame {
	return Frame{Pieces: pieces, Selected: game.NoSquare, Check: game.NoSquare}
}

type Renderer struct {
	mapper      game.Mapper
	coordinates bool
}

type Option func(*Renderer)

// WithCoordinates toggles the file and rank labels along the board edge.
func WithCoordinates(on bool) Option {
	return func(r *Renderer) { r.coordinates = on }
}

func New(mapper game.Mapper, opts ...Option) (*Renderer, error) {
	if mapper.SquareSize < minSquareSize {
		return nil, fmt.Errorf("square size %d below minimum %d", mapper.SquareSize, minSquareSize)
	}
	r := &Renderer{mapper: mapper, coordinates: true}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) Mapper() game.Mapper { return r.mapper }

// Size is the edge length of the square picture in pixels.
func (r *Renderer) Size() int { return r.mapper.BoardSize() }

// Compose draws f into a new image of Size x Size pixels.
func (r *Renderer) Compose(f Frame) (*image.RGBA, error) {
	size := r.Size()
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	r.drawSquares(img)
	r.drawLastMove(img, f)
	if f.Selected.Valid() {
		r.drawSquareOverlay(img, f.Selected, selectedFill)
	}
	if f.Check.Valid() {
		r.drawSquareOverlay(img, f.Check, checkFill)
	}
	if r.coordinates {
		r.drawCoordinates(img)
	}
	if err := r.drawPieces(img, f.Pieces); err != nil {
		return nil, err
	}
	r.drawHints(img, f.Hints)
	if f.Banner != "" {
		r.drawBanner(img, f.Banner)
	}
	return img, nil
}

// RenderPNG composes f and encodes it as PNG.
func (r *Renderer) RenderPNG(ctx context.Context, f Frame) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := r.Compose(f)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	lightSquare    = color.RGBA{233, 236, 239, 255}
	darkSquare     = color.RGBA{125, 135, 150, 255}
	selectedFill   = color.NRGBA{R: 182, G: 184, B: 190, A: 130}
	lastMoveFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	lastMoveArrow  = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	checkFill      = color.NRGBA{R: 220, G: 40, B: 40, A: 120}
	hintColor      = color.NRGBA{R: 135, G: 24, B: 16, A: 255}
	bannerPanel    = color.NRGBA{R: 28, G: 31, B: 46, A: 235}
	bannerShadow   = color.NRGBA{0, 0, 0, 60}
	bannerText     = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordOnLight   = darkSquare
	coordOnDark    = lightSquare
	transparentSrc = image.NewUniform(color.Transparent)
)

func squareColor(sq game.Square) color.Color {
	if (sq.File()+sq.Rank())%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func (r *Renderer) squareRect(sq game.Square) image.Rectangle {
	x, y := r.mapper.PixelOrigin(sq)
	return image.Rect(x, y, x+r.mapper.SquareSize, y+r.mapper.SquareSize)
}

func (r *Renderer) drawSquares(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), transparentSrc, image.Point{}, draw.Src)
	for i := 0; i < 64; i++ {
		sq := game.Square(i)
		draw.Draw(dst, r.squareRect(sq), image.NewUniform(squareColor(sq)), image.Point{}, draw.Src)
	}
}

func (r *Renderer) drawPieces(dst *image.RGBA, pieces map[game.Square]game.Piece) error {
	for sq, piece := range pieces {
		if !sq.Valid() || piece.Kind == game.NoPieceKind {
			continue
		}
		img, err := pieceImage(piece, r.mapper.SquareSize)
		if err != nil {
			return err
		}
		draw.Draw(dst, r.squareRect(sq), img, image.Point{}, draw.Over)
	}
	return nil
}

func (r *Renderer) drawSquareOverlay(dst *image.RGBA, sq game.Square, clr color.Color) {
	draw.Draw(dst, r.squareRect(sq), image.NewUniform(clr), image.Point{}, draw.Over)
}
