package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-desk/internal/game"
)

// drawLastMove fills both squares of a White move and draws an arrow for a
// Black one, so the two sides stay distinguishable on a static picture.
func (r *Renderer) drawLastMove(dst *image.RGBA, f Frame) {
	mv := f.LastMove
	if mv == nil || !mv.From.Valid() || !mv.To.Valid() {
		return
	}
	mover, ok := moverColor(f.Pieces, *mv)
	if ok && mover == game.White {
		r.drawSquareOverlay(dst, mv.From, lastMoveFill)
		r.drawSquareOverlay(dst, mv.To, lastMoveFill)
		return
	}
	r.drawArrow(dst, mv.From, mv.To, lastMoveArrow)
}

func moverColor(pieces map[game.Square]game.Piece, mv game.Move) (game.Color, bool) {
	if p, ok := pieces[mv.To]; ok && p.Kind != game.NoPieceKind {
		return p.Color, true
	}
	if p, ok := pieces[mv.From]; ok && p.Kind != game.NoPieceKind {
		return p.Color, true
	}
	return game.White, false
}

func (r *Renderer) drawArrow(dst *image.RGBA, from, to game.Square, clr color.Color) {
	if from == to {
		return
	}
	size := float64(r.mapper.SquareSize)
	sx, sy := r.mapper.Center(from)
	ex, ey := r.mapper.Center(to)
	dx, dy := float64(ex-sx), float64(ey-sy)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - size*0.45
	if baseLength < size*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := size * 0.09
	headHalf := size * 0.16
	baseX := float64(sx) + dirX*baseLength
	baseY := float64(sy) + dirY*baseLength

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(clr)
	dc.MoveTo(float64(sx)-perpX*halfWidth, float64(sy)-perpY*halfWidth)
	dc.LineTo(baseX-perpX*halfWidth, baseY-perpY*halfWidth)
	dc.LineTo(baseX-perpX*headHalf, baseY-perpY*headHalf)
	dc.LineTo(float64(ex), float64(ey))
	dc.LineTo(baseX+perpX*headHalf, baseY+perpY*headHalf)
	dc.LineTo(baseX+perpX*halfWidth, baseY+perpY*halfWidth)
	dc.LineTo(float64(sx)+perpX*halfWidth, float64(sy)+perpY*halfWidth)
	dc.ClosePath()
	dc.Fill()
}

// drawHints marks each destination of the held piece with a dot in the
// middle of the square.
func (r *Renderer) drawHints(dst *image.RGBA, hints []game.Square) {
	if len(hints) == 0 {
		return
	}
	radius := math.Max(3, float64(r.mapper.SquareSize)/8)
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(hintColor)
	for _, sq := range hints {
		if !sq.Valid() {
			continue
		}
		cx, cy := r.mapper.Center(sq)
		dc.DrawCircle(float64(cx), float64(cy), radius)
		dc.Fill()
	}
}

const (
	bannerMargin   = 12
	bannerPaddingX = 18
	bannerPaddingY = 10
	bannerRadius   = 12
	bannerShadowY  = 5
)

// drawBanner centres text on a rounded panel across the middle of the board.
// The bitmap face is scaled up with nearest-neighbour sampling to stay crisp.
func (r *Renderer) drawBanner(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	board := r.Size()
	maxText := board - 2*(bannerMargin+bannerPaddingX)
	text = truncateWithEllipsis(face, text, maxText)
	if text == "" {
		return
	}
	label := textImage(face, text, bannerText)

	scale := max(r.mapper.SquareSize/24, 1)
	for scale > 1 && label.Bounds().Dx()*scale > maxText {
		scale--
	}
	textW := label.Bounds().Dx() * scale
	textH := label.Bounds().Dy() * scale

	panelW := float64(textW + 2*bannerPaddingX)
	panelH := float64(textH + 2*bannerPaddingY)
	px := (float64(board) - panelW) / 2
	py := (float64(board) - panelH) / 2

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(bannerShadow)
	dc.DrawRoundedRectangle(px, py+bannerShadowY, panelW, panelH, bannerRadius)
	dc.Fill()
	dc.SetColor(bannerPanel)
	dc.DrawRoundedRectangle(px, py, panelW, panelH, bannerRadius)
	dc.Fill()

	tx := int(px) + bannerPaddingX
	ty := int(py) + bannerPaddingY
	xdraw.NearestNeighbor.Scale(dst, image.Rect(tx, ty, tx+textW, ty+textH), label, label.Bounds(), xdraw.Over, nil)
}

// drawCoordinates writes rank numbers in the first column and file letters
// in the last row, in the opposite square colour.
func (r *Renderer) drawCoordinates(dst *image.RGBA) {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{Dst: dst, Face: face}
	size := r.mapper.SquareSize
	const inset = 3

	for i := 0; i < 8; i++ {
		// left column, top to bottom
		left := r.mapper.SquareFromPixel(0, i*size)
		x, y := r.mapper.PixelOrigin(left)
		drawer.Src = image.NewUniform(coordinateColor(left))
		drawer.Dot = fixed.P(x+inset, y+inset+ascent)
		drawer.DrawString(string(rune('1' + left.Rank())))

		// bottom row, left to right
		bottom := r.mapper.SquareFromPixel(i*size, r.Size()-1)
		x, y = r.mapper.PixelOrigin(bottom)
		label := string(rune('a' + bottom.File()))
		width := drawer.MeasureString(label).Ceil()
		drawer.Src = image.NewUniform(coordinateColor(bottom))
		drawer.Dot = fixed.P(x+size-width-inset, y+size-inset-face.Metrics().Descent.Ceil())
		drawer.DrawString(label)
	}
}

func coordinateColor(sq game.Square) color.Color {
	if squareColor(sq) == lightSquare {
		return coordOnLight
	}
	return coordOnDark
}

func textImage(face font.Face, text string, clr color.Color) *image.RGBA {
	metrics := face.Metrics()
	drawer := &font.Drawer{Face: face}
	w := max(drawer.MeasureString(text).Ceil(), 1)
	h := (metrics.Ascent + metrics.Descent).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer.Dst = img
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(0, metrics.Ascent.Ceil())
	drawer.DrawString(text)
	return img
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return ""
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}
