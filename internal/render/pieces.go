package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/cheese-desk/internal/game"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type pieceCacheKey struct {
	piece game.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]*image.RGBA{}
	pieceCacheMu sync.RWMutex
)

// pieceImage rasterizes the piece glyph at size x size pixels. Results are
// cached per piece and size.
func pieceImage(piece game.Piece, size int) (*image.RGBA, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	img, ok := pieceCache[key]
	pieceCacheMu.RUnlock()
	if ok {
		return img, nil
	}

	name, err := pieceAssetName(piece)
	if err != nil {
		return nil, err
	}
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img = image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}

var assetLetters = map[game.PieceKind]string{
	game.King:   "K",
	game.Queen:  "Q",
	game.Rook:   "R",
	game.Bishop: "B",
	game.Knight: "N",
	game.Pawn:   "P",
}

func pieceAssetName(piece game.Piece) (string, error) {
	suffix, ok := assetLetters[piece.Kind]
	if !ok {
		return "", fmt.Errorf("no asset for %s", piece)
	}
	prefix := "w"
	if piece.Color == game.Black {
		prefix = "b"
	}
	return fmt.Sprintf("assets/pieces/%s%s.svg", prefix, suffix), nil
}

// sanitizeSVG normalizes inline style colors oksvg refuses to parse.
func sanitizeSVG(svg []byte) []byte {
	replacer := [][2]string{
		{"fill:000000", "fill:#000000"},
		{"fill: #", "fill:#"},
		{"stroke: #", "stroke:#"},
		{"stop-color: #", "stop-color:#"},
	}
	for _, r := range replacer {
		svg = bytes.ReplaceAll(svg, []byte(r[0]), []byte(r[1]))
	}
	return svg
}
