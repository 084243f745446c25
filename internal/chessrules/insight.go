package chessrules

import (
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-desk/internal/game"
)

var pieceValues = map[game.PieceKind]int{
	game.Pawn:   1,
	game.Knight: 3,
	game.Bishop: 3,
	game.Rook:   5,
	game.Queen:  9,
}

// Material sums the conventional piece values still on the board.
func (b *Board) Material() (white, black int) {
	for _, p := range b.Pieces() {
		if p.Color == game.White {
			white += pieceValues[p.Kind]
		} else {
			black += pieceValues[p.Kind]
		}
	}
	return white, black
}

// KingSquare locates the king of colour c, NoSquare if it is missing.
func (b *Board) KingSquare(c game.Color) game.Square {
	want := nchess.WhiteKing
	if c == game.Black {
		want = nchess.BlackKing
	}
	for sq, p := range b.game.Position().Board().SquareMap() {
		if p == want {
			return game.Square(sq)
		}
	}
	return game.NoSquare
}

// CheckSquare is the square of the king in check, NoSquare otherwise.
func (b *Board) CheckSquare() game.Square {
	if !b.InCheck() {
		return game.NoSquare
	}
	return b.KingSquare(b.Turn())
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// Opening names the ECO opening reached by the moves so far. Games that
// started from a custom position have no opening.
func (b *Board) Opening() (code, title string) {
	if b.startFEN != game.StartFEN || len(b.uci) == 0 {
		return "", ""
	}
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	if ecoBook == nil {
		return "", ""
	}
	if o := ecoBook.Find(b.game.Moves()); o != nil {
		return o.Code(), o.Title()
	}
	return "", ""
}
