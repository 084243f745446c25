// Package openingbook reads polyglot opening books.
package openingbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Result is one book reply in UCI notation.
type Result struct {
	Move   string
	Weight uint16
}

type Book struct {
	path    string
	entries *nchess.PolyglotBook
}

// Open loads a polyglot .bin file from disk.
func Open(path string) (*Book, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("polyglot book path required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open polyglot book %q: %w", path, err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load polyglot book %q: %w", path, err)
	}
	b.path = path
	return b, nil
}

// Load reads polyglot entries from r.
func Load(r io.Reader) (*Book, error) {
	entries, err := nchess.LoadFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Book{entries: entries}, nil
}

// Path is the file the book came from, empty for Load.
func (b *Book) Path() string { return b.path }

var searchDirs = []string{
	filepath.Join("resources", "opening"),
	"books",
}

var searchNames = []string{"book.bin", "Cerebellum3Merge.bin"}

// ResolvePath returns explicit when it exists. Without an explicit path
// the first book found under the search directories wins; "" means the
// desk plays without a book.
func ResolvePath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if !isFile(explicit) {
			return "", fmt.Errorf("polyglot book not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, dir := range searchDirs {
		for _, name := range searchNames {
			if p := filepath.Join(dir, name); isFile(p) {
				return p, nil
			}
		}
	}
	return "", nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Lookup returns the heaviest book reply, or a zero Result on a miss.
func (b *Book) Lookup(fen string, moves []string) (Result, error) {
	all, err := b.Moves(fen, moves)
	if err != nil || len(all) == 0 {
		return Result{}, err
	}
	return all[0], nil
}

// Moves lists the legal book replies for the position reached from fen by
// moves, heaviest first. Entries that do not replay (hash collisions) are
// dropped.
func (b *Book) Moves(fen string, moves []string) ([]Result, error) {
	if b == nil || b.entries == nil {
		return nil, nil
	}
	g, err := replay(fen, moves)
	if err != nil {
		return nil, err
	}
	hash, err := nchess.NewZobristHasher().HashPosition(g.FEN())
	if err != nil {
		return nil, fmt.Errorf("polyglot hash: %w", err)
	}
	found := b.entries.FindMoves(nchess.ZobristHashToUint64(hash))

	out := make([]Result, 0, len(found))
	for _, e := range found {
		decoded := nchess.DecodeMove(e.Move).ToMove()
		mv := kingCastle(g, decoded.String())
		if g.Clone().PushNotationMove(mv, nchess.UCINotation{}, nil) != nil {
			continue
		}
		out = append(out, Result{Move: mv, Weight: e.Weight})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

// polyglot writes castling as king-takes-rook
var castleTargets = map[string]string{
	"e1h1": "e1g1",
	"e1a1": "e1c1",
	"e8h8": "e8g8",
	"e8a8": "e8c8",
}

func kingCastle(g *nchess.Game, mv string) string {
	to, ok := castleTargets[mv]
	if !ok {
		return mv
	}
	from := nchess.E1
	king := nchess.WhiteKing
	if mv[1] == '8' {
		from, king = nchess.E8, nchess.BlackKing
	}
	if g.Position().Board().Piece(from) != king {
		return mv
	}
	return to
}

func replay(fen string, moves []string) (*nchess.Game, error) {
	g := nchess.NewGame()
	if fen = strings.TrimSpace(fen); fen != "" && fen != "startpos" {
		opt, err := nchess.FEN(fen)
		if err != nil {
			return nil, fmt.Errorf("parse fen %q: %w", fen, err)
		}
		g = nchess.NewGame(opt)
	}
	for i, mv := range moves {
		if err := g.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay ply %d %q: %w", i+1, mv, err)
		}
	}
	return g, nil
}
