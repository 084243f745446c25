package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-desk/internal/game"
)

// PGNHeader holds the tag pairs written before the move text.
type PGNHeader struct {
	Event       string
	Date        time.Time
	White       string
	Black       string
	Result      string
	Termination string
	StartFEN    string
}

// BuildPGN renders SAN moves as PGN. A non-standard start position adds the
// SetUp and FEN tags and numbers the moves from the position's move counter.
func BuildPGN(h PGNHeader, movesSAN []string) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	result := h.Result
	if result == "" {
		result = "*"
	}
	event := h.Event
	if event == "" {
		event = "Cheese Desk"
	}

	fmt.Fprintf(&b, "[Event \"%s\"]\n", sanitizePGN(event))
	b.WriteString("[Site \"local\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(h.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(h.Black))
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	if strings.TrimSpace(h.Termination) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(h.Termination))
	}

	moveNo, blackFirst := 1, false
	if fen := strings.TrimSpace(h.StartFEN); fen != "" && fen != game.StartFEN {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", sanitizePGN(fen))
		moveNo, blackFirst = fenCounters(fen)
	}
	b.WriteString("\n")

	i := 0
	if blackFirst && len(movesSAN) > 0 {
		fmt.Fprintf(&b, "%d... %s ", moveNo, strings.TrimSpace(movesSAN[0]))
		moveNo++
		i = 1
	}
	for ; i < len(movesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s", moveNo, strings.TrimSpace(movesSAN[i]))
		if i+1 < len(movesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(movesSAN[i+1]))
		}
		b.WriteString(" ")
		moveNo++
	}
	b.WriteString(result)
	return b.String()
}

// fenCounters reads the side to move and fullmove number from a FEN.
func fenCounters(fen string) (int, bool) {
	fields := strings.Fields(fen)
	blackFirst := len(fields) > 1 && fields[1] == "b"
	moveNo := 1
	if len(fields) > 5 {
		if _, err := fmt.Sscanf(fields[5], "%d", &moveNo); err != nil || moveNo < 1 {
			moveNo = 1
		}
	}
	return moveNo, blackFirst
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
