package uci

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const mateScore = 30000

type Options struct {
	Threads    int
	SkillLevel int
	HashMB     int
	MultiPV    int
	// Elo enables UCI_LimitStrength when > 0.
	Elo int
}

func (o Options) validate() error {
	switch {
	case o.SkillLevel < 0 || o.SkillLevel > 20:
		return fmt.Errorf("skill level %d out of range 0-20", o.SkillLevel)
	case o.HashMB < 0:
		return fmt.Errorf("hash size must be >= 0: %d", o.HashMB)
	case o.MultiPV < 0:
		return fmt.Errorf("multipv must be >= 0: %d", o.MultiPV)
	case o.Elo < 0:
		return fmt.Errorf("elo must be >= 0: %d", o.Elo)
	}
	return nil
}

// lines renders the setoption commands sent after the handshake.
func (o Options) lines() []string {
	out := []string{
		setOptionLine("Threads", max(o.Threads, 1)),
		setOptionLine("Skill Level", o.SkillLevel),
	}
	if o.HashMB > 0 {
		out = append(out, setOptionLine("Hash", o.HashMB))
	}
	if o.MultiPV > 1 {
		out = append(out, setOptionLine("MultiPV", o.MultiPV))
	}
	if o.Elo > 0 {
		out = append(out, setOptionLine("UCI_LimitStrength", true), setOptionLine("UCI_Elo", o.Elo))
	}
	return out
}

func setOptionLine(name string, value any) string {
	return fmt.Sprintf("setoption name %s value %v", name, value)
}

type Limits struct {
	Depth          int
	MoveTimeMillis int
	NodeCap        int
	// Grace is added to the search time to form the read deadline.
	Grace time.Duration
}

// GoCommand renders the go command. At least one limit must be set.
func (l Limits) GoCommand() (string, error) {
	var sb strings.Builder
	sb.WriteString("go")
	add := func(key string, v int) {
		if v > 0 {
			fmt.Fprintf(&sb, " %s %d", key, v)
		}
	}
	add("depth", l.Depth)
	add("movetime", l.MoveTimeMillis)
	add("nodes", l.NodeCap)
	if sb.Len() == len("go") {
		return "", fmt.Errorf("no search limits specified")
	}
	return sb.String(), nil
}

// deadline is how long a search may run before it counts as lost.
func (l Limits) deadline() time.Duration {
	grace := l.Grace
	if grace <= 0 {
		grace = defaultSearchGrace
	}
	switch {
	case l.MoveTimeMillis > 0:
		return time.Duration(l.MoveTimeMillis)*time.Millisecond + grace
	case l.Depth > 0:
		return min(max(time.Duration(l.Depth)*300*time.Millisecond, 6*time.Second), 20*time.Second)
	default:
		return 6 * time.Second
	}
}

func positionLine(fen string, moves []string) string {
	head := "position startpos"
	if fen = strings.TrimSpace(fen); fen != "" && fen != "startpos" {
		head = "position fen " + fen
	}
	if len(moves) == 0 {
		return head
	}
	return head + " moves " + strings.Join(moves, " ")
}

type Candidate struct {
	Move      string
	EvalCP    int
	Principal []string
}

// infoLine is the part of an "info" report a search keeps: the MultiPV slot
// and the line it proposes.
type infoLine struct {
	slot int
	cand Candidate
}

// parseInfo reads an "info" line. Lines without a principal variation
// (strings, currmove updates) report false.
func parseInfo(line string) (infoLine, bool) {
	fields := strings.Fields(line)
	info := infoLine{slot: 1}
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if v, err := strconv.Atoi(fields[i+1]); err == nil {
					info.slot = v
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				continue
			}
			if v, err := strconv.Atoi(fields[i+2]); err == nil {
				info.cand.EvalCP = scoreCP(fields[i+1], v)
			}
			i += 2
		case "pv":
			pv := fields[i+1:]
			if len(pv) == 0 {
				return infoLine{}, false
			}
			info.cand.Move = pv[0]
			info.cand.Principal = append([]string(nil), pv...)
			return info, true
		}
	}
	return infoLine{}, false
}

func scoreCP(kind string, v int) int {
	if kind != "mate" {
		return v
	}
	if v < 0 {
		return -mateScore
	}
	return mateScore
}

// candidateSet keeps the latest line per MultiPV slot.
type candidateSet map[int]Candidate

func (c candidateSet) add(info infoLine) { c[info.slot] = info.cand }

func (c candidateSet) ordered() []Candidate {
	if len(c) == 0 {
		return nil
	}
	slots := make([]int, 0, len(c))
	for slot := range c {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	out := make([]Candidate, len(slots))
	for i, slot := range slots {
		out[i] = c[slot]
	}
	return out
}

// bestMoveOf returns the move of a "bestmove" line, "" when absent.
func bestMoveOf(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
