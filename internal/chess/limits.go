package chess

import (
	"fmt"
	"time"

	"github.com/park285/cheese-desk/internal/chess/uci"
)

// SearchLimits turns p into engine limits. A positive budget replaces the
// preset's movetime so the engine never thinks longer than allowed; grace
// only widens the read deadline.
func SearchLimits(p DifficultyPreset, budget, grace time.Duration) (uci.Limits, error) {
	if err := ValidatePreset(p); err != nil {
		return uci.Limits{}, err
	}
	l := uci.Limits{
		Depth:          p.DepthCap,
		MoveTimeMillis: moveTimeMillis(p, budget),
		NodeCap:        p.NodeCap,
		Grace:          grace,
	}
	if l.Depth <= 0 && l.MoveTimeMillis <= 0 && l.NodeCap <= 0 {
		return uci.Limits{}, fmt.Errorf("preset %s does not define search limits", p.Name)
	}
	return l, nil
}

func moveTimeMillis(p DifficultyPreset, budget time.Duration) int {
	if budget <= 0 {
		return p.MoveTimeMillis
	}
	return max(int(budget/time.Millisecond), 1)
}

// FormatGoCommand is the go command the engine receives for p.
func FormatGoCommand(p DifficultyPreset, budget time.Duration) (string, error) {
	l, err := SearchLimits(p, budget, 0)
	if err != nil {
		return "", err
	}
	return l.GoCommand()
}
