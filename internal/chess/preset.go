package chess

import (
	"fmt"
	"sort"
	"strings"
)

// DifficultyPreset is a strength profile for the opponent: engine options,
// search limits and how far from the best line the humanizer may stray.
type DifficultyPreset struct {
	Name             string
	SkillLevel       int
	Elo              int
	Threads          int
	HashMB           int
	MoveTimeMillis   int
	NodeCap          int
	DepthCap         int
	MultiPV          int
	PrimaryChoices   int
	CandidateWeights []float64
	EvalNoise        int
}

const (
	defaultThreads = 1
	strongThreads  = 4
)

var DefaultPresets = map[string]DifficultyPreset{
	"level1": {
		Name:             "level1",
		SkillLevel:       0,
		Elo:              1320,
		Threads:          defaultThreads,
		HashMB:           16,
		MoveTimeMillis:   50,
		DepthCap:         5,
		MultiPV:          5,
		PrimaryChoices:   3,
		CandidateWeights: []float64{0.5, 0.3, 0.2},
		EvalNoise:        80,
	},
	"level2": {
		Name:             "level2",
		SkillLevel:       1,
		Threads:          defaultThreads,
		HashMB:           16,
		MoveTimeMillis:   100,
		DepthCap:         6,
		MultiPV:          5,
		PrimaryChoices:   3,
		CandidateWeights: []float64{0.6, 0.3, 0.1},
		EvalNoise:        60,
	},
	"level3": {
		Name:             "level3",
		SkillLevel:       3,
		Threads:          defaultThreads,
		HashMB:           24,
		MoveTimeMillis:   150,
		DepthCap:         8,
		MultiPV:          4,
		PrimaryChoices:   3,
		CandidateWeights: []float64{0.7, 0.2, 0.1},
		EvalNoise:        45,
	},
	"level4": {
		Name:             "level4",
		SkillLevel:       5,
		Threads:          defaultThreads,
		HashMB:           32,
		MoveTimeMillis:   200,
		DepthCap:         10,
		MultiPV:          3,
		PrimaryChoices:   3,
		CandidateWeights: []float64{0.65, 0.25, 0.1},
		EvalNoise:        30,
	},
	"level5": {
		Name:             "level5",
		SkillLevel:       8,
		Threads:          defaultThreads,
		HashMB:           48,
		MoveTimeMillis:   300,
		DepthCap:         12,
		MultiPV:          3,
		PrimaryChoices:   2,
		CandidateWeights: []float64{0.8, 0.2},
		EvalNoise:        20,
	},
	"level6": {
		Name:             "level6",
		SkillLevel:       11,
		Threads:          defaultThreads,
		HashMB:           64,
		MoveTimeMillis:   500,
		DepthCap:         16,
		MultiPV:          2,
		PrimaryChoices:   2,
		CandidateWeights: []float64{0.85, 0.15},
		EvalNoise:        10,
	},
	"level7": {
		Name:             "level7",
		SkillLevel:       16,
		Threads:          strongThreads,
		HashMB:           96,
		MoveTimeMillis:   800,
		DepthCap:         20,
		MultiPV:          1,
		PrimaryChoices:   1,
		CandidateWeights: []float64{1.0},
	},
	"level8": {
		Name:             "level8",
		SkillLevel:       20,
		Threads:          strongThreads,
		HashMB:           128,
		MoveTimeMillis:   1000,
		DepthCap:         30,
		MultiPV:          1,
		PrimaryChoices:   1,
		CandidateWeights: []float64{1.0},
	},
}

var presetAliases = map[string]string{
	"beginner":     "level1",
	"casual":       "level3",
	"intermediate": "level5",
	"advanced":     "level7",
	"master":       "level8",
}

func GetPreset(name string) (DifficultyPreset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := presetAliases[key]; ok {
		key = alias
	}
	p, ok := DefaultPresets[key]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown chess preset: %s", name)
	}
	p.CandidateWeights = append([]float64(nil), p.CandidateWeights...)
	return p, nil
}

// PresetNames lists the preset keys followed by their aliases.
func PresetNames() []string {
	names := make([]string, 0, len(DefaultPresets)+len(presetAliases))
	for k := range DefaultPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	aliases := make([]string, 0, len(presetAliases))
	for k := range presetAliases {
		aliases = append(aliases, k)
	}
	sort.Strings(aliases)
	return append(names, aliases...)
}

// SkillPreset plays the engine's best line at the given Skill Level,
// with no humanizer noise.
func SkillPreset(skill int) DifficultyPreset {
	return DifficultyPreset{
		Name:             fmt.Sprintf("skill%d", skill),
		SkillLevel:       skill,
		Threads:          defaultThreads,
		HashMB:           16,
		MultiPV:          1,
		PrimaryChoices:   1,
		CandidateWeights: []float64{1.0},
	}
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.SkillLevel < 0 || p.SkillLevel > 20:
		return fmt.Errorf("skill level %d out of range 0-20", p.SkillLevel)
	case p.Elo < 0:
		return fmt.Errorf("elo must be >= 0: %d", p.Elo)
	case p.Threads <= 0:
		return fmt.Errorf("threads must be > 0: %d", p.Threads)
	case p.HashMB <= 0:
		return fmt.Errorf("hash size must be > 0: %d", p.HashMB)
	case p.MultiPV <= 0:
		return fmt.Errorf("multipv must be > 0: %d", p.MultiPV)
	case p.PrimaryChoices <= 0:
		return fmt.Errorf("primary choices must be > 0: %d", p.PrimaryChoices)
	case p.PrimaryChoices > p.MultiPV:
		return fmt.Errorf("primary choices (%d) must not exceed multipv (%d)", p.PrimaryChoices, p.MultiPV)
	case len(p.CandidateWeights) < p.PrimaryChoices:
		return fmt.Errorf("candidate weights (%d) must cover primary choices (%d)", len(p.CandidateWeights), p.PrimaryChoices)
	case p.MoveTimeMillis < 0 || p.NodeCap < 0 || p.DepthCap < 0:
		return fmt.Errorf("search limits must be >= 0")
	case p.EvalNoise < 0:
		return fmt.Errorf("eval noise must be >= 0: %d", p.EvalNoise)
	}

	sum := 0.0
	for i := 0; i < p.PrimaryChoices; i++ {
		w := p.CandidateWeights[i]
		if w < 0 {
			return fmt.Errorf("candidate weight at index %d is negative: %f", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("candidate weights sum to zero")
	}
	return nil
}
