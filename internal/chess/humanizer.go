package chess

import (
	"errors"
	"math/rand"
)

type Candidate struct {
	Move      string
	EvalCP    int
	Principal []string
	// Forced candidates are played without a weighted draw (book moves).
	Forced bool
}

// SelectCandidate picks one of the first PrimaryChoices candidates with the
// preset's weights. A forced candidate among them wins outright.
func SelectCandidate(p DifficultyPreset, candidates []Candidate, r *rand.Rand) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errors.New("no candidates to choose from")
	}
	if err := ValidatePreset(p); err != nil {
		return Candidate{}, err
	}

	limit := min(p.PrimaryChoices, len(candidates))
	for i := 0; i < limit; i++ {
		if candidates[i].Forced {
			return candidates[i], nil
		}
	}
	if limit == 1 || r == nil {
		return candidates[0], nil
	}

	total := 0.0
	for i := 0; i < limit; i++ {
		total += p.CandidateWeights[i]
	}
	if total == 0 {
		return Candidate{}, errors.New("candidate weights sum to zero")
	}

	threshold := r.Float64() * total
	index := limit - 1
	for i := 0; i < limit; i++ {
		threshold -= p.CandidateWeights[i]
		if threshold <= 0 {
			index = i
			break
		}
	}
	return candidates[index], nil
}

// rerank perturbs evaluations by up to ±noise centipawns and reorders the
// candidates so a noisy engine sometimes prefers its second choice.
func rerank(candidates []Candidate, noise int, r *rand.Rand) []Candidate {
	if noise <= 0 || r == nil || len(candidates) < 2 {
		return candidates
	}
	out := append([]Candidate(nil), candidates...)
	for i := range out {
		out[i].EvalCP += r.Intn(2*noise+1) - noise
	}
	// insertion sort keeps equal scores in engine order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].EvalCP > out[j-1].EvalCP; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
