package searcher

import (
	"sort"
)

// DefaultAlpha weights the semantic signal in hybrid fusion.
const DefaultAlpha = 0.6

// flatRange is the spread below which a score list is treated as constant.
const flatRange = 1e-9

// Candidate is one chunk considered by hybrid fusion.
type Candidate struct {
	// Position is the chunk's index in the corpus.
	Position int

	// Semantic is the raw inner-product score, 0 if the chunk was not a
	// semantic candidate.
	Semantic float64

	// Lexical is the raw BM25 score.
	Lexical float64

	// Fused is set by Fuse.
	Fused float64
}

// MinMaxNormalize rescales scores to [0, 1]. When the spread is below 1e-9
// every score maps to 1.0. An empty input returns an empty slice.
func MinMaxNormalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	spread := hi - lo
	for i, s := range scores {
		if spread < flatRange {
			out[i] = 1.0
			continue
		}
		out[i] = (s - lo) / spread
	}
	return out
}

// Fuse normalizes the semantic and lexical scores of the candidates
// independently, sets Fused = alpha*semantic + (1-alpha)*lexical, and returns
// the candidates ordered by descending Fused, ties by ascending Position.
// The input slice is not modified.
func Fuse(candidates []Candidate, alpha float64) []Candidate {
	sem := make([]float64, len(candidates))
	lex := make([]float64, len(candidates))
	for i, c := range candidates {
		sem[i] = c.Semantic
		lex[i] = c.Lexical
	}
	sem = MinMaxNormalize(sem)
	lex = MinMaxNormalize(lex)

	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		c.Fused = alpha*sem[i] + (1-alpha)*lex[i]
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fused != out[j].Fused {
			return out[i].Fused > out[j].Fused
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// topPositions returns the k highest-scoring positions, ties by ascending
// position.
func topPositions(scores []float64, k int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})
	if k < len(order) {
		order = order[:k]
	}
	return order
}
