package acvi

import "sort"

// Score computes the weighted linear combination of the component
// scores. It is a pure function: it applies no normalization of its own
// and works identically on raw or normalized component sets, so the
// robustness analyzer can run it both ways. Scaling all weights by k
// scales the result by k.
func Score(components ComponentSet, weights Weights) float64 {
	total := 0.0
	for _, c := range Components() {
		total += weights.Value(c) * components.Value(c)
	}
	return total
}

// Rank orders the scores by descending composite in place and assigns
// 1-based ranks. The sort is stable: ties keep their cohort input order,
// which makes rankings deterministic.
func Rank(scores []LocationScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Composite > scores[j].Composite
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

// RankIDs returns location identifiers ordered by descending score,
// ties keeping input order, without mutating the input.
func RankIDs(ids []string, composites []float64) []string {
	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return composites[order[i]] > composites[order[j]]
	})

	ranked := make([]string, len(ids))
	for i, idx := range order {
		ranked[i] = ids[idx]
	}
	return ranked
}
