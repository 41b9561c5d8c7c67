// Package suggest finds "did you mean" candidates for misspelled names.
package suggest

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Closest returns the candidate closest to target, or "" when nothing is close
// enough. Candidates that contain target as a case-insensitive subsequence are
// preferred; otherwise the smallest edit distance within a third of the target
// length (at least 2) wins.
func Closest(target string, candidates []string) string {
	if len(candidates) == 0 || target == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	limit := max(len(target)/3, 2)
	best := ""
	bestDistance := limit + 1

	for _, candidate := range candidates {
		d := fuzzy.LevenshteinDistance(target, candidate)
		if d < bestDistance || (d == bestDistance && candidate < best) {
			best = candidate
			bestDistance = d
		}
	}

	if bestDistance > limit {
		return ""
	}

	return best
}

// Hint renders a suggestion as a message suffix.
func Hint(target string, candidates []string) string {
	if s := Closest(target, candidates); s != "" {
		return " (did you mean " + s + "?)"
	}

	return ""
}
