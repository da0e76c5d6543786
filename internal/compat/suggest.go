package compat

import "fmt"

// maxSuggestDistance bounds how many edits away a live name can be and still
// count as a plausible rename of a removed member.
const maxSuggestDistance = 3

// renameHint formats a "closest live name" hint for a removed member, or
// returns "" when no live name is close enough to look like a rename.
func renameHint(removed string, liveNames []string) string {
	match := closestName(removed, liveNames)
	if match == "" {
		return ""
	}
	return fmt.Sprintf("closest live name: %s", match)
}

// closestName returns the candidate with the smallest edit distance to
// target, ties going to the earlier candidate. Candidates further than
// maxSuggestDistance edits away are never returned.
func closestName(target string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, c := range candidates {
		if d := editDistance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between two names, computed with
// two rolling rows instead of the full matrix.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
