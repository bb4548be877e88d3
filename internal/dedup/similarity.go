package dedup

import (
	"strings"

	"jobscout/internal/model"
)

// Ratio returns a similarity score in [0, 1] between two strings:
// 2*LCS(a,b) / (len(a)+len(b)), where LCS is the longest common subsequence
// over runes. Identical strings score 1, disjoint strings 0.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}

	// Two-row DP over the LCS length table.
	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for i := 1; i <= len(ar); i++ {
		for j := 1; j <= len(br); j++ {
			if ar[i-1] == br[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(br)]
	return 2 * float64(lcs) / float64(len(ar)+len(br))
}

// Similar reports whether two jobs likely describe the same posting: the
// case-folded titles must reach the similarity threshold AND the case-folded
// company names must match exactly. Location does not participate.
func Similar(a, b model.Job, threshold float64) bool {
	if !strings.EqualFold(a.Company, b.Company) {
		return false
	}
	return Ratio(strings.ToLower(a.Title), strings.ToLower(b.Title)) >= threshold
}
