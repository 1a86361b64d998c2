package matching

import (
	"log/slog"
	"math"

	"github.com/spboyer/bulkgrade/internal/models"
)

// FuzzyMatcher tries an exact match first, then picks the candidate with the
// highest edit-distance similarity at or above the threshold. Ties go to the
// earliest candidate.
type FuzzyMatcher struct {
	exact ExactMatcher
}

func (m *FuzzyMatcher) Name() string { return string(TypeFuzzy) }

func (m *FuzzyMatcher) FindMatch(target string, candidates []models.StudentRecord, threshold int) (*models.StudentRecord, bool) {
	if rec, ok := m.exact.FindMatch(target, candidates, threshold); ok {
		return rec, true
	}

	want := Normalize(target)
	if want == "" || len(candidates) == 0 {
		return nil, false
	}

	bestIdx := -1
	bestRatio := -1.0
	for i := range candidates {
		r := ratio(want, Normalize(candidates[i].FullName()))
		// strict > keeps the first-seen candidate on ties
		if r > bestRatio {
			bestIdx, bestRatio = i, r
		}
	}

	if bestIdx < 0 || bestRatio < float64(threshold) {
		slog.Debug("No fuzzy match", "target", target, "bestRatio", bestRatio, "threshold", threshold)
		return nil, false
	}

	slog.Debug("Fuzzy match", "target", target, "candidate", candidates[bestIdx].FullName(), "ratio", bestRatio)
	return &candidates[bestIdx], true
}

// Ratio returns the similarity of two names on a 0-100 scale over the
// normalized strings: 2*LCS / (len(a)+len(b)), rounded to a whole number.
// Only insertions and deletions count, so a dropped letter costs half of what
// a substitution does ("Jo Doe" vs "John Doe" scores 86).
func Ratio(a, b string) float64 {
	return ratio(Normalize(a), Normalize(b))
}

func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return math.Round(200 * float64(lcsLength(ra, rb)) / float64(total))
}

// lcsLength is the length of the longest common subsequence of a and b.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
