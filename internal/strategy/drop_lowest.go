package strategy

import (
	"fmt"
	"slices"

	"github.com/spboyer/bulkgrade/internal/models"
)

// DropLowest discards the n outcomes with the lowest percentage, then sums
// the rest. An outcome with nothing possible counts as 0%.
type DropLowest struct {
	n int
}

func NewDropLowest(n int) (*DropLowest, error) {
	if n < 0 {
		return nil, fmt.Errorf("drop count must be non-negative, got %d", n)
	}
	return &DropLowest{n: n}, nil
}

func (s *DropLowest) Name() string { return string(TypeDropLowest) }

func (s *DropLowest) Calculate(outcomes []models.TestOutcome) (earned, possible float64) {
	if s.n >= len(outcomes) {
		return 0, 0
	}

	sorted := slices.Clone(outcomes)
	slices.SortStableFunc(sorted, func(a, b models.TestOutcome) int {
		pa, pb := a.Percentage(), b.Percentage()
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		default:
			return 0
		}
	})

	return (&Simple{}).Calculate(sorted[s.n:])
}
