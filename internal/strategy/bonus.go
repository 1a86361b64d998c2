package strategy

import "github.com/spboyer/bulkgrade/internal/models"

// Bonus adds a fixed number of points to the base strategy's earned total.
// The result is deliberately not capped, so the percentage can exceed 100.
type Bonus struct {
	points float64
	base   Strategy
}

// NewBonus wraps base, which defaults to Simple when nil.
func NewBonus(points float64, base Strategy) *Bonus {
	if base == nil {
		base = &Simple{}
	}
	return &Bonus{points: points, base: base}
}

func (s *Bonus) Name() string { return string(TypeBonus) }

func (s *Bonus) Calculate(outcomes []models.TestOutcome) (earned, possible float64) {
	earned, possible = s.base.Calculate(outcomes)
	return earned + s.points, possible
}
