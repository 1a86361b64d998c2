package strategy

import "github.com/spboyer/bulkgrade/internal/models"

// Simple sums earned and possible points.
type Simple struct{}

func (s *Simple) Name() string { return string(TypeSimple) }

func (s *Simple) Calculate(outcomes []models.TestOutcome) (earned, possible float64) {
	for _, o := range outcomes {
		earned += o.Earned
		possible += o.Possible
	}
	return earned, possible
}
