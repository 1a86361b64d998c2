// Package strategy reduces per-test outcomes to a final grade.
package strategy

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/bulkgrade/internal/models"
)

type Type string

const (
	TypeSimple     Type = "simple"
	TypeWeighted   Type = "weighted"
	TypeDropLowest Type = "drop_lowest"
	TypeBonus      Type = "bonus"
)

// Strategy reduces outcomes to total earned and possible points. It never
// fails; Percentage guards the zero-possible case.
type Strategy interface {
	Name() string
	Calculate(outcomes []models.TestOutcome) (earned, possible float64)
}

// Percentage returns earned/possible*100, or 0 when possible <= 0. The result
// is not capped at 100.
func Percentage(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return earned / possible * 100
}

// Apply runs s and returns the aggregated outcome and its percentage.
func Apply(s Strategy, outcomes []models.TestOutcome) (models.TestOutcome, float64) {
	earned, possible := s.Calculate(outcomes)
	return models.TestOutcome{Earned: earned, Possible: possible}, Percentage(earned, possible)
}

// Create creates a strategy from its configured type and params.
func Create(strategyType Type, params map[string]any) (Strategy, error) {
	switch strategyType {
	case TypeSimple, "":
		return &Simple{}, nil
	case TypeWeighted:
		var v WeightedArgs

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		return NewWeighted(v)
	case TypeDropLowest:
		v := struct {
			Count *int `mapstructure:"count"`
		}{}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		count := 1
		if v.Count != nil {
			count = *v.Count
		}

		return NewDropLowest(count)
	case TypeBonus:
		var v struct {
			Points float64 `mapstructure:"points"`
			Base   struct {
				Type   Type           `mapstructure:"type"`
				Config map[string]any `mapstructure:"config"`
			} `mapstructure:"base"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		if v.Base.Type == TypeBonus {
			return nil, fmt.Errorf("bonus strategy cannot wrap another bonus strategy")
		}

		base, err := Create(v.Base.Type, v.Base.Config)
		if err != nil {
			return nil, fmt.Errorf("bonus base strategy: %w", err)
		}

		return NewBonus(v.Points, base), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid grade strategy", strategyType)
	}
}
