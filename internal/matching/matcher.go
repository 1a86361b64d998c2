// Package matching resolves a submission's display name to a roster record.
package matching

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/bulkgrade/internal/models"
)

// DefaultThreshold is the similarity (0-100) a fuzzy match must reach.
const DefaultThreshold = 80

type Type string

const (
	TypeExact     Type = "exact"
	TypeFuzzy     Type = "fuzzy"
	TypeComposite Type = "composite"
)

// Matcher finds the roster record that best corresponds to a display name.
// "No match" is a normal result, reported by a false second return value.
type Matcher interface {
	// Name returns the matcher kind, for logging.
	Name() string

	// FindMatch returns the matched candidate. threshold is a 0-100
	// similarity bound; matchers that only do exact comparison ignore it.
	FindMatch(target string, candidates []models.StudentRecord, threshold int) (*models.StudentRecord, bool)
}

// Default returns the exact-then-fuzzy chain used when nothing is configured.
func Default() Matcher {
	return NewCompositeMatcher(&ExactMatcher{}, &FuzzyMatcher{})
}

// Create builds a matcher from its configured type and params.
func Create(matcherType Type, params map[string]any) (Matcher, error) {
	switch matcherType {
	case TypeExact:
		return &ExactMatcher{}, nil
	case TypeFuzzy, "":
		return &FuzzyMatcher{}, nil
	case TypeComposite:
		var v struct {
			Matchers []struct {
				Type   Type           `mapstructure:"type"`
				Config map[string]any `mapstructure:"config"`
			} `mapstructure:"matchers"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		if len(v.Matchers) == 0 {
			return Default(), nil
		}

		var children []Matcher
		for i, m := range v.Matchers {
			child, err := Create(m.Type, m.Config)
			if err != nil {
				return nil, fmt.Errorf("composite matcher entry %d: %w", i, err)
			}
			children = append(children, child)
		}

		return NewCompositeMatcher(children...), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid matcher type", matcherType)
	}
}
