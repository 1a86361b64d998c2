// Package parsers extracts earned/possible points from the transcript a
// graded submission produced.
package parsers

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/bulkgrade/internal/models"
)

type Type string

const (
	TypePattern   Type = "pattern"
	TypeJUnit     Type = "junit"
	TypeComposite Type = "composite"
)

// OutputParser turns a transcript into points. Parse never fails: anything
// it cannot understand yields the zero outcome.
type OutputParser interface {
	// Name identifies the parser, for logging.
	Name() string

	// Parse returns the total earned and possible points in transcript.
	Parse(transcript string) models.TestOutcome
}

// ItemParser is implemented by parsers that can report one outcome per test,
// which per-item grade strategies (weighted, drop-lowest) need.
type ItemParser interface {
	OutputParser

	ParseOutcomes(transcript string) []models.TestOutcome
}

// Outcomes returns per-test outcomes when p supports them, otherwise the
// single aggregate outcome. A zero aggregate yields no outcomes.
func Outcomes(p OutputParser, transcript string) []models.TestOutcome {
	if ip, ok := p.(ItemParser); ok {
		return ip.ParseOutcomes(transcript)
	}
	o := p.Parse(transcript)
	if o.IsZero() {
		return nil
	}
	return []models.TestOutcome{o}
}

// Default returns the chain used when nothing is configured: JUnit XML, then
// the "Grade for ..." pattern.
func Default() OutputParser {
	pattern, _ := NewPatternParser(PatternParserArgs{})
	junit, _ := NewJUnitParser(JUnitParserArgs{})
	return NewCompositeParser(junit, pattern)
}

// Create creates a parser from its configured type and params.
func Create(parserType Type, params map[string]any) (OutputParser, error) {
	switch parserType {
	case TypePattern:
		var v PatternParserArgs

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		return NewPatternParser(v)
	case TypeJUnit:
		var v JUnitParserArgs

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		return NewJUnitParser(v)
	case TypeComposite:
		var v struct {
			Parsers []struct {
				Type   Type           `mapstructure:"type"`
				Config map[string]any `mapstructure:"config"`
			} `mapstructure:"parsers"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		if len(v.Parsers) == 0 {
			return Default(), nil
		}

		var children []OutputParser
		for i, p := range v.Parsers {
			child, err := Create(p.Type, p.Config)
			if err != nil {
				return nil, fmt.Errorf("composite parser entry %d: %w", i, err)
			}
			children = append(children, child)
		}

		return NewCompositeParser(children...), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid parser type", parserType)
	}
}

func sum(outcomes []models.TestOutcome) models.TestOutcome {
	var total models.TestOutcome
	for _, o := range outcomes {
		total.Earned += o.Earned
		total.Possible += o.Possible
	}
	return total
}
