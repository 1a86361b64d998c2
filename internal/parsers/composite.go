package parsers

import (
	"log/slog"

	"github.com/spboyer/bulkgrade/internal/models"
)

// CompositeParser returns the result of the first parser that finds any
// points (earned > 0 or possible > 0).
type CompositeParser struct {
	parsers []OutputParser
}

func NewCompositeParser(parsers ...OutputParser) *CompositeParser {
	return &CompositeParser{parsers: parsers}
}

func (p *CompositeParser) Name() string { return string(TypeComposite) }

func (p *CompositeParser) Parse(transcript string) models.TestOutcome {
	return sum(p.ParseOutcomes(transcript))
}

func (p *CompositeParser) ParseOutcomes(transcript string) []models.TestOutcome {
	for _, child := range p.parsers {
		outcomes := tryOutcomes(child, transcript)
		total := sum(outcomes)
		if total.Earned > 0 || total.Possible > 0 {
			slog.Debug("Transcript parsed", "parser", child.Name(), "earned", total.Earned, "possible", total.Possible)
			return outcomes
		}
	}
	return nil
}

func tryOutcomes(p OutputParser, transcript string) (outcomes []models.TestOutcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Parser panicked", "parser", p.Name(), "panic", r)
			outcomes = nil
		}
	}()
	return Outcomes(p, transcript)
}
