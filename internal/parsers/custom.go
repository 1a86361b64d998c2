package parsers

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/spboyer/bulkgrade/internal/models"
)

// ParseFunc is a caller-supplied transcript parser.
type ParseFunc func(transcript string) (models.TestOutcome, error)

// MatchHandler converts one regexp match (full match first, then groups)
// into an outcome.
type MatchHandler func(groups []string) (models.TestOutcome, error)

// Rule pairs a pattern with the handler applied to each of its matches.
type Rule struct {
	Pattern *regexp.Regexp
	Handler MatchHandler
}

// CustomParser runs either a ParseFunc or an ordered list of rules. Rules are
// tried in order and the first one that matches and handles every match
// cleanly wins. Errors and panics from caller code count as "no match".
type CustomParser struct {
	name  string
	fn    ParseFunc
	rules []Rule
}

func NewCustomFuncParser(name string, fn ParseFunc) *CustomParser {
	return &CustomParser{name: name, fn: fn}
}

func NewCustomRuleParser(name string, rules ...Rule) *CustomParser {
	return &CustomParser{name: name, rules: rules}
}

func (p *CustomParser) Name() string {
	if p.name == "" {
		return "custom"
	}
	return p.name
}

func (p *CustomParser) Parse(transcript string) models.TestOutcome {
	if p.fn != nil {
		o, err := safeCall(func() (models.TestOutcome, error) { return p.fn(transcript) })
		if err != nil || !o.Valid() {
			slog.Debug("Custom parser produced no outcome", "parser", p.Name(), "error", err)
			return models.TestOutcome{}
		}
		return o
	}

	for i, rule := range p.rules {
		if o, ok := p.applyRule(rule, transcript); ok {
			return o
		}
		slog.Debug("Custom rule did not match", "parser", p.Name(), "rule", i)
	}

	return models.TestOutcome{}
}

func (p *CustomParser) applyRule(rule Rule, transcript string) (models.TestOutcome, bool) {
	if rule.Pattern == nil || rule.Handler == nil {
		return models.TestOutcome{}, false
	}

	matches := rule.Pattern.FindAllStringSubmatch(transcript, -1)
	if len(matches) == 0 {
		return models.TestOutcome{}, false
	}

	var total models.TestOutcome
	for _, m := range matches {
		o, err := safeCall(func() (models.TestOutcome, error) { return rule.Handler(m) })
		if err != nil || !o.Valid() {
			return models.TestOutcome{}, false
		}
		total.Earned += o.Earned
		total.Possible += o.Possible
	}

	return total, total.Valid()
}

// safeCall isolates caller code so one bad rule cannot take down the batch.
func safeCall(fn func() (models.TestOutcome, error)) (o models.TestOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o, err = models.TestOutcome{}, fmt.Errorf("panic in custom parser: %v", r)
		}
	}()
	return fn()
}
