package parsers

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/spboyer/bulkgrade/internal/models"
)

// DefaultPattern matches lines such as
// "Grade for Test1 (out of a possible 10): 8.5".
const DefaultPattern = `Grade for (?P<name>.+) \(out of (a\s+)?possible (?P<max>[0-9]+(\.[0-9]+)?)\): (?P<total>[0-9]+(\.[0-9]+)?)`

type PatternParserArgs struct {
	// Pattern must have named groups "total" and "max"; an optional "name"
	// group labels each outcome. Defaults to DefaultPattern.
	Pattern    string `mapstructure:"pattern"`
	IgnoreCase bool   `mapstructure:"ignore_case"`
}

// PatternParser sums every regexp match in the transcript.
type PatternParser struct {
	re       *regexp.Regexp
	totalIdx int
	maxIdx   int
	nameIdx  int
}

func NewPatternParser(args PatternParserArgs) (*PatternParser, error) {
	pattern := args.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if args.IgnoreCase && !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}

	p := &PatternParser{
		re:       re,
		totalIdx: re.SubexpIndex("total"),
		maxIdx:   re.SubexpIndex("max"),
		nameIdx:  re.SubexpIndex("name"),
	}

	if p.totalIdx < 0 || p.maxIdx < 0 {
		return nil, fmt.Errorf("pattern %q must have named groups 'total' and 'max'", pattern)
	}

	return p, nil
}

func (p *PatternParser) Name() string { return string(TypePattern) }

func (p *PatternParser) Parse(transcript string) models.TestOutcome {
	return sum(p.ParseOutcomes(transcript))
}

// ParseOutcomes returns one outcome per match. Matches with non-numeric
// captures, or claiming more points than possible, are skipped.
func (p *PatternParser) ParseOutcomes(transcript string) []models.TestOutcome {
	var outcomes []models.TestOutcome

	for i, m := range p.re.FindAllStringSubmatch(transcript, -1) {
		earned, err := strconv.ParseFloat(strings.TrimSpace(m[p.totalIdx]), 64)
		if err != nil {
			continue
		}
		possible, err := strconv.ParseFloat(strings.TrimSpace(m[p.maxIdx]), 64)
		if err != nil {
			continue
		}

		name := strconv.Itoa(i)
		if p.nameIdx >= 0 && m[p.nameIdx] != "" {
			name = strings.TrimSpace(m[p.nameIdx])
		}

		o := models.TestOutcome{Name: name, Earned: earned, Possible: possible}
		if !o.Valid() {
			slog.Debug("Skipping invalid grade line", "line", m[0], "earned", earned, "possible", possible)
			continue
		}

		outcomes = append(outcomes, o)
	}

	return outcomes
}
