package parsers

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/reporting"
)

type JUnitParserArgs struct {
	// PointsPerTest is awarded for each passing test case. Defaults to 1.
	PointsPerTest float64 `mapstructure:"points_per_test"`
}

// JUnitParser reads a JUnit XML report (a <testsuites> or bare <testsuite>
// root) out of the transcript. A test case passes unless it carries a
// <failure> or <error> element.
type JUnitParser struct {
	pointsPerTest float64
}

func NewJUnitParser(args JUnitParserArgs) (*JUnitParser, error) {
	if args.PointsPerTest < 0 {
		return nil, fmt.Errorf("points_per_test must be >= 0, got %g", args.PointsPerTest)
	}
	if args.PointsPerTest == 0 {
		args.PointsPerTest = 1.0
	}
	return &JUnitParser{pointsPerTest: args.PointsPerTest}, nil
}

func (p *JUnitParser) Name() string { return string(TypeJUnit) }

func (p *JUnitParser) Parse(transcript string) models.TestOutcome {
	return sum(p.ParseOutcomes(transcript))
}

// ParseOutcomes returns one outcome per test case, categorized by class name
// (or suite name when the class is empty). Malformed XML yields nothing.
func (p *JUnitParser) ParseOutcomes(transcript string) []models.TestOutcome {
	suites, err := decodeSuites(transcript)
	if err != nil {
		slog.Debug("Transcript is not a JUnit report", "error", err)
		return nil
	}

	var outcomes []models.TestOutcome
	for _, suite := range suites {
		for _, tc := range suite.TestCases {
			category := tc.Classname
			if category == "" {
				category = suite.Name
			}

			o := models.TestOutcome{
				Name:     tc.Name,
				Category: category,
				Possible: p.pointsPerTest,
			}
			if tc.Failure == nil && tc.Error == nil {
				o.Earned = p.pointsPerTest
			}
			outcomes = append(outcomes, o)
		}
	}

	return outcomes
}

// decodeSuites finds the first <testsuites> or <testsuite> element in the
// transcript; anything printed before it (compiler chatter, banners) is ignored.
func decodeSuites(transcript string) ([]reporting.JUnitTestSuite, error) {
	start := strings.Index(transcript, "<testsuite")
	if start < 0 {
		return nil, fmt.Errorf("no <testsuite> element")
	}

	body := transcript[start:]
	if strings.HasPrefix(body, "<testsuites") {
		var suites reporting.JUnitTestSuites
		if err := xml.NewDecoder(strings.NewReader(body)).Decode(&suites); err != nil {
			return nil, err
		}
		return suites.TestSuites, nil
	}

	var suite reporting.JUnitTestSuite
	if err := xml.NewDecoder(strings.NewReader(body)).Decode(&suite); err != nil {
		return nil, err
	}
	return []reporting.JUnitTestSuite{suite}, nil
}
