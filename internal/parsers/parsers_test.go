package parsers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPattern(t *testing.T, args PatternParserArgs) *PatternParser {
	t.Helper()
	p, err := NewPatternParser(args)
	require.NoError(t, err)
	return p
}

func mustJUnit(t *testing.T, points float64) *JUnitParser {
	t.Helper()
	p, err := NewJUnitParser(JUnitParserArgs{PointsPerTest: points})
	require.NoError(t, err)
	return p
}

func TestPatternParser_Default(t *testing.T) {
	p := mustPattern(t, PatternParserArgs{})

	tests := []struct {
		name     string
		output   string
		earned   float64
		possible float64
	}{
		{"single", "Grade for Test1 (out of possible 10): 8\n", 8, 10},
		{"two lines", "Grade for T1 (out of possible 10): 8\nGrade for T2 (out of possible 5): 5\n", 13, 15},
		{"a possible with decimals", "Grade for Test1 (out of a possible 100): 85.5\n", 85.5, 100},
		{"decimal max", "Grade for Test1 (out of possible 10.5): 8.75", 8.75, 10.5},
		{"noise between", "compiling...\nGrade for A (out of possible 3): 1\nok\nGrade for B (out of possible 2): 2\n", 3, 5},
		{"no matches", "This is random output with no grades\n", 0, 0},
		{"empty", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.output)
			assert.InDelta(t, tt.earned, got.Earned, 1e-9)
			assert.InDelta(t, tt.possible, got.Possible, 1e-9)
		})
	}
}

func TestPatternParser_OutcomesAreNamed(t *testing.T) {
	p := mustPattern(t, PatternParserArgs{})
	outcomes := p.ParseOutcomes("Grade for testAdd (out of possible 4): 4\nGrade for testSub (out of possible 4): 1\n")
	require.Len(t, outcomes, 2)
	assert.Equal(t, "testAdd", outcomes[0].Name)
	assert.Equal(t, "testSub", outcomes[1].Name)
}

func TestPatternParser_EarnedAbovePossibleSkipped(t *testing.T) {
	p := mustPattern(t, PatternParserArgs{})
	got := p.Parse("Grade for A (out of possible 10): 12\nGrade for B (out of possible 5): 4\n")
	assert.Equal(t, models.TestOutcome{Earned: 4, Possible: 5}, got)
}

func TestPatternParser_Custom(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		p := mustPattern(t, PatternParserArgs{Pattern: `Test: (?P<total>\d+)/(?P<max>\d+)`})
		got := p.Parse("Test: 42/50\n")
		assert.Equal(t, 42.0, got.Earned)
		assert.Equal(t, 50.0, got.Possible)
	})

	t.Run("ignore case", func(t *testing.T) {
		p := mustPattern(t, PatternParserArgs{Pattern: `SCORE: (?P<total>\d+)/(?P<max>\d+)`, IgnoreCase: true})
		got := p.Parse("score: 10/20\n")
		assert.Equal(t, 10.0, got.Earned)
		assert.Equal(t, 20.0, got.Possible)
	})

	t.Run("non-numeric capture skipped", func(t *testing.T) {
		p := mustPattern(t, PatternParserArgs{Pattern: `Score: (?P<total>\S+)/(?P<max>\S+)`})
		got := p.Parse("Score: N/A/10\nScore: 3/4\n")
		assert.Equal(t, 3.0, got.Earned)
		assert.Equal(t, 4.0, got.Possible)
	})

	t.Run("missing named groups", func(t *testing.T) {
		_, err := NewPatternParser(PatternParserArgs{Pattern: `Test: (\d+)/(\d+)`})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'total' and 'max'")
	})

	t.Run("bad regexp", func(t *testing.T) {
		_, err := NewPatternParser(PatternParserArgs{Pattern: `(?P<total>`})
		require.Error(t, err)
	})
}

func TestJUnitParser(t *testing.T) {
	tests := []struct {
		name     string
		points   float64
		xml      string
		earned   float64
		possible float64
	}{
		{
			name: "all pass",
			xml: `<?xml version="1.0"?>
<testsuite tests="3" failures="0" errors="0">
  <testcase name="test1" />
  <testcase name="test2" />
  <testcase name="test3" />
</testsuite>`,
			earned: 3, possible: 3,
		},
		{
			name: "failure and error",
			xml: `<testsuite tests="3">
  <testcase name="test1" />
  <testcase name="test2"><failure message="Expected 5 but got 3" /></testcase>
  <testcase name="test3"><error message="NullPointerException" /></testcase>
</testsuite>`,
			earned: 1, possible: 3,
		},
		{
			name: "testsuites wrapper",
			xml: `<testsuites>
  <testsuite name="a"><testcase name="t1" /><testcase name="t2" /></testsuite>
  <testsuite name="b"><testcase name="t3" /><testcase name="t4"><failure message="nope" /></testcase></testsuite>
</testsuites>`,
			earned: 3, possible: 4,
		},
		{
			name:   "points per test",
			points: 5,
			xml: `<testsuite>
  <testcase name="t1" /><testcase name="t2"><failure /></testcase><testcase name="t3" />
</testsuite>`,
			earned: 10, possible: 15,
		},
		{
			name: "leading compiler output",
			xml:  "Note: Lab3Test.java uses unchecked operations.\n<testsuite><testcase name=\"t1\" /></testsuite>\n",
			earned: 1, possible: 1,
		},
		{name: "not xml", xml: "This is not XML at all"},
		{name: "unclosed", xml: "<?xml version='1.0'?><testsuite><testcase>"},
		{name: "empty suite", xml: `<testsuite tests="0"></testsuite>`},
		{name: "wrong root", xml: `<wrongelement><testcase name="test1" /></wrongelement>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustJUnit(t, tt.points).Parse(tt.xml)
			assert.InDelta(t, tt.earned, got.Earned, 1e-9)
			assert.InDelta(t, tt.possible, got.Possible, 1e-9)
		})
	}
}

func TestJUnitParser_OutcomeCategories(t *testing.T) {
	p := mustJUnit(t, 2)
	outcomes := p.ParseOutcomes(`<testsuite name="Lab3">
  <testcase classname="StackTest" name="push" />
  <testcase name="pop"><failure /></testcase>
</testsuite>`)

	require.Len(t, outcomes, 2)
	assert.Equal(t, models.TestOutcome{Name: "push", Category: "StackTest", Earned: 2, Possible: 2}, outcomes[0])
	assert.Equal(t, models.TestOutcome{Name: "pop", Category: "Lab3", Earned: 0, Possible: 2}, outcomes[1])
}

func TestJUnitParser_NegativePoints(t *testing.T) {
	_, err := NewJUnitParser(JUnitParserArgs{PointsPerTest: -1})
	require.Error(t, err)
}

func TestCustomParser_Func(t *testing.T) {
	parseScores := func(output string) (models.TestOutcome, error) {
		_, rest, ok := strings.Cut(output, "PASSED:")
		if !ok {
			return models.TestOutcome{}, nil
		}
		num, den, _ := strings.Cut(strings.TrimSpace(rest), "/")
		e, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return models.TestOutcome{}, err
		}
		p, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return models.TestOutcome{}, err
		}
		return models.TestOutcome{Earned: e, Possible: p}, nil
	}

	p := NewCustomFuncParser("passed", parseScores)
	assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, p.Parse("PASSED: 8/10"))
	assert.Equal(t, models.TestOutcome{}, p.Parse("FAILED: test failed"))
	assert.Equal(t, models.TestOutcome{}, p.Parse("PASSED: x/10"))

	panicky := NewCustomFuncParser("", func(string) (models.TestOutcome, error) { panic("boom") })
	assert.Equal(t, models.TestOutcome{}, panicky.Parse("anything"))
	assert.Equal(t, "custom", panicky.Name())

	invalid := NewCustomFuncParser("", func(string) (models.TestOutcome, error) {
		return models.TestOutcome{Earned: 11, Possible: 10}, nil
	})
	assert.Equal(t, models.TestOutcome{}, invalid.Parse("anything"))

	nilFunc := NewCustomFuncParser("", nil)
	assert.Equal(t, models.TestOutcome{}, nilFunc.Parse("anything"))
}

func TestCustomParser_Rules(t *testing.T) {
	atof := func(s string) float64 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			panic(err)
		}
		return f
	}

	t.Run("first matching rule wins", func(t *testing.T) {
		p := NewCustomRuleParser("rules",
			Rule{
				Pattern: regexp.MustCompile(`Passed: (\d+)`),
				Handler: func(g []string) (models.TestOutcome, error) {
					return models.TestOutcome{Earned: atof(g[1]), Possible: 10}, nil
				},
			},
			Rule{
				Pattern: regexp.MustCompile(`Failed: (\d+)`),
				Handler: func(g []string) (models.TestOutcome, error) {
					return models.TestOutcome{Possible: atof(g[1])}, nil
				},
			},
		)
		got := p.Parse("Passed: 8\nFailed: 2\n")
		assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, got)
	})

	t.Run("all matches of a rule are summed", func(t *testing.T) {
		p := NewCustomRuleParser("rules", Rule{
			Pattern: regexp.MustCompile(`Score: (\d+)/(\d+)`),
			Handler: func(g []string) (models.TestOutcome, error) {
				return models.TestOutcome{Earned: atof(g[1]), Possible: atof(g[2])}, nil
			},
		})
		assert.Equal(t, models.TestOutcome{Earned: 9, Possible: 15}, p.Parse("Score: 8/10\nScore: 1/5"))
	})

	t.Run("failing handler falls through", func(t *testing.T) {
		p := NewCustomRuleParser("rules",
			Rule{
				Pattern: regexp.MustCompile(`Test: (\d+)`),
				Handler: func([]string) (models.TestOutcome, error) { return models.TestOutcome{}, errors.New("bad rule") },
			},
			Rule{
				Pattern: regexp.MustCompile(`Test: (\d+)`),
				Handler: func([]string) (models.TestOutcome, error) { panic("worse rule") },
			},
			Rule{
				Pattern: regexp.MustCompile(`Score: (\d+)/(\d+)`),
				Handler: func(g []string) (models.TestOutcome, error) {
					return models.TestOutcome{Earned: atof(g[1]), Possible: atof(g[2])}, nil
				},
			},
		)
		assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, p.Parse("Test: 5\nScore: 8/10\n"))
	})

	t.Run("no rules", func(t *testing.T) {
		assert.Equal(t, models.TestOutcome{}, NewCustomRuleParser("empty").Parse("Score: 8/10"))
	})
}

type panicParser struct{}

func (panicParser) Name() string                    { return "panic" }
func (panicParser) Parse(string) models.TestOutcome { panic("intentional") }

func TestCompositeParser(t *testing.T) {
	pattern := mustPattern(t, PatternParserArgs{})
	junit := mustJUnit(t, 1)
	gradeLine := "Grade for Test1 (out of possible 10): 8\n"

	t.Run("first parser succeeds", func(t *testing.T) {
		got := NewCompositeParser(pattern, junit).Parse(gradeLine)
		assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, got)
	})

	t.Run("falls back", func(t *testing.T) {
		got := NewCompositeParser(junit, pattern).Parse(gradeLine)
		assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, got)
	})

	t.Run("custom at the end of the chain", func(t *testing.T) {
		custom := NewCustomFuncParser("custom", func(s string) (models.TestOutcome, error) {
			if strings.Contains(s, "CUSTOM") {
				return models.TestOutcome{Earned: 5, Possible: 10}, nil
			}
			return models.TestOutcome{}, nil
		})
		got := NewCompositeParser(junit, pattern, custom).Parse("CUSTOM format")
		assert.Equal(t, models.TestOutcome{Earned: 5, Possible: 10}, got)
	})

	t.Run("zero earned but points possible counts", func(t *testing.T) {
		got := NewCompositeParser(pattern, junit).Parse("Grade for T (out of possible 10): 0\n")
		assert.Equal(t, models.TestOutcome{Earned: 0, Possible: 10}, got)
	})

	t.Run("all fail", func(t *testing.T) {
		assert.Equal(t, models.TestOutcome{}, NewCompositeParser(junit, pattern).Parse("random output"))
	})

	t.Run("panicking parser skipped", func(t *testing.T) {
		got := NewCompositeParser(panicParser{}, pattern).Parse(gradeLine)
		assert.Equal(t, models.TestOutcome{Earned: 8, Possible: 10}, got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, models.TestOutcome{}, NewCompositeParser().Parse(gradeLine))
	})
}

func TestCreate(t *testing.T) {
	p, err := Create(TypeJUnit, map[string]any{"points_per_test": 2.5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.Parse(`<testsuite><testcase name="a"/><testcase name="b"/></testsuite>`).Earned)

	p, err = Create(TypeComposite, map[string]any{
		"parsers": []any{
			map[string]any{"type": "junit"},
			map[string]any{"type": "pattern", "config": map[string]any{"pattern": `(?P<total>\d+) of (?P<max>\d+)`}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TestOutcome{Earned: 7, Possible: 9}, p.Parse("7 of 9"))

	p, err = Create(TypeComposite, nil)
	require.NoError(t, err)
	assert.Equal(t, 8.0, p.Parse("Grade for X (out of possible 10): 8").Earned)

	_, err = Create("yaml", nil)
	require.Error(t, err)

	_, err = Create(TypePattern, map[string]any{"pattern": `(\d+)`})
	require.Error(t, err)
}
