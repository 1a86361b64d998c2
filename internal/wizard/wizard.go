// Package wizard collects a bulkgrade.yaml configuration interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/utils"
	"golang.org/x/term"
)

// Answers holds all fields collected during the interactive wizard. Numeric
// answers are kept as text, the way the form edits them.
type Answers struct {
	Name          string
	Assignment    string
	Executor      string
	Prefix        string
	TestDir       string
	Matcher       string
	Threshold     string
	Strategy      string
	Workers       string
	FailureIsNull bool
}

// DefaultAnswers pre-populates the form from the config defaults.
func DefaultAnswers() Answers {
	return Answers{
		Assignment: config.DefaultAssignment,
		Executor:   config.ExecutorJava,
		TestDir:    "tests",
		Matcher:    config.DefaultMatcher,
		Threshold:  strconv.Itoa(config.DefaultThreshold),
		Strategy:   config.DefaultStrategy,
		Workers:    "1",
	}
}

var javaIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidatePrefix checks that prefix can name the main test class.
func ValidatePrefix(prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return fmt.Errorf("test class prefix is required")
	}
	if !javaIdentifier.MatchString(prefix) {
		return fmt.Errorf("%q is not a valid Java class name", prefix)
	}
	return nil
}

func validateRange(lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

// Run shows the configuration form and returns the answers. start seeds the
// fields; use DefaultAnswers for a fresh config.
func Run(in io.Reader, out io.Writer, start Answers) (Answers, error) {
	a := start

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Batch name").
				Description("Shown in reports").
				Placeholder("Lab 3").
				Value(&a.Name),
			huh.NewInput().
				Title("Gradebook column").
				Description("Assignment column name in the roster export").
				Value(&a.Assignment).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("gradebook column is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Executor").
				Options(
					huh.NewOption("java (compile and run tests)", config.ExecutorJava),
					huh.NewOption("mock (replay transcript.txt)", config.ExecutorMock),
				).
				Value(&a.Executor),
			huh.NewInput().
				Title("Test class prefix").
				Description("Main test class, without .java").
				Placeholder("TestL3").
				Value(&a.Prefix).
				Validate(func(s string) error {
					if a.Executor == config.ExecutorMock && strings.TrimSpace(s) == "" {
						return nil
					}
					return ValidatePrefix(s)
				}),
			huh.NewInput().
				Title("Test directory").
				Description("Directory holding the instructor test files").
				Value(&a.TestDir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Name matching").
				Options(
					huh.NewOption("exact, then fuzzy", "composite"),
					huh.NewOption("exact only", "exact"),
					huh.NewOption("fuzzy only", "fuzzy"),
				).
				Value(&a.Matcher),
			huh.NewInput().
				Title("Fuzzy threshold").
				Description("Minimum name similarity, 0-100").
				Value(&a.Threshold).
				Validate(validateRange(0, 100)),
			huh.NewSelect[string]().
				Title("Grade strategy").
				Options(
					huh.NewOption("simple (sum of points)", "simple"),
					huh.NewOption("drop lowest test", "drop_lowest"),
				).
				Value(&a.Strategy),
			huh.NewInput().
				Title("Workers").
				Description("Submissions graded at once").
				Value(&a.Workers).
				Validate(validateRange(1, 64)),
			huh.NewConfirm().
				Title("Leave failed grades empty?").
				Description("Otherwise failures are written as 0").
				Value(&a.FailureIsNull),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return Answers{}, fmt.Errorf("wizard failed: %w", err)
	}

	return a, nil
}

// Spec converts answers into a validated BatchSpec.
func (a Answers) Spec() (*config.BatchSpec, error) {
	spec := config.New()

	spec.Name = strings.TrimSpace(a.Name)
	if v := strings.TrimSpace(a.Assignment); v != "" {
		spec.Assignment = v
	}
	if a.Executor != "" {
		spec.Execution.Executor = a.Executor
	}
	spec.Execution.Prefix = strings.TrimSpace(a.Prefix)
	if spec.Execution.Prefix != "" {
		if err := ValidatePrefix(spec.Execution.Prefix); err != nil {
			return nil, err
		}
	}
	spec.Execution.TestDir = strings.TrimSpace(a.TestDir)
	if a.Matcher != "" {
		spec.Matcher.Type = a.Matcher
	}
	if a.Strategy != "" {
		spec.Strategy.Type = a.Strategy
	}

	threshold, err := atoiOr(a.Threshold, config.DefaultThreshold)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	spec.Matcher.Threshold = threshold

	workers, err := atoiOr(a.Workers, 1)
	if err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}
	if workers > 1 {
		spec.Concurrency.Parallel = utils.Ptr(true)
		spec.Concurrency.MaxWorkers = workers
	}

	spec.Output.FailureIsNull = utils.Ptr(a.FailureIsNull)

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func atoiOr(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
