package orchestration

import (
	"fmt"
	"time"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/execution"
	"github.com/spboyer/bulkgrade/internal/matching"
	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/parsers"
	"github.com/spboyer/bulkgrade/internal/strategy"
	"github.com/spboyer/bulkgrade/internal/utils"
)

// Pipeline is the set of collaborators applied to every submission.
type Pipeline struct {
	Matcher   matching.Matcher
	Threshold int
	Parser    parsers.OutputParser
	Strategy  strategy.Strategy
	Executor  execution.Executor
	// Timeout is passed to the executor per request; zero keeps its default.
	Timeout time.Duration
}

// NewPipeline builds the collaborators described by cfg. Any error here is a
// configuration error and fatal to the run.
func NewPipeline(cfg *config.BatchConfig) (Pipeline, error) {
	spec := cfg.Spec()

	matcher, err := matching.Create(matching.Type(spec.Matcher.Type), spec.Matcher.Config)
	if err != nil {
		return Pipeline{}, fmt.Errorf("matcher: %w", err)
	}

	parser, err := parsers.Create(parsers.Type(spec.Parser.Type), spec.Parser.Config)
	if err != nil {
		return Pipeline{}, fmt.Errorf("parser: %w", err)
	}

	strat, err := strategy.Create(strategy.Type(spec.Strategy.Type), spec.Strategy.Config)
	if err != nil {
		return Pipeline{}, fmt.Errorf("strategy: %w", err)
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return Pipeline{}, fmt.Errorf("executor: %w", err)
	}

	return Pipeline{
		Matcher:   matcher,
		Threshold: spec.Matcher.Threshold,
		Parser:    parser,
		Strategy:  strat,
		Executor:  executor,
		Timeout:   time.Duration(spec.Execution.TimeoutSeconds) * time.Second,
	}, nil
}

func newExecutor(cfg *config.BatchConfig) (execution.Executor, error) {
	e := cfg.Spec().Execution
	switch e.Executor {
	case config.ExecutorMock:
		return execution.NewMockExecutor(e.MockTranscript), nil
	case config.ExecutorJava, "":
		return execution.NewJavaExecutor(execution.JavaExecutorArgs{
			TestDir:       cfg.TestDir(),
			Prefix:        e.Prefix,
			Classpath:     utils.ResolvePaths(e.Classpath, cfg.SpecDir()),
			Timeout:       e.TimeoutSeconds,
			StripPackages: config.Bool(e.PreprocessPackage),
			Javac:         e.Javac,
			Java:          e.Java,
		})
	default:
		return nil, fmt.Errorf("unknown executor %q", e.Executor)
	}
}

// Score parses an executor transcript and applies the grade strategy. It
// returns the per-test outcomes, their total and the final percentage.
func (p Pipeline) Score(transcript string) ([]models.TestOutcome, models.TestOutcome, float64) {
	outcomes := parsers.Outcomes(p.Parser, transcript)
	total, pct := strategy.Apply(p.Strategy, outcomes)
	return outcomes, total, pct
}
