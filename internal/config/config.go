// Package config provides the batch specification loaded from bulkgrade.yaml
// and the runtime configuration derived from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/bulkgrade/internal/utils"
	"github.com/spboyer/bulkgrade/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file searched for by Load.
const FileName = "bulkgrade.yaml"

// Default values for the batch spec. These are the single source of truth;
// New() references them and no other code should duplicate them.
const (
	DefaultAssignment = "Lab Grade"
	DefaultMatcher    = "composite"
	DefaultThreshold  = 80
	DefaultParser     = "composite"
	DefaultStrategy   = "simple"
	DefaultExecutor   = "java"
	DefaultTimeout    = 30
	DefaultWorkers    = 4
	DefaultOutput     = "grades.csv"
	DefaultCacheDir   = ".bulkgrade-cache"
)

// Executor kinds.
const (
	ExecutorJava = "java"
	ExecutorMock = "mock"
)

// ComponentConfig selects a parser or strategy implementation by type and
// passes Config to its factory.
type ComponentConfig struct {
	Type   string         `yaml:"type,omitempty" json:"type,omitempty"`
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// MatcherConfig selects the student matcher.
type MatcherConfig struct {
	Type      string         `yaml:"type,omitempty" json:"type,omitempty"`
	Threshold int            `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Config    map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}

// ExecutionConfig describes how each submission is compiled and run.
type ExecutionConfig struct {
	Executor          string   `yaml:"executor,omitempty" json:"executor,omitempty"`
	Prefix            string   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	TestDir           string   `yaml:"test_dir,omitempty" json:"test_dir,omitempty"`
	Classpath         []string `yaml:"classpath,omitempty" json:"classpath,omitempty"`
	TimeoutSeconds    int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	PreprocessPackage *bool    `yaml:"preprocess_package,omitempty" json:"preprocess_package,omitempty"`
	Javac             string   `yaml:"javac,omitempty" json:"javac,omitempty"`
	Java              string   `yaml:"java,omitempty" json:"java,omitempty"`

	// MockTranscript is the default transcript for the mock executor.
	MockTranscript string `yaml:"mock_transcript,omitempty" json:"mock_transcript,omitempty"`
}

// ConcurrencyConfig bounds the grading worker pool.
type ConcurrencyConfig struct {
	Parallel   *bool `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	MaxWorkers int   `yaml:"max_workers,omitempty" json:"max_workers,omitempty"`
}

// OutputConfig holds report destinations.
type OutputConfig struct {
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
	FailureIsNull *bool  `yaml:"failure_is_null,omitempty" json:"failure_is_null,omitempty"`
	JUnit         string `yaml:"junit,omitempty" json:"junit,omitempty"`
	JSON          string `yaml:"json,omitempty" json:"json,omitempty"`
	HTML          string `yaml:"html,omitempty" json:"html,omitempty"`
	TranscriptDir string `yaml:"transcript_dir,omitempty" json:"transcript_dir,omitempty"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// BatchSpec is the top-level configuration loaded from bulkgrade.yaml.
type BatchSpec struct {
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Assignment  string            `yaml:"assignment,omitempty" json:"assignment,omitempty"`
	Matcher     MatcherConfig     `yaml:"matcher,omitempty" json:"matcher,omitempty"`
	Parser      ComponentConfig   `yaml:"parser,omitempty" json:"parser,omitempty"`
	Strategy    ComponentConfig   `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Execution   ExecutionConfig   `yaml:"execution,omitempty" json:"execution,omitempty"`
	Concurrency ConcurrencyConfig `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Output      OutputConfig      `yaml:"output,omitempty" json:"output,omitempty"`
	Cache       CacheConfig       `yaml:"cache,omitempty" json:"cache,omitempty"`
}

// New returns a BatchSpec with all hard-coded defaults populated.
func New() *BatchSpec {
	return &BatchSpec{
		Assignment: DefaultAssignment,
		Matcher: MatcherConfig{
			Type:      DefaultMatcher,
			Threshold: DefaultThreshold,
		},
		Parser:   ComponentConfig{Type: DefaultParser},
		Strategy: ComponentConfig{Type: DefaultStrategy},
		Execution: ExecutionConfig{
			Executor:          DefaultExecutor,
			TimeoutSeconds:    DefaultTimeout,
			PreprocessPackage: utils.Ptr(false),
		},
		Concurrency: ConcurrencyConfig{
			Parallel:   utils.Ptr(false),
			MaxWorkers: DefaultWorkers,
		},
		Output: OutputConfig{
			Path:          DefaultOutput,
			FailureIsNull: utils.Ptr(false),
		},
		Cache: CacheConfig{
			Enabled: utils.Ptr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds bulkgrade.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. If no config file
// is found, returns defaults, an empty path and a nil error.
func Load(startDir string) (*BatchSpec, string, error) {
	path, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), "", nil
		}
		return nil, "", fmt.Errorf("loading %s: %w", FileName, err)
	}

	spec, err := LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return spec, path, nil
}

// LoadFile reads the spec at path, validates it against the JSON schema and
// merges it onto the defaults.
func LoadFile(path string) (*BatchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and schema-validates YAML, then merges it onto the defaults.
func Parse(data []byte) (*BatchSpec, error) {
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, &SchemaError{Errors: errs}
	}

	var fileSpec BatchSpec
	if err := yaml.Unmarshal(data, &fileSpec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	fileSpec.Matcher.Config = stringKeys(fileSpec.Matcher.Config)
	fileSpec.Parser.Config = stringKeys(fileSpec.Parser.Config)
	fileSpec.Strategy.Config = stringKeys(fileSpec.Strategy.Config)

	spec := New()
	mergeSpec(spec, &fileSpec)
	return spec, nil
}

// stringKeys rewrites nested YAML maps with non-string keys, such as weights
// keyed by test index, into map[string]any for the component factories.
func stringKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = stringKeysValue(v)
	}
	return out
}

func stringKeysValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return stringKeys(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[fmt.Sprint(k)] = stringKeysValue(v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = stringKeysValue(v2)
		}
		return out
	default:
		return val
	}
}

// findConfigFile walks up from dir looking for bulkgrade.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// mergeSpec overlays non-zero values from src onto dst.
func mergeSpec(dst, src *BatchSpec) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Assignment != "" {
		dst.Assignment = src.Assignment
	}

	// Matcher
	if src.Matcher.Type != "" {
		dst.Matcher.Type = src.Matcher.Type
	}
	if src.Matcher.Threshold != 0 {
		dst.Matcher.Threshold = src.Matcher.Threshold
	}
	if src.Matcher.Config != nil {
		dst.Matcher.Config = src.Matcher.Config
	}

	// Parser and strategy are replaced as a unit so that config keys from
	// one type never leak into another.
	if src.Parser.Type != "" {
		dst.Parser = src.Parser
	}
	if src.Strategy.Type != "" {
		dst.Strategy = src.Strategy
	}

	// Execution
	e := &src.Execution
	if e.Executor != "" {
		dst.Execution.Executor = e.Executor
	}
	if e.Prefix != "" {
		dst.Execution.Prefix = e.Prefix
	}
	if e.TestDir != "" {
		dst.Execution.TestDir = e.TestDir
	}
	if e.Classpath != nil {
		dst.Execution.Classpath = e.Classpath
	}
	if e.TimeoutSeconds != 0 {
		dst.Execution.TimeoutSeconds = e.TimeoutSeconds
	}
	if e.PreprocessPackage != nil {
		dst.Execution.PreprocessPackage = e.PreprocessPackage
	}
	if e.Javac != "" {
		dst.Execution.Javac = e.Javac
	}
	if e.Java != "" {
		dst.Execution.Java = e.Java
	}
	if e.MockTranscript != "" {
		dst.Execution.MockTranscript = e.MockTranscript
	}

	// Concurrency
	if src.Concurrency.Parallel != nil {
		dst.Concurrency.Parallel = src.Concurrency.Parallel
	}
	if src.Concurrency.MaxWorkers != 0 {
		dst.Concurrency.MaxWorkers = src.Concurrency.MaxWorkers
	}

	// Output
	o := &src.Output
	if o.Path != "" {
		dst.Output.Path = o.Path
	}
	if o.FailureIsNull != nil {
		dst.Output.FailureIsNull = o.FailureIsNull
	}
	if o.JUnit != "" {
		dst.Output.JUnit = o.JUnit
	}
	if o.JSON != "" {
		dst.Output.JSON = o.JSON
	}
	if o.HTML != "" {
		dst.Output.HTML = o.HTML
	}
	if o.TranscriptDir != "" {
		dst.Output.TranscriptDir = o.TranscriptDir
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

// Validate checks the semantic constraints the schema cannot express.
func (s *BatchSpec) Validate() error {
	var errs []error
	if s.Matcher.Threshold < 0 || s.Matcher.Threshold > 100 {
		errs = append(errs, fmt.Errorf("matcher.threshold must be between 0 and 100, got %d", s.Matcher.Threshold))
	}
	if s.Concurrency.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("concurrency.max_workers must be >= 0, got %d", s.Concurrency.MaxWorkers))
	}
	if s.Execution.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("execution.timeout_seconds must be >= 0, got %d", s.Execution.TimeoutSeconds))
	}
	switch s.Execution.Executor {
	case ExecutorJava:
		if s.Execution.Prefix == "" {
			errs = append(errs, errors.New("execution.prefix is required for the java executor"))
		}
		if s.Execution.TestDir == "" {
			errs = append(errs, errors.New("execution.test_dir is required for the java executor"))
		}
	case ExecutorMock:
	default:
		errs = append(errs, fmt.Errorf("unknown executor %q", s.Execution.Executor))
	}
	return errors.Join(errs...)
}

// Workers returns the worker count: 1 unless parallel grading is enabled.
func (s *BatchSpec) Workers() int {
	if s.Concurrency.Parallel == nil || !*s.Concurrency.Parallel {
		return 1
	}
	if s.Concurrency.MaxWorkers <= 0 {
		return DefaultWorkers
	}
	return s.Concurrency.MaxWorkers
}

// Marshal renders the spec as YAML.
func (s *BatchSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// SchemaError lists the schema violations found in a config file.
type SchemaError struct {
	Errors []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid %s:\n  %s", FileName, strings.Join(e.Errors, "\n  "))
}

// Bool dereferences an optional flag.
func Bool(b *bool) bool {
	return b != nil && *b
}
