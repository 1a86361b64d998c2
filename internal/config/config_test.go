package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_DefaultValues(t *testing.T) {
	s := New()

	if s.Assignment != DefaultAssignment {
		t.Fatalf("Assignment = %q, want %q", s.Assignment, DefaultAssignment)
	}
	if s.Matcher.Type != DefaultMatcher || s.Matcher.Threshold != DefaultThreshold {
		t.Fatalf("Matcher = %+v", s.Matcher)
	}
	if s.Parser.Type != DefaultParser || s.Strategy.Type != DefaultStrategy {
		t.Fatalf("Parser/Strategy = %+v/%+v", s.Parser, s.Strategy)
	}
	if s.Execution.Executor != DefaultExecutor || s.Execution.TimeoutSeconds != DefaultTimeout {
		t.Fatalf("Execution = %+v", s.Execution)
	}
	if Bool(s.Output.FailureIsNull) || Bool(s.Cache.Enabled) || Bool(s.Execution.PreprocessPackage) {
		t.Fatalf("boolean defaults should be false")
	}
	if s.Workers() != 1 {
		t.Fatalf("Workers() = %d, want 1 when not parallel", s.Workers())
	}
}

func TestParse_MergesOntoDefaults(t *testing.T) {
	s, err := Parse([]byte(`
assignment: Lab 3
matcher:
  threshold: 70
strategy:
  type: weighted
  config:
    weights:
      0: 2
      basics: 1
execution:
  prefix: TestL3
  test_dir: tests
  preprocess_package: true
concurrency:
  parallel: true
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if s.Assignment != "Lab 3" {
		t.Fatalf("Assignment = %q", s.Assignment)
	}
	if s.Matcher.Type != DefaultMatcher || s.Matcher.Threshold != 70 {
		t.Fatalf("Matcher = %+v", s.Matcher)
	}
	if s.Parser.Type != DefaultParser {
		t.Fatalf("Parser.Type = %q, want default", s.Parser.Type)
	}
	weights, ok := s.Strategy.Config["weights"].(map[string]any)
	if !ok {
		t.Fatalf("weights = %T, want map[string]any", s.Strategy.Config["weights"])
	}
	if weights["0"] != 2 {
		t.Fatalf("weights[0] = %v", weights["0"])
	}
	if !Bool(s.Execution.PreprocessPackage) || s.Execution.TimeoutSeconds != DefaultTimeout {
		t.Fatalf("Execution = %+v", s.Execution)
	}
	if s.Workers() != DefaultWorkers {
		t.Fatalf("Workers() = %d, want %d", s.Workers(), DefaultWorkers)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestParse_SchemaError(t *testing.T) {
	_, err := Parse([]byte("matcher:\n  type: soundex\n"))

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Parse() error = %v, want *SchemaError", err)
	}
	if !strings.Contains(err.Error(), "/matcher/type") {
		t.Fatalf("error %q should name the failing location", err)
	}
}

func TestValidate(t *testing.T) {
	s := New()
	err := s.Validate()
	if err == nil {
		t.Fatalf("Validate() should require prefix and test_dir for java")
	}
	for _, want := range []string{"execution.prefix", "execution.test_dir"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}

	s.Execution.Executor = ExecutorMock
	if err := s.Validate(); err != nil {
		t.Fatalf("mock executor needs no prefix: %v", err)
	}

	s.Matcher.Threshold = 101
	if err := s.Validate(); err == nil {
		t.Fatalf("threshold 101 should be rejected")
	}
}

func TestLoad_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("name: Lab 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, path, err := Load(nested)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Name != "Lab 1" {
		t.Fatalf("Name = %q", s.Name)
	}
	if path != filepath.Join(root, FileName) {
		t.Fatalf("path = %q", path)
	}
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	s, path, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" || s.Assignment != DefaultAssignment {
		t.Fatalf("Load() = %+v, %q", s, path)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	s := New()
	s.Execution.Prefix = "TestL1"
	s.Execution.TestDir = "tests"

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error: %v\n%s", err, data)
	}
	if back.Execution.Prefix != "TestL1" {
		t.Fatalf("Prefix = %q", back.Execution.Prefix)
	}
}

func TestNewBatchConfig_DefaultValues(t *testing.T) {
	cfg := NewBatchConfig(nil)

	if cfg.Spec() == nil {
		t.Fatalf("Spec() = nil, want defaults")
	}
	if cfg.SpecDir() != "" || cfg.RosterPath() != "" || cfg.SubmissionsPath() != "" {
		t.Fatalf("paths should be empty: %+v", cfg)
	}
	if cfg.Verbose() || cfg.Limit() != 0 {
		t.Fatalf("Verbose/Limit should be zero")
	}
	if cfg.CacheDir() != "" {
		t.Fatalf("CacheDir() = %q, want empty when caching is disabled", cfg.CacheDir())
	}
}

func TestNewBatchConfig_AppliesFunctionalOptions(t *testing.T) {
	spec := New()
	spec.Execution.TestDir = "tests"
	spec.Output.TranscriptDir = "/abs/transcripts"
	enabled := true
	spec.Cache.Enabled = &enabled

	cfg := NewBatchConfig(
		spec,
		WithSpecDir("/course/lab3"),
		WithRosterPath("roster.csv"),
		WithSubmissionsPath("subs.zip"),
		WithVerbose(true),
		WithLimit(5),
	)

	if cfg.Spec() != spec {
		t.Fatalf("Spec() = %p, want %p", cfg.Spec(), spec)
	}
	if cfg.RosterPath() != "roster.csv" || cfg.SubmissionsPath() != "subs.zip" {
		t.Fatalf("paths = %q, %q", cfg.RosterPath(), cfg.SubmissionsPath())
	}
	if !cfg.Verbose() || cfg.Limit() != 5 {
		t.Fatalf("Verbose/Limit not applied")
	}
	if cfg.TestDir() != filepath.Join("/course/lab3", "tests") {
		t.Fatalf("TestDir() = %q", cfg.TestDir())
	}
	if cfg.TranscriptDir() != "/abs/transcripts" {
		t.Fatalf("TranscriptDir() = %q", cfg.TranscriptDir())
	}
	if cfg.CacheDir() != filepath.Join("/course/lab3", DefaultCacheDir) {
		t.Fatalf("CacheDir() = %q", cfg.CacheDir())
	}
}
