package config

import "path/filepath"

// BatchConfig holds a loaded spec together with the per-invocation settings
// that do not belong in bulkgrade.yaml.
type BatchConfig struct {
	spec            *BatchSpec
	specDir         string
	rosterPath      string
	submissionsPath string
	verbose         bool
	limit           int
}

// Option configures a BatchConfig.
type Option func(*BatchConfig)

// NewBatchConfig creates a BatchConfig for spec.
func NewBatchConfig(spec *BatchSpec, opts ...Option) *BatchConfig {
	if spec == nil {
		spec = New()
	}
	cfg := &BatchConfig{spec: spec}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithSpecDir sets the directory relative paths in the spec resolve against.
func WithSpecDir(dir string) Option {
	return func(c *BatchConfig) { c.specDir = dir }
}

// WithRosterPath sets the roster file.
func WithRosterPath(path string) Option {
	return func(c *BatchConfig) { c.rosterPath = path }
}

// WithSubmissionsPath sets the submissions zip or directory.
func WithSubmissionsPath(path string) Option {
	return func(c *BatchConfig) { c.submissionsPath = path }
}

// WithVerbose enables per-submission console output.
func WithVerbose(verbose bool) Option {
	return func(c *BatchConfig) { c.verbose = verbose }
}

// WithLimit grades at most n submissions; 0 means no limit.
func WithLimit(n int) Option {
	return func(c *BatchConfig) { c.limit = n }
}

func (c *BatchConfig) Spec() *BatchSpec        { return c.spec }
func (c *BatchConfig) SpecDir() string         { return c.specDir }
func (c *BatchConfig) RosterPath() string      { return c.rosterPath }
func (c *BatchConfig) SubmissionsPath() string { return c.submissionsPath }
func (c *BatchConfig) Verbose() bool           { return c.verbose }
func (c *BatchConfig) Limit() int              { return c.limit }

// Resolve returns path unchanged when absolute or empty, otherwise joined
// onto the spec directory.
func (c *BatchConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.specDir == "" {
		return path
	}
	return filepath.Join(c.specDir, path)
}

// TestDir returns the resolved test directory.
func (c *BatchConfig) TestDir() string {
	return c.Resolve(c.spec.Execution.TestDir)
}

// TranscriptDir returns the resolved transcript directory, or "".
func (c *BatchConfig) TranscriptDir() string {
	return c.Resolve(c.spec.Output.TranscriptDir)
}

// CacheDir returns the resolved cache directory when caching is enabled, or "".
func (c *BatchConfig) CacheDir() string {
	if !Bool(c.spec.Cache.Enabled) {
		return ""
	}
	return c.Resolve(c.spec.Cache.Dir)
}
