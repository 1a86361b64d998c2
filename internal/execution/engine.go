package execution

import (
	"context"
	"strings"
	"time"
)

// Executor compiles and runs one submission against the instructor's tests
type Executor interface {
	// Execute prepares req.WorkDir and runs the tests in it. A non-nil error
	// means the workspace could not be set up; compile and test failures are
	// reported through Response.Success instead.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Fingerprinter is implemented by executors whose output depends only on the
// submission files and the fingerprint, which makes their responses cacheable.
type Fingerprinter interface {
	Fingerprint() Fingerprint
}

// Fingerprint describes an executor's configuration for cache keys.
type Fingerprint struct {
	// Settings are opaque configuration values such as commands and flags.
	Settings []string
	// Files are inputs whose contents affect the result, such as test sources.
	Files []string
}

// Request represents one submission to execute
type Request struct {
	// StudentID is used for logging only.
	StudentID string

	// SubmissionDir is the student's extracted upload folder.
	SubmissionDir string

	// WorkDir is the grading directory the executor populates and runs in.
	// Executors never change the process working directory.
	WorkDir string

	// Timeout overrides the executor's default when positive.
	Timeout time.Duration
}

// Response represents the result of an execution
type Response struct {
	// Transcript is the test program's standard output.
	Transcript string   `json:"transcript"`
	Stderr     string   `json:"stderr,omitempty"`
	ExitCode   int      `json:"exit_code"`
	Command    []string `json:"command,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Success    bool     `json:"success"`
	ErrorMsg   string   `json:"error,omitempty"`
	TimedOut   bool     `json:"timed_out,omitempty"`
	WorkDir    string   `json:"-"`
}

// ContainsText checks if the transcript contains text (case-insensitive)
func (r *Response) ContainsText(text string) bool {
	return strings.Contains(strings.ToLower(r.Transcript), strings.ToLower(text))
}
