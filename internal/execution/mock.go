package execution

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// DefaultMockTranscriptFile is read from the submission folder by [MockExecutor].
const DefaultMockTranscriptFile = "transcript.txt"

// MockExecutor replays a canned transcript instead of running Java. It is
// used for dry runs and for testing parser and strategy configuration.
type MockExecutor struct {
	// TranscriptFile names the file, relative to the submission folder, whose
	// contents become the transcript.
	TranscriptFile string
	// Default is returned when the submission has no transcript file.
	Default string
}

// NewMockExecutor creates a mock executor with the default transcript file.
func NewMockExecutor(defaultTranscript string) *MockExecutor {
	return &MockExecutor{TranscriptFile: DefaultMockTranscriptFile, Default: defaultTranscript}
}

func (m *MockExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transcript := m.Default
	if m.TranscriptFile != "" && req.SubmissionDir != "" {
		data, err := os.ReadFile(filepath.Join(req.SubmissionDir, m.TranscriptFile))
		switch {
		case err == nil:
			transcript = string(data)
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	return &Response{
		Transcript: transcript,
		Command:    []string{"mock"},
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		WorkDir:    req.WorkDir,
	}, nil
}
