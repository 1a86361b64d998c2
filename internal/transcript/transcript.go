package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spboyer/bulkgrade/internal/execution"
	"github.com/spboyer/bulkgrade/internal/models"
)

// Record is the per-student audit file written after grading.
type Record struct {
	RunID           string               `json:"run_id"`
	Student         models.StudentRecord `json:"student"`
	Label           string               `json:"label"`
	StartedAt       time.Time            `json:"started_at"`
	CompletedAt     time.Time            `json:"completed_at"`
	DurationMs      int64                `json:"duration_ms"`
	Command         []string             `json:"command,omitempty"`
	ExitCode        int                  `json:"exit_code"`
	Transcript      string               `json:"transcript"`
	Stderr          string               `json:"stderr,omitempty"`
	Outcomes        []models.TestOutcome `json:"outcomes,omitempty"`
	Outcome         models.TestOutcome   `json:"outcome"`
	FinalPercentage float64              `json:"final_percentage"`
	Status          models.Status        `json:"status"`
	Cached          bool                 `json:"cached,omitempty"`
	ErrorMsg        string               `json:"error,omitempty"`
}

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for a student.
func Filename(username string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(username), ts.Format("20060102-150405"))
}

// Write serializes a Record and writes it to dir.
func Write(dir string, r *Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	path := filepath.Join(dir, Filename(r.Student.ID.Handle(), r.StartedAt))

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

// Build constructs a Record from a graded result and the executor response
// that produced it. resp may be nil when execution never started.
func Build(runID string, result models.GradingResult, resp *execution.Response, startTime time.Time) *Record {
	r := &Record{
		RunID:           runID,
		Student:         result.Student,
		Label:           result.Label,
		StartedAt:       startTime,
		CompletedAt:     startTime.Add(time.Duration(result.DurationMs) * time.Millisecond),
		DurationMs:      result.DurationMs,
		Outcomes:        result.Outcomes,
		Outcome:         result.Outcome,
		FinalPercentage: result.FinalPercentage,
		Status:          result.Status,
		Cached:          result.Cached,
		ErrorMsg:        result.Error,
	}
	if resp != nil {
		r.Command = resp.Command
		r.ExitCode = resp.ExitCode
		r.Transcript = resp.Transcript
		r.Stderr = resp.Stderr
	}
	return r
}
