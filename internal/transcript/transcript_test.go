package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spboyer/bulkgrade/internal/execution"
	"github.com/spboyer/bulkgrade/internal/models"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"jdoe", "jdoe"},
		{"John Doe", "john-doe"},
		{"a/b\\c", "abc"},
		{"o'brien@school.edu", "obrienschooledu"},
		{"", "unnamed"},
		{"  spaces  ", "spaces"},
		{"Mixed-Case_User", "mixed-case_user"},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			got := sanitizeName(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 6, 15, 14, 30, 45, 0, time.UTC)
	got := Filename("JDoe", ts)
	want := "jdoe-20250615-143045.json"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func sampleResult() models.GradingResult {
	return models.GradingResult{
		Student:         models.StudentRecord{ID: models.StudentID{OrgID: "1", Username: "jdoe"}, FirstName: "J.", LastName: "Doe"},
		Outcome:         models.TestOutcome{Earned: 8, Possible: 10},
		Outcomes:        []models.TestOutcome{{Name: "T1", Earned: 8, Possible: 10}},
		FinalPercentage: 80,
		Status:          models.StatusPassed,
		Success:         true,
		Label:           "1-2 - Jon Doe - May 18, 2025 1224 PM",
		DurationMs:      1500,
	}
}

func TestBuild(t *testing.T) {
	start := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	resp := &execution.Response{Transcript: "Total: 8 / 10", Command: []string{"java", "Lab1"}, ExitCode: 0}

	r := Build("run-1", sampleResult(), resp, start)

	if r.RunID != "run-1" || r.Transcript != "Total: 8 / 10" {
		t.Errorf("unexpected record: %+v", r)
	}
	if want := start.Add(1500 * time.Millisecond); !r.CompletedAt.Equal(want) {
		t.Errorf("CompletedAt = %v, want %v", r.CompletedAt, want)
	}
	if len(r.Command) != 2 {
		t.Errorf("Command = %v", r.Command)
	}

	failed := sampleResult()
	failed.Success = false
	failed.Error = "no ZIP or Java files found in submission"
	r = Build("run-1", failed, nil, start)
	if r.Transcript != "" || r.ErrorMsg != failed.Error {
		t.Errorf("unexpected record for failed result: %+v", r)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	path, err := Write(dir, Build("run-1", sampleResult(), &execution.Response{Transcript: "ok"}, start))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	if filepath.Base(path) != "jdoe-20250615-140000.json" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Student.ID.Username != "jdoe" || got.FinalPercentage != 80 || got.Status != models.StatusPassed {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestWrite_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "transcripts")

	if _, err := Write(dir, Build("r", sampleResult(), nil, time.Now())); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}
