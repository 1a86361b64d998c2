package models

import "time"

// BatchReport is the result of one orchestrator run.
type BatchReport struct {
	RunID      string          `json:"run_id"`
	Assignment string          `json:"assignment"`
	Timestamp  time.Time       `json:"timestamp"`
	Results    []GradingResult `json:"results"`
	Buckets    Buckets         `json:"buckets"`
	Summary    Summary         `json:"summary"`
	Skipped    []SkippedLabel  `json:"skipped,omitempty"`

	// Stopped is true when the batch was cancelled before every submission ran.
	Stopped bool `json:"stopped,omitempty"`
}

// Buckets groups problem cases for the post-grading report.
type Buckets struct {
	// ZeroGrade holds successful results whose final percentage is 0.
	ZeroGrade []GradingResult `json:"zero_grade"`

	// Failed holds results where execution or grading did not succeed.
	Failed []GradingResult `json:"failed"`

	// MissingSubmission holds roster entries with no matched submission.
	MissingSubmission []StudentRecord `json:"missing_submission"`

	// UnmatchedSubmission holds submissions whose name matched no roster entry.
	UnmatchedSubmission []Submission `json:"unmatched_submission"`
}

// Summary holds the aggregate counts and statistics for a batch.
type Summary struct {
	RosterSize       int     `json:"roster_size"`
	SubmissionsFound int     `json:"submissions_found"`
	Duplicates       int     `json:"duplicates"`
	Graded           int     `json:"graded"`
	Succeeded        int     `json:"succeeded"`
	Failed           int     `json:"failed"`
	ZeroGrades       int     `json:"zero_grades"`
	Missing          int     `json:"missing"`
	Unmatched        int     `json:"unmatched"`
	Skipped          int     `json:"skipped"`
	SuccessRate      float64 `json:"success_rate"`
	MeanPercentage   float64 `json:"mean_percentage"`
	MinPercentage    float64 `json:"min_percentage"`
	MaxPercentage    float64 `json:"max_percentage"`
	MedianPercentage float64 `json:"median_percentage"`
	StdDevPercentage float64 `json:"std_dev_percentage"`
	DurationMs       int64   `json:"duration_ms"`

	// Distribution counts successful results per letter band.
	Distribution map[string]int `json:"distribution,omitempty"`
}

// HasFailures reports whether any graded submission failed.
func (r *BatchReport) HasFailures() bool {
	return len(r.Buckets.Failed) > 0
}
