package models

import "math"

// Status represents the outcome status of a graded submission.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

// TestOutcome is the points earned out of points possible for one test, or
// for a whole transcript when a parser only reports totals.
//
// Valid outcomes satisfy 0 <= Earned <= Possible. Parsers never emit an
// invalid outcome; they report {0, 0} instead.
type TestOutcome struct {
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// Percentage returns Earned/Possible*100, or 0 when nothing was possible.
func (o TestOutcome) Percentage() float64 {
	if o.Possible <= 0 {
		return 0
	}
	return o.Earned / o.Possible * 100
}

// Valid reports whether the outcome satisfies 0 <= Earned <= Possible.
func (o TestOutcome) Valid() bool {
	if math.IsNaN(o.Earned) || math.IsNaN(o.Possible) {
		return false
	}
	return o.Earned >= 0 && o.Possible >= 0 && o.Earned <= o.Possible
}

// IsZero reports whether nothing was parsed.
func (o TestOutcome) IsZero() bool {
	return o.Earned == 0 && o.Possible == 0
}

// GradingResult is the per-student result of one grading pass. It is built
// once and not mutated afterwards.
type GradingResult struct {
	Student StudentRecord `json:"student"`

	// Outcome holds the aggregated earned/possible after the grade strategy ran.
	Outcome TestOutcome `json:"outcome"`

	// Outcomes are the individual test outcomes the parser produced.
	Outcomes []TestOutcome `json:"outcomes,omitempty"`

	FinalPercentage float64 `json:"final_percentage"`
	Status          Status  `json:"status"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`

	Label      string `json:"label,omitempty"`
	Folder     string `json:"folder,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Grade returns the final percentage for successful results and NaN for
// failures so that callers can distinguish "no grade" from zero.
func (r GradingResult) Grade() float64 {
	if !r.Success {
		return math.NaN()
	}
	return r.FinalPercentage
}
