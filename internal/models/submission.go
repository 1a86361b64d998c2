package models

import "time"

// SubmissionLabel is the parsed form of a submission folder name such as
// "152711-351765 - John Doe - May 18, 2025 1224 PM".
type SubmissionLabel struct {
	DisplayName string    `json:"display_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// Submission is one student's upload as found in the submissions archive.
type Submission struct {
	// Raw is the unparsed folder name.
	Raw       string          `json:"raw"`
	Label     SubmissionLabel `json:"label"`
	Folder    string          `json:"folder,omitempty"`
	FilePaths []string        `json:"file_paths,omitempty"`

	// Matched is set once the submission has been reconciled with the roster.
	Matched *StudentRecord `json:"matched,omitempty"`
}

// SkippedLabel records a folder name that could not be parsed.
type SkippedLabel struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}
