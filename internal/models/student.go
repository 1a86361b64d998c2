package models

import "strings"

// StudentID identifies a roster entry. Both fields are unique within a roster.
type StudentID struct {
	OrgID    string `json:"org_defined_id"`
	Username string `json:"username"`
}

// Normalize strips the "#" prefix and stray spaces that LMS exports put in
// front of identifiers.
func (id StudentID) Normalize() StudentID {
	clean := func(s string) string {
		s = strings.ReplaceAll(s, "#", "")
		return strings.ReplaceAll(s, " ", "")
	}
	return StudentID{OrgID: clean(id.OrgID), Username: clean(id.Username)}
}

// Handle is the username, or the org-defined ID for rows without one. It
// names per-student files and directories.
func (id StudentID) Handle() string {
	if id.Username != "" {
		return id.Username
	}
	return id.OrgID
}

func (id StudentID) String() string {
	return id.OrgID + "/" + id.Username
}

// StudentRecord is a single roster row. Records are read-only once loaded.
type StudentRecord struct {
	ID        StudentID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`

	// OriginalGrade is the grade column from the roster export, if any.
	OriginalGrade string `json:"original_grade,omitempty"`
}

// FullName returns "First Last", trimmed.
func (s StudentRecord) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
