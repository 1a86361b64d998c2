package orchestration

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/bulkgrade/internal/models"
)

// FilterSubmissions returns the subset of matched submissions whose student
// username, roster full name or submitted display name matches at least one
// of the given glob patterns (case-insensitive). An empty patterns slice
// returns all submissions unchanged.
func FilterSubmissions(subs []models.Submission, patterns []string) ([]models.Submission, error) {
	if len(patterns) == 0 {
		return subs, nil
	}

	var matched []models.Submission
	for _, s := range subs {
		ok, err := matchesAny(s, patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// matchesAny reports whether a submission matches any pattern.
func matchesAny(s models.Submission, patterns []string) (bool, error) {
	candidates := []string{s.Label.DisplayName}
	if s.Matched != nil {
		candidates = append(candidates, s.Matched.ID.Username, s.Matched.FullName())
	}

	for _, p := range patterns {
		p = strings.ToLower(p)
		for _, c := range candidates {
			ok, err := filepath.Match(p, strings.ToLower(c))
			if err != nil {
				return false, fmt.Errorf("invalid student filter pattern %q: %w", p, err)
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}
