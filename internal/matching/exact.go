package matching

import "github.com/spboyer/bulkgrade/internal/models"

// ExactMatcher compares normalized names for equality.
type ExactMatcher struct{}

func (m *ExactMatcher) Name() string { return string(TypeExact) }

// FindMatch returns the first candidate whose normalized full name equals
// the normalized target. threshold is ignored.
func (m *ExactMatcher) FindMatch(target string, candidates []models.StudentRecord, _ int) (*models.StudentRecord, bool) {
	want := Normalize(target)
	if want == "" {
		return nil, false
	}

	for i := range candidates {
		if Normalize(candidates[i].FullName()) == want {
			return &candidates[i], true
		}
	}

	return nil, false
}
