package matching

import "github.com/spboyer/bulkgrade/internal/models"

// CompositeMatcher tries each matcher in order and returns the first match.
type CompositeMatcher struct {
	matchers []Matcher
}

func NewCompositeMatcher(matchers ...Matcher) *CompositeMatcher {
	return &CompositeMatcher{matchers: matchers}
}

func (m *CompositeMatcher) Name() string { return string(TypeComposite) }

func (m *CompositeMatcher) FindMatch(target string, candidates []models.StudentRecord, threshold int) (*models.StudentRecord, bool) {
	for _, child := range m.matchers {
		if rec, ok := child.FindMatch(target, candidates, threshold); ok {
			return rec, true
		}
	}
	return nil, false
}
