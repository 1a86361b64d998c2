package strategy

import (
	"fmt"
	"strconv"

	"github.com/spboyer/bulkgrade/internal/models"
)

// DefaultCategory collects outcomes that resolve to no other category.
const DefaultCategory = "default"

type WeightedArgs struct {
	// Weights maps a category (or test name, or test index) to its weight.
	// Unlisted categories weigh 1. Weights need not sum to 1.
	Weights map[string]float64 `mapstructure:"weights"`

	// Categories maps a test name to a category, for parsers that do not
	// categorize outcomes themselves.
	Categories map[string]string `mapstructure:"categories"`
}

// Weighted groups outcomes by category, scores each category as
// sum(earned)/sum(possible), and averages the category scores by weight.
// The returned totals are in weight units: earned = sum(w * score),
// possible = sum(w), so Percentage yields the weighted average.
type Weighted struct {
	weights    map[string]float64
	categories map[string]string
}

func NewWeighted(args WeightedArgs) (*Weighted, error) {
	for k, w := range args.Weights {
		if w < 0 {
			return nil, fmt.Errorf("weight for %q must be >= 0, got %g", k, w)
		}
	}
	return &Weighted{weights: args.Weights, categories: args.Categories}, nil
}

func (s *Weighted) Name() string { return string(TypeWeighted) }

func (s *Weighted) Calculate(outcomes []models.TestOutcome) (earned, possible float64) {
	type bucket struct {
		earned, possible float64
	}

	var order []string
	buckets := map[string]*bucket{}

	for i, o := range outcomes {
		key := s.categoryOf(i, o)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.earned += o.Earned
		b.possible += o.Possible
	}

	for _, key := range order {
		b := buckets[key]
		w := s.weight(key)
		// a category with nothing possible scores 0 but keeps its weight
		if b.possible > 0 {
			earned += w * b.earned / b.possible
		}
		possible += w
	}

	return earned, possible
}

func (s *Weighted) categoryOf(i int, o models.TestOutcome) string {
	if c, ok := s.categories[o.Name]; ok && o.Name != "" {
		return c
	}
	if o.Category != "" {
		return o.Category
	}
	if _, ok := s.weights[o.Name]; ok && o.Name != "" {
		return o.Name
	}
	if idx := strconv.Itoa(i); s.hasWeight(idx) {
		return idx
	}
	return DefaultCategory
}

func (s *Weighted) hasWeight(key string) bool {
	_, ok := s.weights[key]
	return ok
}

func (s *Weighted) weight(key string) float64 {
	if w, ok := s.weights[key]; ok {
		return w
	}
	return 1.0
}
