package metrics

import "math"

// Band is one letter-grade bucket. A percentage p falls in the band when
// Floor <= p, and it is not in any higher band.
type Band struct {
	Label string  `json:"label"`
	Floor float64 `json:"floor"`
	Count int     `json:"count"`
}

// DefaultBands are the usual A-F cut-offs, highest first.
var DefaultBands = []Band{
	{Label: "A", Floor: 90},
	{Label: "B", Floor: 80},
	{Label: "C", Floor: 70},
	{Label: "D", Floor: 60},
	{Label: "F", Floor: math.Inf(-1)},
}

// Distribution counts the percentages per band. bands must be ordered from
// highest floor to lowest; DefaultBands is used when nil. NaN is skipped.
func Distribution(values []float64, bands []Band) []Band {
	if bands == nil {
		bands = DefaultBands
	}
	out := make([]Band, len(bands))
	copy(out, bands)
	for i := range out {
		out[i].Count = 0
	}

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		for i := range out {
			if v >= out[i].Floor {
				out[i].Count++
				break
			}
		}
	}
	return out
}
