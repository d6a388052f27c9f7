package domain

import "math"

// Sample is one spatial chlorophyll measurement. The JSON shape is the
// artifact file format consumed by the dashboard.
type Sample struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Value float64 `json:"value"`
}

// Valid reports whether the sample carries a finite concentration.
func (s Sample) Valid() bool {
	return isFinite(s.Value)
}

// FilterFinite returns the samples whose value is finite. The input is not
// modified.
func FilterFinite(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
