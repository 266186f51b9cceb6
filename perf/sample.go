package perf

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// sortedSample is an ascending copy of a sample.
type sortedSample []float64

func newSortedSample(xs []float64) (sortedSample, error) {
	if len(xs) == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "empty sample")
	}

	out := make(sortedSample, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errors.Wrapf(ErrMalformedRecord, "sample value %d is not finite", i)
		}
		out[i] = x
	}
	sort.Float64s(out)

	return out, nil
}

// Median of the sample; even sized samples average the two central values.
func (s sortedSample) Median() float64 {
	length := len(s)
	center := length / 2
	if length%2 != 0 {
		return s[center]
	}
	return (s[center] + s[center-1]) / 2.0
}

// absDeviations returns the sorted absolute deviations from center.
func (s sortedSample) absDeviations(center float64) sortedSample {
	out := make(sortedSample, len(s))
	for i, x := range s {
		out[i] = math.Abs(x - center)
	}
	sort.Float64s(out)
	return out
}
