package perf

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	zScoreName         = "zscore"
	modifiedZScoreName = "modified_zscore"

	DefaultZScoreThreshold         = 2.0
	DefaultModifiedZScoreThreshold = 3.5

	// normalConsistency scales the median absolute deviation so that it
	// estimates the standard deviation of normally distributed data.
	normalConsistency = 0.6745
)

// ScoreFit holds the location and scale fitted to a reference sample.
// Values are immutable: fitting again produces a new ScoreFit.
type ScoreFit struct {
	Algorithm string  `json:"algorithm"`
	Location  float64 `json:"location"`
	Scale     float64 `json:"scale"`
	Factor    float64 `json:"factor"`
	Threshold float64 `json:"threshold"`
	Size      int     `json:"size"`
}

// Degenerate reports whether the reference sample had no spread.
func (f ScoreFit) Degenerate() bool { return f.Scale == 0 }

// Transform standardizes v against the fitted sample.
func (f ScoreFit) Transform(v float64) (float64, error) {
	if f.Degenerate() {
		return 0, errors.Wrapf(ErrDegenerateScale, "%s reference sample of %d values is constant at %g", f.Algorithm, f.Size, f.Location)
	}

	return f.Factor * (v - f.Location) / f.Scale, nil
}

// Test reports whether v is an outlier under the fitted threshold.
func (f ScoreFit) Test(v float64) (bool, error) { return f.TestThreshold(v, f.Threshold) }

// TestThreshold reports whether |Transform(v)| exceeds threshold. A
// degenerate fit returns false along with ErrDegenerateScale.
func (f ScoreFit) TestThreshold(v, threshold float64) (bool, error) {
	score, err := f.Transform(v)
	if err != nil {
		return false, err
	}

	return math.Abs(score) > threshold, nil
}

////////////////////////////////////////////////////////////////////////
//
// Mean and standard deviation

type zScore struct {
	threshold float64
}

// NewZScore returns a scorer using the arithmetic mean and the population
// standard deviation. A non-positive threshold selects the default of 2.0.
func NewZScore(threshold float64) Scorer {
	if threshold <= 0 {
		threshold = DefaultZScoreThreshold
	}
	return &zScore{threshold: threshold}
}

func (s *zScore) Info() AlgorithmInfo {
	return AlgorithmInfo{
		Name:    zScoreName,
		Version: 1,
		Options: []AlgorithmOption{{Name: "threshold", Value: s.threshold}},
	}
}

func (s *zScore) Fit(sample []float64) (ScoreFit, error) {
	sorted, err := newSortedSample(sample)
	if err != nil {
		return ScoreFit{}, errors.Wrap(err, "fitting z-score")
	}

	fit := ScoreFit{
		Algorithm: zScoreName,
		Factor:    1,
		Threshold: s.threshold,
		Size:      len(sorted),
	}

	// constant samples are detected directly since the rounding in the
	// variance calculation may leave a tiny nonzero scale.
	if sorted[0] == sorted[len(sorted)-1] {
		fit.Location = sorted[0]
		return fit, nil
	}

	fit.Location, fit.Scale = stat.PopMeanStdDev(sorted, nil)
	return fit, nil
}

////////////////////////////////////////////////////////////////////////
//
// Median and median absolute deviation

type modifiedZScore struct {
	threshold float64
}

// NewModifiedZScore returns a scorer using the median and the median
// absolute deviation. A non-positive threshold selects the default of 3.5.
func NewModifiedZScore(threshold float64) Scorer {
	if threshold <= 0 {
		threshold = DefaultModifiedZScoreThreshold
	}
	return &modifiedZScore{threshold: threshold}
}

func (s *modifiedZScore) Info() AlgorithmInfo {
	return AlgorithmInfo{
		Name:    modifiedZScoreName,
		Version: 1,
		Options: []AlgorithmOption{
			{Name: "threshold", Value: s.threshold},
			{Name: "consistency", Value: normalConsistency},
		},
	}
}

func (s *modifiedZScore) Fit(sample []float64) (ScoreFit, error) {
	sorted, err := newSortedSample(sample)
	if err != nil {
		return ScoreFit{}, errors.Wrap(err, "fitting modified z-score")
	}

	median := sorted.Median()
	return ScoreFit{
		Algorithm: modifiedZScoreName,
		Location:  median,
		Scale:     sorted.absDeviations(median).Median(),
		Factor:    normalConsistency,
		Threshold: s.threshold,
		Size:      len(sorted),
	}, nil
}
