package perf

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	chowName = "chow"

	DefaultAlpha  = 0.000005
	DefaultParams = 2

	// the default window covers pivots [19, 36) of a 50 point history and
	// scales with the length of other histories.
	windowStartNumerator = 19
	windowEndNumerator   = 36
	windowDenominator    = 50

	// residual sums of squares within this share of the centered sum of
	// squares of the response are rounding noise.
	relativeSSRTolerance = 1e-12
	epsilon              = 2.220446049250313e-16
)

// Window is the half-open range [Start, End) of candidate pivots.
type Window struct {
	Start int `json:"start" yaml:"start" bson:"start"`
	End   int `json:"end" yaml:"end" bson:"end"`
}

func (w Window) IsZero() bool { return w.Start == 0 && w.End == 0 }
func (w Window) Len() int     { return w.End - w.Start }

// ProportionalWindow returns the default pivot window for a series of
// length n, which is [19, 36) when n is 50. The window never includes the
// first or last index.
func ProportionalWindow(n int) Window {
	w := Window{
		Start: n * windowStartNumerator / windowDenominator,
		End:   n * windowEndNumerator / windowDenominator,
	}
	if w.Start < 1 {
		w.Start = 1
	}
	if w.End > n-1 {
		w.End = n - 1
	}
	return w
}

// resolve clips w to the interior pivots [1, n-1) of a series of length
// n. The zero window resolves to ProportionalWindow(n). A window with no
// interior pivot left is an error.
func (w Window) resolve(n int) (Window, error) {
	if w.IsZero() {
		w = ProportionalWindow(n)
	}
	if w.Start < 1 {
		w.Start = 1
	}
	if w.End > n-1 {
		w.End = n - 1
	}
	if w.Start >= w.End {
		return w, errors.Wrapf(ErrInsufficientData, "window [%d, %d) has no interior pivots for a series of %d", w.Start, w.End, n)
	}
	return w, nil
}

// ChowTest compares one linear fit over a whole series with separate fits
// before and after a pivot. The pivot observation belongs to neither side.
type ChowTest struct {
	Alpha  float64 `json:"alpha"`
	Params int     `json:"params"`
}

func NewChowTest() ChowTest { return ChowTest{Alpha: DefaultAlpha, Params: DefaultParams} }

type ChowResult struct {
	Pivot     int     `json:"pivot"`
	Statistic float64 `json:"statistic"`
	Critical  float64 `json:"critical"`
	DFNum     int     `json:"df_num"`
	DFDen     int     `json:"df_den"`
	SSRTotal  float64 `json:"ssr_total"`
	SSRBefore float64 `json:"ssr_before"`
	SSRAfter  float64 `json:"ssr_after"`
	Break     bool    `json:"break"`
}

type chowResultAlias ChowResult

// MarshalJSON writes an infinite statistic, which a perfect split produces,
// as null.
func (r ChowResult) MarshalJSON() ([]byte, error) {
	out := struct {
		chowResultAlias
		Statistic *float64 `json:"statistic"`
	}{chowResultAlias: chowResultAlias(r)}
	if !math.IsInf(r.Statistic, 0) {
		out.Statistic = &r.Statistic
	}
	return json.Marshal(out)
}

func (r *ChowResult) UnmarshalJSON(data []byte) error {
	in := struct {
		*chowResultAlias
		Statistic *float64 `json:"statistic"`
	}{chowResultAlias: (*chowResultAlias)(r)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Statistic = math.Inf(1)
	if in.Statistic != nil {
		r.Statistic = *in.Statistic
	}
	return nil
}

// ScanResult holds every evaluated pivot of a window scan, in pivot order,
// and the pivots that could not be evaluated.
type ScanResult struct {
	Window      Window       `json:"window"`
	Results     []ChowResult `json:"results"`
	Unevaluable []int        `json:"unevaluable,omitempty"`
}

// Breaks returns the results flagged as structural breaks.
func (r *ScanResult) Breaks() []ChowResult {
	out := []ChowResult{}
	for _, res := range r.Results {
		if res.Break {
			out = append(out, res)
		}
	}
	return out
}

// wholeFit carries the parts of the test that only depend on the complete
// series.
type wholeFit struct {
	ssr       float64
	tolerance float64
	critical  float64
	dfn       int
	dfd       int
}

// ssrTolerance bounds the rounding error of a residual sum of squares for
// y. Sums at or below it are treated as an exact fit.
func ssrTolerance(y []float64) float64 {
	mean := stat.Mean(y, nil)
	var centered, largest float64
	for _, v := range y {
		centered += (v - mean) * (v - mean)
		largest = math.Max(largest, math.Abs(v))
	}

	floor := 16 * epsilon * largest
	return relativeSSRTolerance*centered + float64(len(y))*floor*floor
}

func (c ChowTest) validate() error {
	if c.Params < 1 {
		return errors.Errorf("chow test needs a positive parameter count, not %d", c.Params)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return errors.Errorf("chow test alpha %g is not in (0, 1)", c.Alpha)
	}
	return nil
}

func (c ChowTest) fitWhole(x, y []float64) (wholeFit, error) {
	if err := c.validate(); err != nil {
		return wholeFit{}, err
	}
	if len(x) != len(y) {
		return wholeFit{}, errors.Errorf("regressor has %d values but response has %d", len(x), len(y))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return wholeFit{}, errors.Wrapf(ErrMalformedRecord, "response value %d is not finite", i)
		}
	}

	w := wholeFit{dfn: c.Params, dfd: len(x) - 2*c.Params}
	if w.dfd <= 0 {
		return wholeFit{}, errors.Wrapf(ErrInsufficientData, "%d observations leave %d denominator degrees of freedom", len(x), w.dfd)
	}

	total, err := fitLinear(x, y, c.Params)
	if err != nil {
		return wholeFit{}, errors.Wrap(err, "fitting whole series")
	}
	w.ssr = total.SSR
	w.tolerance = ssrTolerance(y)
	w.critical = distuv.F{D1: float64(w.dfn), D2: float64(w.dfd)}.Quantile(1 - c.Alpha)

	return w, nil
}

func (c ChowTest) testPivot(x, y []float64, pivot int, whole wholeFit) (ChowResult, error) {
	if pivot <= 0 || pivot >= len(x)-1 {
		return ChowResult{}, errors.Wrapf(ErrInsufficientData, "pivot %d leaves an empty side in a series of %d", pivot, len(x))
	}

	before, err := fitLinear(x[:pivot], y[:pivot], c.Params)
	if err != nil {
		return ChowResult{}, errors.Wrapf(err, "fitting before pivot %d", pivot)
	}
	after, err := fitLinear(x[pivot+1:], y[pivot+1:], c.Params)
	if err != nil {
		return ChowResult{}, errors.Wrapf(err, "fitting after pivot %d", pivot)
	}

	res := ChowResult{
		Pivot:     pivot,
		Critical:  whole.critical,
		DFNum:     whole.dfn,
		DFDen:     whole.dfd,
		SSRTotal:  whole.ssr,
		SSRBefore: before.SSR,
		SSRAfter:  after.SSR,
	}

	// a whole series that is already an exact line cannot break
	pooled := before.SSR + after.SSR
	switch {
	case whole.ssr <= whole.tolerance:
		res.Statistic = 0
	case pooled <= whole.tolerance:
		res.Statistic = math.Inf(1)
	default:
		numerator := (whole.ssr - pooled) / float64(whole.dfn)
		res.Statistic = numerator / (pooled / float64(whole.dfd))
	}
	res.Break = res.Statistic > res.Critical

	return res, nil
}

// Test runs the Chow test for a single pivot.
func (c ChowTest) Test(x, y []float64, pivot int) (ChowResult, error) {
	whole, err := c.fitWhole(x, y)
	if err != nil {
		return ChowResult{}, err
	}

	return c.testPivot(x, y, pivot, whole)
}

// Scan tests every pivot of the window. Pivots without enough observations
// on either side are listed as unevaluable rather than failing the scan.
func (c ChowTest) Scan(x, y []float64, window Window) (*ScanResult, error) {
	window, err := window.resolve(len(x))
	if err != nil {
		return nil, err
	}

	whole, err := c.fitWhole(x, y)
	if err != nil {
		return nil, err
	}

	out := &ScanResult{Window: window, Results: make([]ChowResult, 0, window.Len())}
	for pivot := window.Start; pivot < window.End; pivot++ {
		res, err := c.testPivot(x, y, pivot, whole)
		if IsInsufficientData(err) {
			out.Unevaluable = append(out.Unevaluable, pivot)
			continue
		} else if err != nil {
			return nil, errors.Wrapf(err, "testing pivot %d", pivot)
		}
		out.Results = append(out.Results, res)
	}

	return out, nil
}

////////////////////////////////////////////////////////////////////////
//
// ChangeDetector

type chowDetector struct {
	test   ChowTest
	window Window
	info   AlgorithmInfo
}

// NewChowDetector returns a ChangeDetector that scans the window of a
// series, using the position in the series as the regressor. The zero
// window selects ProportionalWindow.
func NewChowDetector(test ChowTest, window Window) ChangeDetector {
	return &chowDetector{
		test:   test,
		window: window,
		info: AlgorithmInfo{
			Name:    chowName,
			Version: 1,
			Options: []AlgorithmOption{
				{Name: "alpha", Value: test.Alpha},
				{Name: "k", Value: test.Params},
				{Name: "window", Value: window},
			},
		},
	}
}

func newChowDetector(test ChowTest, window Window) *chowDetector {
	return NewChowDetector(test, window).(*chowDetector)
}

func (d *chowDetector) scan(x, y []float64) (*ScanResult, error) { return d.test.Scan(x, y, d.window) }

func (d *chowDetector) DetectChanges(series []float64) ([]ChangePoint, error) {
	x := make([]float64, len(series))
	for i := range x {
		x[i] = float64(i)
	}

	res, err := d.scan(x, series)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	breaks := res.Breaks()
	out := make([]ChangePoint, 0, len(breaks))
	for _, b := range breaks {
		out = append(out, ChangePoint{
			Index: b.Pivot,
			Info:  d.info,
		})
	}
	return out, nil
}
