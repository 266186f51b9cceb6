package perf

import (
	"github.com/aclements/go-moremath/stats"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ScorerKind names a deviation scorer.
type ScorerKind string

const (
	ScorerZScore         ScorerKind = zScoreName
	ScorerModifiedZScore ScorerKind = modifiedZScoreName
)

func (k ScorerKind) Validate() error {
	switch k {
	case ScorerZScore, ScorerModifiedZScore:
		return nil
	default:
		return errors.Errorf("'%s' is not a valid scorer", k)
	}
}

// Options tunes the analyses. Zero fields take the defaults when
// validated.
type Options struct {
	Scorer                  ScorerKind `json:"scorer" yaml:"scorer"`
	ZScoreThreshold         float64    `json:"zscore_threshold" yaml:"zscore_threshold"`
	ModifiedZScoreThreshold float64    `json:"modified_zscore_threshold" yaml:"modified_zscore_threshold"`
	Alpha                   float64    `json:"alpha" yaml:"alpha"`
	Params                  int        `json:"params" yaml:"params"`
	Window                  Window     `json:"window" yaml:"window"`
}

func DefaultOptions() Options {
	return Options{
		Scorer:                  ScorerModifiedZScore,
		ZScoreThreshold:         DefaultZScoreThreshold,
		ModifiedZScoreThreshold: DefaultModifiedZScoreThreshold,
		Alpha:                   DefaultAlpha,
		Params:                  DefaultParams,
	}
}

// Validate fills unset fields with defaults and rejects invalid values.
func (o *Options) Validate() error {
	if o.Scorer == "" {
		o.Scorer = ScorerModifiedZScore
	}
	if o.ZScoreThreshold == 0 {
		o.ZScoreThreshold = DefaultZScoreThreshold
	}
	if o.ModifiedZScoreThreshold == 0 {
		o.ModifiedZScoreThreshold = DefaultModifiedZScoreThreshold
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.Params == 0 {
		o.Params = DefaultParams
	}

	catcher := grip.NewBasicCatcher()
	catcher.Add(o.Scorer.Validate())
	catcher.NewWhen(o.ZScoreThreshold < 0, "z-score threshold must not be negative")
	catcher.NewWhen(o.ModifiedZScoreThreshold < 0, "modified z-score threshold must not be negative")
	catcher.NewWhen(o.Alpha < 0 || o.Alpha >= 1, "alpha must be in (0, 1)")
	catcher.NewWhen(o.Params < 0, "regression parameter count must be positive")
	catcher.ErrorfWhen(!o.Window.IsZero() && o.Window.Start >= o.Window.End, "window [%d, %d) is empty", o.Window.Start, o.Window.End)

	return catcher.Resolve()
}

func (o Options) scorer() Scorer {
	if o.Scorer == ScorerZScore {
		return NewZScore(o.ZScoreThreshold)
	}
	return NewModifiedZScore(o.ModifiedZScoreThreshold)
}

func (o Options) chowTest() ChowTest { return ChowTest{Alpha: o.Alpha, Params: o.Params} }

// merge overlays the non-zero fields of override.
func (o Options) merge(override Options) Options {
	if override.Scorer != "" {
		o.Scorer = override.Scorer
	}
	if override.ZScoreThreshold != 0 {
		o.ZScoreThreshold = override.ZScoreThreshold
	}
	if override.ModifiedZScoreThreshold != 0 {
		o.ModifiedZScoreThreshold = override.ModifiedZScoreThreshold
	}
	if override.Alpha != 0 {
		o.Alpha = override.Alpha
	}
	if override.Params != 0 {
		o.Params = override.Params
	}
	if !override.Window.IsZero() {
		o.Window = override.Window
	}
	return o
}

// OptionSet holds default options and per-metric overrides.
type OptionSet struct {
	Default Options            `json:"default" yaml:"default"`
	Metrics map[string]Options `json:"metrics" yaml:"metrics"`
}

// For returns the validated options for metric.
func (s OptionSet) For(metric string) (Options, error) {
	opts := s.Default
	if override, ok := s.Metrics[metric]; ok {
		opts = opts.merge(override)
	}

	if err := opts.Validate(); err != nil {
		return opts, errors.Wrapf(err, "invalid options for metric '%s'", metric)
	}
	return opts, nil
}

////////////////////////////////////////////////////////////////////////
//
// Recency check

// ReferenceSummary describes the sample the newest point is compared with.
type ReferenceSummary struct {
	Size int     `json:"size"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

func summarize(xs []float64) ReferenceSummary {
	sample := stats.Sample{Xs: xs}
	lo, hi := sample.Bounds()
	return ReferenceSummary{
		Size: len(xs),
		Min:  lo,
		Max:  hi,
		Mean: sample.Mean(),
	}
}

type CheckResult struct {
	Benchmark  string           `json:"benchmark"`
	Metric     string           `json:"metric"`
	Timestamp  int64            `json:"timestamp"`
	Value      float64          `json:"value"`
	Score      float64          `json:"score"`
	Threshold  float64          `json:"threshold"`
	Outlier    bool             `json:"outlier"`
	Degenerate bool             `json:"degenerate"`
	Fit        ScoreFit         `json:"fit"`
	Reference  ReferenceSummary `json:"reference"`
}

// CheckLastRun fits the configured scorer on every value of metric except
// the newest and tests the newest value. A constant reference sample is
// reported as not an outlier with Degenerate set.
func CheckLastRun(series *Series, metric string, opts Options) (*CheckResult, error) {
	if series == nil {
		return nil, errors.Wrapf(ErrInsufficientData, "no series for '%s'", metric)
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	values, err := series.Values(metric)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(values) < 2 {
		return nil, errors.Wrapf(ErrInsufficientData, "checking '%s' of '%s' needs 2 observations, have %d", metric, series.Name, len(values))
	}

	reference := values[:len(values)-1]
	last := series.Observations[len(values)-1]

	fit, err := opts.scorer().Fit(reference)
	if err != nil {
		return nil, errors.Wrapf(err, "fitting reference for '%s' of '%s'", metric, series.Name)
	}

	res := &CheckResult{
		Benchmark: series.Name,
		Metric:    metric,
		Timestamp: last.Timestamp,
		Value:     values[len(values)-1],
		Threshold: fit.Threshold,
		Fit:       fit,
		Reference: summarize(reference),
	}

	res.Score, err = fit.Transform(res.Value)
	if IsDegenerateScale(err) {
		res.Degenerate = true
		grip.Warning(message.WrapError(err, message.Fields{
			"message":   "reference sample has no spread, not treating last run as an outlier",
			"benchmark": series.Name,
			"metric":    metric,
			"value":     res.Value,
			"location":  fit.Location,
		}))
		return res, nil
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	res.Outlier, err = fit.Test(res.Value)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return res, nil
}

////////////////////////////////////////////////////////////////////////
//
// Window scan

type BreakReport struct {
	Benchmark   string        `json:"benchmark"`
	Metric      string        `json:"metric"`
	Window      Window        `json:"window"`
	Timestamps  []int64       `json:"timestamps"`
	Breaks      []ChowResult  `json:"breaks"`
	Unevaluable []int         `json:"unevaluable,omitempty"`
	Algorithm   AlgorithmInfo `json:"algorithm"`
}

// ScanStructuralBreaks runs the Chow test for every pivot of the configured
// window and returns the timestamps of the flagged pivots in ascending
// order. It fails with ErrInsufficientData when no pivot can be evaluated.
func ScanStructuralBreaks(series *Series, metric string, opts Options) (*BreakReport, error) {
	if series == nil {
		return nil, errors.Wrapf(ErrInsufficientData, "no series for '%s'", metric)
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	values, err := series.Values(metric)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	detector := newChowDetector(opts.chowTest(), opts.Window)
	scan, err := detector.scan(series.Indexes(), values)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning '%s' of '%s'", metric, series.Name)
	}
	if len(scan.Results) == 0 {
		return nil, errors.Wrapf(ErrInsufficientData, "no pivot in [%d, %d) of '%s' could be evaluated", scan.Window.Start, scan.Window.End, series.Name)
	}

	report := &BreakReport{
		Benchmark:   series.Name,
		Metric:      metric,
		Window:      scan.Window,
		Timestamps:  []int64{},
		Breaks:      scan.Breaks(),
		Unevaluable: scan.Unevaluable,
		Algorithm:   detector.info,
	}
	for _, b := range report.Breaks {
		report.Timestamps = append(report.Timestamps, series.Observations[b.Pivot].Timestamp)
	}

	return report, nil
}
