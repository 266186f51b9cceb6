package perf

import (
	"fmt"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

// BenchmarkReport collects the analyses of one benchmark. Skipped lists
// analyses that were not evaluable because the series is too short; Errors
// lists any other failure. Neither prevents the remaining analyses.
type BenchmarkReport struct {
	Benchmark string        `json:"benchmark"`
	Length    int           `json:"length"`
	Checks    []CheckResult `json:"checks"`
	Scans     []BreakReport `json:"scans"`
	Skipped   []string      `json:"skipped,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// Anomaly is a single finding worth reporting.
type Anomaly struct {
	Benchmark  string  `json:"benchmark"`
	Metric     string  `json:"metric"`
	Kind       string  `json:"kind"`
	Timestamps []int64 `json:"timestamps"`
	Value      float64 `json:"value,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

const (
	AnomalyLastRunOutlier  = "last_run_outlier"
	AnomalyStructuralBreak = "structural_break"
)

func (a Anomaly) String() string {
	switch a.Kind {
	case AnomalyLastRunOutlier:
		return fmt.Sprintf("%s/%s: last run value %g scored %.2f", a.Benchmark, a.Metric, a.Value, a.Score)
	default:
		return fmt.Sprintf("%s/%s: structural break at %v", a.Benchmark, a.Metric, a.Timestamps)
	}
}

// Anomalies lists the outlying last runs and the scans that flagged at
// least one break.
func (r *BenchmarkReport) Anomalies() []Anomaly {
	out := []Anomaly{}
	for _, check := range r.Checks {
		if check.Outlier {
			out = append(out, Anomaly{
				Benchmark:  r.Benchmark,
				Metric:     check.Metric,
				Kind:       AnomalyLastRunOutlier,
				Timestamps: []int64{check.Timestamp},
				Value:      check.Value,
				Score:      check.Score,
			})
		}
	}
	for _, scan := range r.Scans {
		if len(scan.Timestamps) > 0 {
			out = append(out, Anomaly{
				Benchmark:  r.Benchmark,
				Metric:     scan.Metric,
				Kind:       AnomalyStructuralBreak,
				Timestamps: scan.Timestamps,
			})
		}
	}
	return out
}

// CheckOutcome returns the recency verdict for metric, if it was evaluated.
func (r *BenchmarkReport) CheckOutcome(metric string) (CheckResult, bool) {
	for _, check := range r.Checks {
		if check.Metric == metric {
			return check, true
		}
	}
	return CheckResult{}, false
}

func (r *BenchmarkReport) record(kind, metric string, err error) {
	msg := fmt.Sprintf("%s of '%s': %s", kind, metric, err.Error())
	if IsInsufficientData(err) {
		r.Skipped = append(r.Skipped, msg)
		grip.Debug(message.Fields{
			"message":   "analysis not evaluable",
			"benchmark": r.Benchmark,
			"metric":    metric,
			"analysis":  kind,
			"reason":    err.Error(),
		})
		return
	}

	r.Errors = append(r.Errors, msg)
	grip.Warning(message.WrapError(err, message.Fields{
		"message":   "analysis failed",
		"benchmark": r.Benchmark,
		"metric":    metric,
		"analysis":  kind,
	}))
}

// AnalyzeSeries runs the recency check and the break scan for every metric
// of one series.
func AnalyzeSeries(series *Series, metrics []string, opts OptionSet) *BenchmarkReport {
	report := &BenchmarkReport{
		Benchmark: series.Name,
		Length:    series.Len(),
		Checks:    []CheckResult{},
		Scans:     []BreakReport{},
	}

	for _, metric := range metrics {
		metricOpts, err := opts.For(metric)
		if err != nil {
			report.record("configuration", metric, err)
			continue
		}

		check, err := CheckLastRun(series, metric, metricOpts)
		if err != nil {
			report.record("last run check", metric, err)
		} else {
			report.Checks = append(report.Checks, *check)
		}

		scan, err := ScanStructuralBreaks(series, metric, metricOpts)
		if err != nil {
			report.record("break scan", metric, err)
		} else {
			report.Scans = append(report.Scans, *scan)
		}
	}

	return report
}

// BatchReport collects the reports of independently analyzed benchmarks.
type BatchReport struct {
	Metrics    []string          `json:"metrics"`
	Benchmarks []BenchmarkReport `json:"benchmarks"`
}

func (r *BatchReport) Add(report *BenchmarkReport) {
	r.Benchmarks = append(r.Benchmarks, *report)
}

// Find returns the report of the named benchmark.
func (r *BatchReport) Find(benchmark string) (*BenchmarkReport, bool) {
	for idx := range r.Benchmarks {
		if r.Benchmarks[idx].Benchmark == benchmark {
			return &r.Benchmarks[idx], true
		}
	}
	return nil, false
}

func (r *BatchReport) Anomalies() []Anomaly {
	out := []Anomaly{}
	for idx := range r.Benchmarks {
		out = append(out, r.Benchmarks[idx].Anomalies()...)
	}
	return out
}

// AnalyzeBatch analyzes each series on its own, in order.
func AnalyzeBatch(series []*Series, metrics []string, opts OptionSet) *BatchReport {
	report := &BatchReport{Metrics: metrics, Benchmarks: []BenchmarkReport{}}
	for _, s := range series {
		report.Add(AnalyzeSeries(s, metrics, opts))
	}
	return report
}
