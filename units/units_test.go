package units

import (
	"context"
	"testing"
	"time"

	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/amboy/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startTimestamp = int64(1700000000)

func makeSeries(t *testing.T, name string, values []float64) *perf.Series {
	records := make([]perf.Record, len(values))
	for i, v := range values {
		ts := startTimestamp + int64(i)*86400
		records[i] = perf.Record{Timestamp: &ts, Metrics: map[string]float64{"rps": v}}
	}

	series, err := perf.BuildSeries(name, records)
	require.NoError(t, err)
	return series
}

func steadyValues(n int, last float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%5) - 2
	}
	out[n-1] = last
	return out
}

func TestAnalyzeBenchmarkJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("Registered", func(t *testing.T) {
		factory, err := registry.GetJobFactory(analyzeBenchmarkJobName)
		require.NoError(t, err)
		j, ok := factory().(*analyzeBenchmarkJob)
		require.True(t, ok)
		assert.Equal(t, analyzeBenchmarkJobName, j.Type().Name)
	})
	t.Run("ProducesReport", func(t *testing.T) {
		j := NewAnalyzeBenchmarkJob(makeSeries(t, "update", steadyValues(50, 500)), []string{"rps"}, perf.OptionSet{})
		assert.Contains(t, j.ID(), "analyze-benchmark.update.")

		j.Run(ctx)
		require.True(t, j.Status().Completed)
		require.NoError(t, j.Error())

		report := j.(*analyzeBenchmarkJob).Report
		require.NotNil(t, report)
		assert.Equal(t, "update", report.Benchmark)
		check, ok := report.CheckOutcome("rps")
		require.True(t, ok)
		assert.True(t, check.Outlier)
	})
	t.Run("NoSeries", func(t *testing.T) {
		j := NewAnalyzeBenchmarkJob(nil, []string{"rps"}, perf.OptionSet{})
		j.Run(ctx)
		assert.True(t, j.Status().Completed)
		assert.Error(t, j.Error())
	})
	t.Run("NoMetrics", func(t *testing.T) {
		j := NewAnalyzeBenchmarkJob(makeSeries(t, "insert", steadyValues(10, 100)), nil, perf.OptionSet{})
		j.Run(ctx)
		assert.True(t, j.Status().Completed)
		assert.Error(t, j.Error())
	})
}

func TestRunBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	series := []*perf.Series{
		makeSeries(t, "insert", steadyValues(50, 102)),
		makeSeries(t, "update", steadyValues(50, 500)),
		makeSeries(t, "remove", steadyValues(50, 101)),
		makeSeries(t, "find", []float64{7}),
	}

	t.Run("SpikeFlagsOnlyItsBenchmark", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 16)
		defer q.Close(ctx)

		report, err := RunBatch(ctx, q, series, []string{"rps"}, perf.OptionSet{})
		require.NoError(t, err)
		require.Len(t, report.Benchmarks, 4)
		for idx, s := range series {
			assert.Equal(t, s.Name, report.Benchmarks[idx].Benchmark)
		}

		flagged := map[string]bool{}
		for _, anomaly := range report.Anomalies() {
			if anomaly.Kind == perf.AnomalyLastRunOutlier {
				flagged[anomaly.Benchmark] = true
			}
		}
		assert.Equal(t, map[string]bool{"update": true}, flagged)

		find, ok := report.Find("find")
		require.True(t, ok)
		assert.Len(t, find.Skipped, 2)
	})
	t.Run("ReportsFailedJobs", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(2, 16)
		defer q.Close(ctx)

		report, err := RunBatch(ctx, q, series[:2], nil, perf.OptionSet{})
		require.Error(t, err)
		require.NotNil(t, report)
		assert.Empty(t, report.Benchmarks)
	})
	t.Run("EmptyBatch", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(1, 4)
		defer q.Close(ctx)

		report, err := RunBatch(ctx, q, nil, []string{"rps"}, perf.OptionSet{})
		require.NoError(t, err)
		assert.Empty(t, report.Benchmarks)
	})
	t.Run("NilQueue", func(t *testing.T) {
		_, err := RunBatch(ctx, nil, series, []string{"rps"}, perf.OptionSet{})
		assert.Error(t, err)
	})
}
