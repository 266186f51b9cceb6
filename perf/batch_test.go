package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func periodicValues(n int, last float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%5) - 2
	}
	out[n-1] = last
	return out
}

func TestAnalyzeBatch(t *testing.T) {
	series := []*Series{
		makeSeries("insert", "rps", startTimestamp, periodicValues(50, 102)),
		makeSeries("update", "rps", startTimestamp, periodicValues(50, 500)),
		makeSeries("remove", "rps", startTimestamp, []float64{42}),
		makeSeries("find", "latency", startTimestamp, periodicValues(50, 100)),
	}

	report := AnalyzeBatch(series, []string{"rps"}, OptionSet{})
	require.Len(t, report.Benchmarks, 4)
	assert.Equal(t, []string{"rps"}, report.Metrics)

	t.Run("Unaffected", func(t *testing.T) {
		insert, ok := report.Find("insert")
		require.True(t, ok)
		assert.Equal(t, 50, insert.Length)
		assert.Empty(t, insert.Errors)
		assert.Empty(t, insert.Skipped)
		assert.Empty(t, insert.Anomalies())

		check, ok := insert.CheckOutcome("rps")
		require.True(t, ok)
		assert.False(t, check.Outlier)
		assert.InDelta(t, 2*normalConsistency, check.Score, 1e-9)

		require.Len(t, insert.Scans, 1)
		assert.Empty(t, insert.Scans[0].Timestamps)
	})
	t.Run("Spike", func(t *testing.T) {
		update, ok := report.Find("update")
		require.True(t, ok)

		check, ok := update.CheckOutcome("rps")
		require.True(t, ok)
		assert.True(t, check.Outlier)

		outliers := 0
		for _, anomaly := range report.Anomalies() {
			if anomaly.Kind != AnomalyLastRunOutlier {
				continue
			}
			outliers++
			assert.Equal(t, "update", anomaly.Benchmark)
			assert.Equal(t, "rps", anomaly.Metric)
			assert.Equal(t, 500.0, anomaly.Value)
			assert.Equal(t, []int64{startTimestamp + 49*86400}, anomaly.Timestamps)
			assert.Contains(t, anomaly.String(), "update/rps")
		}
		assert.Equal(t, 1, outliers)
	})
	t.Run("ShortSeriesIsSkipped", func(t *testing.T) {
		remove, ok := report.Find("remove")
		require.True(t, ok)
		assert.Len(t, remove.Skipped, 2)
		assert.Empty(t, remove.Errors)
		assert.Empty(t, remove.Checks)
		assert.Empty(t, remove.Scans)
	})
	t.Run("MissingMetricIsAnError", func(t *testing.T) {
		find, ok := report.Find("find")
		require.True(t, ok)
		assert.Len(t, find.Errors, 2)
		assert.Empty(t, find.Skipped)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, ok := report.Find("upsert")
		assert.False(t, ok)
	})
}

func TestAnalyzeSeriesConfiguration(t *testing.T) {
	series := makeSeries("insert", "rps", startTimestamp, periodicValues(50, 102))
	opts := OptionSet{Metrics: map[string]Options{"rps": {Scorer: "mean"}}}

	report := AnalyzeSeries(series, []string{"rps"}, opts)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "configuration")
	assert.Empty(t, report.Checks)
	assert.Empty(t, report.Scans)
}

func TestAnomalyString(t *testing.T) {
	outlier := Anomaly{Benchmark: "insert", Metric: "rps", Kind: AnomalyLastRunOutlier, Value: 500, Score: 12.5}
	assert.Equal(t, "insert/rps: last run value 500 scored 12.50", outlier.String())

	brk := Anomaly{Benchmark: "insert", Metric: "rps", Kind: AnomalyStructuralBreak, Timestamps: []int64{10, 20}}
	assert.Equal(t, "insert/rps: structural break at [10 20]", brk.String())
}
