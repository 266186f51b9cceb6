package operations

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/evergreen-ci/benchwatch/model"
	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/evergreen-ci/benchwatch/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func testApp() *cli.App {
	app := cli.NewApp()
	app.Name = "benchwatch"
	app.Commands = []cli.Command{Analyze(), Check(), Scan(), Data()}
	return app
}

func steadyHistory(name string, n int, last float64) model.BenchmarkHistory {
	h := model.BenchmarkHistory{Name: name}
	for i := 0; i < n; i++ {
		date := int64(1700000000 + i*86400)
		value := 100 + float64(i%5) - 2
		if i == n-1 {
			value = last
		}
		h.Results = append(h.Results, model.BenchmarkResult{
			Date:   &date,
			Values: map[string]float64{"rps": value, "p99": 0.01},
		})
	}
	return h
}

func writeHistories(t *testing.T, dir string) string {
	path := filepath.Join(dir, "histories.json.gz")
	require.NoError(t, model.WriteBenchmarkHistoriesFile(path, model.BenchmarkHistories{
		steadyHistory("insert", 60, 102),
		steadyHistory("update", 60, 500),
		steadyHistory("remove", 1, 100),
	}))
	return path
}

const analysisConfigWithP99 = `metrics:
  - rps
  - p99
options:
  metrics:
    p99:
      scorer: zscore
`

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeHistories(t, dir)

	t.Run("WritesReport", func(t *testing.T) {
		output := filepath.Join(dir, "report.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "analyze", "--path", input, "--output", output, "--limit", "50"}))

		report := perf.BatchReport{}
		require.NoError(t, util.ReadFileJSON(output, &report))
		assert.Equal(t, []string{"rps"}, report.Metrics)
		require.Len(t, report.Benchmarks, 3)

		update, ok := report.Find("update")
		require.True(t, ok)
		assert.Equal(t, 50, update.Length)
		check, ok := update.CheckOutcome("rps")
		require.True(t, ok)
		assert.True(t, check.Outlier)

		insert, ok := report.Find("insert")
		require.True(t, ok)
		check, ok = insert.CheckOutcome("rps")
		require.True(t, ok)
		assert.False(t, check.Outlier)

		remove, ok := report.Find("remove")
		require.True(t, ok)
		assert.Len(t, remove.Skipped, 2)
	})
	t.Run("PostsToWebhook", func(t *testing.T) {
		var mu sync.Mutex
		posted := []map[string]interface{}{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			body := map[string]interface{}{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			posted = append(posted, body)
		}))
		defer srv.Close()

		output := filepath.Join(dir, "webhook-report.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "analyze", "--path", input, "--output", output, "--metric", "rps", "--metric", "p99", "--webhook", srv.URL}))

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, posted, 1)
		assert.Contains(t, posted[0]["text"], "update/rps")
	})
	t.Run("MetricFlagWithConfiguredOptions", func(t *testing.T) {
		config := filepath.Join(dir, "analysis.yaml")
		require.NoError(t, os.WriteFile(config, []byte(analysisConfigWithP99), 0644))

		output := filepath.Join(dir, "rps-report.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "analyze", "--path", input, "--config", config, "--metric", "rps", "--output", output}))

		report := perf.BatchReport{}
		require.NoError(t, util.ReadFileJSON(output, &report))
		assert.Equal(t, []string{"rps"}, report.Metrics)
	})
	t.Run("MissingFile", func(t *testing.T) {
		assert.Error(t, testApp().Run([]string{"benchwatch", "analyze", "--path", filepath.Join(dir, "missing.json")}))
	})
	t.Run("InvalidConfig", func(t *testing.T) {
		assert.Error(t, testApp().Run([]string{"benchwatch", "analyze", "--path", input, "--limit", "-1"}))
	})
}

func TestInspectCommands(t *testing.T) {
	dir := t.TempDir()
	input := writeHistories(t, dir)

	t.Run("Check", func(t *testing.T) {
		output := filepath.Join(dir, "check.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "check", "--path", input, "--output", output, "update"}))

		res := perf.CheckResult{}
		require.NoError(t, util.ReadFileJSON(output, &res))
		assert.Equal(t, "update", res.Benchmark)
		assert.Equal(t, "rps", res.Metric)
		assert.True(t, res.Outlier)
		assert.Equal(t, 49, res.Reference.Size)
	})
	t.Run("CheckDegenerate", func(t *testing.T) {
		output := filepath.Join(dir, "check-p99.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "check", "--path", input, "--metric", "p99", "--output", output, "--benchmark", "insert"}))

		res := perf.CheckResult{}
		require.NoError(t, util.ReadFileJSON(output, &res))
		assert.True(t, res.Degenerate)
		assert.False(t, res.Outlier)
	})
	t.Run("CheckUnknownBenchmark", func(t *testing.T) {
		assert.Error(t, testApp().Run([]string{"benchwatch", "check", "--path", input, "upsert"}))
	})
	t.Run("CheckShortSeries", func(t *testing.T) {
		assert.Error(t, testApp().Run([]string{"benchwatch", "check", "--path", input, "remove"}))
	})
	t.Run("Scan", func(t *testing.T) {
		output := filepath.Join(dir, "scan.json")
		require.NoError(t, testApp().Run([]string{"benchwatch", "scan", "--path", input, "--output", output, "--start", "10", "--end", "20", "insert"}))

		report := perf.BreakReport{}
		require.NoError(t, util.ReadFileJSON(output, &report))
		assert.Equal(t, "insert", report.Benchmark)
		assert.Equal(t, perf.Window{Start: 10, End: 20}, report.Window)
	})
	t.Run("ScanNeedsBothWindowBounds", func(t *testing.T) {
		assert.Error(t, testApp().Run([]string{"benchwatch", "scan", "--path", input, "--start", "10", "insert"}))
	})
}
