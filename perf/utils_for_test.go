package perf

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SeriesFixture is a numeric series stored in testdata/<TestName>.json.
type SeriesFixture struct {
	Series   []float64 `json:"series"`
	Expected []int     `json:"expected"`
}

func LoadFixture(testName string, fixture interface{}) error {
	parts := strings.Split(testName, "/")
	testName = parts[len(parts)-1]

	data, err := os.ReadFile(fmt.Sprintf("testdata/%s.json", testName))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, fixture)
}

func timestampPtr(ts int64) *int64 { return &ts }

// makeSeries builds a series for metric with one observation per day,
// starting at start.
func makeSeries(name, metric string, start int64, values []float64) *Series {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{
			Timestamp: timestampPtr(start + int64(i)*86400),
			Metrics:   map[string]float64{metric: v},
		}
	}

	series, err := BuildSeries(name, records)
	if err != nil {
		panic(err)
	}
	return series
}

func indexRegressor(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}
