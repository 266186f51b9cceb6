package perf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu       sync.Mutex
	status   int
	payloads []webhookPayload
}

func (r *webhookRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload := webhookPayload{}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.payloads = append(r.payloads, payload)
	w.WriteHeader(r.status)
}

func anomalousReport() *BatchReport {
	report := &BatchReport{Metrics: []string{"rps"}}
	report.Add(&BenchmarkReport{
		Benchmark: "update",
		Length:    50,
		Checks: []CheckResult{{
			Benchmark: "update",
			Metric:    "rps",
			Timestamp: 1000,
			Value:     500,
			Score:     270,
			Outlier:   true,
		}},
	})
	return report
}

func TestWebhookNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("PostsAnomalies", func(t *testing.T) {
		recorder := &webhookRecorder{status: http.StatusOK}
		srv := httptest.NewServer(recorder)
		defer srv.Close()

		notifier := NewWebhookNotifier(srv.URL, "perf-alerts")
		require.NoError(t, notifier.NotifyAnomalies(ctx, anomalousReport()))

		require.Len(t, recorder.payloads, 1)
		payload := recorder.payloads[0]
		assert.True(t, strings.HasPrefix(payload.Text, "[perf-alerts] 1 benchmark anomalies detected"))
		assert.Contains(t, payload.Text, "update/rps")
		require.Len(t, payload.Anomalies, 1)
		assert.Equal(t, AnomalyLastRunOutlier, payload.Anomalies[0].Kind)
	})
	t.Run("SkipsQuietBatches", func(t *testing.T) {
		recorder := &webhookRecorder{status: http.StatusOK}
		srv := httptest.NewServer(recorder)
		defer srv.Close()

		report := &BatchReport{}
		report.Add(&BenchmarkReport{Benchmark: "insert", Checks: []CheckResult{{Metric: "rps"}}})

		require.NoError(t, NewWebhookNotifier(srv.URL, "").NotifyAnomalies(ctx, report))
		assert.Empty(t, recorder.payloads)
	})
	t.Run("AcceptsNoContent", func(t *testing.T) {
		recorder := &webhookRecorder{status: http.StatusNoContent}
		srv := httptest.NewServer(recorder)
		defer srv.Close()

		require.NoError(t, NewWebhookNotifier(srv.URL, "").NotifyAnomalies(ctx, anomalousReport()))
		assert.Len(t, recorder.payloads, 1)
	})
	t.Run("RejectedPost", func(t *testing.T) {
		recorder := &webhookRecorder{status: http.StatusBadRequest}
		srv := httptest.NewServer(recorder)
		defer srv.Close()

		err := NewWebhookNotifier(srv.URL, "").NotifyAnomalies(ctx, anomalousReport())
		assert.Error(t, err)
	})
}
