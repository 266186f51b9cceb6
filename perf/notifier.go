package perf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// AnomalyNotifier delivers the anomalies of a batch to an external system.
type AnomalyNotifier interface {
	NotifyAnomalies(context.Context, *BatchReport) error
}

type webhookPayload struct {
	Text      string    `json:"text"`
	Anomalies []Anomaly `json:"anomalies"`
}

type webhookNotifier struct {
	url     string
	channel string
}

// NewWebhookNotifier returns a notifier that posts a chat message to an
// incoming webhook URL. Batches without anomalies are not posted.
func NewWebhookNotifier(url, channel string) AnomalyNotifier {
	return &webhookNotifier{url: url, channel: channel}
}

func formatAnomalies(anomalies []Anomaly) string {
	lines := make([]string, 0, len(anomalies)+1)
	lines = append(lines, fmt.Sprintf("%d benchmark anomalies detected", len(anomalies)))
	for _, a := range anomalies {
		lines = append(lines, "• "+a.String())
	}
	return strings.Join(lines, "\n")
}

func (n *webhookNotifier) NotifyAnomalies(ctx context.Context, report *BatchReport) error {
	anomalies := report.Anomalies()
	if len(anomalies) == 0 {
		return nil
	}

	startAt := time.Now()
	payload := webhookPayload{
		Text:      formatAnomalies(anomalies),
		Anomalies: anomalies,
	}
	if n.channel != "" {
		payload.Text = fmt.Sprintf("[%s] %s", n.channel, payload.Text)
	}

	if err := n.doRequest(ctx, payload); err != nil {
		return errors.WithStack(err)
	}

	grip.Debug(message.Fields{
		"message":       "posted anomalies to webhook",
		"anomalies":     len(anomalies),
		"duration_secs": time.Since(startAt).Seconds(),
	})

	return nil
}

func (n *webhookNotifier) doRequest(ctx context.Context, in interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding webhook payload")
	}

	conf := utility.NewDefaultHTTPRetryConf()
	conf.Errors = []error{
		// a connection dropped by a proxy can surface as an empty body
		io.EOF,
	}
	client := utility.GetHTTPRetryableClient(conf)
	defer utility.PutHTTPClient(client)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "creating webhook request")
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting to webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		grip.Warning(message.Fields{
			"message": "webhook rejected anomaly report",
			"status":  http.StatusText(resp.StatusCode),
		})
		return errors.Errorf("webhook responded with status %q", http.StatusText(resp.StatusCode))
	}
	return nil
}
