package model

import (
	"net/url"

	"github.com/evergreen-ci/benchwatch"
	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/evergreen-ci/benchwatch/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

const defaultMetric = "rps"

// AnalysisConfig is the YAML document that tunes a batch analysis.
type AnalysisConfig struct {
	Metrics []string       `yaml:"metrics" json:"metrics"`
	Limit   int            `yaml:"limit" json:"limit"`
	Options perf.OptionSet `yaml:"options" json:"options"`
	Webhook WebhookConfig  `yaml:"webhook" json:"webhook"`
}

// WebhookConfig names the chat webhook anomalies are posted to. An empty
// URL disables posting.
type WebhookConfig struct {
	URL     string `yaml:"url" json:"url"`
	Channel string `yaml:"channel" json:"channel"`
}

func (c *WebhookConfig) IsZero() bool { return c.URL == "" }

// NewAnalysisConfig returns the configuration used when no file is given.
func NewAnalysisConfig() *AnalysisConfig {
	conf := &AnalysisConfig{}
	grip.Warning(conf.Validate())
	return conf
}

// LoadAnalysisConfig reads and validates an analysis configuration file.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	conf := &AnalysisConfig{}
	if err := util.ReadFileYAML(path, conf); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid analysis configuration in %s", path)
	}

	return conf, nil
}

// Validate fills defaults and checks the options of every metric.
func (c *AnalysisConfig) Validate() error {
	if len(c.Metrics) == 0 {
		c.Metrics = []string{defaultMetric}
	}
	if c.Limit == 0 {
		c.Limit = benchwatch.DefaultHistoryLimit
	}

	catcher := grip.NewBasicCatcher()
	catcher.ErrorfWhen(c.Limit < 0, "history limit %d is negative", c.Limit)

	seen := map[string]bool{}
	for _, metric := range c.Metrics {
		if metric == "" {
			catcher.New("metric names must not be empty")
			continue
		}
		catcher.ErrorfWhen(seen[metric], "metric '%s' is listed more than once", metric)
		seen[metric] = true

		_, err := c.Options.For(metric)
		catcher.Add(err)
	}
	for metric := range c.Options.Metrics {
		if seen[metric] {
			continue
		}
		_, err := c.Options.For(metric)
		catcher.Add(err)
	}

	if !c.Webhook.IsZero() {
		u, err := url.Parse(c.Webhook.URL)
		if err != nil {
			catcher.Wrapf(err, "invalid webhook url")
		} else {
			catcher.ErrorfWhen(u.Scheme != "http" && u.Scheme != "https", "webhook url '%s' is not http(s)", c.Webhook.URL)
		}
	}

	return catcher.Resolve()
}

// Notifier returns the webhook notifier, or nil when none is configured.
func (c *AnalysisConfig) Notifier() perf.AnomalyNotifier {
	if c.Webhook.IsZero() {
		return nil
	}
	return perf.NewWebhookNotifier(c.Webhook.URL, c.Webhook.Channel)
}
