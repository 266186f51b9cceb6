package operations

import (
	"context"

	"github.com/evergreen-ci/benchwatch"
	"github.com/evergreen-ci/benchwatch/model"
	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/evergreen-ci/benchwatch/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// configureEnvironment configures the global environment from the command
// flags. The database is only connected when useDB is set.
func configureEnvironment(ctx context.Context, c *cli.Context, useDB bool) (benchwatch.Environment, error) {
	conf := &benchwatch.Configuration{NumWorkers: c.Int(numWorkersFlag)}
	if useDB {
		conf.MongoDBURI = c.String(dbURIFlag)
		conf.DatabaseName = c.String(dbNameFlag)
	}

	env := benchwatch.GetEnvironment()
	if err := env.Configure(ctx, conf); err != nil {
		return nil, errors.Wrap(err, "problem configuring environment")
	}

	return env, nil
}

func closeEnvironment(ctx context.Context, env benchwatch.Environment) {
	grip.Warning(message.WrapError(env.Close(ctx), message.Fields{
		"message": "problem closing environment",
	}))
}

// loadAnalysisConfig reads the configuration file when one is given and
// applies the command line overrides. Metrics replace the configured list
// when not empty.
func loadAnalysisConfig(c *cli.Context, metrics []string) (*model.AnalysisConfig, error) {
	conf := &model.AnalysisConfig{}
	if path := c.String(configFlag); path != "" {
		var err error
		conf, err = model.LoadAnalysisConfig(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if len(metrics) > 0 {
		conf.Metrics = metrics
	}
	if c.IsSet(limitFlag) || conf.Limit == 0 {
		conf.Limit = c.Int(limitFlag)
	}
	if url := c.String(webhookFlag); url != "" {
		conf.Webhook = model.WebhookConfig{URL: url, Channel: c.String(channelFlag)}
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid analysis configuration")
	}

	return conf, nil
}

// loadHistories reads the histories from the export file named by the
// path flag, or from the database when no file is given.
func loadHistories(ctx context.Context, c *cli.Context, env benchwatch.Environment, limit int) (model.BenchmarkHistories, error) {
	if path := c.String(pathFlagName); path != "" {
		histories, err := model.LoadBenchmarkHistoriesFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return histories.Limit(limit), nil
	}

	histories, err := model.FindBenchmarkHistories(ctx, env, limit)
	return histories, errors.WithStack(err)
}

// buildSeries converts histories to series. Malformed results are logged
// and left out.
func buildSeries(histories model.BenchmarkHistories) ([]*perf.Series, error) {
	series, err := histories.Series()
	if perf.IsMalformedRecord(err) {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":    "skipped malformed benchmark results",
			"benchmarks": len(histories),
		}))
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// findSeries returns the series of one benchmark.
func findSeries(histories model.BenchmarkHistories, name string) (*perf.Series, error) {
	history, ok := histories.Find(name)
	if !ok {
		return nil, errors.Errorf("no results for benchmark '%s'", name)
	}

	series, err := buildSeries(model.BenchmarkHistories{*history})
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.Wrapf(perf.ErrInsufficientData, "benchmark '%s' has no valid results", name)
	}

	return series[0], nil
}

func writeOutput(path string, data interface{}) error {
	if path == "" {
		return errors.WithStack(util.PrintJSON(data))
	}

	return errors.Wrapf(util.WriteJSON(path, data), "problem writing %s", path)
}
