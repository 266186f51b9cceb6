package operations

import (
	"context"

	"github.com/evergreen-ci/benchwatch/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Analyze runs the recency check and the structural break scan for every
// benchmark and reports the anomalies.
func Analyze() cli.Command {
	return cli.Command{
		Name:  "analyze",
		Usage: "check the latest run and scan for structural breaks in every benchmark",
		Flags: mergeFlags(
			baseFlags(dbFlags(addPathFlag()...)...),
			addConfigFlag(addLimitFlag(metricsFlags()...)...),
			webhookFlags(addOutputPath()...),
		),
		Before: mergeBeforeFuncs(requireFileExistsIfSet(pathFlagName), requireFileExistsIfSet(configFlag)),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := loadAnalysisConfig(c, c.StringSlice(metricFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configureEnvironment(ctx, c, c.String(pathFlagName) == "")
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnvironment(ctx, env)

			histories, err := loadHistories(ctx, c, env, conf.Limit)
			if err != nil {
				return errors.Wrap(err, "problem loading benchmark histories")
			}
			series, err := buildSeries(histories)
			if err != nil {
				return errors.WithStack(err)
			}

			q, err := env.GetLocalQueue()
			if err != nil {
				return errors.WithStack(err)
			}

			report, batchErr := units.RunBatch(ctx, q, series, conf.Metrics, conf.Options)
			if report == nil {
				return errors.Wrap(batchErr, "problem running analysis")
			}
			grip.Warning(message.WrapError(batchErr, message.Fields{
				"message": "some benchmarks could not be analyzed",
			}))

			if err = writeOutput(c.String(outputFlagName), report); err != nil {
				return errors.WithStack(err)
			}

			anomalies := report.Anomalies()
			grip.Info(message.Fields{
				"message":    "analysis complete",
				"benchmarks": len(report.Benchmarks),
				"metrics":    conf.Metrics,
				"anomalies":  len(anomalies),
			})

			if notifier := conf.Notifier(); notifier != nil {
				if err = notifier.NotifyAnomalies(ctx, report); err != nil {
					return errors.Wrap(err, "problem posting anomalies")
				}
			}

			return errors.WithStack(batchErr)
		},
	}
}
