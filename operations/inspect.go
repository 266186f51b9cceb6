package operations

import (
	"context"

	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func inspectFlags() []cli.Flag {
	return mergeFlags(
		baseFlags(dbFlags(addPathFlag()...)...),
		addConfigFlag(addLimitFlag(benchmarkFlags()...)...),
		addOutputPath(),
	)
}

// inspectSeries loads the series and the options of one benchmark metric.
func inspectSeries(ctx context.Context, c *cli.Context) (*perf.Series, perf.Options, error) {
	conf, err := loadAnalysisConfig(c, nil)
	if err != nil {
		return nil, perf.Options{}, errors.WithStack(err)
	}

	metric := c.String(metricFlag)
	opts, err := conf.Options.For(metric)
	if err != nil {
		return nil, perf.Options{}, errors.WithStack(err)
	}

	env, err := configureEnvironment(ctx, c, c.String(pathFlagName) == "")
	if err != nil {
		return nil, perf.Options{}, errors.WithStack(err)
	}
	defer closeEnvironment(ctx, env)

	histories, err := loadHistories(ctx, c, env, conf.Limit)
	if err != nil {
		return nil, perf.Options{}, errors.Wrap(err, "problem loading benchmark histories")
	}

	series, err := findSeries(histories, c.String(benchmarkFlag))
	return series, opts, errors.WithStack(err)
}

// Check tests whether the latest run of one benchmark is an outlier.
func Check() cli.Command {
	return cli.Command{
		Name:  "check",
		Usage: "test whether the latest run of a benchmark deviates from its history",
		Flags: inspectFlags(),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(benchmarkFlag),
			requireFileExistsIfSet(pathFlagName),
			requireFileExistsIfSet(configFlag),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			series, opts, err := inspectSeries(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}

			res, err := perf.CheckLastRun(series, c.String(metricFlag), opts)
			if err != nil {
				return errors.Wrapf(err, "problem checking '%s'", series.Name)
			}

			return writeOutput(c.String(outputFlagName), res)
		},
	}
}

// Scan runs the structural break scan for one benchmark.
func Scan() cli.Command {
	return cli.Command{
		Name:  "scan",
		Usage: "scan the history of a benchmark for structural breaks",
		Flags: windowFlags(inspectFlags()...),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(benchmarkFlag),
			requireFileExistsIfSet(pathFlagName),
			requireFileExistsIfSet(configFlag),
			requireWindowPair,
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			series, opts, err := inspectSeries(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}
			if c.IsSet(windowStartFlag) {
				opts.Window = perf.Window{Start: c.Int(windowStartFlag), End: c.Int(windowEndFlag)}
			}

			report, err := perf.ScanStructuralBreaks(series, c.String(metricFlag), opts)
			if err != nil {
				return errors.Wrapf(err, "problem scanning '%s'", series.Name)
			}

			return writeOutput(c.String(outputFlagName), report)
		},
	}
}
