package operations

import (
	"strings"

	"github.com/evergreen-ci/benchwatch"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag     = "config"
	pathFlagName   = "path"
	outputFlagName = "output"

	numWorkersFlag = "workers"
	limitFlag      = "limit"

	dbURIFlag  = "dbUri"
	dbNameFlag = "dbName"

	benchmarkFlag   = "benchmark"
	metricFlag      = "metric"
	windowStartFlag = "start"
	windowEndFlag   = "end"

	webhookFlag = "webhook"
	channelFlag = "channel"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func addPathFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
		Usage: "path to a JSON or YAML benchmark history export, optionally gzipped",
	})
}

func addOutputPath(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "path to the output file, standard output when unset",
	})
}

func addConfigFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  configFlag,
		Usage: "path to a YAML analysis configuration",
	})
}

func addLimitFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.IntFlag{
		Name:  limitFlag,
		Usage: "number of latest results to analyze per benchmark",
		Value: benchwatch.DefaultHistoryLimit,
	})
}

func dbFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   dbURIFlag,
			Usage:  "specify a mongodb connection string",
			Value:  "mongodb://localhost:27017",
			EnvVar: "BENCHWATCH_MONGODB_URL",
		},
		cli.StringFlag{
			Name:   dbNameFlag,
			Usage:  "specify a database name to use",
			Value:  benchwatch.DefaultDatabaseName,
			EnvVar: "BENCHWATCH_DATABASE_NAME",
		})
}

func metricsFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringSliceFlag{
		Name:  joinFlagNames(metricFlag, "m"),
		Usage: "metric to analyze, may be repeated (default: rps)",
	})
}

func webhookFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   webhookFlag,
			Usage:  "incoming webhook url to post anomalies to",
			EnvVar: "BENCHWATCH_WEBHOOK_URL",
		},
		cli.StringFlag{
			Name:  channelFlag,
			Usage: "label prefixed to webhook messages",
		})
}

func benchmarkFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  joinFlagNames(benchmarkFlag, "b"),
			Usage: "name of the benchmark to inspect",
		},
		cli.StringFlag{
			Name:  joinFlagNames(metricFlag, "m"),
			Usage: "metric to inspect",
			Value: "rps",
		})
}

func windowFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  windowStartFlag,
			Usage: "first pivot index to test, the proportional window is used when start and end are unset",
		},
		cli.IntFlag{
			Name:  windowEndFlag,
			Usage: "pivot index the scan stops before",
		})
}

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  numWorkersFlag,
			Usage: "specify the number of worker jobs this process will have",
			Value: 2,
		})
}
