package operations

import (
	"context"

	"github.com/evergreen-ci/benchwatch/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Data moves benchmark results between export files and the database.
func Data() cli.Command {
	return cli.Command{
		Name:  "data",
		Usage: "import and export benchmark results",
		Subcommands: []cli.Command{
			importResults(),
			exportResults(),
		},
	}
}

func importResults() cli.Command {
	return cli.Command{
		Name:   "import",
		Usage:  "store the results of an export file in the database",
		Flags:  baseFlags(dbFlags(addPathFlag()...)...),
		Before: mergeBeforeFuncs(setFlagOrFirstPositional(pathFlagName), requireFileExistsIfSet(pathFlagName)),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			path := c.String(pathFlagName)
			histories, err := model.LoadBenchmarkHistoriesFile(path)
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configureEnvironment(ctx, c, true)
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnvironment(ctx, env)

			if err = model.EnsureIndexes(ctx, env); err != nil {
				return errors.WithStack(err)
			}

			count, err := model.InsertBenchmarkResults(ctx, env, histories)
			if err != nil {
				return errors.Wrapf(err, "problem importing %s", path)
			}

			grip.Info(message.Fields{
				"message":    "imported benchmark results",
				"path":       path,
				"benchmarks": len(histories),
				"results":    count,
			})
			return nil
		},
	}
}

func exportResults() cli.Command {
	return cli.Command{
		Name:   "export",
		Usage:  "write the latest results of every benchmark to an export file",
		Flags:  baseFlags(dbFlags(addLimitFlag(addOutputPath()...)...)...),
		Before: requireStringFlag(outputFlagName),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env, err := configureEnvironment(ctx, c, true)
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnvironment(ctx, env)

			histories, err := model.FindBenchmarkHistories(ctx, env, c.Int(limitFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			path := c.String(outputFlagName)
			if err = model.WriteBenchmarkHistoriesFile(path, histories); err != nil {
				return errors.WithStack(err)
			}

			grip.Info(message.Fields{
				"message":    "exported benchmark results",
				"path":       path,
				"benchmarks": len(histories),
			})
			return nil
		},
	}
}
