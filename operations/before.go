package operations

import (
	"github.com/evergreen-ci/benchwatch/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// this file contains validator functions passed to commands to check
// the contents of flags before any action runs.

func requireStringFlag(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if c.String(name) == "" {
			return errors.Errorf("flag '--%s' was not specified", name)
		}
		return nil
	}
}

// requireFileExistsIfSet checks the file named by a flag only when the
// flag has a value.
func requireFileExistsIfSet(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		path := c.String(name)
		if path != "" && !util.FileExists(path) {
			return errors.Errorf("file '%s' does not exist", path)
		}

		return nil
	}
}

func requireWindowPair(c *cli.Context) error {
	if c.IsSet(windowStartFlag) != c.IsSet(windowEndFlag) {
		return errors.Errorf("must set both '--%s' and '--%s' or neither", windowStartFlag, windowEndFlag)
	}
	return nil
}

func mergeBeforeFuncs(ops ...func(c *cli.Context) error) cli.BeforeFunc {
	return func(c *cli.Context) error {
		catcher := grip.NewBasicCatcher()

		for _, op := range ops {
			catcher.Add(op(c))
		}

		return catcher.Resolve()
	}
}
