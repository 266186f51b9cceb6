package model

import (
	"github.com/evergreen-ci/benchwatch/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// LoadBenchmarkHistoriesFile reads an export file holding a list of
// benchmark histories. The format follows the extension: ".json", ".yaml"
// or ".yml", each optionally followed by ".gz".
func LoadBenchmarkHistoriesFile(path string) (BenchmarkHistories, error) {
	out := BenchmarkHistories{}

	var err error
	switch ext := util.BaseExtension(path); ext {
	case ".json":
		err = util.ReadFileJSON(path, &out)
	case ".yaml", ".yml":
		err = util.ReadFileYAML(path, &out)
	default:
		return nil, errors.Errorf("cannot read benchmark histories from '%s' files", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "problem loading benchmark histories from %s", path)
	}

	grip.Debug(message.Fields{
		"message":    "loaded benchmark histories",
		"path":       path,
		"benchmarks": len(out),
	})

	return out, nil
}

// WriteBenchmarkHistoriesFile writes histories as JSON, compressed when
// path ends in ".gz".
func WriteBenchmarkHistoriesFile(path string, histories BenchmarkHistories) error {
	if ext := util.BaseExtension(path); ext != ".json" {
		return errors.Errorf("cannot write benchmark histories to '%s' files", ext)
	}

	return errors.Wrapf(util.WriteJSON(path, histories), "problem writing benchmark histories to %s", path)
}
