package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileDoc struct {
	Name   string         `json:"name" yaml:"name"`
	Values map[string]int `json:"values" yaml:"values"`
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	doc := fileDoc{Name: "insert", Values: map[string]int{"rps": 10}}

	t.Run("Extensions", func(t *testing.T) {
		assert.True(t, IsGzip("results.json.gz"))
		assert.False(t, IsGzip("results.json"))
		assert.Equal(t, ".json", BaseExtension("results.JSON.gz"))
		assert.Equal(t, ".yaml", BaseExtension("/tmp/results.yaml"))
	})
	t.Run("Exists", func(t *testing.T) {
		assert.False(t, FileExists(""))
		assert.False(t, FileExists(filepath.Join(dir, "missing.json")))
		assert.True(t, FileExists(dir))
	})
	for _, name := range []string{"doc.json", "doc.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteJSON(path, doc))

			out := fileDoc{}
			require.NoError(t, ReadFileJSON(path, &out))
			assert.Equal(t, doc, out)

			// json is a subset of yaml
			out = fileDoc{}
			require.NoError(t, ReadFileYAML(path, &out))
			assert.Equal(t, doc, out)
		})
	}
	t.Run("PlainFileIsNotGzip", func(t *testing.T) {
		path := filepath.Join(dir, "plain.json.gz")
		require.NoError(t, os.WriteFile(path, []byte(`{"name": "insert"}`), 0644))

		_, err := OpenFile(path)
		assert.Error(t, err)
	})
	t.Run("Missing", func(t *testing.T) {
		out := fileDoc{}
		err := ReadFileYAML(filepath.Join(dir, "missing.yaml"), &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})
	t.Run("Invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name": `), 0644))
		assert.Error(t, ReadFileJSON(path, &fileDoc{}))
	})
}
