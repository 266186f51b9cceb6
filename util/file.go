package util

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// IsGzip reports whether path names a gzip compressed file.
func IsGzip(path string) bool { return strings.HasSuffix(path, ".gz") }

// BaseExtension returns the extension of path, ignoring a trailing ".gz".
func BaseExtension(path string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (f *gzipFile) Close() error {
	err := f.Reader.Close()
	if ferr := f.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// OpenFile opens path for reading, decompressing it when the name ends in
// ".gz".
func OpenFile(path string) (io.ReadCloser, error) {
	if !FileExists(path) {
		return nil, errors.Errorf("file %s does not exist", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file: %s", path)
	}
	if !IsGzip(path) {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "problem reading gzip file %s", path)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

func readFile(path string) ([]byte, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading file %s", path)
	}
	return data, nil
}

func ReadFileYAML(path string, target interface{}) error {
	yamlData, err := readFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(yamlData, target); err != nil {
		return errors.Wrapf(err, "problem parsing yaml/json from file %s", path)
	}

	return nil
}

func ReadFileJSON(path string, target interface{}) error {
	jsonData, err := readFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrapf(err, "problem parsing json from file %s", path)
	}

	return nil
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}
