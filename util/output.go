package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// WriteJSON writes data as indented JSON to fn, compressing it when the
// name ends in ".gz".
func WriteJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if !IsGzip(fn) {
		return errors.WithStack(writeBytes(f, out))
	}

	gz := gzip.NewWriter(f)
	if err = writeBytes(gz, out); err != nil {
		_ = gz.Close()
		return errors.WithStack(err)
	}
	if err = gz.Close(); err != nil {
		return errors.Wrapf(err, "problem compressing %s", fn)
	}
	return errors.WithStack(f.Sync())
}

func PrintJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	fmt.Println(string(out))
	return nil
}

func writeBytes(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return errors.WithStack(err)
	}

	if f, ok := w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}
