package perf

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedRecord is the cause of every error produced for a record
	// or value that cannot take part in an analysis.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDegenerateScale is returned when a reference sample has zero
	// spread, so no standardized score exists.
	ErrDegenerateScale = errors.New("degenerate scale")

	// ErrInsufficientData is returned when a series is too short for the
	// requested analysis or the degrees of freedom are not positive.
	ErrInsufficientData = errors.New("insufficient data")
)

func IsMalformedRecord(err error) bool {
	return err != nil && errors.Cause(err) == ErrMalformedRecord
}

func IsDegenerateScale(err error) bool {
	return err != nil && errors.Cause(err) == ErrDegenerateScale
}

func IsInsufficientData(err error) bool {
	return err != nil && errors.Cause(err) == ErrInsufficientData
}

// MalformedRecord describes one record that was excluded while building a
// series.
type MalformedRecord struct {
	Benchmark string `json:"benchmark"`
	Position  int    `json:"position"`
	Field     string `json:"field"`
}

func (r MalformedRecord) String() string {
	return fmt.Sprintf("record %d of '%s' is missing %s", r.Position, r.Benchmark, r.Field)
}

// SkippedRecordsError reports every record excluded from a series. Its
// cause is ErrMalformedRecord.
type SkippedRecordsError struct {
	Records []MalformedRecord
}

func (e *SkippedRecordsError) Error() string {
	msgs := make([]string, 0, len(e.Records))
	for _, r := range e.Records {
		msgs = append(msgs, r.String())
	}

	return fmt.Sprintf("%s: skipped %d record(s): %s", ErrMalformedRecord, len(e.Records), strings.Join(msgs, "; "))
}

func (e *SkippedRecordsError) Cause() error  { return ErrMalformedRecord }
func (e *SkippedRecordsError) Unwrap() error { return ErrMalformedRecord }

func (e *SkippedRecordsError) add(benchmark string, position int, field string) {
	e.Records = append(e.Records, MalformedRecord{
		Benchmark: benchmark,
		Position:  position,
		Field:     field,
	})
}

func (e *SkippedRecordsError) resolve() error {
	if e == nil || len(e.Records) == 0 {
		return nil
	}
	return e
}
