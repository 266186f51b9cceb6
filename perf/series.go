package perf

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Record is a single raw benchmark result as delivered by a record source.
// Timestamp is in epoch seconds. A nil Timestamp or Metrics marks the record
// as malformed.
type Record struct {
	Timestamp *int64             `json:"date" yaml:"date"`
	Metrics   map[string]float64 `json:"values" yaml:"values"`
}

// NamedRecord is a Record tagged with the benchmark that produced it.
type NamedRecord struct {
	Name string `json:"name" yaml:"name"`
	Record
}

// Observation is one element of a Series. Index is the zero-based rank of
// the observation in timestamp order and is used as the regressor for break
// detection.
type Observation struct {
	Timestamp int64              `json:"timestamp"`
	Index     int                `json:"index"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (o Observation) Time() time.Time { return time.Unix(o.Timestamp, 0).UTC() }

// Series is the time ordered history of one benchmark.
type Series struct {
	Name         string        `json:"name"`
	Observations []Observation `json:"observations"`
}

func (s *Series) Len() int { return len(s.Observations) }

// Last returns the most recent observation.
func (s *Series) Last() (Observation, error) {
	if s.Len() == 0 {
		return Observation{}, errors.Wrapf(ErrInsufficientData, "series '%s' is empty", s.Name)
	}
	return s.Observations[s.Len()-1], nil
}

// Values returns the value of the metric for every observation, in order.
func (s *Series) Values(metric string) ([]float64, error) {
	out := make([]float64, 0, s.Len())
	for _, obs := range s.Observations {
		val, ok := obs.Metrics[metric]
		if !ok {
			return nil, errors.Wrapf(ErrMalformedRecord, "observation %d of '%s' has no metric '%s'", obs.Index, s.Name, metric)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, errors.Wrapf(ErrMalformedRecord, "observation %d of '%s' has non-finite value for '%s'", obs.Index, s.Name, metric)
		}
		out = append(out, val)
	}

	return out, nil
}

// Indexes returns the sequence index of every observation as a float
// regressor.
func (s *Series) Indexes() []float64 {
	out := make([]float64, s.Len())
	for i, obs := range s.Observations {
		out[i] = float64(obs.Index)
	}
	return out
}

func (s *Series) Timestamps() []int64 {
	out := make([]int64, s.Len())
	for i, obs := range s.Observations {
		out[i] = obs.Timestamp
	}
	return out
}

// BuildSeries orders the records of one benchmark by timestamp and numbers
// them. Records without a timestamp or metrics are excluded and reported in
// the returned *SkippedRecordsError; the series of valid records is returned
// either way.
func BuildSeries(name string, records []Record) (*Series, error) {
	skipped := &SkippedRecordsError{}
	series := &Series{
		Name:         name,
		Observations: make([]Observation, 0, len(records)),
	}

	for idx, r := range records {
		switch {
		case r.Timestamp == nil:
			skipped.add(name, idx, "timestamp")
			continue
		case r.Metrics == nil:
			skipped.add(name, idx, "metrics")
			continue
		}

		series.Observations = append(series.Observations, Observation{
			Timestamp: *r.Timestamp,
			Metrics:   r.Metrics,
		})
	}

	sort.SliceStable(series.Observations, func(i, j int) bool {
		return series.Observations[i].Timestamp < series.Observations[j].Timestamp
	})
	for idx := range series.Observations {
		series.Observations[idx].Index = idx
	}

	return series, skipped.resolve()
}

// BuildSeriesSet groups records by benchmark name, in order of first
// appearance, and builds one series per name. Malformed records, including
// records without a name, are collected into a single *SkippedRecordsError.
func BuildSeriesSet(records []NamedRecord) ([]*Series, error) {
	var (
		names   []string
		grouped = map[string][]Record{}
		skipped = &SkippedRecordsError{}
	)

	for idx, r := range records {
		if r.Name == "" {
			skipped.add("", idx, "name")
			continue
		}
		if _, ok := grouped[r.Name]; !ok {
			names = append(names, r.Name)
		}
		grouped[r.Name] = append(grouped[r.Name], r.Record)
	}

	out := make([]*Series, 0, len(names))
	for _, name := range names {
		series, err := BuildSeries(name, grouped[name])
		if s, ok := err.(*SkippedRecordsError); ok {
			skipped.Records = append(skipped.Records, s.Records...)
		}
		out = append(out, series)
	}

	return out, skipped.resolve()
}
