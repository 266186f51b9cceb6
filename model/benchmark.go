package model

import (
	"context"
	"math"
	"sort"

	"github.com/evergreen-ci/benchwatch"
	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BenchmarkResult is one run of a named benchmark. Date is in epoch
// seconds; a missing date or value map makes the result malformed.
type BenchmarkResult struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"-" yaml:"-"`
	Name   string             `bson:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty"`
	Date   *int64             `bson:"date" json:"date" yaml:"date"`
	Values map[string]float64 `bson:"values" json:"values" yaml:"values"`
}

var (
	benchmarkResultNameKey   = bsonutil.MustHaveTag(BenchmarkResult{}, "Name")
	benchmarkResultDateKey   = bsonutil.MustHaveTag(BenchmarkResult{}, "Date")
	benchmarkResultValuesKey = bsonutil.MustHaveTag(BenchmarkResult{}, "Values")
)

func (r BenchmarkResult) sortKey() int64 {
	if r.Date == nil {
		return math.MinInt64
	}
	return *r.Date
}

func (r BenchmarkResult) record() perf.Record {
	return perf.Record{Timestamp: r.Date, Metrics: r.Values}
}

// BenchmarkHistory holds the results of one benchmark.
type BenchmarkHistory struct {
	Name    string            `bson:"name" json:"name" yaml:"name"`
	Results []BenchmarkResult `bson:"results" json:"results" yaml:"results"`
}

var (
	benchmarkHistoryNameKey    = bsonutil.MustHaveTag(BenchmarkHistory{}, "Name")
	benchmarkHistoryResultsKey = bsonutil.MustHaveTag(BenchmarkHistory{}, "Results")
)

// Records returns the results in their stored order.
func (h *BenchmarkHistory) Records() []perf.Record {
	out := make([]perf.Record, 0, len(h.Results))
	for _, r := range h.Results {
		out = append(out, r.record())
	}
	return out
}

// Series builds the time ordered series of the history. Malformed results
// are skipped and reported through the returned error, alongside the
// series of the remaining results.
func (h *BenchmarkHistory) Series() (*perf.Series, error) {
	return perf.BuildSeries(h.Name, h.Records())
}

// BenchmarkHistories is a set of benchmark histories, as stored in an
// export file or returned by the database.
type BenchmarkHistories []BenchmarkHistory

// Names lists the benchmarks in order.
func (hs BenchmarkHistories) Names() []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Name)
	}
	return out
}

// Find returns the history of the named benchmark.
func (hs BenchmarkHistories) Find(name string) (*BenchmarkHistory, bool) {
	for idx := range hs {
		if hs[idx].Name == name {
			return &hs[idx], true
		}
	}
	return nil, false
}

// Limit keeps at most the latest n results of every history, ordered by
// date. Results without a date sort first.
func (hs BenchmarkHistories) Limit(n int) BenchmarkHistories {
	if n <= 0 {
		return hs
	}

	out := make(BenchmarkHistories, 0, len(hs))
	for _, h := range hs {
		results := append([]BenchmarkResult{}, h.Results...)
		sort.SliceStable(results, func(i, j int) bool { return results[i].sortKey() < results[j].sortKey() })
		if len(results) > n {
			results = results[len(results)-n:]
		}
		out = append(out, BenchmarkHistory{Name: h.Name, Results: results})
	}
	return out
}

// Series builds one series per history. Every history is built, and the
// malformed results of all of them are merged into the returned error.
func (hs BenchmarkHistories) Series() ([]*perf.Series, error) {
	records := []perf.NamedRecord{}
	for _, h := range hs {
		for _, r := range h.Results {
			records = append(records, perf.NamedRecord{Name: h.Name, Record: r.record()})
		}
	}

	return perf.BuildSeriesSet(records)
}

// benchmarkHistoryPipeline groups the results by benchmark name and keeps
// the latest limit results of each, newest first.
func benchmarkHistoryPipeline(limit int) []bson.M {
	return []bson.M{
		{
			"$match": bson.M{
				benchmarkResultNameKey: bson.M{"$exists": true, "$ne": nil},
			},
		},
		{
			"$sort": bson.D{
				{Key: benchmarkResultNameKey, Value: 1},
				{Key: benchmarkResultDateKey, Value: -1},
			},
		},
		{
			"$group": bson.M{
				"_id": "$" + benchmarkResultNameKey,
				benchmarkHistoryResultsKey: bson.M{
					"$push": bson.M{
						benchmarkResultDateKey:   "$" + benchmarkResultDateKey,
						benchmarkResultValuesKey: "$" + benchmarkResultValuesKey,
					},
				},
			},
		},
		{
			"$project": bson.M{
				"_id":                   0,
				benchmarkHistoryNameKey: "$_id",
				benchmarkHistoryResultsKey: bson.M{
					"$slice": []interface{}{"$" + benchmarkHistoryResultsKey, limit},
				},
			},
		},
		{
			"$sort": bson.M{benchmarkHistoryNameKey: 1},
		},
	}
}

// FindBenchmarkHistories returns, for every benchmark name in the results
// collection, the latest limit results. A non-positive limit selects the
// default of 50.
func FindBenchmarkHistories(ctx context.Context, env benchwatch.Environment, limit int) (BenchmarkHistories, error) {
	if limit <= 0 {
		limit = benchwatch.DefaultHistoryLimit
	}

	db, err := env.GetDB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cur, err := db.Collection(benchwatch.BenchmarkResultsCollection).Aggregate(ctx, benchmarkHistoryPipeline(limit))
	if err != nil {
		return nil, errors.Wrap(err, "problem aggregating benchmark histories")
	}
	defer cur.Close(ctx)

	out := BenchmarkHistories{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "problem decoding benchmark histories")
	}

	grip.Debug(message.Fields{
		"message":    "found benchmark histories",
		"benchmarks": len(out),
		"limit":      limit,
	})

	return out, nil
}

// InsertBenchmarkResults stores the results of every history, tagging each
// result with its benchmark name.
func InsertBenchmarkResults(ctx context.Context, env benchwatch.Environment, histories BenchmarkHistories) (int, error) {
	db, err := env.GetDB()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	docs := []interface{}{}
	for _, h := range histories {
		if h.Name == "" {
			return 0, errors.Wrap(perf.ErrMalformedRecord, "cannot store results without a benchmark name")
		}
		for _, r := range h.Results {
			r.ID = primitive.NilObjectID
			r.Name = h.Name
			docs = append(docs, r)
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := db.Collection(benchwatch.BenchmarkResultsCollection).InsertMany(ctx, docs)
	if err != nil {
		return 0, errors.Wrap(err, "problem inserting benchmark results")
	}

	return len(res.InsertedIDs), nil
}
