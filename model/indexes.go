package model

import (
	"context"

	"github.com/evergreen-ci/benchwatch"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SystemIndexes holds the keys and the collection for an index.
// See
// https://docs.mongodb.com/manual/reference/method/db.collection.createIndex
// for more info.
type SystemIndexes struct {
	Keys       bson.D
	Collection string
}

// GetRequiredIndexes returns required indexes for the benchwatch database.
func GetRequiredIndexes() []SystemIndexes {
	return []SystemIndexes{
		{
			Keys:       bson.D{{Key: benchmarkResultNameKey, Value: 1}, {Key: benchmarkResultDateKey, Value: -1}},
			Collection: benchwatch.BenchmarkResultsCollection,
		},
	}
}

// EnsureIndexes creates every required index that does not exist yet.
func EnsureIndexes(ctx context.Context, env benchwatch.Environment) error {
	db, err := env.GetDB()
	if err != nil {
		return errors.WithStack(err)
	}

	catcher := grip.NewBasicCatcher()
	for _, idx := range GetRequiredIndexes() {
		_, err = db.Collection(idx.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.Keys})
		catcher.Wrapf(err, "creating index on '%s'", idx.Collection)
	}

	return catcher.Resolve()
}
