package feed

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFetcher reads the whole collection ordered by created_at, newest first.
type MongoFetcher struct {
	coll *mongo.Collection
}

func NewMongoFetcher(coll *mongo.Collection) *MongoFetcher {
	return &MongoFetcher{coll: coll}
}

func (f *MongoFetcher) Fetch(ctx context.Context) ([]Record, error) {
	cur, err := f.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]Record, 0)
	for cur.Next(ctx) {
		out = append(out, recordFromRaw(cur.Current))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("feed cursor: %w", err)
	}
	return out, nil
}

// ChangeStreamTrigger fires on every change event of the collection. It needs a
// replica set or sharded cluster.
type ChangeStreamTrigger struct {
	coll *mongo.Collection
}

func NewChangeStreamTrigger(coll *mongo.Collection) *ChangeStreamTrigger {
	return &ChangeStreamTrigger{coll: coll}
}

func (t *ChangeStreamTrigger) Watch(ctx context.Context, listening, notify func()) error {
	cs, err := t.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer cs.Close(context.Background())
	listening()

	for cs.Next(ctx) {
		notify()
	}
	if err := cs.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("change stream: %w", err)
	}
	return nil
}
