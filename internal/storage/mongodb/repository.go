package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/remote"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionsCollection = "transactions"
	SyncLogCollection      = "syncLog"
)

// SyncLog is appended once per applied push.
type SyncLog struct {
	RunID     string    `bson:"run_id,omitempty"`
	Timestamp time.Time `bson:"sync_timestamp"`
	Created   int64     `bson:"created"`
	Updated   int64     `bson:"updated"`
	Deleted   int64     `bson:"deleted"`
}

type Repository struct {
	provider CollectionProvider
	now      func() time.Time
}

func NewRepository(provider CollectionProvider) *Repository {
	return &Repository{
		provider: provider,
		now:      time.Now,
	}
}

// TransactionsByIDs returns the stored transactions whose id is in ids,
// ordered by id.
func (r *Repository) TransactionsByIDs(ctx context.Context, ids []int64) ([]remote.Transaction, error) {
	const op = "storage.mongodb.TransactionsByIDs"

	out := []remote.Transaction{}
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.provider.Collection(TransactionsCollection).Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: decoding: %w", op, err)
	}

	return out, nil
}

// ApplySync replaces every created or updated transaction by id, inserting it
// when absent, then deletes the listed ids. Replaying the same request leaves
// the collection unchanged.
func (r *Repository) ApplySync(ctx context.Context, runID string, req remote.SyncRequest) error {
	const op = "storage.mongodb.ApplySync"

	collection := r.provider.Collection(TransactionsCollection)

	var models []mongo.WriteModel
	for _, set := range [][]remote.Transaction{req.Create, req.Update} {
		for _, doc := range set {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": doc.ID}).
				SetReplacement(doc).
				SetUpsert(true))
		}
	}

	if len(models) > 0 {
		if _, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("%s: upserting into %s: %w", op, TransactionsCollection, err)
		}
	}

	if len(req.Delete) > 0 {
		if _, err := collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": req.Delete}}); err != nil {
			return fmt.Errorf("%s: deleting from %s: %w", op, TransactionsCollection, err)
		}
	}

	syncLog := SyncLog{
		RunID:     runID,
		Timestamp: r.now().UTC(),
		Created:   int64(len(req.Create)),
		Updated:   int64(len(req.Update)),
		Deleted:   int64(len(req.Delete)),
	}
	if _, err := r.provider.Collection(SyncLogCollection).InsertOne(ctx, syncLog); err != nil {
		return fmt.Errorf("%s: writing sync log: %w", op, err)
	}

	return nil
}
