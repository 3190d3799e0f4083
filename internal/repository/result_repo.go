package repository

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gsjt/internal/model"
)

// ResultRepo stores candidate results keyed by candidate id.
// Every write is a single statement; there is no cross-call locking.
type ResultRepo interface {
	// Create returns ErrDuplicate if the candidate already has a record
	Create(ctx context.Context, result *model.CandidateResult) error
	// GetByCandidateID returns nil, nil when no record exists
	GetByCandidateID(ctx context.Context, candidateID string) (*model.CandidateResult, error)
	// Update replaces every field of an existing record
	Update(ctx context.Context, result *model.CandidateResult) error
	// List orders by completion time (missing last), then start time, newest first
	List(ctx context.Context) ([]*model.CandidateResult, error)
	// Delete reports whether a record was removed
	Delete(ctx context.Context, candidateID string) (bool, error)
	// Latest returns the most recently completed result, or nil
	Latest(ctx context.Context) (*model.CandidateResult, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a MongoDB result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("candidate_results"),
	}
}

func (r *resultRepo) Create(ctx context.Context, result *model.CandidateResult) error {
	_, err := r.collection.InsertOne(ctx, newResultDoc(result))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrapf(err, "insert result %s", result.CandidateID)
	}
	return nil
}

func (r *resultRepo) GetByCandidateID(ctx context.Context, candidateID string) (*model.CandidateResult, error) {
	var doc resultDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": candidateID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find result %s", candidateID)
	}
	return doc.toModel(), nil
}

func (r *resultRepo) Update(ctx context.Context, result *model.CandidateResult) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": result.CandidateID}, newResultDoc(result))
	if err != nil {
		return errors.Wrapf(err, "replace result %s", result.CandidateID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *resultRepo) List(ctx context.Context) ([]*model.CandidateResult, error) {
	// Descending sorts place missing fields last.
	opts := options.Find().SetSort(bson.D{
		{Key: "completedAt", Value: -1},
		{Key: "startedAt", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find results")
	}
	defer cursor.Close(ctx)

	var docs []*resultDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode results")
	}

	results := make([]*model.CandidateResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, d.toModel())
	}
	return results, nil
}

func (r *resultRepo) Delete(ctx context.Context, candidateID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": candidateID})
	if err != nil {
		return false, errors.Wrapf(err, "delete result %s", candidateID)
	}
	return res.DeletedCount > 0, nil
}

func (r *resultRepo) Latest(ctx context.Context) (*model.CandidateResult, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	var doc resultDoc
	err := r.collection.FindOne(ctx, bson.M{"completedAt": bson.M{"$ne": nil}}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find latest result")
	}
	return doc.toModel(), nil
}

// EnsureIndexes creates the indexes the result listing relies on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("candidate_results").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "completedAt", Value: -1}, {Key: "startedAt", Value: -1}}},
		{Keys: bson.D{{Key: "testId", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "create result indexes")
	}
	return nil
}
