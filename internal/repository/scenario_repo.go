package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gsjt/internal/model"
)

// ScenarioRepo stores the scenario catalog
type ScenarioRepo interface {
	// List returns every scenario ordered by id, options ordered by id
	List(ctx context.Context) ([]*model.Scenario, error)
	// GetByID returns nil, nil when the scenario does not exist
	GetByID(ctx context.Context, id string) (*model.Scenario, error)
	// Upsert writes the scenario and replaces its options
	Upsert(ctx context.Context, scenario *model.Scenario) error
	Delete(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type scenarioRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewScenarioRepo creates a MongoDB scenario repository
func NewScenarioRepo(db *mongo.Database) ScenarioRepo {
	return &scenarioRepo{
		collection: db.Collection("scenarios"),
		now:        time.Now,
	}
}

func (r *scenarioRepo) List(ctx context.Context) ([]*model.Scenario, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find scenarios")
	}
	defer cursor.Close(ctx)

	var docs []*scenarioDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode scenarios")
	}

	scenarios := make([]*model.Scenario, 0, len(docs))
	for _, d := range docs {
		scenarios = append(scenarios, d.toModel())
	}
	return scenarios, nil
}

func (r *scenarioRepo) GetByID(ctx context.Context, id string) (*model.Scenario, error) {
	var doc scenarioDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find scenario %s", id)
	}
	return doc.toModel(), nil
}

func (r *scenarioRepo) Upsert(ctx context.Context, scenario *model.Scenario) error {
	opts := options.Replace().SetUpsert(true)
	doc := newScenarioDoc(scenario, r.now())
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": scenario.ScenarioID}, doc, opts); err != nil {
		return errors.Wrapf(err, "upsert scenario %s", scenario.ScenarioID)
	}
	return nil
}

func (r *scenarioRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "delete scenarios")
	}
	return res.DeletedCount, nil
}

func (r *scenarioRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "count scenarios")
	}
	return n, nil
}
