package apps

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppStore persists the scalar part of an application. Relationship fields
// (bot, owner, pipelines) are never written here.
type AppStore interface {
	Insert(ctx context.Context, app *models.App) error
	Update(ctx context.Context, app *models.App) error
	Get(ctx context.Context, id string, include models.Include) (*models.App, error)
	GetByName(ctx context.Context, name string, include models.Include) (*models.App, error)
	List(ctx context.Context, include models.Include) ([]*models.App, error)
	SoftDelete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(ctx context.Context, col *mongo.Collection) (*MongoStore, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("apps name index: %w", err)
	}
	return &MongoStore{col: col}, nil
}

func (s *MongoStore) Insert(ctx context.Context, app *models.App) error {
	if _, err := s.col.InsertOne(ctx, app); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("application %q: %w", app.Name, entity.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, app *models.App) error {
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("application %s: %w", app.ID, entity.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, include models.Include) (*models.App, error) {
	var app models.App
	if err := s.col.FindOne(ctx, filter).Decode(&app); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	if !include.Matches(app.Deleted) {
		return nil, entity.ErrNotFound
	}
	return &app, nil
}

func (s *MongoStore) Get(ctx context.Context, id string, include models.Include) (*models.App, error) {
	return s.findOne(ctx, bson.M{"_id": id}, include)
}

func (s *MongoStore) GetByName(ctx context.Context, name string, include models.Include) (*models.App, error) {
	return s.findOne(ctx, bson.M{"name": name}, include)
}

func (s *MongoStore) List(ctx context.Context, include models.Include) ([]*models.App, error) {
	filter := bson.M{}
	switch include {
	case models.IncludeNonDeleted:
		filter["deleted"] = false
	case models.IncludeDeleted:
		filter["deleted"] = true
	}
	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.App{}
	for cur.Next(ctx) {
		var app models.App
		if err := cur.Decode(&app); err != nil {
			return nil, err
		}
		out = append(out, &app)
	}
	return out, cur.Err()
}

func (s *MongoStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
