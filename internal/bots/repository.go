package bots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists bots. Bot names are unique.
type Repository interface {
	FindByName(ctx context.Context, name string, include models.Include) (*models.Bot, error)
	GetByID(ctx context.Context, id string, include models.Include) (*models.Bot, error)
	Create(ctx context.Context, b *models.Bot) (*models.Bot, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("bots name index: %w", err)
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M, include models.Include) (*models.Bot, error) {
	var b models.Bot
	if err := r.col.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	if !include.Matches(b.Deleted) {
		return nil, entity.ErrNotFound
	}
	return &b, nil
}

func (r *MongoRepository) FindByName(ctx context.Context, name string, include models.Include) (*models.Bot, error) {
	return r.findOne(ctx, bson.M{"name": name}, include)
}

func (r *MongoRepository) GetByID(ctx context.Context, id string, include models.Include) (*models.Bot, error) {
	return r.findOne(ctx, bson.M{"_id": id}, include)
}

func (r *MongoRepository) Create(ctx context.Context, b *models.Bot) (*models.Bot, error) {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("bot %q: %w", b.Name, entity.ErrAlreadyExists)
		}
		return nil, err
	}
	return b, nil
}

func (r *MongoRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	b, err := r.FindByName(ctx, name, include)
	if err != nil {
		return nil, err
	}
	return b.Reference(), nil
}

func (r *MongoRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	b, err := r.GetByID(ctx, id, include)
	if err != nil {
		return nil, err
	}
	return b.Reference(), nil
}
