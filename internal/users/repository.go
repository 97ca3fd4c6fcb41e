package users

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

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindByName(ctx context.Context, name string, include models.Include) (*models.User, error)
	GetByID(ctx context.Context, id string, include models.Include) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection.
// User names are unique; concurrent creates of the same name fail with
// entity.ErrAlreadyExists.
func NewMongoUserRepository(ctx context.Context, col *mongo.Collection) (*MongoUserRepository, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("users name index: %w", err)
	}
	return &MongoUserRepository{col: col}, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, include models.Include) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	if !include.Matches(u.Deleted) {
		return nil, entity.ErrNotFound
	}
	return &u, nil
}

func (r *MongoUserRepository) FindByName(ctx context.Context, name string, include models.Include) (*models.User, error) {
	return r.findOne(ctx, bson.M{"name": name}, include)
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string, include models.Include) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, include)
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user %q: %w", u.Name, entity.ErrAlreadyExists)
		}
		return nil, err
	}
	return u, nil
}

func (r *MongoUserRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	u, err := r.FindByName(ctx, name, include)
	if err != nil {
		return nil, err
	}
	return u.Reference(), nil
}

func (r *MongoUserRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	u, err := r.GetByID(ctx, id, include)
	if err != nil {
		return nil, err
	}
	return u.Reference(), nil
}
