package roles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/appcatalog/internal/entity"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores roles and resolves role references by name.
type Repository interface {
	entity.Resolver
	Create(ctx context.Context, r *models.Role) (*models.Role, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("roles name index: %w", err)
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M, include models.Include) (*models.EntityReference, error) {
	var role models.Role
	if err := r.col.FindOne(ctx, filter).Decode(&role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	if !include.Matches(role.Deleted) {
		return nil, entity.ErrNotFound
	}
	return role.Reference(), nil
}

func (r *MongoRepository) ReferenceByName(ctx context.Context, name string, include models.Include) (*models.EntityReference, error) {
	return r.findOne(ctx, bson.M{"name": name}, include)
}

func (r *MongoRepository) ReferenceByID(ctx context.Context, id string, include models.Include) (*models.EntityReference, error) {
	return r.findOne(ctx, bson.M{"_id": id}, include)
}

func (r *MongoRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	role.UpdatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, role); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("role %q: %w", role.Name, entity.ErrAlreadyExists)
		}
		return nil, err
	}
	return role, nil
}

// Seed creates each named role that does not exist yet.
func Seed(ctx context.Context, repo Repository, names ...string) error {
	for _, name := range names {
		_, err := repo.ReferenceByName(ctx, name, models.IncludeAll)
		if err == nil {
			continue
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("lookup role %q: %w", name, err)
		}
		_, err = repo.Create(ctx, &models.Role{ID: uuid.NewString(), Name: name})
		if err != nil && !errors.Is(err, entity.ErrAlreadyExists) {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}
	return nil
}
