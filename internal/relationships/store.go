// Package relationships stores directed, typed edges between catalog entities.
package relationships

import (
	"context"
	"fmt"

	"github.com/gogotex/appcatalog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Edge is one relationship row.
type Edge struct {
	FromID     string              `bson:"fromId" json:"fromId"`
	ToID       string              `bson:"toId" json:"toId"`
	FromEntity models.EntityKind   `bson:"fromEntity" json:"fromEntity"`
	ToEntity   models.EntityKind   `bson:"toEntity" json:"toEntity"`
	Relation   models.Relationship `bson:"relation" json:"relation"`
}

type Store interface {
	// AddEdge is idempotent: adding an existing edge is not an error.
	AddEdge(ctx context.Context, fromID, toID string, fromKind, toKind models.EntityKind, rel models.Relationship) error
	// FindTo returns the ids of toKind entities that fromID points at.
	FindTo(ctx context.Context, fromID string, rel models.Relationship, toKind models.EntityKind) ([]string, error)
	// FindFrom returns the edges of kind rel pointing at toID.
	FindFrom(ctx context.Context, toID string, rel models.Relationship) ([]Edge, error)
	// DeleteTo removes the edges of kind rel pointing at toID.
	DeleteTo(ctx context.Context, toID string, rel models.Relationship) error
	// DeleteAll removes every edge touching id.
	DeleteAll(ctx context.Context, id string) error
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(ctx context.Context, col *mongo.Collection) (*MongoStore, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "fromId", Value: 1}, {Key: "toId", Value: 1}, {Key: "relation", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("relationship index: %w", err)
	}
	return &MongoStore{col: col}, nil
}

func (s *MongoStore) AddEdge(ctx context.Context, fromID, toID string, fromKind, toKind models.EntityKind, rel models.Relationship) error {
	e := Edge{FromID: fromID, ToID: toID, FromEntity: fromKind, ToEntity: toKind, Relation: rel}
	filter := bson.M{"fromId": fromID, "toId": toID, "relation": rel}
	_, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": e}, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("add relationship %s -%s-> %s: %w", fromID, rel, toID, err)
	}
	return nil
}

func (s *MongoStore) edges(ctx context.Context, filter bson.M) ([]Edge, error) {
	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Edge{}
	for cur.Next(ctx) {
		var e Edge
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

func (s *MongoStore) FindTo(ctx context.Context, fromID string, rel models.Relationship, toKind models.EntityKind) ([]string, error) {
	edges, err := s.edges(ctx, bson.M{"fromId": fromID, "relation": rel, "toEntity": toKind})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ToID)
	}
	return ids, nil
}

func (s *MongoStore) FindFrom(ctx context.Context, toID string, rel models.Relationship) ([]Edge, error) {
	return s.edges(ctx, bson.M{"toId": toID, "relation": rel})
}

func (s *MongoStore) DeleteTo(ctx context.Context, toID string, rel models.Relationship) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"toId": toID, "relation": rel})
	return err
}

func (s *MongoStore) DeleteAll(ctx context.Context, id string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"$or": bson.A{bson.M{"fromId": id}, bson.M{"toId": id}}})
	return err
}
