// Package timeseries is an append-only store of serialized, timestamped
// records keyed by entity id and extension name.
package timeseries

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogotex/appcatalog/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one stored entry. JSON holds the serialized payload.
type Record struct {
	EntityID  string `bson:"entityId" json:"entityId"`
	Extension string `bson:"extension" json:"extension"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
	JSON      string `bson:"json" json:"json"`
	Seq       int64  `bson:"-" json:"-"`
}

// Store lists are newest first, except ListAll which keeps insertion order.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Count(ctx context.Context, entityID, extension string) (int, error)
	List(ctx context.Context, entityID, extension string, limit, offset int) ([]string, error)
	Latest(ctx context.Context, entityID, extension string) (string, error)
	ListAll(ctx context.Context, extension string) ([]string, error)
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(ctx context.Context, col *mongo.Collection) (*MongoStore, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "entityId", Value: 1}, {Key: "extension", Value: 1}, {Key: "timestamp", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("timeseries index: %w", err)
	}
	return &MongoStore{col: col}, nil
}

func (s *MongoStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.col.InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) Count(ctx context.Context, entityID, extension string) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"entityId": entityID, "extension": extension})
	return int(n), err
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]string, error) {
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []string{}
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r.JSON)
	}
	return out, cur.Err()
}

func (s *MongoStore) List(ctx context.Context, entityID, extension string, limit, offset int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{"entityId": entityID, "extension": extension}, opts)
}

func (s *MongoStore) Latest(ctx context.Context, entityID, extension string) (string, error) {
	var r Record
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	err := s.col.FindOne(ctx, bson.M{"entityId": entityID, "extension": extension}, opts).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", entity.ErrNotFound
		}
		return "", err
	}
	return r.JSON, nil
}

func (s *MongoStore) ListAll(ctx context.Context, extension string) ([]string, error) {
	return s.find(ctx, bson.M{"extension": extension}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}
