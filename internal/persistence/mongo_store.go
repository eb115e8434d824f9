package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/benchseed/pkg/api"
)

const mongoStatusID = "status"

// MongoStore is a StatusStore and CursorStore backed by MongoDB. The
// status lives in a single document of the "env" collection; cursors get
// one document each in the cursors collection.
type MongoStore struct {
	env     *mongo.Collection
	cursors *mongo.Collection
}

var _ api.StatusStore = (*MongoStore)(nil)

var _ CursorStore = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed store.
// dbName defaults to "benchseed" if empty, collName defaults to "cursors".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "benchseed"
	}
	if collName == "" {
		collName = "cursors"
	}

	db := client.Database(dbName)
	return &MongoStore{
		env:     db.Collection("env"),
		cursors: db.Collection(collName),
	}
}

type mongoStatusDoc struct {
	ID     string `bson:"_id"`
	Status string `bson:"status"`
}

type mongoCursorDoc struct {
	RunID     string `bson:"_id"`
	Scenario  string `bson:"scenario"`
	Request   []byte `bson:"request,omitempty"`
	Calls     int    `bson:"calls"`
	Complete  bool   `bson:"complete"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *MongoStore) GetStatus(ctx context.Context) (api.EnvStatus, error) {
	var doc mongoStatusDoc
	err := s.env.FindOne(ctx, bson.M{"_id": mongoStatusID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return api.EnvUnset, nil
		}
		return "", err
	}
	return api.EnvStatus(doc.Status), nil
}

func (s *MongoStore) SetStatus(ctx context.Context, status api.EnvStatus) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	_, err := s.env.UpdateByID(ctx, mongoStatusID,
		bson.M{"$set": bson.M{"status": string(status)}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) SaveCursor(ctx context.Context, c *Cursor) error {
	stamp(c)

	request, err := EncodeValue(c.Request)
	if err != nil {
		return err
	}

	doc := mongoCursorDoc{
		RunID:     c.RunID,
		Scenario:  c.Scenario,
		Request:   request,
		Calls:     c.Calls,
		Complete:  c.Complete,
		UpdatedAt: c.UpdatedAt.UnixNano(),
	}

	_, err = s.cursors.ReplaceOne(ctx, bson.M{"_id": c.RunID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) GetCursor(ctx context.Context, runID string) (*Cursor, error) {
	var doc mongoCursorDoc
	err := s.cursors.FindOne(ctx, bson.M{"_id": runID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCursorNotFound
		}
		return nil, err
	}
	return doc.cursor()
}

func (s *MongoStore) ListCursors(ctx context.Context, filter CursorFilter) ([]*Cursor, error) {
	bfilter := bson.M{}
	if filter.Scenario != "" {
		bfilter["scenario"] = filter.Scenario
	}
	if filter.PendingOnly {
		bfilter["complete"] = false
	}

	cur, err := s.cursors.Find(ctx, bfilter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []*Cursor
	for cur.Next(ctx) {
		var doc mongoCursorDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		c, err := doc.cursor()
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MongoStore) DeleteCursor(ctx context.Context, runID string) error {
	_, err := s.cursors.DeleteOne(ctx, bson.M{"_id": runID})
	return err
}

func (d *mongoCursorDoc) cursor() (*Cursor, error) {
	req, err := DecodeValue[api.Config](d.Request)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		RunID:     d.RunID,
		Scenario:  d.Scenario,
		Request:   req,
		Calls:     d.Calls,
		Complete:  d.Complete,
		UpdatedAt: unixNano(d.UpdatedAt),
	}, nil
}
