package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/usetrmnl/inkpipe/pkg/mixup"
)

// MongoCollection is the collection holding mixup documents.
const MongoCollection = "mixups"

// MongoStore persists mixups in MongoDB. Documents use the mixup ID as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and pings the server.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailable(err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable(err, "ping mongo")
	}
	return NewMongoStore(client, database), nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}
}

func (s *MongoStore) GetMixup(ctx context.Context, id string) (mixup.Mixup, error) {
	var m mixup.Mixup
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return mixup.Mixup{}, notFound(id)
	}
	if err != nil {
		return mixup.Mixup{}, unavailable(err, "get mixup %s", id)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}

func (s *MongoStore) SaveMixup(ctx context.Context, m mixup.Mixup) error {
	m, err := prepare(m)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"name":        m.Name,
			"layout_id":   m.LayoutID,
			"assignments": m.Assignments,
			"updated_at":  m.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": m.CreatedAt},
	}
	_, err = s.coll.UpdateByID(ctx, m.ID, update, options.Update().SetUpsert(true))
	if err != nil {
		return unavailable(err, "save mixup %s", m.ID)
	}
	return nil
}

func (s *MongoStore) ListMixups(ctx context.Context) ([]mixup.Mixup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, unavailable(err, "list mixups")
	}
	var out []mixup.Mixup
	if err := cur.All(ctx, &out); err != nil {
		return nil, unavailable(err, "decode mixups")
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
		out[i].UpdatedAt = out[i].UpdatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) DeleteMixup(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return unavailable(err, "delete mixup %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
