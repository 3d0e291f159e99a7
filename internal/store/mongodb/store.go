package mongodb

import (
	"context"
	"fmt"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/store/connector"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads template store collections from a MongoDB database.
type Store struct {
	cfg    Config
	client *mongo.Client
	db     *mongo.Database
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Driver() string { return constants.DriverMongo }

// Connect opens the client and selects the configured database.
func (s *Store) Connect(ctx context.Context) error {
	uri, err := s.cfg.ToURI()
	if err != nil {
		return err
	}
	if s.cfg.Database == "" {
		return fmt.Errorf("mongo: database name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	s.client = client
	s.db = client.Database(s.cfg.Database)

	common.GetLogger().WithStore(s.Driver()).Info("MongoDB client created", "uri", uri, "database", s.cfg.Database)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo: not connected")
	}
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// Load returns every document of collection in natural order with _id removed.
func (s *Store) Load(ctx context.Context, collection string) ([]connector.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("mongo: not connected")
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	out := make([]connector.Record, 0, len(docs))
	for _, d := range docs {
		rec := normalizeDocument(d)
		delete(rec, "_id")
		out = append(out, rec)
	}
	common.GetLogger().WithStore(s.Driver()).Debug("collection loaded", "collection", collection, "documents", len(out))
	return out, nil
}

// Replace deletes every document of collection and inserts records.
func (s *Store) Replace(ctx context.Context, collection string, records []connector.Record) error {
	if s.db == nil {
		return fmt.Errorf("mongo: not connected")
	}
	coll := s.db.Collection(collection)
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	if len(records) > 0 {
		docs := make([]interface{}, 0, len(records))
		for _, r := range records {
			docs = append(docs, bson.M(r))
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
	}
	common.GetLogger().WithStore(s.Driver()).Info("collection replaced", "collection", collection, "documents", len(records))
	return nil
}

// normalizeDocument converts decoded BSON values into plain maps and slices.
func normalizeDocument(m map[string]interface{}) connector.Record {
	out := make(connector.Record, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		return normalizeDocument(t)
	case map[string]interface{}:
		return normalizeDocument(t)
	case primitive.D:
		return normalizeDocument(t.Map())
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
