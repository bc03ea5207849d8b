// Package mongo implements docstore on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gameassets/pkg/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client is a docstore.Client backed by one MongoDB database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and scopes the client to database.
// connectTimeout bounds both steps.
func Connect(ctx context.Context, uri, database string, connectTimeout time.Duration) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", docstore.ErrStorage, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", docstore.ErrStorage, err)
	}

	return &Client{client: client, db: client.Database(database)}, nil
}

// Collection returns a handle on the named collection.
func (c *Client) Collection(name string) docstore.Collection {
	return &collection{coll: c.db.Collection(name)}
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return nil
}

// Close disconnects the pool.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Driver returns "mongo".
func (c *Client) Driver() string {
	return "mongo"
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (string, error) {
	result, err := c.coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return idString(result.InsertedID), nil
}

func (c *collection) FindAll(ctx context.Context) (docstore.Cursor, error) {
	cur, err := c.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return &cursor{cur: cur}, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, bool, error) {
	for key := range filter {
		if err := docstore.ValidateField(key); err != nil {
			return nil, false, err
		}
	}

	var raw bson.M
	err := c.coll.FindOne(ctx, bson.M(filter)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return toDocument(raw), true, nil
}

func (c *collection) EnsureIndex(ctx context.Context, field string) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create index: %w", docstore.ErrStorage, err)
	}
	return nil
}

type cursor struct {
	cur     *mongo.Cursor
	current docstore.Document
	err     error
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if !c.cur.Next(ctx) {
		if err := c.cur.Err(); err != nil {
			c.err = fmt.Errorf("%w: %w", docstore.ErrStorage, err)
		}
		return false
	}

	var raw bson.M
	if err := c.cur.Decode(&raw); err != nil {
		c.err = fmt.Errorf("%w: %w", docstore.ErrStorage, err)
		return false
	}
	c.current = toDocument(raw)
	return true
}

func (c *cursor) Document() docstore.Document {
	return c.current
}

func (c *cursor) Err() error {
	return c.err
}

func (c *cursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}

func toDocument(raw bson.M) docstore.Document {
	doc := docstore.Document(raw)
	if id, ok := doc["_id"]; ok {
		doc["_id"] = idString(id)
	}
	return doc
}

func idString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
