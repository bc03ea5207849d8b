// Package firestore implements docstore on Google Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"gameassets/pkg/docstore"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client is a docstore.Client backed by a Firestore project. Collection names
// are prefixed with the logical database name so several deployments can
// share a project.
type Client struct {
	client   *firestore.Client
	database string
}

// Connect creates a Firestore client for projectID. credentialsFile may be
// empty to use application default credentials (or the emulator).
func Connect(ctx context.Context, projectID, database, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Firestore client: %w", docstore.ErrStorage, err)
	}

	return &Client{client: client, database: database}, nil
}

// Collection returns a handle on the named collection.
func (c *Client) Collection(name string) docstore.Collection {
	return &collection{coll: c.client.Collection(c.collectionPath(name))}
}

func (c *Client) collectionPath(name string) string {
	if c.database == "" {
		return name
	}
	return c.database + "_" + name
}

// Ping reads one document from the scores collection.
func (c *Client) Ping(ctx context.Context) error {
	iter := c.client.Collection(c.collectionPath(docstore.CollectionScores)).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close(_ context.Context) error {
	return c.client.Close()
}

// Driver returns "firestore".
func (c *Client) Driver() string {
	return "firestore"
}

type collection struct {
	coll *firestore.CollectionRef
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (string, error) {
	ref, _, err := c.coll.Add(ctx, map[string]interface{}(doc))
	if err != nil {
		return "", fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return ref.ID, nil
}

func (c *collection) FindAll(ctx context.Context) (docstore.Cursor, error) {
	return &cursor{iter: c.coll.Documents(ctx)}, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, bool, error) {
	query := c.coll.Query
	for key, value := range filter {
		if err := docstore.ValidateField(key); err != nil {
			return nil, false, err
		}
		query = query.Where(key, "==", value)
	}

	iter := query.Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return toDocument(snap), true, nil
}

// EnsureIndex only validates the field: Firestore indexes every top-level
// field for equality queries automatically.
func (c *collection) EnsureIndex(_ context.Context, field string) error {
	return docstore.ValidateField(field)
}

type cursor struct {
	iter    *firestore.DocumentIterator
	current docstore.Document
	err     error
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}

	snap, err := c.iter.Next()
	if errors.Is(err, iterator.Done) {
		return false
	}
	if err != nil {
		c.err = fmt.Errorf("%w: %w", docstore.ErrStorage, err)
		return false
	}
	c.current = toDocument(snap)
	return true
}

func (c *cursor) Document() docstore.Document {
	return c.current
}

func (c *cursor) Err() error {
	return c.err
}

func (c *cursor) Close(_ context.Context) error {
	c.iter.Stop()
	return nil
}

func toDocument(snap *firestore.DocumentSnapshot) docstore.Document {
	doc := docstore.Document(snap.Data())
	doc["_id"] = snap.Ref.ID
	return doc
}
