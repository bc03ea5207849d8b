// Package docstore defines the document database contract shared by the
// MongoDB, SQLite and Firestore backends.
package docstore

import "context"

// Collection names used by the service.
const (
	CollectionScores  = "scores"
	CollectionSprites = "sprites"
	CollectionAudio   = "audio"
)

// Document is a schema-flexible record. Values are whatever the backend
// decodes them to (int32, int64, float64, json.Number, string, ...).
type Document map[string]any

// Filter is an exact-match equality filter over top-level document keys.
type Filter map[string]any

// Client owns one long-lived connection to a logical database.
type Client interface {
	// Collection returns a handle on the named collection.
	Collection(name string) Collection

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close(ctx context.Context) error

	// Driver names the backend ("mongo", "sqlite", "firestore").
	Driver() string
}

// Collection exposes the insert/find operations of one collection.
type Collection interface {
	// Insert stores doc and returns the generated identifier.
	Insert(ctx context.Context, doc Document) (string, error)

	// FindAll returns a cursor over every document in backend order.
	FindAll(ctx context.Context) (Cursor, error)

	// FindOne returns the first document matching filter.
	// The boolean is false when nothing matches.
	FindOne(ctx context.Context, filter Filter) (Document, bool, error)

	// EnsureIndex creates a non-unique index on a top-level field.
	EnsureIndex(ctx context.Context, field string) error
}

// Cursor is a lazy sequence of documents.
//
//	for cur.Next(ctx) {
//		doc := cur.Document()
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	Next(ctx context.Context) bool
	Document() Document
	Err() error
	Close(ctx context.Context) error
}
