// Package sqlite implements docstore on an embedded SQLite database.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gameassets/pkg/docstore"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store keeps documents of every collection in one SQLite file.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serialises writers
}

// Open opens (creating if needed) the database at dbPath and applies the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", dbPath, busyTimeoutMillis)

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", docstore.ErrStorage, err)
	}

	if _, err := database.ExecContext(ctx, Schema); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %w", docstore.ErrStorage, err)
	}

	return &Store{db: database}, nil
}

// Collection returns a handle on the named collection.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

// Ping checks the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// Driver returns "sqlite".
func (s *Store) Driver() string {
	return "sqlite"
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode document: %w", docstore.ErrStorage, err)
	}

	id := uuid.NewString()

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	_, err = c.store.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
		id, c.name, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return id, nil
}

func (c *collection) FindAll(ctx context.Context) (docstore.Cursor, error) {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY seq`,
		c.name,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}
	return &cursor{rows: rows}, nil
}

func (c *collection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, bool, error) {
	keys := make([]string, 0, len(filter))
	for key := range filter {
		if err := docstore.ValidateField(key); err != nil {
			return nil, false, err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var query strings.Builder
	args := make([]any, 0, len(keys)+1)
	query.WriteString(`SELECT id, body FROM documents WHERE collection = ?`)
	args = append(args, c.name)
	for _, key := range keys {
		// key is validated above, so it is safe inside the JSON path literal.
		query.WriteString(` AND ` + jsonField(key) + ` = ?`)
		args = append(args, filter[key])
	}
	query.WriteString(` ORDER BY seq LIMIT 1`)

	var id, body string
	err := c.store.db.QueryRowContext(ctx, query.String(), args...).Scan(&id, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", docstore.ErrStorage, err)
	}

	doc, err := decodeDocument(id, body)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (c *collection) EnsureIndex(ctx context.Context, field string) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	// Expression index matching the FindOne predicate
	// "collection = ? AND json_extract(body, '$.field') = ?".
	stmt := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_documents_%s ON documents(collection, %s)`,
		field, jsonField(field),
	)

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, err := c.store.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: failed to create index: %w", docstore.ErrStorage, err)
	}
	return nil
}

func jsonField(field string) string {
	return `json_extract(body, '$.` + field + `')`
}

func decodeDocument(id, body string) (docstore.Document, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(body)))
	decoder.UseNumber()

	doc := docstore.Document{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode document %s: %w", docstore.ErrStorage, id, err)
	}
	doc["_id"] = id
	return doc, nil
}

type cursor struct {
	rows    *sql.Rows
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
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("%w: %w", docstore.ErrStorage, err)
		}
		return false
	}

	var id, body string
	if err := c.rows.Scan(&id, &body); err != nil {
		c.err = fmt.Errorf("%w: %w", docstore.ErrStorage, err)
		return false
	}

	doc, err := decodeDocument(id, body)
	if err != nil {
		c.err = err
		return false
	}
	c.current = doc
	return true
}

func (c *cursor) Document() docstore.Document {
	return c.current
}

func (c *cursor) Err() error {
	return c.err
}

func (c *cursor) Close(_ context.Context) error {
	return c.rows.Close()
}
