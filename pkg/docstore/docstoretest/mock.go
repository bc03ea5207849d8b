package docstoretest

import (
	"context"

	"gameassets/pkg/docstore"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of docstore.Client. Collection returns the
// MockCollection registered for the name, creating one on first use.
type MockClient struct {
	mock.Mock
	Collections map[string]*MockCollection
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{Collections: map[string]*MockCollection{}}
}

func (m *MockClient) Collection(name string) docstore.Collection {
	coll, ok := m.Collections[name]
	if !ok {
		coll = &MockCollection{}
		m.Collections[name] = coll
	}
	return coll
}

func (m *MockClient) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockClient) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockClient) Driver() string {
	return "mock"
}

// MockCollection is a testify mock of docstore.Collection.
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) Insert(ctx context.Context, doc docstore.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockCollection) FindAll(ctx context.Context) (docstore.Cursor, error) {
	args := m.Called(ctx)
	cur, _ := args.Get(0).(docstore.Cursor)
	return cur, args.Error(1)
}

func (m *MockCollection) FindOne(ctx context.Context, filter docstore.Filter) (docstore.Document, bool, error) {
	args := m.Called(ctx, filter)
	doc, _ := args.Get(0).(docstore.Document)
	return doc, args.Bool(1), args.Error(2)
}

func (m *MockCollection) EnsureIndex(ctx context.Context, field string) error {
	return m.Called(ctx, field).Error(0)
}

// SliceCursor is a docstore.Cursor over fixed documents, optionally failing
// with Fail once they are exhausted.
type SliceCursor struct {
	Docs   []docstore.Document
	Fail   error
	Closed bool

	pos int
	err error
}

func (c *SliceCursor) Next(_ context.Context) bool {
	if c.pos < len(c.Docs) {
		c.pos++
		return true
	}
	c.err = c.Fail
	return false
}

func (c *SliceCursor) Document() docstore.Document {
	return c.Docs[c.pos-1]
}

func (c *SliceCursor) Err() error {
	return c.err
}

func (c *SliceCursor) Close(_ context.Context) error {
	c.Closed = true
	return nil
}
