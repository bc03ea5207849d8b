// Package docstoretest holds the behaviour every docstore backend must share.
package docstoretest

import (
	"context"
	"fmt"
	"time"

	"gameassets/pkg/docstore"

	"github.com/stretchr/testify/suite"
)

// CollectionSuite exercises a docstore.Client through its public contract.
// Open must return a client on an empty database.
type CollectionSuite struct {
	suite.Suite
	Open func(ctx context.Context) (docstore.Client, error)

	ctx    context.Context
	client docstore.Client
	prefix string
}

// SetupTest opens a client and picks collection names unique to the test.
func (s *CollectionSuite) SetupTest() {
	s.ctx = context.Background()

	var err error
	s.client, err = s.Open(s.ctx)
	s.Require().NoError(err)
	s.prefix = fmt.Sprintf("t%d_", time.Now().UnixNano())
}

// TearDownTest closes the client.
func (s *CollectionSuite) TearDownTest() {
	if s.client != nil {
		s.NoError(s.client.Close(s.ctx))
	}
}

func (s *CollectionSuite) collection(name string) docstore.Collection {
	return s.client.Collection(s.prefix + name)
}

// TestPing tests connectivity.
func (s *CollectionSuite) TestPing() {
	s.NoError(s.client.Ping(s.ctx))
	s.NotEmpty(s.client.Driver())
}

// TestInsertFindOne tests that an inserted document can be read back by field.
func (s *CollectionSuite) TestInsertFindOne() {
	coll := s.collection(docstore.CollectionSprites)
	s.Require().NoError(coll.EnsureIndex(s.ctx, "file_name"))

	id, err := coll.Insert(s.ctx, docstore.Document{
		"file_name":    "hero.png",
		"content_type": "image/png",
		"size":         3,
		"content":      "AQID",
	})
	s.Require().NoError(err)
	s.NotEmpty(id)

	doc, found, err := coll.FindOne(s.ctx, docstore.Filter{"file_name": "hero.png"})
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(id, doc["_id"])

	name, err := doc.String("file_name")
	s.NoError(err)
	s.Equal("hero.png", name)

	size, ok := doc.Number("size")
	s.True(ok)
	s.EqualValues(3, size)

	_, found, err = coll.FindOne(s.ctx, docstore.Filter{"file_name": "nope.png"})
	s.NoError(err)
	s.False(found)
}

// TestFindAll tests that every inserted document is listed at least once.
func (s *CollectionSuite) TestFindAll() {
	coll := s.collection(docstore.CollectionScores)

	want := map[string]int{"alice": 500, "bob": 0, "carol": 1000000}
	for name, score := range want {
		_, err := coll.Insert(s.ctx, docstore.Document{"player_name": name, "score": score})
		s.Require().NoError(err)
	}

	cur, err := coll.FindAll(s.ctx)
	s.Require().NoError(err)
	defer cur.Close(s.ctx)

	got := map[string]int{}
	for cur.Next(s.ctx) {
		doc := cur.Document()
		name, err := doc.String("player_name")
		s.Require().NoError(err)
		score, err := doc.Integer("score")
		s.Require().NoError(err)
		got[name] = score
	}
	s.NoError(cur.Err())
	s.Equal(want, got)
}

// TestFindAllEmpty tests listing an empty collection.
func (s *CollectionSuite) TestFindAllEmpty() {
	cur, err := s.collection(docstore.CollectionAudio).FindAll(s.ctx)
	s.Require().NoError(err)
	defer cur.Close(s.ctx)

	s.False(cur.Next(s.ctx))
	s.NoError(cur.Err())
}
