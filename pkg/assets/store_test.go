package assets

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"gameassets/pkg/docstore"
	"gameassets/pkg/docstore/docstoretest"
	"gameassets/pkg/docstore/sqlite"
	"gameassets/pkg/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testMaxSize = 1 << 16

// StoreTestSuite tests the asset store against a SQLite document store.
type StoreTestSuite struct {
	suite.Suite
	tempDir string
	db      *sqlite.Store
	store   *Store
	ctx     context.Context
}

// SetupTest opens a fresh database per test.
func (s *StoreTestSuite) SetupTest() {
	var err error
	s.ctx = context.Background()
	s.tempDir, err = os.MkdirTemp("", "assets-test-*")
	s.Require().NoError(err)

	s.db, err = sqlite.Open(s.ctx, filepath.Join(s.tempDir, "assets.db"))
	s.Require().NoError(err)
	s.store = NewStore(s.db, testMaxSize)
}

// TearDownTest closes and removes the database.
func (s *StoreTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close(s.ctx)
	}
	os.RemoveAll(s.tempDir)
}

func randomBytes(s *StoreTestSuite, n int) []byte {
	data := make([]byte, n)
	_, err := rand.Read(data)
	s.Require().NoError(err)
	return data
}

// TestSaveAndGetRoundTrip tests that content and size survive storage.
func (s *StoreTestSuite) TestSaveAndGetRoundTrip() {
	for _, size := range []int{0, 1, 2, 3, 1000, testMaxSize} {
		data := randomBytes(s, size)
		name := fmt.Sprintf("sprite-%d.png", size)

		id, err := s.store.SaveAsset(s.ctx, models.KindSprite, name, "image/png", bytes.NewReader(data))
		s.Require().NoError(err)
		s.NotEmpty(id)

		asset, found, err := s.store.GetAssetByFilename(s.ctx, models.KindSprite, name)
		s.Require().NoError(err)
		s.Require().True(found)
		s.Equal(name, asset.FileName)
		s.Equal("image/png", asset.ContentType)
		s.EqualValues(size, asset.Size)

		decoded, err := asset.Decode()
		s.Require().NoError(err)
		s.Equal(len(data), len(decoded))
		s.True(bytes.Equal(data, decoded))
	}
}

// TestDuplicateFilenameFirstMatch tests that duplicates are accepted and lookups return the first.
func (s *StoreTestSuite) TestDuplicateFilenameFirstMatch() {
	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "dup.png", "", strings.NewReader("first"))
	s.Require().NoError(err)
	_, err = s.store.SaveAsset(s.ctx, models.KindSprite, "dup.png", "", strings.NewReader("second"))
	s.Require().NoError(err)

	asset, found, err := s.store.GetAssetByFilename(s.ctx, models.KindSprite, "dup.png")
	s.Require().NoError(err)
	s.Require().True(found)
	decoded, err := asset.Decode()
	s.Require().NoError(err)
	s.Equal("first", string(decoded))

	count := 0
	for asset, err := range s.store.ListAssets(s.ctx, models.KindSprite) {
		s.Require().NoError(err)
		if asset.FileName == "dup.png" {
			count++
		}
	}
	s.Equal(2, count)
}

// TestSaveChunkedStream tests that a stream delivered in tiny chunks is reassembled in order.
func (s *StoreTestSuite) TestSaveChunkedStream() {
	data := randomBytes(s, 4097)

	_, err := s.store.SaveAsset(s.ctx, models.KindAudio, "theme.ogg", "audio/ogg", iotest.OneByteReader(bytes.NewReader(data)))
	s.Require().NoError(err)

	asset, found, err := s.store.GetAssetByFilename(s.ctx, models.KindAudio, "theme.ogg")
	s.Require().NoError(err)
	s.Require().True(found)
	s.EqualValues(len(data), asset.Size)

	decoded, err := asset.Decode()
	s.Require().NoError(err)
	s.Equal(data, decoded)
}

// TestSaveDefaultsContentType tests the "unknown" fallback.
func (s *StoreTestSuite) TestSaveDefaultsContentType() {
	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "blob.bin", "", strings.NewReader("abc"))
	s.Require().NoError(err)

	asset, found, err := s.store.GetAssetByFilename(s.ctx, models.KindSprite, "blob.bin")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(models.UnknownContentType, asset.ContentType)
	s.Equal("YWJj", asset.Content)
	s.EqualValues(3, asset.Size)
}

// TestSaveTooLarge tests that oversized uploads fail without storing anything.
func (s *StoreTestSuite) TestSaveTooLarge() {
	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "big.png", "image/png", bytes.NewReader(randomBytes(s, testMaxSize+1)))
	s.ErrorIs(err, ErrAssetTooLarge)

	_, found, err := s.store.GetAssetByFilename(s.ctx, models.KindSprite, "big.png")
	s.NoError(err)
	s.False(found)
}

// TestSaveStopsReadingWhenTooLarge tests that the limit is enforced while streaming.
func (s *StoreTestSuite) TestSaveStopsReadingWhenTooLarge() {
	src := &countingReader{r: io.LimitReader(zeroReader{}, 10*testMaxSize)}

	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "endless.png", "", src)
	s.ErrorIs(err, ErrAssetTooLarge)
	s.LessOrEqual(src.n, int64(testMaxSize+1))
}

// TestSaveUnlimited tests that a non-positive limit disables the check.
func (s *StoreTestSuite) TestSaveUnlimited() {
	store := NewStore(s.db, 0)
	s.EqualValues(0, store.MaxSize())

	_, err := store.SaveAsset(s.ctx, models.KindAudio, "long.wav", "audio/wav", bytes.NewReader(randomBytes(s, testMaxSize*2)))
	s.NoError(err)
}

// TestSaveReadError tests that a broken upload stream is reported.
func (s *StoreTestSuite) TestSaveReadError() {
	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "broken.png", "", iotest.ErrReader(io.ErrUnexpectedEOF))
	s.ErrorIs(err, io.ErrUnexpectedEOF)
}

// TestUnknownKind tests that every operation rejects an unknown kind.
func (s *StoreTestSuite) TestUnknownKind() {
	_, err := s.store.SaveAsset(s.ctx, "video", "a.mp4", "", strings.NewReader("x"))
	s.ErrorIs(err, ErrUnknownKind)

	_, _, err = s.store.GetAssetByFilename(s.ctx, "video", "a.mp4")
	s.ErrorIs(err, ErrUnknownKind)

	for _, err := range s.store.ListAssets(s.ctx, "video") {
		s.ErrorIs(err, ErrUnknownKind)
	}
}

// TestGetMissing tests that absence is not an error.
func (s *StoreTestSuite) TestGetMissing() {
	asset, found, err := s.store.GetAssetByFilename(s.ctx, models.KindAudio, "nonexistent.ogg")
	s.NoError(err)
	s.False(found)
	s.Nil(asset)
}

// TestKindsAreSeparate tests that sprites and audio live in different collections.
func (s *StoreTestSuite) TestKindsAreSeparate() {
	_, err := s.store.SaveAsset(s.ctx, models.KindSprite, "shared.dat", "", strings.NewReader("sprite"))
	s.Require().NoError(err)

	_, found, err := s.store.GetAssetByFilename(s.ctx, models.KindAudio, "shared.dat")
	s.NoError(err)
	s.False(found)
}

// TestListAssets tests that every stored asset is listed.
func (s *StoreTestSuite) TestListAssets() {
	names := []string{"a.png", "b.png", "c.png"}
	for _, name := range names {
		_, err := s.store.SaveAsset(s.ctx, models.KindSprite, name, "image/png", strings.NewReader(name))
		s.Require().NoError(err)
	}

	var listed []string
	for asset, err := range s.store.ListAssets(s.ctx, models.KindSprite) {
		s.Require().NoError(err)
		s.EqualValues(len(asset.FileName), asset.Size)
		listed = append(listed, asset.FileName)
	}
	s.ElementsMatch(names, listed)

	count := 0
	for _, err := range s.store.ListAssets(s.ctx, models.KindAudio) {
		s.NoError(err)
		count++
	}
	s.Zero(count)
}

// TestListCoercesSize tests the lenient size projection on documents written elsewhere.
func (s *StoreTestSuite) TestListCoercesSize() {
	coll := s.db.Collection(docstore.CollectionSprites)
	_, err := coll.Insert(s.ctx, docstore.Document{"file_name": "nosize.png", "content_type": "image/png", "content": ""})
	s.Require().NoError(err)
	_, err = coll.Insert(s.ctx, docstore.Document{"file_name": "textsize.png", "size": "12", "content": ""})
	s.Require().NoError(err)

	sizes := map[string]int64{}
	for asset, err := range s.store.ListAssets(s.ctx, models.KindSprite) {
		s.Require().NoError(err)
		sizes[asset.FileName] = asset.Size
	}
	s.Equal(map[string]int64{"nosize.png": 0, "textsize.png": 0}, sizes)
}

// TestListRejectsNonStringName tests that wrongly typed string fields surface as errors.
func (s *StoreTestSuite) TestListRejectsNonStringName() {
	_, err := s.db.Collection(docstore.CollectionAudio).Insert(s.ctx, docstore.Document{"file_name": 42})
	s.Require().NoError(err)

	var lastErr error
	for _, err := range s.store.ListAssets(s.ctx, models.KindAudio) {
		lastErr = err
	}
	s.ErrorIs(lastErr, docstore.ErrFieldType)
}

// TestStorageErrorsPropagate tests that backend failures reach the caller unchanged.
func (s *StoreTestSuite) TestStorageErrorsPropagate() {
	client := docstoretest.NewMockClient()
	coll := client.Collection(docstore.CollectionSprites).(*docstoretest.MockCollection)
	boom := errors.New("connection refused")
	coll.On("Insert", mock.Anything, mock.Anything).Return("", boom)
	coll.On("FindOne", mock.Anything, docstore.Filter{"file_name": "x.png"}).Return(nil, false, boom)

	store := NewStore(client, testMaxSize)

	_, err := store.SaveAsset(s.ctx, models.KindSprite, "x.png", "", strings.NewReader("x"))
	s.ErrorIs(err, boom)

	_, _, err = store.GetAssetByFilename(s.ctx, models.KindSprite, "x.png")
	s.ErrorIs(err, boom)

	coll.AssertExpectations(s.T())
}

// TestInsertedDocumentShape tests the exact document written for an upload.
func (s *StoreTestSuite) TestInsertedDocumentShape() {
	client := docstoretest.NewMockClient()
	coll := client.Collection(docstore.CollectionAudio).(*docstoretest.MockCollection)
	coll.On("Insert", mock.Anything, docstore.Document{
		"file_name":    "beep.wav",
		"content_type": "audio/wav",
		"size":         int64(4),
		"content":      "AAECAw==",
	}).Return("id-1", nil)

	id, err := NewStore(client, testMaxSize).SaveAsset(s.ctx, models.KindAudio, "beep.wav", "audio/wav", bytes.NewReader([]byte{0, 1, 2, 3}))
	s.NoError(err)
	s.Equal("id-1", id)
	coll.AssertExpectations(s.T())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
