// Package assets stores sprites and audio clips as base64 documents.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"iter"

	"gameassets/pkg/docstore"
	"gameassets/pkg/log"
	"gameassets/pkg/models"

	"github.com/dustin/go-humanize"
)

// Document keys.
const (
	fieldFileName    = "file_name"
	fieldContentType = "content_type"
	fieldSize        = "size"
	fieldContent     = "content"
)

// Store reads and writes asset documents.
type Store struct {
	client  docstore.Client
	maxSize int64
}

// NewStore returns a Store on client. Uploads larger than maxSize bytes are
// rejected; maxSize <= 0 disables the limit.
func NewStore(client docstore.Client, maxSize int64) *Store {
	return &Store{client: client, maxSize: maxSize}
}

// MaxSize returns the upload limit in bytes (0 when unlimited).
func (s *Store) MaxSize() int64 {
	if s.maxSize < 0 {
		return 0
	}
	return s.maxSize
}

func (s *Store) collection(kind models.AssetKind) (docstore.Collection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s.client.Collection(kind.Collection()), nil
}

// SaveAsset reads the whole upload, encodes it and inserts one document.
// It returns the generated document id.
func (s *Store) SaveAsset(ctx context.Context, kind models.AssetKind, filename, contentType string, src io.Reader) (string, error) {
	coll, err := s.collection(kind)
	if err != nil {
		return "", err
	}

	data, err := s.readAll(src)
	if err != nil {
		return "", err
	}

	if contentType == "" {
		contentType = models.UnknownContentType
	}

	id, err := coll.Insert(ctx, docstore.Document{
		fieldFileName:    filename,
		fieldContentType: contentType,
		fieldSize:        int64(len(data)),
		fieldContent:     base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("kind", string(kind)).
		Str("file_name", filename).
		Str("content_type", contentType).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Str("id", id).
		Msg("Asset stored")

	return id, nil
}

// readAll buffers src, stopping as soon as more than maxSize bytes arrived.
func (s *Store) readAll(src io.Reader) ([]byte, error) {
	var buf bytes.Buffer

	if s.maxSize <= 0 {
		if _, err := buf.ReadFrom(src); err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return buf.Bytes(), nil
	}

	if _, err := buf.ReadFrom(io.LimitReader(src, s.maxSize+1)); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, ErrAssetTooLarge
	}
	return buf.Bytes(), nil
}

// ListAssets lazily lists every asset of kind in backend order.
func (s *Store) ListAssets(ctx context.Context, kind models.AssetKind) iter.Seq2[models.Asset, error] {
	coll, err := s.collection(kind)
	if err != nil {
		return func(yield func(models.Asset, error) bool) {
			yield(models.Asset{}, err)
		}
	}
	return docstore.All(ctx, coll, assetFromDocument)
}

// GetAssetByFilename returns the first asset of kind named filename.
// The boolean is false when no such asset exists.
func (s *Store) GetAssetByFilename(ctx context.Context, kind models.AssetKind, filename string) (*models.Asset, bool, error) {
	coll, err := s.collection(kind)
	if err != nil {
		return nil, false, err
	}

	doc, found, err := coll.FindOne(ctx, docstore.Filter{fieldFileName: filename})
	if err != nil || !found {
		return nil, false, err
	}

	asset, err := assetFromDocument(doc)
	if err != nil {
		return nil, false, err
	}
	return &asset, true, nil
}

// assetFromDocument projects a stored document. A missing or non-numeric
// size reads as 0; string fields must be strings when present.
func assetFromDocument(doc docstore.Document) (models.Asset, error) {
	var asset models.Asset
	var err error

	if asset.FileName, err = doc.String(fieldFileName); err != nil {
		return models.Asset{}, err
	}
	if asset.ContentType, err = doc.String(fieldContentType); err != nil {
		return models.Asset{}, err
	}
	if asset.Content, err = doc.String(fieldContent); err != nil {
		return models.Asset{}, err
	}
	asset.Size, _ = doc.Number(fieldSize)

	return asset, nil
}
