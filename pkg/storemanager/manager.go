// Package storemanager opens the configured document store and prepares it for serving.
package storemanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gameassets/pkg/config"
	"gameassets/pkg/docstore"
	"gameassets/pkg/docstore/firestore"
	"gameassets/pkg/docstore/mongo"
	"gameassets/pkg/docstore/sqlite"
	"gameassets/pkg/log"
)

// IndexedField is indexed on every asset collection for filename lookups.
const IndexedField = "file_name"

// assetCollections are the collections looked up by filename.
var assetCollections = []string{docstore.CollectionSprites, docstore.CollectionAudio}

// Manager owns the document store client for the lifetime of the server.
type Manager struct {
	client docstore.Client
}

// New wraps an already opened client.
func New(client docstore.Client) *Manager {
	return &Manager{client: client}
}

// Open connects to the backend selected by cfg and ensures its indexes.
func Open(ctx context.Context, cfg *config.Config) (*Manager, error) {
	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := New(client)
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	log.Info().Str("driver", client.Driver()).Str("database", cfg.DBName).Msg("Document store ready")
	return m, nil
}

func connect(ctx context.Context, cfg *config.Config) (docstore.Client, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		return mongo.Connect(ctx, cfg.MongoURI(), cfg.DBName, cfg.DBConnectTimeout)
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create %s: %w", docstore.ErrStorage, dir, err)
			}
		}
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.DriverFirestore:
		return firestore.Connect(ctx, cfg.FirestoreProject, cfg.DBName, cfg.FirestoreCredentials)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.DBDriver)
	}
}

// EnsureIndexes creates the non-unique file_name index on the asset collections.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	for _, name := range assetCollections {
		if err := m.client.Collection(name).EnsureIndex(ctx, IndexedField); err != nil {
			log.Error().Err(err).Str("collection", name).Msg("Failed to ensure index")
			return err
		}
		log.Debug().Str("collection", name).Str("field", IndexedField).Msg("Index ensured")
	}
	return nil
}

// Client returns the underlying document store client.
func (m *Manager) Client() docstore.Client {
	return m.client
}

// Driver returns the backend name.
func (m *Manager) Driver() string {
	return m.client.Driver()
}

// Close releases the client.
func (m *Manager) Close(ctx context.Context) error {
	if err := m.client.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close document store")
		return err
	}
	log.Info().Msg("Document store closed")
	return nil
}
