package main

import (
	"context"
	"fmt"

	"gameassets/pkg/assets"
	"gameassets/pkg/config"
	"gameassets/pkg/ipinfo"
	"gameassets/pkg/log"
	"gameassets/pkg/scores"
	"gameassets/pkg/server"
	"gameassets/pkg/storemanager"

	"github.com/dustin/go-humanize"
)

func runServe(ctx context.Context, opts *options, version string) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("Ignoring LOG_LEVEL")
	}
	if opts.debug {
		log.SetDebugMode()
	}
	if opts.port != "" {
		cfg.ServerPort = opts.port
	}

	log.Info().
		Str("driver", cfg.DBDriver).
		Str("database", cfg.DBName).
		Str("max_upload_size", humanize.Bytes(uint64(cfg.MaxUploadSize))).
		Msg("Configuration loaded")

	mgr, err := storemanager.Open(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open document store")
		return err
	}
	defer func() {
		_ = mgr.Close(context.Background())
	}()

	srv := server.New(
		version,
		mgr.Driver(),
		assets.NewStore(mgr.Client(), cfg.MaxUploadSize),
		scores.NewStore(mgr.Client()),
		ipinfo.NewClient(cfg.IPLookupURL, cfg.IPLookupTimeout, cfg.IPLookupRetryMax),
	)

	if err := srv.Start(":" + cfg.ServerPort); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
