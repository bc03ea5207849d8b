// Package server exposes the asset and score stores over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameassets/pkg/log"
	"gameassets/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10

// AssetService stores and serves sprites and audio clips.
type AssetService interface {
	SaveAsset(ctx context.Context, kind models.AssetKind, filename, contentType string, src io.Reader) (string, error)
	ListAssets(ctx context.Context, kind models.AssetKind) iter.Seq2[models.Asset, error]
	GetAssetByFilename(ctx context.Context, kind models.AssetKind, filename string) (*models.Asset, bool, error)
	MaxSize() int64
}

// ScoreService records and lists player scores.
type ScoreService interface {
	AddScore(ctx context.Context, playerName string, score int) (string, error)
	ListScores(ctx context.Context) iter.Seq2[models.PlayerScore, error]
}

// IPLookup resolves the server's public IP address.
type IPLookup interface {
	Lookup(ctx context.Context) (string, error)
}

// Server is the HTTP front end of the game asset backend.
type Server struct {
	echo      *echo.Echo
	version   string
	driver    string
	assets    AssetService
	scores    ScoreService
	ip        IPLookup
	startedAt time.Time
}

// New returns a Server. driver names the storage backend for /info.
func New(version, driver string, assets AssetService, scores ScoreService, ip IPLookup) *Server {
	e := echo.New()
	e.Validator = newRequestValidator()

	return &Server{
		echo:      e,
		version:   version,
		driver:    driver,
		assets:    assets,
		scores:    scores,
		ip:        ip,
		startedAt: time.Now(),
	}
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (srv *Server) Start(addr string) error {
	srv.setupRoutes()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("version", srv.version).
			Str("storage_driver", srv.driver).
			Int64("max_upload_bytes", srv.assets.MaxSize()).
			Msg("Starting game assets server")

		if err := srv.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return srv.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (srv *Server) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := srv.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (srv *Server) setupRoutes() {
	srv.echo.HideBanner = true
	srv.echo.HidePort = true

	srv.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	srv.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${id} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	srv.echo.Use(middleware.Recover())

	srv.echo.GET("/", srv.serveSwaggerUI)
	srv.echo.GET("/swagger.yml", srv.serveSwaggerSpec)
	srv.echo.GET("/info", srv.getNodeInfo)
	srv.echo.GET("/test_connection", srv.testConnection)
	srv.echo.GET("/my-ip", srv.getPublicIP)

	srv.echo.POST("/player_score", srv.submitScore)
	srv.echo.GET("/player_scores", srv.listScores)

	srv.echo.POST("/upload_sprite", srv.uploadAsset(models.KindSprite))
	srv.echo.POST("/upload_audio", srv.uploadAsset(models.KindAudio))
	srv.echo.GET("/sprites", srv.listAssets(models.KindSprite))
	srv.echo.GET("/audio", srv.listAssets(models.KindAudio))
	srv.echo.GET("/sprite/:filename", srv.getAsset(models.KindSprite))
	srv.echo.GET("/audio/:filename", srv.getAsset(models.KindAudio))
}
