// Command server runs the conversation-insight HTTP API.
//
// Startup sequence:
//  1. Load .env (best effort) and environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Initialize OpenTelemetry tracing when enabled.
//  4. Open SQLite and run migrations.
//  5. Build the embedding provider and the in-memory vector index,
//     restoring a snapshot when one is configured and compatible.
//  6. Register routes and serve with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-insight-backend/internal/config"
	"github.com/tbourn/go-insight-backend/internal/embedding"
	"github.com/tbourn/go-insight-backend/internal/enrich"
	httpapi "github.com/tbourn/go-insight-backend/internal/http"
	"github.com/tbourn/go-insight-backend/internal/observability"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/sysutil"
	"github.com/tbourn/go-insight-backend/internal/vector"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}

	// Embedding provider and vector index.
	var provider embedding.Provider
	switch cfg.Embedding.Backend {
	case "http":
		provider = embedding.NewHTTPProvider(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	default:
		provider = embedding.NewHashProvider(cfg.Embedding.Dim)
	}
	idx := vector.New(provider)
	if cfg.SnapshotPath != "" {
		if err := idx.Load(cfg.SnapshotPath); err != nil {
			// Stale or mismatched snapshots are not fatal; the index is
			// rebuilt on the next archive import.
			log.Warn().Err(err).Str("path", cfg.SnapshotPath).Msg("index snapshot not restored")
		} else {
			log.Info().Int("entries", idx.Len()).Str("model", idx.Model()).Msg("index snapshot restored")
		}
	}

	enricher := enrich.NewEnricher(enrich.NewVaderScorer())

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	httpapi.RegisterRoutes(r, db, enricher, idx, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Persist the current index so restarts can skip re-embedding.
	if cfg.SnapshotPath != "" && idx.Len() > 0 {
		if err := idx.Save(cfg.SnapshotPath); err != nil {
			log.Warn().Err(err).Msg("index snapshot not saved")
		}
	}
	log.Info().Msg("bye")
}
