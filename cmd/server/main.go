// Package main initializes and starts the flashkeeper server, setting
// up configuration, logging, the record and media stores, background
// migration, and the HTTP API.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	nethttp "net/http"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/config"
	"github.com/edubreuil/flashkeeper/internal/kvstore"
	"github.com/edubreuil/flashkeeper/internal/logger"
	"github.com/edubreuil/flashkeeper/internal/maintenance"
	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/migrate"
	"github.com/edubreuil/flashkeeper/internal/records"
	"github.com/edubreuil/flashkeeper/internal/server/handler/http"
	"github.com/edubreuil/flashkeeper/internal/share"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := os.MkdirAll(options.DataDir, 0o755); err != nil {
		zapLogger.Fatal("cannot create data directory", zap.Error(err))
	}

	// Open the record document.
	kv, err := kvstore.Open(filepath.Join(options.DataDir, "records.json"))
	if err != nil {
		zapLogger.Fatal("cannot open record store", zap.Error(err))
	}

	// Open the media database.
	backend, err := blobstore.OpenSQLite(filepath.Join(options.DataDir, "media.db"))
	if err != nil {
		zapLogger.Fatal("cannot open media store", zap.Error(err))
	}
	defer func() { _ = backend.Close() }()

	// The compression strategy is fixed for the life of the process;
	// blobs written under the other strategy stay readable.
	var codec media.Codec = media.GzipCodec{}
	if options.DisableCompression {
		codec = media.PassthroughCodec{}
	}
	mediaStore := blobstore.NewMediaStore(backend, codec, options.QuotaMB*1024*1024, zapLogger)

	store := records.New(kv, mediaStore, zapLogger)
	engine := migrate.New(store, zapLogger)
	shareCodec := share.NewCodec(store, kv, zapLogger)
	sweeper := maintenance.NewSweeper(kv, mediaStore, zapLogger)

	// Migrate leftover inline media from previous runs in the
	// background; the API serves during the catch-up.
	go func() {
		migrated, err := engine.MigrateAll(context.Background())
		if err != nil {
			zapLogger.Error("startup migration failed", zap.Error(err))
			return
		}
		if migrated > 0 {
			zapLogger.Info("startup migration finished", zap.Int("migrated", migrated))
		}
	}()

	if options.SweepMinutes > 0 {
		sweeper.Start(context.Background(), time.Duration(options.SweepMinutes)*time.Minute)
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.AuthHandler{Store: store},
		&http.DeckHandler{Store: store},
		&http.ThemeHandler{Store: store},
		&http.FlashcardHandler{Store: store},
		&http.SessionHandler{Store: store},
		&http.ShareHandler{Store: store, Codec: shareCodec, Origin: "http://" + options.Addr},
		&http.MaintenanceHandler{Store: store, Engine: engine, Sweeper: sweeper},
		store,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
