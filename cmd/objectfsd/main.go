// Command objectfsd is a minimal illustrative binary wiring Store, ObjectEngine, BucketRegistry,
// Lister, BatchDeleter and MultipartCoordinator together. It is NOT an HTTP façade — there is no
// listener, no request routing — it exists so the ambient config/logging stack has a real entry
// point to exercise, the way cmd/maxiofs did for the teacher's server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/objectfs/objectfs/internal/batchdelete"
	"github.com/objectfs/objectfs/internal/bucket"
	"github.com/objectfs/objectfs/internal/config"
	"github.com/objectfs/objectfs/internal/content"
	"github.com/objectfs/objectfs/internal/engine"
	"github.com/objectfs/objectfs/internal/idgen"
	"github.com/objectfs/objectfs/internal/keylock"
	"github.com/objectfs/objectfs/internal/lister"
	"github.com/objectfs/objectfs/internal/lock"
	"github.com/objectfs/objectfs/internal/multipart"
	"github.com/objectfs/objectfs/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "objectfsd",
		Short:   "objectfsd - embedded S3-compatible object store engine",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE:    run,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory path")
	rootCmd.PersistentFlags().StringP("store-engine", "", "pebble", "Store engine (pebble, badger)")
	rootCmd.PersistentFlags().StringP("log-level", "", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.LogLevel)
	logger.WithFields(logrus.Fields{
		"version":      version,
		"commit":       commit,
		"date":         date,
		"store_engine": cfg.StoreEngine,
		"data_dir":     cfg.DataDir,
	}).Info("starting objectfsd")

	s, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	cb, err := content.NewFilesystemBackend(cfg.DataDir + "/content")
	if err != nil {
		return fmt.Errorf("failed to open content backend: %w", err)
	}

	buckets := bucket.New(s)
	lockEnf := lock.New(s)
	locks := keylock.New()
	ids := idgen.NewGenerator()

	eng := engine.New(s, buckets, locks, lockEnf, ids, cb, logger)
	ls := lister.New(s, buckets)
	batch := batchdelete.New(eng)
	mp := multipart.New(s, cb, eng)

	_ = ls
	_ = batch
	_ = mp

	logger.WithField("metrics_families", len(collectMetricNames(eng))).Info("engine ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logger.Info("received shutdown signal")
		cancel()
	}()

	<-ctx.Done()
	logger.Info("objectfsd stopped")
	return nil
}

// openStore constructs the configured Store implementation and returns a close func.
func openStore(cfg *config.Config, logger *logrus.Logger) (store.Store, func(), error) {
	switch config.StoreEngine(cfg.StoreEngine) {
	case config.StoreEngineBadger:
		s, err := store.NewBadgerStore(store.BadgerOptions{DataDir: cfg.DataDir + "/meta", Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := store.NewPebbleStore(store.PebbleOptions{DataDir: cfg.DataDir + "/meta", Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

// collectMetricNames gathers the engine's registered metric family names, used only to log a
// readiness count; a real deployment would mount eng.Registry() behind its own exposition point.
func collectMetricNames(eng *engine.Engine) []string {
	families, err := eng.Registry().Gather()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func setupLogging(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
