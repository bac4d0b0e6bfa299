package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/perennial/internal/config"
	"github.com/aretw0/perennial/internal/logging"
	"github.com/aretw0/perennial/internal/presentation/tui"
	filestore "github.com/aretw0/perennial/pkg/adapters/file"
	"github.com/aretw0/perennial/pkg/adapters/gateway"
	"github.com/aretw0/perennial/pkg/adapters/httpapi"
	calendars "github.com/aretw0/perennial/pkg/adapters/loam"
	memstore "github.com/aretw0/perennial/pkg/adapters/memory"
	redisstore "github.com/aretw0/perennial/pkg/adapters/redis"
	"github.com/aretw0/perennial/pkg/adapters/sqlite"
	"github.com/aretw0/perennial/pkg/booking"
	"github.com/aretw0/perennial/pkg/observability"
	"github.com/aretw0/perennial/pkg/persistence/middleware"
	"github.com/aretw0/perennial/pkg/ports"
	"github.com/aretw0/perennial/pkg/runner"
	"github.com/aretw0/perennial/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the booking HTTP server",
	Long: `Starts the booking service: the JSON API on the main listener and
Prometheus metrics on a second one. Configuration comes from PERENNIAL_*
environment variables, with flags overriding the parsed values.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "API listen address")
	serveCmd.Flags().String("metrics-addr", ":2112", "Metrics listen address")
	serveCmd.Flags().String("store", "memory", "Checkpoint backend: memory, file, redis or sqlite")
	serveCmd.Flags().String("data-dir", "data", "Directory for the file backend")
	serveCmd.Flags().String("redis-url", "redis://localhost:6379/0", "Connection URL for the redis backend")
	serveCmd.Flags().String("sqlite-path", "perennial.db", "Database file for the sqlite backend")
	serveCmd.Flags().String("calendar-dir", "", "Seed calendars from schedule documents in this directory")
	serveCmd.Flags().Bool("compress", false, "Compress checkpoints at rest")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().String("log-format", "text", "Log format: text or json")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	tui.PrintBanner()

	blobs, cleanup, locker, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	blobs, err = wrapMiddleware(blobs, cfg)
	if err != nil {
		return err
	}

	store := booking.NewStore(blobs)
	gw := gateway.New(gateway.WithLogger(logger))
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	host := booking.NewRunner(store, gw, booking.NewSystemWithDefaultSchedule,
		runner.WithLogger(logger),
		runner.WithHooks(metrics.Hooks()),
		runner.WithSessions(session.NewManager(sessionOpts...)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CalendarDir != "" {
		loader, err := calendars.Open(cfg.CalendarDir)
		if err != nil {
			return err
		}
		if err := seedFromLoader(ctx, logger, loader, store); err != nil {
			return err
		}

		// New documents dropped into the directory become calendars without
		// a restart. Sessions that already have a checkpoint are untouched.
		events, err := loader.Watch(ctx)
		if err != nil {
			return err
		}
		go func() {
			for id := range events {
				if err := seedOne(ctx, logger, loader, store, id); err != nil {
					logger.Warn("calendar reseed failed", "calendar_id", id, "err", err)
				}
			}
		}()
	}

	handler, err := httpapi.NewHandler(host, httpapi.WithLogger(logger))
	if err != nil {
		return err
	}

	api := &http.Server{Addr: cfg.Addr, Handler: handler}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	// Channel to listen for errors coming from the listeners.
	serverErrors := make(chan error, 2)

	go func() {
		logger.Info("API server listening", "addr", cfg.Addr, "store", cfg.Store)
		serverErrors <- api.ListenAndServe()
	}()
	go func() {
		logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
		serverErrors <- metricsSrv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err

	case <-ctx.Done():
		logger.Info("shutdown signal received")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			if err := api.Close(); err != nil {
				return fmt.Errorf("close server: %w", err)
			}
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			_ = metricsSrv.Close()
		}
		logger.Info("Perennial server stopped gracefully")
		return nil
	}
}

// applyFlags overrides environment configuration with flags the caller set
// explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Serve) {
	overrides := map[string]*string{
		"addr":         &cfg.Addr,
		"metrics-addr": &cfg.MetricsAddr,
		"store":        &cfg.Store,
		"data-dir":     &cfg.DataDir,
		"redis-url":    &cfg.RedisURL,
		"sqlite-path":  &cfg.SQLitePath,
		"calendar-dir": &cfg.CalendarDir,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if cmd.Flags().Changed("compress") {
		cfg.Compress, _ = cmd.Flags().GetBool("compress")
	}
}

func newLogger(cfg config.Serve) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

// openBackend builds the blob store for the configured backend. The locker
// is non-nil only for backends that support distributed locking.
func openBackend(cfg config.Serve) (ports.BlobStore, func(), ports.DistributedLocker, error) {
	noop := func() {}

	switch cfg.Store {
	case "memory":
		return memstore.New(), noop, nil, nil

	case "file":
		return filestore.New(cfg.DataDir), noop, nil, nil

	case "redis":
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := goredis.NewClient(opts)
		locker := redisstore.NewLocker(client, "perennial:lock:")
		return redisstore.NewFromClient(client), func() { _ = client.Close() }, locker, nil

	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q (memory, file, redis or sqlite)", cfg.Store)
	}
}

// wrapMiddleware layers compression and encryption over the backend.
// Compression is listed first so it sees plaintext; gzip over ciphertext
// saves nothing.
func wrapMiddleware(blobs ports.BlobStore, cfg config.Serve) (ports.BlobStore, error) {
	var mws []middleware.Middleware

	if cfg.Compress {
		mws = append(mws, middleware.NewCompression())
	}

	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: key}))
	}

	if len(mws) == 0 {
		return blobs, nil
	}
	return middleware.Chain(blobs, mws...), nil
}

// seedCalendars opens the calendar directory and seeds every definition in
// it that has no checkpoint yet.
func seedCalendars(ctx context.Context, logger *slog.Logger, dir string, store *booking.Store) error {
	loader, err := calendars.Open(dir)
	if err != nil {
		return err
	}
	return seedFromLoader(ctx, logger, loader, store)
}

// seedFromLoader creates a checkpoint for every calendar definition that
// has none yet. Sessions with a checkpoint keep their state; the document
// is only the template for a fresh calendar.
func seedFromLoader(ctx context.Context, logger *slog.Logger, loader booking.CalendarSource, store *booking.Store) error {
	ids, err := loader.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := seedOne(ctx, logger, loader, store, id); err != nil {
			return err
		}
	}
	return nil
}

func seedOne(ctx context.Context, logger *slog.Logger, loader booking.CalendarSource, store *booking.Store, id string) error {
	if _, err := store.Load(ctx, id); err == nil {
		return nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("check calendar %q: %w", id, err)
	}

	sys, err := loader.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, id, sys); err != nil {
		return fmt.Errorf("seed calendar %q: %w", id, err)
	}
	logger.Info("calendar seeded", "calendar_id", id)
	return nil
}
