package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/source"
	"github.com/JonMunkholm/sheetview/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	decodeOpts, err := cfg.Decode.Options()
	if err != nil {
		slog.Error("invalid decode settings", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open source", "error", err)
		os.Exit(1)
	}
	defer closeSrc()
	slog.Info("source ready", "source", src.String())

	service := core.NewService(src, core.Options{
		Decode:      decodeOpts,
		Locale:      cfg.Table.Tag(),
		RowsPerPage: cfg.Table.RowsPerPage,
	})

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// The page shows the loading state until the first load finishes.
	go func() {
		service.Load(core.ContextWithTrigger(jobCtx, core.TriggerStartup))
	}()
	go service.StartRefreshScheduler(jobCtx, cfg.Table.RefreshInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openSource builds the configured source. The returned func releases it.
func openSource(ctx context.Context, cfg *config.Config) (source.Source, func(), error) {
	switch strings.ToLower(cfg.Source.Kind) {
	case config.SourcePostgres:
		pg, err := source.NewPostgresSource(ctx, cfg.Source.DatabaseURL, cfg.Source.Query, cfg.Source.MaxBytes, source.PoolConfig{
			MaxConns:        cfg.Source.DBMaxConns,
			MaxConnLifetime: cfg.Source.DBMaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return source.NewHTTPSource(cfg.Source.FetchURL(), cfg.Source.Timeout, cfg.Source.MaxBytes), func() {}, nil
	}
}
