package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/filmorate/backend/internal/catalog"
	"github.com/filmorate/backend/internal/config"
	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/feed"
	"github.com/filmorate/backend/internal/handlers"
	"github.com/filmorate/backend/internal/httpserver"
	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/storage"
)

// Run bootstraps the Filmorate backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, seed, or export")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	case "export":
		return runExport(ctx)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	bus := feed.NewBus(logger)
	busCtx, stopBus := context.WithCancel(ctx)
	defer stopBus()
	go func() {
		if err := bus.Run(busCtx, feed.CountEvents); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("feed subscriber stopped", "error", err)
		}
	}()

	deps := buildDependencies(pool, cfg, logger, bus)
	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps), cfg.HTTP)

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil {
			return err
		}
	}

	shutdownErr := srv.Shutdown(context.Background())
	if err := bus.Close(); err != nil {
		logger.Warn("close feed bus", "error", err)
	}
	return shutdownErr
}

func runExport(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx = logging.WithLogger(ctx, logger)

	sink, err := storage.NewS3Storage(ctx, cfg.Archive)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	exporter := catalog.NewExporter(repositories.NewPostgresFilmRepository(pool), sink, cfg.Archive.Prefix)
	location, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("exported catalog to %s\n", location)
	return nil
}
