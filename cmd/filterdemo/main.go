package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/config"
	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/repository"
	pgxsession "github.com/krew-solutions/dynamic-filters-go/dynfilters/session/pgx"
)

func main() {
	configPath := pflag.String("config", ".", "directory holding dynamic-filters.yaml")
	debug := pflag.Bool("debug", false, "log dropped filter input and compiled SQL")
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(*configPath, logger); err != nil {
		logger.Error("filterdemo stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	schema := usersSchema()
	filterer := f.NewFilterer(cfg.Registry(), schema, f.WithLogger(logger))
	users := repository.NewLister(
		pgxsession.NewSessionPool(pool, pgxsession.ReadOnly()),
		filterer,
		schema,
		repository.WithLogger(logger),
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      newRouter(users, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
