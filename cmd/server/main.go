package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/live-memory-backend/internal/config"
	"github.com/DoyleJ11/live-memory-backend/internal/httpapi"
	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/logging"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.StorageDriver, cfg.RedisURL, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	tmpl := session.Config{GridSize: cfg.GridSize, Theme: cfg.Theme, RevealDelay: cfg.RevealDelay}
	factory := hub.StoreFactory(store, cfg.LeaderboardKey, tmpl, cfg.PersistTimeout, log)
	h := hub.NewHub(context.Background(), factory, log.Named("hub"))

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, cfg.AllowedOrigins, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("storage", cfg.StorageDriver),
			zap.Int("gridSize", cfg.GridSize),
			zap.String("theme", string(cfg.Theme)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Sessions flush their persisters before the store closes.
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		return err
	})
	return g.Wait()
}
