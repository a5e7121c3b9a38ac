package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parlor"
	"parlor/internal/config"
	"parlor/internal/game"
	"parlor/internal/game/blockmatch"
	"parlor/internal/game/crazyeights"
	"parlor/internal/server"
	"parlor/internal/session"
	"parlor/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("load config", zap.Error(err))
	}
	log := zap.Must(cfg.NewLogger())
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) (err error) {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	registry := game.NewRegistry()
	registry.Register(blockmatch.BlockMatch{})
	registry.Register(crazyeights.CrazyEights{ThinkTime: cfg.OpponentDelay})

	mgr := session.NewManager(registry, store,
		session.WithLogger(log.Named("session")),
		session.WithSeed(cfg.Seed),
	)
	if err := mgr.Restore(); err != nil {
		log.Warn("restore sessions", zap.Error(err))
	}
	defer func() { err = multierr.Append(err, mgr.Shutdown()) }()

	webFS, err := webRoot(cfg.WebDir)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(registry, mgr, webFS, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		mgr.CleanupLoop(ctx, cfg.CleanupInterval, cfg.SessionMaxAge)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func webRoot(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(parlor.WebFS, "web")
}
