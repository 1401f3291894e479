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

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"shelfflix_backend/internal/app/di"
	"shelfflix_backend/internal/platform/config"
	platformdb "shelfflix_backend/internal/platform/db"
	"shelfflix_backend/internal/platform/logging"
	platformredis "shelfflix_backend/internal/platform/redis"
	"shelfflix_backend/internal/platform/session"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(cfg.Env, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	var db *gorm.DB
	if cfg.NeedsDB() {
		db, err = platformdb.OpenDB(platformdb.LoadConfigFromEnv())
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	// Redis
	var rdb *redisv9.Client
	if cfg.NeedsRedis() {
		rdb, err = platformredis.NewRedisClient(ctx, platformredis.LoadConfigFromEnv())
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	app, err := di.NewApp(cfg, di.Infra{DB: db, Redis: rdb})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.Env,
			"user_store", cfg.UserStore, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if app.Sweeper != nil {
		g.Go(func() error {
			return session.RunSweeper(gctx, app.Sweeper, cfg.SessionSweepInterval)
		})
	}

	g.Go(func() error {
		return app.AuthLimiter.RunPruner(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
