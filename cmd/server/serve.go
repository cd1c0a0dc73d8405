package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	httpadapter "cv-builder/internal/adapter/http"
	repo "cv-builder/internal/adapter/repository"
	"cv-builder/internal/config"
	"cv-builder/internal/infrastructure/migration"
	"cv-builder/internal/render"
	"cv-builder/internal/session"
	"cv-builder/internal/usecase"
	infra "cv-builder/pkg/infrastructure"
	"cv-builder/pkg/logger"

	"github.com/spf13/cobra"
)

const sweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logger.Init(cfg.IsProduction())

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store := newSessionStore(ctx, cfg, log)
	go store.RunSweeper(ctx, sweepInterval)

	engine, err := render.NewEngine(cfg.TemplatesDir, log)
	if err != nil {
		return err
	}

	var shares usecase.ShareRepo
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewSharePool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("share database not available, sharing disabled", "error", err)
		} else {
			defer pool.Close()
			if err := migration.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			shares = repo.NewShareRepo(pool)
		}
	}

	renderer := infra.NewChromedpRenderer(cfg.ChromePath)
	cv := usecase.NewCVService(store, cfg.SessionTTL, log)
	exporter := usecase.NewExporter(engine, renderer, shares, cfg.PDFRenderAttempts, log)

	app := httpadapter.NewApp(httpadapter.Deps{
		CV:          cv,
		Exporter:    exporter,
		Store:       store,
		SessionTTL:  cfg.SessionTTL,
		Env:         cfg.Env,
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   100,
		AccessLog:   true,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// newSessionStore connects to Redis when configured. Connection failures
// leave the store on its in-memory fallback.
func newSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) *session.Cache {
	opts := []session.Option{
		session.WithTTL(cfg.SessionTTL),
		session.WithRetries(cfg.RedisRetries),
		session.WithLogger(log),
	}
	client, err := infra.NewRedisClient(infra.RedisConfig{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	if err != nil {
		log.Warn("redis not configured, using in-memory sessions", "error", err)
		return session.NewCache(nil, opts...)
	}
	store := session.NewCache(client, opts...)
	_ = store.Connect(ctx)
	return store
}
