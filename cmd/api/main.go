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

	_ "github.com/campus-events/event-system/docs"
	"github.com/campus-events/event-system/internal/api"
	"github.com/campus-events/event-system/internal/core/credential"
	"github.com/campus-events/event-system/internal/core/ports"
	"github.com/campus-events/event-system/internal/core/service"
	"github.com/campus-events/event-system/internal/core/session"
	mongodb "github.com/campus-events/event-system/internal/infrastructure/db/mongo"
	redisdb "github.com/campus-events/event-system/internal/infrastructure/db/redis"
	"github.com/campus-events/event-system/internal/infrastructure/http/handlers"
	"github.com/campus-events/event-system/internal/infrastructure/queue"
	"github.com/campus-events/event-system/internal/infrastructure/storage"
	"github.com/campus-events/event-system/internal/pkg/config"
	"github.com/campus-events/event-system/internal/pkg/telemetry"
	"github.com/campus-events/event-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title                       Campus Events API
// @version                     1.0
// @description                 Members, sessions and campus events with role-based authorization.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "campus-events: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: cfg.Telemetry.ServiceName,
		Env:     cfg.Env,
	})

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(sctx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	attachments, uploadDir, err := newAttachmentStore(ctx, cfg.Attachments)
	if err != nil {
		return err
	}

	// --- Core ---
	tokens, err := session.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	members := mongodb.NewMemberRepository(db)
	authService := service.NewAuthService(members, credential.NewHasher(cfg.Auth.BcryptCost), tokens, logger.Component("auth"))

	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, mongodb.NewActivityRepository(db), logger.Component("activity"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	eventService := service.NewEventService(
		mongodb.NewEventRepository(db),
		members,
		attachments,
		redisdb.NewIdempotencyStore(rdb),
		dispatcher,
		logger.Component("events"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:   authService,
		Events: eventService,
		Tokens: tokens,
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"mongo": handlers.MongoCheck(db),
			"redis": handlers.RedisCheck(rdb),
		}),
		TokenTTL:     cfg.Auth.TokenTTL,
		SecureCookie: cfg.IsProduction(),
		UploadDir:    uploadDir,
		BodyLimit:    cfg.BodyLimit,
		Log:          logger.Component("http"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stopWorkers()
		dispatcher.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// In-flight requests are done; flush what they queued.
	stopWorkers()
	dispatcher.Wait()
	return nil
}

// newAttachmentStore returns the configured store and, for the local
// backend, the directory to serve at /uploads.
func newAttachmentStore(ctx context.Context, cfg config.AttachmentConfig) (ports.AttachmentStore, string, error) {
	if cfg.Backend == "b2" {
		store, err := storage.NewB2Store(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket)
		return store, "", err
	}
	store, err := storage.NewLocalStore(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
