package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ballotbox/account-service/internal/api"
	"github.com/ballotbox/account-service/internal/core/ports"
	"github.com/ballotbox/account-service/internal/infrastructure/config"
	mongostore "github.com/ballotbox/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/ballotbox/account-service/internal/infrastructure/db/redis"
	"github.com/ballotbox/account-service/internal/infrastructure/notify"
	"github.com/ballotbox/account-service/internal/infrastructure/queue"
	"github.com/ballotbox/account-service/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("configuration invalid")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	accountRepo := mongostore.NewAccountRepository(db)
	if err := accountRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Redis ---
	rdb, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Reset notifier: direct Mailgun, queued when workers configured.
	// Outcome counters wrap the Mailgun sender itself so they move on
	// delivery in both modes, not on enqueue.
	var notifier ports.ResetNotifier = notify.NewInstrumented(notify.NewMailgunNotifier(
		cfg.Mail.Domain, cfg.Mail.APIKey, cfg.Mail.Sender, cfg.BaseURL,
	))
	if cfg.Mail.Workers > 0 {
		dispatcher := queue.NewMailDispatcher(cfg.Mail.Workers, notifier, log)
		dispatcher.Start(ctx)
		notifier = dispatcher
	}

	e := api.NewRouter(db, rdb, notifier, cfg, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
