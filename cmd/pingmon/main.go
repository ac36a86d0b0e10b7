package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/httpapi"
	"pingmon/internal/logging"
	"pingmon/internal/notify"
	"pingmon/internal/probe"
	"pingmon/internal/repo"
	"pingmon/internal/repo/memory"
	"pingmon/internal/repo/postgres"
	"pingmon/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.Log.Dir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var targets repo.TargetStore
	if cfg.Database.URL != "" {
		pg, err := postgres.New(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("postgres_connect", zap.Error(err))
		}
		defer pg.Close()
		targets = pg
	} else {
		targets = memory.New()
	}
	for _, t := range cfg.TargetList() {
		if err := targets.Upsert(ctx, t); err != nil {
			logger.Fatal("target_seed", zap.String("alias", t.Alias), zap.Error(err))
		}
	}

	settings := config.NewStore(cfg.Monitor)

	notifier := notify.Multi{&notify.Log{Logger: logger}}
	if wh := notify.NewWebhook(cfg.Notify.WebhookURL); wh != nil {
		notifier = append(notifier, wh)
	}

	mon := scheduler.New(logger, targets, probe.NewExecPinger(), notifier, settings)
	api := httpapi.NewServer(logger, targets, settings, mon)

	go api.Consume(ctx, mon.Updates())

	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		mon.Run(ctx)
	}()

	srv := &http.Server{Addr: cfg.API.Addr, Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.API.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_serve", zap.Error(err))
	}

	<-monDone
	logger.Info("shutdown_complete")
}
