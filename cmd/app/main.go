// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/application"
	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain/ports/repository"
	tele "telegram-storefront/internal/infra/adapters/telegram"
	"telegram-storefront/internal/infra/catalog"
	httpapi "telegram-storefront/internal/infra/http"
	"telegram-storefront/internal/infra/i18n"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
	red "telegram-storefront/internal/infra/redis"
	"telegram-storefront/internal/infra/worker"
	"telegram-storefront/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs, unredacted payloads)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("storefront stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Str("mode", cfg.Bot.Mode).Bool("dev", cfg.Runtime.Dev).Msg("starting")

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	states := red.NewStateRepo(redisClient, cfg.Redis.StateTTL)
	rateLimiter := red.NewRateLimiter(redisClient)
	var locker repository.SessionLocker
	if cfg.Engine.SessionLock {
		locker = red.NewLocker(redisClient)
	}

	// ---- Catalog ----
	catalogClient, err := catalog.NewClient(cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Telegram ----
	pool := worker.NewPool(cfg.Bot.Workers, cfg.Bot.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	botAdapter, err := tele.NewRealTelegramBotAdapter(cfg.Bot, pool, rateLimiter, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	conv := usecase.NewConversationUseCase(states, catalogClient, botAdapter, tr, usecase.ConversationOptions{
		QuantityChoices:  cfg.Engine.QuantityChoices,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
		Dev:              cfg.Runtime.Dev,
	}, logging.Component(logger, "conversation"))
	facade := application.NewBotFacade(conv, locker, cfg.Redis.LockTTL, logger)
	botAdapter.SetHandler(facade)

	// ---- HTTP: health, metrics, webhook ----
	var sink httpapi.WebhookSink
	if cfg.Bot.Mode == config.ModeWebhook {
		sink = botAdapter
	}
	srv := httpapi.NewServer(cfg.Admin.Port, cfg.Bot.WebhookPath, cfg.Bot.WebhookSecret, sink, logger)
	errc := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	switch cfg.Bot.Mode {
	case config.ModeWebhook:
		if err := botAdapter.RegisterWebhook(); err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}
	default:
		go func() {
			if err := botAdapter.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- fmt.Errorf("telegram polling: %w", err)
			}
		}()
	}

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err = <-errc:
	}
	botAdapter.StopPolling()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn().Err(serr).Msg("http shutdown")
	}
	return err
}
