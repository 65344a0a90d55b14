package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
	red "telegram-storefront/internal/infra/redis"
	"telegram-storefront/internal/infra/worker"
)

// EventHandler is implemented by application.BotFacade.
type EventHandler interface {
	HandleEvent(ctx context.Context, session model.Session, event model.InboundEvent) error
}

// RealTelegramBotAdapter receives updates by long polling or webhook and
// hands them to the keyed worker pool.
type RealTelegramBotAdapter struct {
	*Messenger

	bot         *tgbotapi.BotAPI
	cfg         config.BotConfig
	handler     EventHandler
	pool        *worker.Pool
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, pool *worker.Pool, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if pool == nil {
		return nil, errors.New("worker pool is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	l := logging.Component(logger, "telegram")
	l.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	return &RealTelegramBotAdapter{
		Messenger:   NewMessenger(bot),
		bot:         bot,
		cfg:         cfg,
		pool:        pool,
		rateLimiter: rateLimiter,
		log:         l,
	}, nil
}

// SetHandler wires the facade; the facade itself needs the messenger first.
func (r *RealTelegramBotAdapter) SetHandler(h EventHandler) { r.handler = h }

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if r.handler == nil {
		return errors.New("telegram: event handler not set")
	}
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		r.log.Warn().Err(err).Msg("delete webhook failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel
	defer r.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			metrics.IncTelegramUpdate("polling", updateKind(up))
			if err := r.pool.SubmitWait(ctx, chatKey(up), r.task(up)); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update not queued")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// RegisterWebhook points Telegram at bot.webhook_url. Telegram echoes
// bot.webhook_secret on every delivery so the HTTP server can reject
// forged updates.
func (r *RealTelegramBotAdapter) RegisterWebhook() error {
	params, err := webhookParams(r.cfg)
	if err != nil {
		return err
	}
	if _, err := r.bot.MakeRequest("setWebhook", params); err != nil {
		return err
	}
	r.log.Info().Str("url", r.cfg.WebhookURL).Msg("webhook registered")
	return nil
}

// webhookParams builds setWebhook parameters by hand: the library's
// WebhookConfig has no secret_token field.
func webhookParams(cfg config.BotConfig) (tgbotapi.Params, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("telegram: webhook url empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("telegram: webhook secret empty")
	}
	params := tgbotapi.Params{}
	params["url"] = cfg.WebhookURL
	params["secret_token"] = cfg.WebhookSecret
	return params, nil
}

// Enqueue accepts a webhook update without blocking the HTTP handler;
// it returns worker.ErrQueueFull when the chat's worker is saturated.
func (r *RealTelegramBotAdapter) Enqueue(up tgbotapi.Update) error {
	if r.handler == nil {
		return errors.New("telegram: event handler not set")
	}
	metrics.IncTelegramUpdate("webhook", updateKind(up))
	return r.pool.Submit(chatKey(up), r.task(up))
}

func chatKey(up tgbotapi.Update) int64 {
	s, _, _ := EventFromUpdate(up)
	return s.ChatID
}

func (r *RealTelegramBotAdapter) task(up tgbotapi.Update) worker.Task {
	return func(ctx context.Context) error { return r.process(ctx, up) }
}

func (r *RealTelegramBotAdapter) process(ctx context.Context, up tgbotapi.Update) error {
	s, ev, ok := EventFromUpdate(up)
	if !ok {
		return nil
	}
	ctx = logging.WithTraceID(ctx, ulid.Make().String())

	if r.rateLimiter != nil && r.cfg.RateLimit > 0 {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserEventKey(s.UserID), r.cfg.RateLimit, time.Minute)
		switch {
		case err != nil:
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		case !allowed:
			metrics.IncRateLimitTriggered()
			if ev.IsCallback() {
				_ = r.AnswerCallback(ctx, ev.CallbackID, "")
			}
			return nil
		}
	}

	// failures are logged by the facade
	if err := r.handler.HandleEvent(ctx, s, ev); errors.Is(err, domain.ErrSessionBusy) && ev.IsCallback() {
		if aerr := r.AnswerCallback(ctx, ev.CallbackID, ""); aerr != nil {
			logging.With(ctx, r.log).Debug().Err(aerr).Msg("answer callback failed")
		}
	}
	return nil
}
