package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/repository"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

// BotFacade is what the transport calls for every inbound event.
type BotFacade struct {
	Conv    ConversationHandler
	Locker  repository.SessionLocker // nil disables cross-process serialization
	LockTTL time.Duration
	log     *zerolog.Logger
}

func NewBotFacade(conv ConversationHandler, locker repository.SessionLocker, lockTTL time.Duration, logger *zerolog.Logger) *BotFacade {
	if logger == nil {
		logger = logging.Nop()
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &BotFacade{Conv: conv, Locker: locker, LockTTL: lockTTL, log: logging.Component(logger, "facade")}
}

func sessionLockKey(chatID int64) string {
	return fmt.Sprintf("session_lock:%d", chatID)
}

// HandleEvent runs one turn for the session. While another process holds
// the session it returns domain.ErrSessionBusy and the event is dropped.
// Every returned error has already been logged here with the session fields.
func (b *BotFacade) HandleEvent(ctx context.Context, s model.Session, ev model.InboundEvent) error {
	if b.Conv == nil {
		b.log.Error().Msg("conversation usecase not available")
		return fmt.Errorf("conversation usecase not available")
	}
	ctx = logging.WithSession(ctx, s.ChatID, s.UserID)
	log := logging.With(ctx, b.log)

	if b.Locker != nil {
		key := sessionLockKey(s.ChatID)
		token, err := b.Locker.TryLock(ctx, key, b.LockTTL)
		if errors.Is(err, domain.ErrSessionBusy) {
			metrics.IncSessionBusy()
			log.Warn().Str("event", ev.Kind.String()).Msg("session busy, event dropped")
			return err
		}
		if err != nil {
			log.Error().Err(err).Msg("session lock failed, event dropped")
			return fmt.Errorf("session lock: %w", err)
		}
		defer func() {
			if err := b.Locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn().Err(err).Msg("session unlock failed")
			}
		}()
	}

	if err := b.Conv.Handle(ctx, s, ev); err != nil {
		log.Error().Err(err).Str("event", ev.Kind.String()).Msg("event rejected")
		return err
	}
	return nil
}
