package repository

import (
	"context"
	"time"

	"telegram-storefront/internal/domain/model"
)

// StateRepository is the port for the per-chat conversation state.
// GetState reports found=false when nothing was stored for the chat yet.
type StateRepository interface {
	GetState(ctx context.Context, chatID int64) (state model.State, found bool, err error)
	SetState(ctx context.Context, chatID int64, state model.State) error
}

// SessionLocker serializes handling of one session across processes.
type SessionLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
