// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/ports/repository"
)

var _ repository.SessionLocker = (*RedisLocker)(nil)

type RedisLocker struct {
	client  RedisClient
	tries   int
	backoff time.Duration
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{client: c, tries: 5, backoff: 50 * time.Millisecond}
}

// TryLock returns domain.ErrSessionBusy when the key stays held after all tries.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < l.tries; i++ {
		ok, err := l.client.SetNX(ctx, key, token, ttl)
		if err == nil && ok {
			return token, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("lock %s: %w", key, lastErr)
	}
	return "", domain.ErrSessionBusy
}

// Unlock is a no-op when the lock expired and was taken by someone else.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.client.CompareAndDelete(ctx, key, token)
	return err
}
