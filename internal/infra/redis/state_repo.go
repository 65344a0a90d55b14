package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps one state label per chat as a plain string value.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

// NewStateRepo stores states forever when ttl is zero; abandoned sessions
// simply stay in the store.
func NewStateRepo(client RedisClient, ttl time.Duration) *StateRepo {
	return &StateRepo{client: client, ttl: ttl}
}

func (s *StateRepo) stateKey(chatID int64) string {
	return fmt.Sprintf("conv_state:%d", chatID)
}

func (s *StateRepo) SetState(ctx context.Context, chatID int64, state model.State) error {
	return s.client.Set(ctx, s.stateKey(chatID), state.String(), s.ttl)
}

// GetState returns the stored label as is, even when it is not a known
// state; the dispatcher rejects those.
func (s *StateRepo) GetState(ctx context.Context, chatID int64) (model.State, bool, error) {
	v, err := s.client.Get(ctx, s.stateKey(chatID))
	if IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return model.State(v), true, nil
}
