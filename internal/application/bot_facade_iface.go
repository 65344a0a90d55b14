package application

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// ConversationHandler is the surface of usecase.ConversationUseCase the
// facade needs; tests pass light-weight fakes.
type ConversationHandler interface {
	Handle(ctx context.Context, session model.Session, event model.InboundEvent) error
}
