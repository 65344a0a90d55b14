package adapter

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// Messenger is the outbound half of the chat transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]model.Button) error
	SendPhoto(ctx context.Context, chatID int64, photo model.Photo, caption string, rows [][]model.Button) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
