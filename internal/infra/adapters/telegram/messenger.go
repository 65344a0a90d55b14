package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*Messenger)(nil)

// botAPI is the part of *tgbotapi.BotAPI the messenger uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger sends HTML-formatted replies through the Bot API.
type Messenger struct {
	bot botAPI
}

func NewMessenger(bot botAPI) *Messenger { return &Messenger{bot: bot} }

func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := m.bot.Send(msg)
	return err
}

func (m *Messenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]model.Button) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}
	_, err := m.bot.Send(msg)
	return err
}

// SendPhoto uploads a local file when photo.Path is set, otherwise lets
// Telegram fetch photo.URL.
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photo model.Photo, caption string, rows [][]model.Button) error {
	var file tgbotapi.RequestFileData
	switch {
	case photo.URL != "":
		file = tgbotapi.FileURL(photo.URL)
	case photo.Path != "":
		file = tgbotapi.FilePath(photo.Path)
	default:
		return errors.New("telegram: photo without url or path")
	}
	msg := tgbotapi.NewPhoto(chatID, file)
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = inlineKeyboard(rows)
	}
	_, err := m.bot.Send(msg)
	return err
}

func (m *Messenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := m.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := m.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
