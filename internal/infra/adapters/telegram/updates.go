package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront/internal/domain/model"
)

// EventFromUpdate maps a Telegram update to a session and an inbound event.
// Updates the bot does not react to (edits, stickers, joins) give ok=false.
func EventFromUpdate(up tgbotapi.Update) (model.Session, model.InboundEvent, bool) {
	switch {
	case up.CallbackQuery != nil:
		q := up.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil || q.From == nil {
			return model.Session{}, model.InboundEvent{}, false
		}
		s := model.Session{ChatID: q.Message.Chat.ID, UserID: q.From.ID}
		return s, model.NewCallbackEvent(q.ID, q.Data, q.Message.MessageID), true

	case up.Message != nil && up.Message.Text != "":
		m := up.Message
		if m.Chat == nil {
			return model.Session{}, model.InboundEvent{}, false
		}
		s := model.Session{ChatID: m.Chat.ID, UserID: m.Chat.ID}
		if m.From != nil {
			s.UserID = m.From.ID
		}
		return s, model.NewTextEvent(m.Text, m.MessageID), true
	}
	return model.Session{}, model.InboundEvent{}, false
}

func updateKind(up tgbotapi.Update) string {
	switch {
	case up.CallbackQuery != nil:
		return "callback"
	case up.Message != nil && up.Message.Text != "":
		return "text"
	}
	return "other"
}

func inlineKeyboard(rows [][]model.Button) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		kbRows = append(kbRows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
