//go:build !integration

package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/logging"
)

type recordingBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *recordingBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *recordingBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestEventFromUpdate(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		up := tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 10, Text: "/start",
			Chat: &tgbotapi.Chat{ID: 100}, From: &tgbotapi.User{ID: 777},
		}}
		s, ev, ok := EventFromUpdate(up)
		if !ok {
			t.Fatal("expected ok")
		}
		if s != (model.Session{ChatID: 100, UserID: 777}) {
			t.Fatalf("unexpected session %+v", s)
		}
		if !ev.IsStart() || ev.MessageID != 10 {
			t.Fatalf("unexpected event %+v", ev)
		}
	})

	t.Run("callback query", func(t *testing.T) {
		up := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID: "cb-1", Data: "42#5", From: &tgbotapi.User{ID: 777},
			Message: &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: 100}},
		}}
		s, ev, ok := EventFromUpdate(up)
		if !ok || s.ChatID != 100 || s.UserID != 777 {
			t.Fatalf("got %+v ok=%v", s, ok)
		}
		if !ev.IsCallback() || ev.Payload != "42#5" || ev.MessageID != 55 || ev.CallbackID != "cb-1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	})

	t.Run("ignored updates", func(t *testing.T) {
		for _, up := range []tgbotapi.Update{
			{},
			{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}, // sticker, photo...
			{CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", Data: "BACK"}},
		} {
			if _, _, ok := EventFromUpdate(up); ok {
				t.Fatalf("update %+v must be ignored", up)
			}
		}
	})
}

func TestMessengerSendPhoto(t *testing.T) {
	bot := &recordingBot{}
	m := NewMessenger(bot)
	rows := [][]model.Button{{{Text: "1", Data: "42#1"}, {Text: "5", Data: "42#5"}}, {}, {{Text: "Back", Data: "BACK"}}}

	if err := m.SendPhoto(context.Background(), 100, model.Photo{Path: "no_image.jpg"}, "<b>x</b>", rows); err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
	if err := m.SendPhoto(context.Background(), 100, model.Photo{URL: "https://cdn/x.jpg"}, "x", nil); err != nil {
		t.Fatalf("SendPhoto url: %v", err)
	}
	if err := m.SendPhoto(context.Background(), 100, model.Photo{}, "x", nil); err == nil {
		t.Fatal("empty photo must fail")
	}

	local, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("want PhotoConfig, got %T", bot.sent[0])
	}
	if local.File != tgbotapi.FilePath("no_image.jpg") {
		t.Fatalf("placeholder must be uploaded from disk, got %#v", local.File)
	}
	if local.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("want HTML parse mode, got %q", local.ParseMode)
	}
	kb, ok := local.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("unexpected keyboard %#v", local.ReplyMarkup)
	}
	if d := kb.InlineKeyboard[0][1].CallbackData; d == nil || *d != "42#5" {
		t.Fatalf("unexpected callback data %v", d)
	}

	remote := bot.sent[1].(tgbotapi.PhotoConfig)
	if remote.File != tgbotapi.FileURL("https://cdn/x.jpg") {
		t.Fatalf("want FileURL, got %#v", remote.File)
	}
	if remote.ReplyMarkup != nil {
		t.Fatal("no keyboard expected")
	}
}

func TestMessengerRequests(t *testing.T) {
	bot := &recordingBot{}
	m := NewMessenger(bot)
	ctx := context.Background()

	if err := m.DeleteMessage(ctx, 100, 55); err != nil {
		t.Fatal(err)
	}
	if err := m.AnswerCallback(ctx, "cb-1", "added"); err != nil {
		t.Fatal(err)
	}
	del, ok := bot.requests[0].(tgbotapi.DeleteMessageConfig)
	if !ok || del.ChatID != 100 || del.MessageID != 55 {
		t.Fatalf("unexpected delete %#v", bot.requests[0])
	}
	cb, ok := bot.requests[1].(tgbotapi.CallbackConfig)
	if !ok || cb.CallbackQueryID != "cb-1" || cb.Text != "added" {
		t.Fatalf("unexpected callback answer %#v", bot.requests[1])
	}
}

type recordingHandler struct {
	sessions []model.Session
	err      error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, s model.Session, ev model.InboundEvent) error {
	if logging.TraceID(ctx) == "" {
		return errors.New("missing trace id")
	}
	h.sessions = append(h.sessions, s)
	return h.err
}

func TestProcess(t *testing.T) {
	h := &recordingHandler{}
	r := &RealTelegramBotAdapter{
		Messenger: NewMessenger(&recordingBot{}),
		cfg:       config.BotConfig{},
		handler:   h,
		log:       logging.Nop(),
	}
	up := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1, Text: "hi", Chat: &tgbotapi.Chat{ID: 100}, From: &tgbotapi.User{ID: 777},
	}}

	if err := r.process(context.Background(), up); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(h.sessions) != 1 || h.sessions[0].UserID != 777 {
		t.Fatalf("unexpected sessions %+v", h.sessions)
	}

	h.err = domain.ErrSessionBusy
	if err := r.process(context.Background(), up); err != nil {
		t.Fatalf("busy session is not a worker error, got %v", err)
	}
	// the facade already logged it; the pool gets nothing to log twice
	h.err = domain.ErrUnknownState
	if err := r.process(context.Background(), up); err != nil {
		t.Fatalf("handler errors are reported by the facade, got %v", err)
	}
	if err := r.process(context.Background(), tgbotapi.Update{}); err != nil {
		t.Fatalf("ignored update: %v", err)
	}
}

func TestProcessAnswersCallbackOfBusySession(t *testing.T) {
	bot := &recordingBot{}
	h := &recordingHandler{err: domain.ErrSessionBusy}
	r := &RealTelegramBotAdapter{
		Messenger: NewMessenger(bot),
		handler:   h,
		log:       logging.Nop(),
	}
	up := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb-9", Data: "SHOW_CART", From: &tgbotapi.User{ID: 777},
		Message: &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: 100}},
	}}

	if err := r.process(context.Background(), up); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(bot.requests) != 1 {
		t.Fatalf("want the dropped callback answered once, got %d requests", len(bot.requests))
	}
	cb, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	if !ok || cb.CallbackQueryID != "cb-9" {
		t.Fatalf("unexpected request %#v", bot.requests[0])
	}

	// answered callbacks of handled events are the engine's job
	h.err = nil
	if err := r.process(context.Background(), up); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(bot.requests) != 1 {
		t.Fatalf("adapter must not answer handled callbacks, got %d requests", len(bot.requests))
	}
}

func TestWebhookParams(t *testing.T) {
	params, err := webhookParams(config.BotConfig{WebhookURL: "https://bot.example/tg", WebhookSecret: "s3cret"})
	if err != nil {
		t.Fatalf("webhookParams: %v", err)
	}
	if params["url"] != "https://bot.example/tg" || params["secret_token"] != "s3cret" {
		t.Fatalf("unexpected params %v", params)
	}
	if _, err := webhookParams(config.BotConfig{WebhookURL: "https://bot.example/tg"}); err == nil {
		t.Fatal("registering a webhook without a secret must fail")
	}
}
