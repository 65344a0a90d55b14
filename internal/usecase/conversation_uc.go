// File: internal/usecase/conversation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/domain/ports/repository"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationUseCase drives the purchase dialog of one session at a time.
type ConversationUseCase interface {
	// Handle runs a full turn: resolve state, dispatch, deliver, persist.
	Handle(ctx context.Context, session model.Session, event model.InboundEvent) error
	// Dispatch routes an event through the state table without touching the
	// state store or the messenger.
	Dispatch(ctx context.Context, state model.State, turn Turn) (*Outcome, error)
}

// Translator renders user-facing strings.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Turn is one inbound event bound to its session.
type Turn struct {
	Session model.Session
	Event   model.InboundEvent
}

// Outcome is what a handler produced. Replies are sent in order; Notice is
// shown as the callback answer. RetractInput also removes the user's own
// text message before the replies go out.
type Outcome struct {
	Replies      []model.Reply
	Next         model.State
	Notice       string
	RetractInput bool
}

type ConversationOptions struct {
	QuantityChoices  []int
	PlaceholderImage string
	Dev              bool
}

type stateHandler func(ctx context.Context, t Turn) (*Outcome, error)

type conversationUC struct {
	states   repository.StateRepository
	catalog  adapter.CatalogClient
	bot      adapter.Messenger
	tr       Translator
	opts     ConversationOptions
	log      *zerolog.Logger
	handlers map[model.State]stateHandler
}

func NewConversationUseCase(
	states repository.StateRepository,
	catalog adapter.CatalogClient,
	bot adapter.Messenger,
	tr Translator,
	opts ConversationOptions,
	logger *zerolog.Logger,
) *conversationUC {
	if logger == nil {
		logger = logging.Nop()
	}
	if len(opts.QuantityChoices) == 0 {
		opts.QuantityChoices = []int{1, 5, 10}
	}
	c := &conversationUC{
		states:  states,
		catalog: catalog,
		bot:     bot,
		tr:      tr,
		opts:    opts,
		log:     logger,
	}
	c.handlers = map[model.State]stateHandler{
		model.StateStart:             c.handleStart,
		model.StateHandleMenu:        c.handleMenu,
		model.StateHandleDescription: c.handleDescription,
		model.StateHandleCart:        c.handleCart,
		model.StateWaitingEmail:      c.handleWaitingEmail,
	}
	return c
}

// IsFatal reports errors that signal a broken state table or payload
// grammar rather than a failing collaborator.
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrUnknownState) || errors.Is(err, domain.ErrInvalidPayload)
}

func (c *conversationUC) Handle(ctx context.Context, s model.Session, ev model.InboundEvent) error {
	defer logging.TraceDuration(c.log, "ConversationUC.Handle")()
	log := logging.With(ctx, c.log)

	state, err := c.resolveState(ctx, s, ev)
	if err != nil {
		return err
	}

	var notice string
	if ev.IsCallback() && ev.CallbackID != "" {
		defer func() {
			if err := c.bot.AnswerCallback(ctx, ev.CallbackID, notice); err != nil {
				log.Debug().Err(err).Msg("answer callback failed")
			}
		}()
	}

	started := time.Now()
	out, err := c.Dispatch(ctx, state, Turn{Session: s, Event: ev})
	metrics.ObserveDispatch(state.String(), time.Since(started).Seconds())
	if err != nil {
		if IsFatal(err) {
			metrics.IncConversationEvent(state.String(), ev.Kind.String(), "rejected")
			return err
		}
		// soft recovery: the next event re-enters the same state
		metrics.IncConversationEvent(state.String(), ev.Kind.String(), "failed")
		log.Error().Err(err).Str("state", state.String()).Msg("handler failed, state unchanged")
		return nil
	}
	notice = out.Notice

	if err := c.deliver(ctx, s, ev, out); err != nil {
		metrics.IncConversationEvent(state.String(), ev.Kind.String(), "failed")
		log.Error().Err(err).Str("state", state.String()).Msg("delivery failed, state unchanged")
		return nil
	}

	if err := c.states.SetState(ctx, s.ChatID, out.Next); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	metrics.IncTransition(state.String(), out.Next.String())
	metrics.IncConversationEvent(state.String(), ev.Kind.String(), "ok")
	log.Debug().Str("from", state.String()).Str("to", out.Next.String()).Msg("transition")
	return nil
}

func (c *conversationUC) resolveState(ctx context.Context, s model.Session, ev model.InboundEvent) (model.State, error) {
	if ev.IsStart() {
		return model.StateStart, nil
	}
	state, found, err := c.states.GetState(ctx, s.ChatID)
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}
	if !found {
		metrics.IncStateLookup("miss")
		return model.InitialState, nil
	}
	metrics.IncStateLookup("hit")
	return state, nil
}

func (c *conversationUC) Dispatch(ctx context.Context, state model.State, t Turn) (*Outcome, error) {
	h, ok := c.handlers[state]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownState, state)
	}
	out, err := h(ctx, t)
	if err != nil {
		return nil, err
	}
	if !out.Next.Valid() {
		return nil, fmt.Errorf("%w: handler for %s returned %q", domain.ErrUnknownState, state, out.Next)
	}
	return out, nil
}

// deliver keeps a single active message on screen: the message that carried
// the pressed keyboard, or the user's text when out.RetractInput is set, is
// retracted before the first new reply.
func (c *conversationUC) deliver(ctx context.Context, s model.Session, ev model.InboundEvent, out *Outcome) error {
	replies := out.Replies
	if len(replies) == 0 {
		return nil
	}
	if (ev.IsCallback() || out.RetractInput) && ev.MessageID != 0 {
		if err := c.bot.DeleteMessage(ctx, s.ChatID, ev.MessageID); err != nil {
			logging.With(ctx, c.log).Debug().Err(err).Int("message_id", ev.MessageID).Msg("delete message failed")
		}
	}
	for _, r := range replies {
		var err error
		switch {
		case !r.Photo.IsZero():
			err = c.bot.SendPhoto(ctx, s.ChatID, r.Photo, r.Text, r.Keyboard)
		case len(r.Keyboard) > 0:
			err = c.bot.SendButtons(ctx, s.ChatID, r.Text, r.Keyboard)
		default:
			err = c.bot.SendMessage(ctx, s.ChatID, r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
