package model

import (
	"strconv"
	"strings"
)

// State is the label that decides which handler interprets the next event.
type State string

const (
	StateStart             State = "START"
	StateHandleMenu        State = "HANDLE_MENU"
	StateHandleDescription State = "HANDLE_DESCRIPTION"
	StateHandleCart        State = "HANDLE_CART"
	StateWaitingEmail      State = "WAITING_EMAIL"
)

// InitialState is applied when the store has nothing for a session.
const InitialState = StateStart

// States returns the closed set of conversation states.
func States() []State {
	return []State{StateStart, StateHandleMenu, StateHandleDescription, StateHandleCart, StateWaitingEmail}
}

func (s State) Valid() bool {
	switch s {
	case StateStart, StateHandleMenu, StateHandleDescription, StateHandleCart, StateWaitingEmail:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// Callback payloads with a fixed meaning. Everything else is an id whose
// meaning depends on the current state.
const (
	PayloadShowCart   = "SHOW_CART"
	PayloadBack       = "BACK"
	PayloadCheckout   = "WAITING_EMAIL"
	QuantitySeparator = "#"

	StartCommand = "/start"
)

// Session identifies one end-user conversation. The state is keyed by chat,
// the cart and the customer record by user.
type Session struct {
	ChatID int64
	UserID int64
}

func (s Session) CartID() string { return strconv.FormatInt(s.UserID, 10) }

func (s Session) CustomerName() string { return strconv.FormatInt(s.UserID, 10) }

type EventKind uint8

const (
	EventText EventKind = iota + 1
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	}
	return "unknown"
}

// InboundEvent is either a text message or a callback button press.
// MessageID points at the message the event came from: the user's message for
// text, the bot message carrying the keyboard for callbacks.
type InboundEvent struct {
	Kind       EventKind
	Text       string
	Payload    string
	MessageID  int
	CallbackID string
}

func NewTextEvent(text string, messageID int) InboundEvent {
	return InboundEvent{Kind: EventText, Text: text, MessageID: messageID}
}

func NewCallbackEvent(callbackID, payload string, messageID int) InboundEvent {
	return InboundEvent{Kind: EventCallback, Payload: payload, MessageID: messageID, CallbackID: callbackID}
}

func (e InboundEvent) IsText() bool     { return e.Kind == EventText }
func (e InboundEvent) IsCallback() bool { return e.Kind == EventCallback }

// IsStart reports whether the event resets the conversation.
func (e InboundEvent) IsStart() bool {
	return e.Kind == EventText && strings.TrimSpace(e.Text) == StartCommand
}

type CommandKind uint8

const (
	CmdShowCart CommandKind = iota + 1
	CmdSelectProduct
	CmdAddToCart
	CmdRemoveFromCart
	CmdBack
	CmdCheckout
)

func (k CommandKind) String() string {
	switch k {
	case CmdShowCart:
		return "show_cart"
	case CmdSelectProduct:
		return "select_product"
	case CmdAddToCart:
		return "add_to_cart"
	case CmdRemoveFromCart:
		return "remove_from_cart"
	case CmdBack:
		return "back"
	case CmdCheckout:
		return "checkout"
	}
	return "unknown"
}

// Command is a callback payload after it has been interpreted by a state.
type Command struct {
	Kind      CommandKind
	ProductID string
	ItemID    string
	Quantity  int
}

// Button is one inline keyboard button carrying a callback payload.
type Button struct {
	Text string
	Data string
}

// Photo is either a remote URL or a local file path.
type Photo struct {
	URL  string
	Path string
}

func (p Photo) IsZero() bool { return p.URL == "" && p.Path == "" }

// Reply is one outbound render: a text message, or a photo with caption when
// Photo is set. Text is HTML.
type Reply struct {
	Text     string
	Photo    Photo
	Keyboard [][]Button
}

// AddToCartPayload builds the "<product_id>#<quantity>" payload.
func AddToCartPayload(productID string, quantity int) string {
	return productID + QuantitySeparator + strconv.Itoa(quantity)
}
