package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

// Callback payloads are untyped strings whose meaning depends on the state
// that produced the keyboard. Each state owns a parser; a payload that does
// not fit the state's grammar is domain.ErrInvalidPayload.

// ParseMenuCallback accepts SHOW_CART or a bare product id.
func ParseMenuCallback(payload string) (model.Command, error) {
	p := strings.TrimSpace(payload)
	switch {
	case p == model.PayloadShowCart:
		return model.Command{Kind: model.CmdShowCart}, nil
	case p == "", isReserved(p), strings.Contains(p, model.QuantitySeparator):
		return model.Command{}, invalidPayload(model.StateHandleMenu, payload)
	}
	return model.Command{Kind: model.CmdSelectProduct, ProductID: p}, nil
}

// ParseDescriptionCallback accepts SHOW_CART, BACK or "<product_id>#<quantity>".
func ParseDescriptionCallback(payload string) (model.Command, error) {
	p := strings.TrimSpace(payload)
	switch p {
	case model.PayloadShowCart:
		return model.Command{Kind: model.CmdShowCart}, nil
	case model.PayloadBack:
		return model.Command{Kind: model.CmdBack}, nil
	}

	parts := strings.Split(p, model.QuantitySeparator)
	if len(parts) != 2 || parts[0] == "" {
		return model.Command{}, invalidPayload(model.StateHandleDescription, payload)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil || qty <= 0 {
		return model.Command{}, invalidPayload(model.StateHandleDescription, payload)
	}
	return model.Command{Kind: model.CmdAddToCart, ProductID: parts[0], Quantity: qty}, nil
}

// ParseCartCallback accepts WAITING_EMAIL, BACK or a cart line-item id.
func ParseCartCallback(payload string) (model.Command, error) {
	p := strings.TrimSpace(payload)
	switch {
	case p == model.PayloadCheckout:
		return model.Command{Kind: model.CmdCheckout}, nil
	case p == model.PayloadBack:
		return model.Command{Kind: model.CmdBack}, nil
	case p == "", p == model.PayloadShowCart:
		return model.Command{}, invalidPayload(model.StateHandleCart, payload)
	}
	return model.Command{Kind: model.CmdRemoveFromCart, ItemID: p}, nil
}

func isReserved(p string) bool {
	return p == model.PayloadBack || p == model.PayloadCheckout
}

func invalidPayload(state model.State, payload string) error {
	return fmt.Errorf("%w: %q in %s", domain.ErrInvalidPayload, payload, state)
}
