package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/logging"
)

func (c *conversationUC) handleStart(ctx context.Context, t Turn) (*Outcome, error) {
	if _, err := c.catalog.GetOrCreateCart(ctx, t.Session.CartID()); err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	rows := make([][]model.Button, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, []model.Button{{Text: p.Name, Data: p.ID}})
	}
	rows = append(rows, []model.Button{c.cartButton()})

	return &Outcome{
		Replies: []model.Reply{{Text: c.tr.T("menu_title"), Keyboard: rows}},
		Next:    model.StateHandleMenu,
	}, nil
}

func (c *conversationUC) handleMenu(ctx context.Context, t Turn) (*Outcome, error) {
	if !t.Event.IsCallback() {
		return nil, unexpectedText(model.StateHandleMenu)
	}
	cmd, err := ParseMenuCallback(t.Event.Payload)
	if err != nil {
		return nil, err
	}
	if cmd.Kind == model.CmdShowCart {
		return c.showCart(ctx, t.Session)
	}
	return c.showProduct(ctx, cmd.ProductID)
}

func (c *conversationUC) handleDescription(ctx context.Context, t Turn) (*Outcome, error) {
	if !t.Event.IsCallback() {
		return nil, unexpectedText(model.StateHandleDescription)
	}
	cmd, err := ParseDescriptionCallback(t.Event.Payload)
	if err != nil {
		return nil, err
	}
	switch cmd.Kind {
	case model.CmdShowCart:
		return c.showCart(ctx, t.Session)
	case model.CmdBack:
		return c.handleStart(ctx, t)
	}

	if err := c.catalog.AddCartItem(ctx, t.Session.CartID(), cmd.ProductID, cmd.Quantity); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	logging.With(ctx, c.log).Info().
		Str("product_id", cmd.ProductID).Int("quantity", cmd.Quantity).Msg("added to cart")
	return &Outcome{
		Next:   model.StateHandleDescription,
		Notice: c.tr.T("cart_item_added", cmd.Quantity),
	}, nil
}

func (c *conversationUC) handleCart(ctx context.Context, t Turn) (*Outcome, error) {
	if !t.Event.IsCallback() {
		return nil, unexpectedText(model.StateHandleCart)
	}
	cmd, err := ParseCartCallback(t.Event.Payload)
	if err != nil {
		return nil, err
	}
	switch cmd.Kind {
	case model.CmdCheckout:
		return c.emailPrompt(), nil
	case model.CmdBack:
		return c.handleStart(ctx, t)
	}

	err = c.catalog.RemoveCartItem(ctx, t.Session.CartID(), cmd.ItemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logging.With(ctx, c.log).Debug().Str("item_id", cmd.ItemID).Msg("cart item already gone")
	case err != nil:
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return c.showCart(ctx, t.Session)
}

func (c *conversationUC) handleWaitingEmail(ctx context.Context, t Turn) (*Outcome, error) {
	if t.Event.IsCallback() {
		return c.emailPrompt(), nil
	}

	// stored as typed, without validation
	email := t.Event.Text
	if _, err := c.catalog.CreateCustomer(ctx, t.Session.CustomerName(), email); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	logging.With(ctx, c.log).Info().Str("email", logging.Redact(email, c.opts.Dev)).Msg("customer registered")

	cart, err := c.showCart(ctx, t.Session)
	if err != nil {
		return nil, err
	}
	ack := model.Reply{Text: c.tr.T("email_ack", html.EscapeString(email))}
	cart.Replies = append([]model.Reply{ack}, cart.Replies...)
	cart.RetractInput = true
	return cart, nil
}

func (c *conversationUC) showProduct(ctx context.Context, productID string) (*Outcome, error) {
	p, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	photo, err := c.productPhoto(ctx, p)
	if err != nil {
		return nil, err
	}

	qty := make([]model.Button, 0, len(c.opts.QuantityChoices))
	for _, q := range c.opts.QuantityChoices {
		qty = append(qty, model.Button{Text: c.tr.T("button_quantity", q), Data: model.AddToCartPayload(p.ID, q)})
	}
	caption := c.tr.T("product_caption",
		html.EscapeString(p.Name), p.Price.String(), html.EscapeString(p.Description))

	return &Outcome{
		Replies: []model.Reply{{
			Text:     caption,
			Photo:    photo,
			Keyboard: [][]model.Button{qty, {c.cartButton()}, {c.backButton()}},
		}},
		Next: model.StateHandleDescription,
	}, nil
}

// productPhoto falls back to the placeholder only when the image is missing;
// any other lookup failure fails the turn.
func (c *conversationUC) productPhoto(ctx context.Context, p *model.Product) (model.Photo, error) {
	placeholder := model.Photo{Path: c.opts.PlaceholderImage}
	if !p.HasImage() {
		return placeholder, nil
	}
	url, err := c.catalog.FileURL(ctx, p.MainImageID)
	switch {
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrNotFound):
		logging.With(ctx, c.log).Debug().Str("product_id", p.ID).Msg("image missing, using placeholder")
		return placeholder, nil
	case err != nil:
		return model.Photo{}, fmt.Errorf("resolve image of %s: %w", p.ID, err)
	}
	return model.Photo{URL: url}, nil
}

func (c *conversationUC) showCart(ctx context.Context, s model.Session) (*Outcome, error) {
	cartID := s.CartID()
	cart, err := c.catalog.GetCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	items, err := c.catalog.ListCartItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	var b strings.Builder
	b.WriteString(c.tr.T("cart_title"))
	rows := make([][]model.Button, 0, len(items)+2)
	for _, it := range items {
		b.WriteString("\n\n")
		b.WriteString(c.tr.T("cart_item", html.EscapeString(it.Name), it.LinePrice(), it.Quantity))
		rows = append(rows, []model.Button{{Text: c.tr.T("button_remove", it.Name), Data: it.ID}})
	}
	if len(items) == 0 {
		b.WriteString("\n\n")
		b.WriteString(c.tr.T("cart_empty"))
	}
	b.WriteString("\n\n")
	b.WriteString(c.tr.T("cart_total", html.EscapeString(cart.DisplayTotal)))
	rows = append(rows,
		[]model.Button{{Text: c.tr.T("button_checkout"), Data: model.PayloadCheckout}},
		[]model.Button{c.backButton()},
	)

	return &Outcome{
		Replies: []model.Reply{{Text: b.String(), Keyboard: rows}},
		Next:    model.StateHandleCart,
	}, nil
}

func (c *conversationUC) emailPrompt() *Outcome {
	return &Outcome{
		Replies: []model.Reply{{Text: c.tr.T("email_prompt")}},
		Next:    model.StateWaitingEmail,
	}
}

func (c *conversationUC) cartButton() model.Button {
	return model.Button{Text: c.tr.T("button_cart"), Data: model.PayloadShowCart}
}

func (c *conversationUC) backButton() model.Button {
	return model.Button{Text: c.tr.T("button_back"), Data: model.PayloadBack}
}

func unexpectedText(state model.State) error {
	return fmt.Errorf("%w: %w: text message in %s", domain.ErrInvalidPayload, domain.ErrUnexpectedEvent, state)
}
