package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

type priceDTO struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	IncludesTax bool   `json:"includes_tax"`
}

func (p priceDTO) model() model.Price {
	return model.Price{Amount: p.Amount, Currency: p.Currency, IncludesTax: p.IncludesTax}
}

type productDTO struct {
	ID            string     `json:"id,omitempty"`
	Type          string     `json:"type"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	SKU           string     `json:"sku"`
	Description   string     `json:"description"`
	ManageStock   bool       `json:"manage_stock"`
	Status        string     `json:"status,omitempty"`
	CommodityType string     `json:"commodity_type,omitempty"`
	Price         []priceDTO `json:"price"`

	Relationships *productRelationships `json:"relationships,omitempty"`
}

type productRelationships struct {
	MainImage struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"main_image"`
}

func (p productDTO) model() model.Product {
	out := model.Product{ID: p.ID, Name: p.Name, Description: p.Description, Slug: p.Slug, SKU: p.SKU}
	if len(p.Price) > 0 {
		out.Price = p.Price[0].model()
	}
	if r := p.Relationships; r != nil && r.MainImage.Data != nil {
		out.MainImageID = r.MainImage.Data.ID
	}
	return out
}

type cartItemDTO struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice priceDTO `json:"unit_price"`
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	body, err := c.do(ctx, "list_products", http.MethodGet, "/v2/products", nil)
	if err != nil {
		return nil, err
	}
	var dtos []productDTO
	if err := decodeData("list_products", body, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.model())
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	body, err := c.do(ctx, "get_product", http.MethodGet, "/v2/products/"+url.PathEscape(productID), nil)
	if err != nil {
		return nil, err
	}
	var dto productDTO
	if err := decodeData("get_product", body, &dto); err != nil {
		return nil, err
	}
	p := dto.model()
	return &p, nil
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	body, err := c.do(ctx, "get_cart", http.MethodGet, "/v2/carts/"+url.PathEscape(cartID), nil)
	if err != nil {
		return nil, err
	}
	return cartFrom(body, cartID), nil
}

// GetOrCreateCart reads the cart first and creates it only on a miss.
func (c *Client) GetOrCreateCart(ctx context.Context, cartID string) (*model.Cart, error) {
	cart, err := c.GetCart(ctx, cartID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	body, err := c.do(ctx, "create_cart", http.MethodPost, "/v2/carts", map[string]any{
		"id":   cartID,
		"name": model.CartName(cartID),
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("cart_id", cartID).Msg("cart created")
	return cartFrom(body, cartID), nil
}

func cartFrom(body []byte, cartID string) *model.Cart {
	res := gjson.GetBytes(body, "data")
	cart := &model.Cart{
		ID:           res.Get("id").String(),
		Name:         res.Get("name").String(),
		DisplayTotal: res.Get("meta.display_price.with_tax.formatted").String(),
	}
	if cart.ID == "" {
		cart.ID = cartID
	}
	return cart
}

func (c *Client) ListCartItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	body, err := c.do(ctx, "list_cart_items", http.MethodGet, "/v2/carts/"+url.PathEscape(cartID)+"/items", nil)
	if err != nil {
		return nil, err
	}
	var dtos []cartItemDTO
	if err := decodeData("list_cart_items", body, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.CartItem, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.CartItem{
			ID:        d.ID,
			ProductID: d.ProductID,
			Name:      d.Name,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice.model(),
		})
	}
	return out, nil
}

func (c *Client) AddCartItem(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity %d", domain.ErrInvalidArgument, quantity)
	}
	_, err := c.do(ctx, "add_cart_item", http.MethodPost, "/v2/carts/"+url.PathEscape(cartID)+"/items", map[string]any{
		"id":       productID,
		"type":     "cart_item",
		"quantity": quantity,
	})
	return err
}

func (c *Client) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	_, err := c.do(ctx, "remove_cart_item", http.MethodDelete,
		"/v2/carts/"+url.PathEscape(cartID)+"/items/"+url.PathEscape(itemID), nil)
	return err
}

// CreateCustomer stores the e-mail as given.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error) {
	body, err := c.do(ctx, "create_customer", http.MethodPost, "/v2/customers", map[string]any{
		"type":  "customer",
		"name":  name,
		"email": email,
	})
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(body, "data")
	return &model.Customer{
		ID:    res.Get("id").String(),
		Name:  res.Get("name").String(),
		Email: res.Get("email").String(),
	}, nil
}

func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	f, err := c.getFile(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("file %s: %w", fileID, domain.ErrImageNotFound)
	}
	if err != nil {
		return "", err
	}
	if f.Link == "" {
		return "", fmt.Errorf("file %s has no link: %w", fileID, domain.ErrImageNotFound)
	}
	return f.Link, nil
}

func (c *Client) getFile(ctx context.Context, fileID string) (*model.File, error) {
	body, err := c.do(ctx, "get_file", http.MethodGet, "/v2/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, err
	}
	f := fileFrom(gjson.GetBytes(body, "data"))
	return &f, nil
}

func fileFrom(res gjson.Result) model.File {
	return model.File{
		ID:   res.Get("id").String(),
		Name: res.Get("file_name").String(),
		Link: res.Get("link.href").String(),
	}
}

// UploadFileFromURL registers a remote file; the backend fetches it itself.
func (c *Client) UploadFileFromURL(ctx context.Context, fileURL string) (*model.File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("file_location", fileURL); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v2/files", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.send(req, "upload_file")
	if err != nil {
		return nil, err
	}
	f := fileFrom(gjson.GetBytes(body, "data"))
	return &f, nil
}
