package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"telegram-storefront/internal/domain/model"
)

func (c *Client) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	dto := productDTO{
		Type:          "product",
		Name:          p.Name,
		Slug:          p.Slug,
		SKU:           p.SKU,
		Description:   p.Description,
		ManageStock:   false,
		Status:        "live",
		CommodityType: "physical",
		Price: []priceDTO{{
			Amount:      p.Price.Amount,
			Currency:    p.Price.Currency,
			IncludesTax: p.Price.IncludesTax,
		}},
	}
	body, err := c.do(ctx, "create_product", http.MethodPost, "/v2/products", dto)
	if err != nil {
		return nil, err
	}
	var out productDTO
	if err := decodeData("create_product", body, &out); err != nil {
		return nil, err
	}
	created := out.model()
	return &created, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	_, err := c.do(ctx, "delete_product", http.MethodDelete, "/v2/products/"+url.PathEscape(productID), nil)
	return err
}

func (c *Client) AttachMainImage(ctx context.Context, productID, fileID string) error {
	_, err := c.do(ctx, "attach_main_image", http.MethodPost,
		"/v2/products/"+url.PathEscape(productID)+"/relationships/main-image",
		map[string]any{"type": "main_image", "id": fileID})
	return err
}

func (c *Client) ListFiles(ctx context.Context) ([]model.File, error) {
	body, err := c.do(ctx, "list_files", http.MethodGet, "/v2/files", nil)
	if err != nil {
		return nil, err
	}
	var out []model.File
	gjson.GetBytes(body, "data").ForEach(func(_, v gjson.Result) bool {
		out = append(out, fileFrom(v))
		return true
	})
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	_, err := c.do(ctx, "delete_file", http.MethodDelete, "/v2/files/"+url.PathEscape(fileID), nil)
	return err
}
