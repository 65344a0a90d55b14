// File: internal/usecase/import_uc.go
package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
)

var _ ImportUseCase = (*importUC)(nil)

// ImportUseCase bulk-loads the menu into the catalog backend.
type ImportUseCase interface {
	ImportMenu(ctx context.Context, items []MenuItem) (ImportReport, error)
	WipeCatalog(ctx context.Context) error
}

// MenuItem is one record of menu.json. Price is in major units.
type MenuItem struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	ProductImage struct {
		URL string `json:"url"`
	} `json:"product_image"`
}

type ImportReport struct {
	Created       int
	WithoutImages int
}

type importUC struct {
	admin    adapter.CatalogAdmin
	currency string
	log      *zerolog.Logger
}

func NewImportUseCase(admin adapter.CatalogAdmin, currency string, logger *zerolog.Logger) *importUC {
	if logger == nil {
		logger = logging.Nop()
	}
	if currency == "" {
		currency = "RUB"
	}
	return &importUC{admin: admin, currency: currency, log: logger}
}

// ImportMenu stops at the first backend failure; products created before it
// stay in the catalog.
func (u *importUC) ImportMenu(ctx context.Context, items []MenuItem) (ImportReport, error) {
	defer logging.TraceDuration(u.log, "ImportUC.ImportMenu")()
	var rep ImportReport

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return rep, fmt.Errorf("menu item %d: empty name", item.ID)
		}

		var fileID string
		if url := strings.TrimSpace(item.ProductImage.URL); url != "" {
			f, err := u.admin.UploadFileFromURL(ctx, url)
			if err != nil {
				return rep, fmt.Errorf("upload image of %q: %w", item.Name, err)
			}
			fileID = f.ID
		}

		p, err := u.admin.CreateProduct(ctx, model.Product{
			Name:        item.Name,
			Description: item.Description,
			Slug:        Slugify(item.Name),
			SKU:         sku(item),
			Price:       model.PriceFromMajor(item.Price, u.currency),
		})
		if err != nil {
			return rep, fmt.Errorf("create product %q: %w", item.Name, err)
		}

		if fileID == "" {
			rep.WithoutImages++
		} else if err := u.admin.AttachMainImage(ctx, p.ID, fileID); err != nil {
			return rep, fmt.Errorf("attach image to %q: %w", item.Name, err)
		}
		rep.Created++
		u.log.Info().Str("product_id", p.ID).Str("name", item.Name).Msg("product imported")
	}
	return rep, nil
}

func (u *importUC) WipeCatalog(ctx context.Context) error {
	defer logging.TraceDuration(u.log, "ImportUC.WipeCatalog")()

	products, err := u.admin.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for _, p := range products {
		if err := u.admin.DeleteProduct(ctx, p.ID); err != nil {
			return fmt.Errorf("delete product %s: %w", p.ID, err)
		}
	}

	files, err := u.admin.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	for _, f := range files {
		if err := u.admin.DeleteFile(ctx, f.ID); err != nil {
			return fmt.Errorf("delete file %s: %w", f.ID, err)
		}
	}
	u.log.Info().Int("products", len(products)).Int("files", len(files)).Msg("catalog wiped")
	return nil
}

// Slugify lowercases and joins letters and digits with dashes. Non-latin
// letters are kept as is.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func sku(item MenuItem) string {
	if item.ID > 0 {
		return "menu-" + strconv.Itoa(item.ID)
	}
	return Slugify(item.Name)
}
