package adapter

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// CatalogClient is what the conversation needs from the e-commerce backend.
// Lookups of missing records return an error matching domain.ErrNotFound.
type CatalogClient interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	GetCart(ctx context.Context, cartID string) (*model.Cart, error)
	GetOrCreateCart(ctx context.Context, cartID string) (*model.Cart, error)
	ListCartItems(ctx context.Context, cartID string) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, cartID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, cartID, itemID string) error
	CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error)
	// FileURL returns domain.ErrImageNotFound when the file has no link.
	FileURL(ctx context.Context, fileID string) (string, error)
}

// CatalogAdmin manages products and files; used by the bulk loader.
type CatalogAdmin interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	AttachMainImage(ctx context.Context, productID, fileID string) error
	UploadFileFromURL(ctx context.Context, fileURL string) (*model.File, error)
	ListFiles(ctx context.Context) ([]model.File, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// FlowStore is the structured-record ("entries") part of the backend.
type FlowStore interface {
	GetFlowBySlug(ctx context.Context, slug string) (*model.Flow, error)
	CreateFlow(ctx context.Context, f model.Flow) (*model.Flow, error)
	CreateField(ctx context.Context, flowID string, f model.Field) (*model.Field, error)
	ListEntries(ctx context.Context, flowSlug string) ([]model.Entry, error)
	GetEntry(ctx context.Context, flowSlug, entryID string) (*model.Entry, error)
	CreateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error)
	UpdateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error)
	DeleteEntry(ctx context.Context, flowSlug, entryID string) error
}
