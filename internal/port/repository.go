package port

import (
	"context"

	"github.com/ndquoc/ecom-service/internal/core/domain"
)

// CatalogRepository is the non-transactional product CRUD surface.
type CatalogRepository interface {
	// CreateProduct inserts p and fills in its store-assigned ID.
	CreateProduct(ctx context.Context, p *domain.Product) error

	// GetProduct returns the product, or nil if it does not exist.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// UpdateProduct applies the patch and returns the updated product,
	// or nil if the product does not exist.
	UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)

	// DeleteProduct removes the product. Deleting an absent product is not
	// an error; historical orders are never touched.
	DeleteProduct(ctx context.Context, id int64) error

	// ListProducts returns all products, newest first.
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// OrderRepository reads back persisted orders.
type OrderRepository interface {
	// GetOrder returns the order with its items, or nil if it does not exist.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}
