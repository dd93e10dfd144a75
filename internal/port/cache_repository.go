package port

import (
	"context"

	"github.com/ndquoc/ecom-service/internal/core/domain"
)

// ProductCache is an optional read-through cache for product lookups.
// Implementations are best-effort: a cache failure must never fail the
// request it serves.
type ProductCache interface {
	// GetProduct returns the cached product, or nil on a miss.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// SetProduct stores a product under the cache TTL.
	SetProduct(ctx context.Context, p *domain.Product) error

	// Invalidate drops cached entries for the given product ids.
	Invalidate(ctx context.Context, ids ...int64) error
}
