package port

import (
	"context"

	"github.com/ndquoc/ecom-service/internal/core/domain"
)

// OrderTx is the slice of the store an order placement may touch while its
// transaction is open. Every call is part of the same atomic unit of work;
// nothing becomes visible until the unit commits.
type OrderTx interface {
	// GetProduct returns the product, or nil if it does not exist.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock atomically reduces stock by quantity, refusing to go
	// negative. Returns false when available stock is insufficient.
	DecrementStock(ctx context.Context, id int64, quantity int) (bool, error)

	// InsertOrder persists the order record.
	InsertOrder(ctx context.Context, order domain.Order) error

	// InsertOrderItems persists the order's lines with their frozen prices.
	InsertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error
}

// Store runs fn inside one transaction. A nil return from fn commits;
// any error (or a panic) rolls the whole unit of work back and leaves
// no partial effect.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx OrderTx) error) error
}
