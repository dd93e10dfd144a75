package storage

import (
	"context"

	"github.com/ndquoc/ecom-service/internal/core/domain"
)

// NopCache is the cache used when no Redis address is configured.
// Every read is a miss and writes do nothing.
type NopCache struct{}

func (NopCache) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return nil, nil
}

func (NopCache) SetProduct(ctx context.Context, p *domain.Product) error {
	return nil
}

func (NopCache) Invalidate(ctx context.Context, ids ...int64) error {
	return nil
}
