package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndquoc/ecom-service/internal/core/domain"
	"github.com/ndquoc/ecom-service/internal/port"
)

var ErrInvalidProduct = errors.New("invalid product")

// ProductService handles catalog CRUD with a cache-aside read path.
type ProductService struct {
	catalog port.CatalogRepository
	cache   port.ProductCache
	logger  *zap.Logger
}

func NewProductService(catalog port.CatalogRepository, cache port.ProductCache, logger *zap.Logger) *ProductService {
	return &ProductService{
		catalog: catalog,
		cache:   cache,
		logger:  logger,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, name, description string, unitPrice int64, stock int) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
	}
	if unitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit_price must be > 0", ErrInvalidProduct)
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	p := &domain.Product{
		Name:        name,
		Description: description,
		UnitPrice:   unitPrice,
		Stock:       stock,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.catalog.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	cached, err := s.cache.GetProduct(ctx, id)
	if err != nil {
		s.logger.Warn("product cache read failed", zap.Int64("product_id", id), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}

	if err := s.cache.SetProduct(ctx, p); err != nil {
		s.logger.Warn("product cache write failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return p, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
		}
		patch.Name = &trimmed
	}
	if patch.UnitPrice != nil && *patch.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit_price must be > 0", ErrInvalidProduct)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	p, err := s.catalog.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog. Historical orders keep
// their frozen prices and quantities; deleting an absent product is a no-op.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
