package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndquoc/ecom-service/internal/core/domain"
	"github.com/ndquoc/ecom-service/internal/port"
)

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// OrderService executes order placements as single atomic units of work.
// It is stateless; all persistence goes through the injected store.
type OrderService struct {
	store  port.Store
	orders port.OrderRepository
	cache  port.ProductCache
	logger *zap.Logger
}

func NewOrderService(store port.Store, orders port.OrderRepository, cache port.ProductCache, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:  store,
		orders: orders,
		cache:  cache,
		logger: logger,
	}
}

// PlaceOrder validates the request, then atomically freezes prices,
// persists the order with its items, and decrements stock. Any failure
// rolls the whole transaction back; there is no partial fulfillment.
func (s *OrderService) PlaceOrder(ctx context.Context, reqs []domain.OrderItemRequest) (*domain.OrderReceipt, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", r.ProductID, ErrInvalidQuantity)
		}
	}

	var receipt *domain.OrderReceipt
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.OrderTx) error {
		var total int64
		items := make([]domain.OrderItem, 0, len(reqs))
		for _, r := range reqs {
			p, err := tx.GetProduct(ctx, r.ProductID)
			if err != nil {
				return fmt.Errorf("get product %d: %w", r.ProductID, err)
			}
			if p == nil {
				return fmt.Errorf("product %d: %w", r.ProductID, ErrProductNotFound)
			}
			if p.Stock < r.Quantity {
				return fmt.Errorf("product %d: %w", r.ProductID, ErrInsufficientStock)
			}
			// Price is frozen here; the stored item and the total both use
			// this value even if the catalog price changes concurrently.
			total += int64(r.Quantity) * p.UnitPrice
			items = append(items, domain.OrderItem{
				ProductID: r.ProductID,
				Quantity:  r.Quantity,
				UnitPrice: p.UnitPrice,
			})
		}

		order := domain.Order{
			ID:        uuid.NewString(),
			Total:     total,
			Items:     items,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.InsertOrderItems(ctx, order.ID, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		for _, it := range items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", it.ProductID, err)
			}
			if !ok {
				// The conditional decrement is the authority under
				// concurrency; the read-check above can be stale.
				return fmt.Errorf("product %d: %w", it.ProductID, ErrInsufficientStock)
			}
		}

		receipt = &domain.OrderReceipt{ID: order.ID, Total: order.Total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", receipt.ID),
		zap.Int64("total", receipt.Total),
		zap.Int("items", len(reqs)),
	)
	return receipt, nil
}

// GetOrder returns a persisted order with its items and frozen prices.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	return order, nil
}
