package application

import (
	"context"
	"errors"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

// Checkout converts the customer's cart into a placed order. Every line item
// is validated against live stock, then the reservation, the CART→NEW
// transition, and the shipping fields are committed in one transaction.
// Any shortfall fails the whole operation; no partial checkout exists.
func (s *Service) Checkout(ctx context.Context, customerID int64, shipping domain.ShippingDetails) (*domain.Order, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.validateAvailability(ctx, cart); err != nil {
		return nil, err
	}
	if err := cart.Checkout(shipping); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Checkout(ctx, cart)
}

// validateAvailability checks every line against the live stock counter.
// Items whose product was deleted keep their snapshot and are skipped; they
// carry no reservation. The repository re-checks under the transaction, so a
// pass here is advisory, not a guarantee.
func (s *Service) validateAvailability(ctx context.Context, cart *domain.Order) error {
	for _, item := range cart.Items {
		if item.ProductID == nil {
			continue
		}
		product, err := s.catalog.Get(ctx, *item.ProductID)
		if errors.Is(err, ports.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if product.Stock < item.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: item.ProductName,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
	}
	return nil
}
