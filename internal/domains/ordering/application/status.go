package application

import (
	"context"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/shared/auth"
)

// SetOrderStatus applies a status transition under the state machine rules.
// Cancellations additionally release every line item's reserved quantity back
// to inventory, atomically with the status write.
func (s *Service) SetOrderStatus(ctx context.Context, principal auth.Principal, orderID int64, status domain.Status) (*domain.Order, error) {
	order, err := s.loadFor(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	expected := order.Status
	if err := order.Transition(principal, status, s.now()); err != nil {
		return nil, mapError(err)
	}
	releaseStock := status == domain.StatusCanceled
	return s.repo.UpdateStatus(ctx, order, expected, releaseStock)
}

// CancelOrder cancels the order and returns its items' quantities to stock.
// Customers may cancel only their own orders and only while they are new;
// admins may cancel from new or processing.
func (s *Service) CancelOrder(ctx context.Context, principal auth.Principal, orderID int64) (*domain.Order, error) {
	order, err := s.loadFor(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	expected := order.Status
	if err := order.Cancel(principal); err != nil {
		return nil, mapError(err)
	}
	return s.repo.UpdateStatus(ctx, order, expected, true)
}

// UpdateOrderShipping edits the non-status fields (address, phone, notes).
func (s *Service) UpdateOrderShipping(ctx context.Context, principal auth.Principal, orderID int64, shipping domain.ShippingDetails) (*domain.Order, error) {
	order, err := s.loadFor(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.UpdateShipping(principal, shipping); err != nil {
		return nil, mapError(err)
	}
	return s.repo.UpdateShipping(ctx, order)
}

// loadFor fetches an order scoped to the principal: admins see every order,
// customers only their own (anything else reads as not found).
func (s *Service) loadFor(ctx context.Context, principal auth.Principal, orderID int64) (*domain.Order, error) {
	if principal.IsAdmin() {
		return s.repo.GetByID(ctx, orderID)
	}
	return s.repo.GetOwned(ctx, orderID, principal.CustomerID)
}
