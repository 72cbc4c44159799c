package application

import (
	"context"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/auth"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// GetOrder loads a single order with its items.
func (s *Service) GetOrder(ctx context.Context, principal auth.Principal, orderID int64) (*domain.Order, error) {
	return s.loadFor(ctx, principal, orderID)
}

// ListOrders returns the principal's own placed orders, newest first,
// optionally filtered by status. The open cart never appears here.
func (s *Service) ListOrders(ctx context.Context, principal auth.Principal, status *domain.Status, page pagination.Page) (pagination.Result[*domain.Order], error) {
	page = page.Normalize()
	customerID := principal.CustomerID
	filter := ports.ListFilter{CustomerID: &customerID, Status: status}
	orders, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Result[*domain.Order]{}, err
	}
	return pagination.NewResult(orders, total, page), nil
}

// ListAllOrders is the administrative listing across customers.
func (s *Service) ListAllOrders(ctx context.Context, principal auth.Principal, filter ports.ListFilter, page pagination.Page) (pagination.Result[*domain.Order], error) {
	if !principal.IsAdmin() {
		return pagination.Result[*domain.Order]{}, domain.ErrForbidden
	}
	page = page.Normalize()
	filter.IncludeCarts = false
	orders, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Result[*domain.Order]{}, err
	}
	return pagination.NewResult(orders, total, page), nil
}
