package ports

import (
	"context"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/shared/auth"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// Service exposes the cart and order use cases to adapters.
type Service interface {
	// Cart manager.
	GetCart(ctx context.Context, customerID int64) (*domain.Order, error)
	AddCartItem(ctx context.Context, customerID, productID int64, quantity int32) (*domain.Item, error)
	UpdateCartItem(ctx context.Context, customerID, itemID int64, quantity int32) (*domain.Item, error)
	RemoveCartItem(ctx context.Context, customerID, itemID int64) error
	ClearCart(ctx context.Context, customerID int64) error

	// Checkout coordinator.
	Checkout(ctx context.Context, customerID int64, shipping domain.ShippingDetails) (*domain.Order, error)

	// Order status state machine.
	SetOrderStatus(ctx context.Context, principal auth.Principal, orderID int64, status domain.Status) (*domain.Order, error)
	CancelOrder(ctx context.Context, principal auth.Principal, orderID int64) (*domain.Order, error)
	UpdateOrderShipping(ctx context.Context, principal auth.Principal, orderID int64, shipping domain.ShippingDetails) (*domain.Order, error)

	// Order query service.
	GetOrder(ctx context.Context, principal auth.Principal, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, principal auth.Principal, status *domain.Status, page pagination.Page) (pagination.Result[*domain.Order], error)
	ListAllOrders(ctx context.Context, principal auth.Principal, filter ListFilter, page pagination.Page) (pagination.Result[*domain.Order], error)
}
