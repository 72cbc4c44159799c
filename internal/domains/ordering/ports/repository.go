package ports

import (
	"context"
	"errors"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	// ErrConcurrentTransition is returned when the conditional status write
	// matched no row because another transaction changed the order first.
	ErrConcurrentTransition = errors.New("order status changed concurrently")
)

// ListFilter narrows order listings.
type ListFilter struct {
	CustomerID   *int64
	Status       *domain.Status
	IncludeCarts bool
}

// Repository persists order aggregates. Multi-entity operations (checkout,
// cancel) are transactional: they commit the status write together with the
// accompanying stock movement or not at all.
type Repository interface {
	// GetOrCreateCart returns the customer's open cart with items, creating
	// an empty one when absent. Idempotent.
	GetOrCreateCart(ctx context.Context, customerID int64) (*domain.Order, error)
	// GetByID loads an order with items.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetOwned loads an order with items only if the customer owns it.
	GetOwned(ctx context.Context, id, customerID int64) (*domain.Order, error)
	// SaveCart persists the cart's current items and total wholesale.
	SaveCart(ctx context.Context, cart *domain.Order) (*domain.Order, error)
	// Checkout persists the cart-to-order conversion and reserves every line
	// item's stock in one transaction. Any shortfall aborts the whole
	// operation with *domain.InsufficientStockError.
	Checkout(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// UpdateStatus persists a status change conditional on the expected prior
	// status; when releaseStock is set it also returns every line item's
	// quantity to inventory within the same transaction.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status, releaseStock bool) (*domain.Order, error)
	// UpdateShipping persists the non-status fields.
	UpdateShipping(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// List returns one page of orders (newest first) plus the unpaged count.
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]*domain.Order, int64, error)
}

// ProductGateway is the catalog lookup consumed by the ordering core.
type ProductGateway interface {
	Get(ctx context.Context, productID int64) (*domain.ProductSnapshot, error)
}

// InventoryLedger owns the authoritative stock counter. Reserve decrements
// if and only if enough stock remains; Release increments unconditionally.
// These are the only stock mutation entry points in the system.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID int64, quantity int32) error
	Release(ctx context.Context, productID int64, quantity int32) error
}
