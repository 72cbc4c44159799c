package ports

import (
	"context"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
)

// CheckoutCommand is the serializable payload handed to the orchestrator.
type CheckoutCommand struct {
	CustomerID int64
	Shipping   domain.ShippingDetails
}

// CheckoutOrchestrator runs the checkout use case, durably when a workflow
// engine is configured, inline otherwise.
type CheckoutOrchestrator interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error)
}
