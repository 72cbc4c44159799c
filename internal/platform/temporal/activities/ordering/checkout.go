package ordering

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	orderingports "github.com/webshop/shop-api/internal/domains/ordering/ports"
)

const (
	// CheckoutActivityName converts a cart into a placed order.
	CheckoutActivityName = "ordering.activities.CheckoutCart"

	// Failure types surfaced as non-retryable application errors. Business
	// rejections must not be retried; the outcome will not change.
	FailureInsufficientStock = "InsufficientStock"
	FailureEmptyCart         = "EmptyCart"
)

// Activities groups activities that operate on the ordering bounded context.
type Activities struct {
	service orderingports.Service
}

// NewActivities wires the ordering service into the Temporal activities bundle.
func NewActivities(service orderingports.Service) *Activities {
	return &Activities{service: service}
}

// CheckoutCart runs the checkout use case. The underlying service call is a
// single transaction, so a retried activity either finds the cart already
// consumed (concurrent-transition error) or runs a fresh checkout; stock is
// never reserved twice.
func (a *Activities) CheckoutCart(ctx context.Context, cmd orderingports.CheckoutCommand) (*orderingdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("checkout activity not initialized", "customerId", cmd.CustomerID)
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("CheckoutCart activity started", "customerId", cmd.CustomerID)
	order, err := a.service.Checkout(ctx, cmd.CustomerID, cmd.Shipping)
	if err != nil {
		logger.Error("CheckoutCart activity failed", "customerId", cmd.CustomerID, "error", err)
		return nil, asActivityError(err)
	}
	logger.Info("CheckoutCart activity completed", "customerId", cmd.CustomerID, "orderId", order.ID)
	return order, nil
}

func asActivityError(err error) error {
	var stockErr *orderingdomain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return temporal.NewNonRetryableApplicationError(err.Error(), FailureInsufficientStock, nil, *stockErr)
	}
	if errors.Is(err, orderingdomain.ErrEmptyCart) {
		return temporal.NewNonRetryableApplicationError(err.Error(), FailureEmptyCart, nil)
	}
	return err
}
