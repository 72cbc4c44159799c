package ordering

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	orderingports "github.com/webshop/shop-api/internal/domains/ordering/ports"
	orderingactivities "github.com/webshop/shop-api/internal/platform/temporal/activities/ordering"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "ordering.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkouts.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the payload required to place an order.
type CheckoutWorkflowInput struct {
	Command orderingports.CheckoutCommand
	TraceID string
}

// CheckoutWorkflow durably executes the checkout activity. The activity itself
// is one transaction; the retry policy only covers transient store failures.
// Business rejections arrive as non-retryable application errors.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*orderingdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	customerID := input.Command.CustomerID
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "customerId", customerID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var order orderingdomain.Order
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, options),
		orderingactivities.CheckoutActivityName,
		input.Command,
	).Get(ctx, &order)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "customerId", customerID, "error", err)...)
		return nil, err
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "customerId", customerID, "orderId", order.ID)...)
	return &order, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
