package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	orderingactivities "github.com/webshop/shop-api/internal/platform/temporal/activities/ordering"
	orderingworkflows "github.com/webshop/shop-api/internal/platform/temporal/workflows/ordering"
)

var (
	_ ports.CheckoutOrchestrator = (*TemporalCheckout)(nil)
	_ ports.CheckoutOrchestrator = (*InlineCheckout)(nil)
)

// TemporalCheckout starts checkout workflows on a Temporal cluster.
type TemporalCheckout struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCheckout wires a Temporal client into the orchestrator.
func NewTemporalCheckout(c client.Client) *TemporalCheckout {
	return &TemporalCheckout{client: c, taskQueue: orderingworkflows.CheckoutTaskQueue}
}

// Checkout runs the durable checkout workflow and waits for its outcome.
func (o *TemporalCheckout) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*orderingdomain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout orchestrator not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        buildCheckoutWorkflowID(cmd.CustomerID, workflowTraceComponent(ctx)),
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderingworkflows.CheckoutWorkflow,
		orderingworkflows.CheckoutWorkflowInput{Command: cmd, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		return nil, err
	}
	var order orderingdomain.Order
	if err := run.Get(ctx, &order); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &order, nil
}

// translateWorkflowError restores the domain error contract across the
// workflow boundary so callers see the same failures as the inline path.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case orderingactivities.FailureInsufficientStock:
		var stockErr orderingdomain.InsufficientStockError
		if detailsErr := appErr.Details(&stockErr); detailsErr == nil {
			return &stockErr
		}
		return err
	case orderingactivities.FailureEmptyCart:
		return orderingdomain.ErrEmptyCart
	default:
		return err
	}
}

// InlineCheckout executes the service directly without Temporal, useful for
// tests or dev fallbacks.
type InlineCheckout struct {
	service ports.Service
}

// NewInlineCheckout wraps the ordering service for synchronous execution.
func NewInlineCheckout(service ports.Service) *InlineCheckout {
	return &InlineCheckout{service: service}
}

// Checkout delegates to the application service without durable orchestration.
func (o *InlineCheckout) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*orderingdomain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout orchestrator not configured")
	}
	return o.service.Checkout(ctx, cmd.CustomerID, cmd.Shipping)
}

func buildCheckoutWorkflowID(customerID int64, traceComponent string) string {
	return fmt.Sprintf("order-checkout-%d-%s", customerID, traceComponent)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
