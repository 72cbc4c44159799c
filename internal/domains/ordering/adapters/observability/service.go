package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	orderingports "github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/auth"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

const tracerName = "github.com/webshop/shop-api/internal/domains/ordering/adapters/observability/service"

// Service decorates the ordering service with tracing, logging, and metrics.
type Service struct {
	inner   orderingports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core ordering service.
func New(inner orderingports.Service, opts ...Option) orderingports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) GetCart(ctx context.Context, customerID int64) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.GetCart",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	result, err := s.inner.GetCart(ctx, customerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.Int64("customer.id", customerID))
	}
	return result, nil
}

func (s *Service) AddCartItem(ctx context.Context, customerID, productID int64, quantity int32) (*orderingdomain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.AddCartItem",
		trace.WithAttributes(
			attribute.Int64("customer.id", customerID),
			attribute.Int64("product.id", productID),
			attribute.Int("quantity", int(quantity)),
		))
	defer span.End()

	s.logInfo(ctx, "adding cart item",
		slog.Int64("customer.id", customerID), slog.Int64("product.id", productID), slog.Int("quantity", int(quantity)))
	result, err := s.inner.AddCartItem(ctx, customerID, productID, quantity)
	if err != nil {
		s.metrics.recordStockRejection(ctx, err)
		return nil, s.handleError(ctx, span, err, "failed to add cart item",
			slog.Int64("customer.id", customerID), slog.Int64("product.id", productID))
	}
	s.metrics.recordItemAdded(ctx)
	return result, nil
}

func (s *Service) UpdateCartItem(ctx context.Context, customerID, itemID int64, quantity int32) (*orderingdomain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.UpdateCartItem",
		trace.WithAttributes(
			attribute.Int64("customer.id", customerID),
			attribute.Int64("item.id", itemID),
			attribute.Int("quantity", int(quantity)),
		))
	defer span.End()

	result, err := s.inner.UpdateCartItem(ctx, customerID, itemID, quantity)
	if err != nil {
		s.metrics.recordStockRejection(ctx, err)
		return nil, s.handleError(ctx, span, err, "failed to update cart item",
			slog.Int64("customer.id", customerID), slog.Int64("item.id", itemID))
	}
	return result, nil
}

func (s *Service) RemoveCartItem(ctx context.Context, customerID, itemID int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderingService.RemoveCartItem",
		trace.WithAttributes(attribute.Int64("customer.id", customerID), attribute.Int64("item.id", itemID)))
	defer span.End()

	if err := s.inner.RemoveCartItem(ctx, customerID, itemID); err != nil {
		return s.handleError(ctx, span, err, "failed to remove cart item",
			slog.Int64("customer.id", customerID), slog.Int64("item.id", itemID))
	}
	return nil
}

func (s *Service) ClearCart(ctx context.Context, customerID int64) error {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ClearCart",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	if err := s.inner.ClearCart(ctx, customerID); err != nil {
		return s.handleError(ctx, span, err, "failed to clear cart", slog.Int64("customer.id", customerID))
	}
	return nil
}

func (s *Service) Checkout(ctx context.Context, customerID int64, shipping orderingdomain.ShippingDetails) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.Checkout",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	s.logInfo(ctx, "checking out cart", slog.Int64("customer.id", customerID))
	result, err := s.inner.Checkout(ctx, customerID, shipping)
	if err != nil {
		s.metrics.recordStockRejection(ctx, err)
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int64("customer.id", customerID))
	}
	s.metrics.recordCheckout(ctx)
	s.logInfo(ctx, "order placed",
		slog.Int64("order.id", result.ID), slog.Int64("customer.id", customerID), slog.Float64("total", result.Total))
	return result, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, principal auth.Principal, orderID int64, status orderingdomain.Status) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.SetOrderStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.status.target", string(status)),
		))
	defer span.End()

	s.logInfo(ctx, "changing order status",
		slog.Int64("order.id", orderID), slog.String("target", string(status)))
	result, err := s.inner.SetOrderStatus(ctx, principal, orderID, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to change order status", slog.Int64("order.id", orderID))
	}
	if status == orderingdomain.StatusCanceled {
		s.metrics.recordCancellation(ctx)
	}
	s.logInfo(ctx, "order status changed",
		slog.Int64("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, principal auth.Principal, orderID int64) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.CancelOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "canceling order", slog.Int64("order.id", orderID))
	result, err := s.inner.CancelOrder(ctx, principal, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", orderID))
	}
	s.metrics.recordCancellation(ctx)
	s.logInfo(ctx, "order canceled", slog.Int64("order.id", result.ID))
	return result, nil
}

func (s *Service) UpdateOrderShipping(ctx context.Context, principal auth.Principal, orderID int64, shipping orderingdomain.ShippingDetails) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.UpdateOrderShipping",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.UpdateOrderShipping(ctx, principal, orderID, shipping)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order shipping", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, principal auth.Principal, orderID int64) (*orderingdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.GetOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, principal, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, principal auth.Principal, status *orderingdomain.Status, page pagination.Page) (pagination.Result[*orderingdomain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ListOrders",
		trace.WithAttributes(attribute.Int64("customer.id", principal.CustomerID)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, principal, status, page)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to list orders", slog.Int64("customer.id", principal.CustomerID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result.Items)))
	return result, nil
}

func (s *Service) ListAllOrders(ctx context.Context, principal auth.Principal, filter orderingports.ListFilter, page pagination.Page) (pagination.Result[*orderingdomain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ListAllOrders")
	defer span.End()

	result, err := s.inner.ListAllOrders(ctx, principal, filter, page)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to list all orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result.Items)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	itemsAdded      metric.Int64Counter
	checkouts       metric.Int64Counter
	cancellations   metric.Int64Counter
	stockRejections metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	itemsAdded, _ := m.Int64Counter("ordering.service.cart_items_added",
		metric.WithDescription("Number of line items added to carts"))
	checkouts, _ := m.Int64Counter("ordering.service.orders_checked_out",
		metric.WithDescription("Number of carts converted into placed orders"))
	cancellations, _ := m.Int64Counter("ordering.service.orders_canceled",
		metric.WithDescription("Number of orders canceled"))
	stockRejections, _ := m.Int64Counter("ordering.service.insufficient_stock_rejections",
		metric.WithDescription("Number of operations rejected for lack of stock"))
	return serviceMetrics{
		itemsAdded:      itemsAdded,
		checkouts:       checkouts,
		cancellations:   cancellations,
		stockRejections: stockRejections,
	}
}

func (m serviceMetrics) recordItemAdded(ctx context.Context) {
	if m.itemsAdded != nil {
		m.itemsAdded.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCheckout(ctx context.Context) {
	if m.checkouts != nil {
		m.checkouts.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordCancellation(ctx context.Context) {
	if m.cancellations != nil {
		m.cancellations.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordStockRejection(ctx context.Context, err error) {
	if m.stockRejections == nil {
		return
	}
	var stockErr *orderingdomain.InsufficientStockError
	if errors.As(err, &stockErr) {
		m.stockRejections.Add(ctx, 1, metric.WithAttributes(attribute.Int64("product.id", stockErr.ProductID)))
	}
}

var _ orderingports.Service = (*Service)(nil)
