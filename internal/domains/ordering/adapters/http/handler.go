package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/webshop/shop-api/internal/domains/ordering/adapters/http/mapper"
	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/auth"
	sharederrors "github.com/webshop/shop-api/internal/shared/errors"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// Handler exposes the cart and order operations over HTTP.
type Handler struct {
	service   ports.Service
	checkout  ports.CheckoutOrchestrator
	responder *sharederrors.ChainedResponder
}

// NewHandler wires the ordering HTTP adapter.
func NewHandler(service ports.Service, checkout ports.CheckoutOrchestrator) *Handler {
	return &Handler{
		service:   service,
		checkout:  checkout,
		responder: sharederrors.NewChainedResponder("", MapError),
	}
}

// Register mounts the cart and order routes.
func (h *Handler) Register(r gin.IRouter) {
	cart := r.Group("/cart")
	{
		cart.GET("", h.getCart)
		cart.DELETE("", h.clearCart)
		cart.POST("/items", h.addCartItem)
		cart.PUT("/items/:itemId", h.updateCartItem)
		cart.DELETE("/items/:itemId", h.removeCartItem)
	}
	orders := r.Group("/orders")
	{
		orders.POST("", h.placeOrder)
		orders.GET("", h.listOrders)
		orders.GET("/history", h.listOrders)
		orders.GET("/admin/all", h.listAllOrders)
		orders.POST("/admin/:orderId/status", h.setOrderStatus)
		orders.GET("/:orderId", h.getOrder)
		orders.PUT("/:orderId", h.updateOrder)
		orders.POST("/:orderId/cancel", h.cancelOrder)
	}
}

// MapError translates ordering errors into RFC 7807 problems.
func MapError(err error) (sharederrors.ProblemDetail, bool) {
	var stockErr *orderingdomain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return sharederrors.NewInsufficientStockProblem(stockErr.ProductID, stockErr.Requested, stockErr.Available), true
	case errors.Is(err, orderingdomain.ErrEmptyCart):
		return sharederrors.ErrEmptyCart.WithDetail(err.Error()), true
	case errors.Is(err, orderingdomain.ErrInvalidTransition), errors.Is(err, ports.ErrConcurrentTransition):
		return sharederrors.ErrInvalidTransition.WithDetail(err.Error()), true
	case errors.Is(err, orderingdomain.ErrForbidden):
		return sharederrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, orderingdomain.ErrInvalidQuantity), errors.Is(err, orderingdomain.ErrInvalidStatus):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, orderingdomain.ErrItemNotFound):
		return sharederrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail("order not found"), true
	case errors.Is(err, ports.ErrProductNotFound):
		return sharederrors.ErrNotFound.WithDetail("product not found"), true
	default:
		return sharederrors.ProblemDetail{}, false
	}
}

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required"`
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity" binding:"required"`
}

type shippingRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PhoneNumber     string `json:"phoneNumber"`
	Notes           string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) getCart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	cart, err := h.service.GetCart(c.Request.Context(), principal.CustomerID)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(cart))
}

func (h *Handler) addCartItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	item, err := h.service.AddCartItem(c.Request.Context(), principal.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromDomainItem(item))
}

func (h *Handler) updateCartItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	item, err := h.service.UpdateCartItem(c.Request.Context(), principal.CustomerID, itemID, req.Quantity)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainItem(item))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.service.RemoveCartItem(c.Request.Context(), principal.CustomerID, itemID); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearCart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.service.ClearCart(c.Request.Context(), principal.CustomerID); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) placeOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := h.checkout.Checkout(c.Request.Context(), ports.CheckoutCommand{
		CustomerID: principal.CustomerID,
		Shipping: orderingdomain.ShippingDetails{
			Address: req.ShippingAddress,
			Phone:   req.PhoneNumber,
			Notes:   req.Notes,
		},
	})
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromDomainOrder(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	status, ok := h.statusQuery(c)
	if !ok {
		return
	}
	page, err := h.service.ListOrders(c.Request.Context(), principal, status, h.page(c))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainPage(page))
}

func (h *Handler) listAllOrders(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	status, ok := h.statusQuery(c)
	if !ok {
		return
	}
	filter := ports.ListFilter{Status: status}
	if raw := c.Query("customerId"); raw != "" {
		customerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail("customerId must be an integer"))
			return
		}
		filter.CustomerID = &customerID
	}
	page, err := h.service.ListAllOrders(c.Request.Context(), principal, filter, h.page(c))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainPage(page))
}

func (h *Handler) getOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), principal, orderID)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

func (h *Handler) updateOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := h.service.UpdateOrderShipping(c.Request.Context(), principal, orderID, orderingdomain.ShippingDetails{
		Address: req.ShippingAddress,
		Phone:   req.PhoneNumber,
		Notes:   req.Notes,
	})
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	order, err := h.service.CancelOrder(c.Request.Context(), principal, orderID)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

func (h *Handler) setOrderStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	order, err := h.service.SetOrderStatus(c.Request.Context(), principal, orderID, orderingdomain.Status(req.Status))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainOrder(order))
}

func (h *Handler) principal(c *gin.Context) (auth.Principal, bool) {
	principal, ok := auth.FromContext(c.Request.Context())
	if !ok {
		h.responder.Respond(c, sharederrors.ErrUnauthorized)
		return auth.Principal{}, false
	}
	return principal, true
}

func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) statusQuery(c *gin.Context) (*orderingdomain.Status, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := orderingdomain.Status(raw)
	if !status.Valid() {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail("unknown order status: "+raw))
		return nil, false
	}
	return &status, true
}

func (h *Handler) page(c *gin.Context) pagination.Page {
	page := pagination.Page{}
	if raw := c.Query("skip"); raw != "" {
		if skip, err := strconv.Atoi(raw); err == nil {
			page.Skip = skip
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			page.Limit = limit
		}
	}
	return page.Normalize()
}
