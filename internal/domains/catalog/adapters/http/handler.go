package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/webshop/shop-api/internal/domains/catalog/adapters/http/mapper"
	"github.com/webshop/shop-api/internal/domains/catalog/application"
	"github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/domains/catalog/ports"
	"github.com/webshop/shop-api/internal/shared/auth"
	sharederrors "github.com/webshop/shop-api/internal/shared/errors"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// Handler exposes product CRUD over HTTP. Reads are public, writes
// require the admin permission.
type Handler struct {
	service   ports.Service
	responder *sharederrors.ChainedResponder
}

func NewHandler(service ports.Service) *Handler {
	return &Handler{
		service:   service,
		responder: sharederrors.NewChainedResponder("", MapError),
	}
}

// Register mounts the product routes.
func (h *Handler) Register(r gin.IRouter) {
	products := r.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/:productId", h.getProduct)
		products.POST("", h.createProduct)
		products.PUT("/:productId", h.updateProduct)
		products.DELETE("/:productId", h.deleteProduct)
	}
}

// MapError translates catalog errors into RFC 7807 problems.
func MapError(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail("product not found"), true
	case errors.Is(err, application.ErrInvalidInput):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	default:
		return sharederrors.ProblemDetail{}, false
	}
}

type productRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int32   `json:"stock"`
	SKU         string  `json:"sku"`
	Active      *bool   `json:"active"`
}

func (h *Handler) listProducts(c *gin.Context) {
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
	result, err := h.service.ListProducts(c.Request.Context(), page.Normalize())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomainPage(result))
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(product))
}

func (h *Handler) createProduct(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	product, err := h.service.CreateProduct(c.Request.Context(), req.toDomain(0))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromDomain(product))
}

func (h *Handler) updateProduct(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	product, err := h.service.UpdateProduct(c.Request.Context(), req.toDomain(id))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDomain(product))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r productRequest) toDomain(id int64) *domain.Product {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &domain.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		SKU:         r.SKU,
		Active:      active,
	}
}

func (h *Handler) requireAdmin(c *gin.Context) bool {
	principal, ok := auth.FromContext(c.Request.Context())
	if !ok {
		h.responder.Respond(c, sharederrors.ErrUnauthorized)
		return false
	}
	if !principal.IsAdmin() {
		h.responder.Respond(c, sharederrors.ErrForbidden.WithDetail("admin permission required"))
		return false
	}
	return true
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.Respond(c, sharederrors.ErrBadRequest.WithDetail("productId must be a positive integer"))
		return 0, false
	}
	return id, true
}
