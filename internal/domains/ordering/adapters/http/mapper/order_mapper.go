package mapper

import (
	"time"

	orderingdomain "github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// ItemView is the transport-layer shape of a line item.
type ItemView struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"orderId"`
	ProductID   *int64  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int32   `json:"quantity"`
	LineTotal   float64 `json:"lineTotal"`
}

// OrderView is the transport-layer shape of an order (the cart included).
type OrderView struct {
	ID              int64      `json:"id"`
	CustomerID      int64      `json:"customerId"`
	Status          string     `json:"status"`
	Total           float64    `json:"total"`
	ShippingAddress string     `json:"shippingAddress,omitempty"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	Items           []ItemView `json:"items"`
}

// PageView wraps a page of order views with offset pagination metadata.
type PageView struct {
	Items []OrderView `json:"items"`
	Total int64       `json:"total"`
	Skip  int         `json:"skip"`
	Limit int         `json:"limit"`
}

// FromDomainItem converts a domain line item to the transport representation.
func FromDomainItem(item *orderingdomain.Item) ItemView {
	if item == nil {
		return ItemView{}
	}
	return ItemView{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Price:       item.Price,
		Quantity:    item.Quantity,
		LineTotal:   item.LineTotal(),
	}
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *orderingdomain.Order) OrderView {
	if order == nil {
		return OrderView{}
	}
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, FromDomainItem(item))
	}
	return OrderView{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		Status:          string(order.Status),
		Total:           order.Total,
		ShippingAddress: order.Shipping.Address,
		PhoneNumber:     order.Shipping.Phone,
		Notes:           order.Shipping.Notes,
		CompletedAt:     order.CompletedAt,
		CreatedAt:       order.CreatedAt,
		Items:           items,
	}
}

// FromDomainPage converts a page of domain orders.
func FromDomainPage(page pagination.Result[*orderingdomain.Order]) PageView {
	items := make([]OrderView, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, FromDomainOrder(order))
	}
	return PageView{Items: items, Total: page.Total, Skip: page.Skip, Limit: page.Limit}
}
