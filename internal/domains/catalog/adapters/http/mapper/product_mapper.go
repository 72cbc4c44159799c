package mapper

import (
	"github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// ProductView is the HTTP representation of a catalog product.
type ProductView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int32   `json:"stock"`
	SKU         string  `json:"sku,omitempty"`
	Active      bool    `json:"active"`
}

// PageView is a paginated product listing.
type PageView struct {
	Items []ProductView `json:"items"`
	Total int64         `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

// FromDomain converts a domain product to its HTTP view.
func FromDomain(p *domain.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		SKU:         p.SKU,
		Active:      p.Active,
	}
}

// FromDomainPage converts a paginated result to its HTTP view.
func FromDomainPage(page pagination.Result[*domain.Product]) PageView {
	items := make([]ProductView, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, FromDomain(p))
	}
	return PageView{Items: items, Total: page.Total, Skip: page.Skip, Limit: page.Limit}
}
