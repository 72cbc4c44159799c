package domain

import "errors"

var (
	ErrEmptyName     = errors.New("product name must not be empty")
	ErrNegativePrice = errors.New("product price must not be negative")
	ErrNegativeStock = errors.New("product stock must not be negative")
)

// Product models a catalog product. Stock is the authoritative counter the
// inventory ledger reserves against; it is never mutated outside the ledger.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Stock       int32
	SKU         string
	Active      bool
}

// NewProduct validates and constructs a new Product aggregate.
func NewProduct(id int64, name, description string, price float64, stock int32, sku string) (*Product, error) {
	product := &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		SKU:         sku,
		Active:      true,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Price < 0 {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}
