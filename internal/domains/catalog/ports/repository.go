package ports

import (
	"context"
	"errors"

	"github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

var ErrNotFound = errors.New("product not found")

// Repository persists catalog products.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page pagination.Page) ([]*domain.Product, int64, error)
}
