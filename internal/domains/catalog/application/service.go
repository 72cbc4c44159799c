package application

import (
	"context"
	"errors"

	"github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/domains/catalog/ports"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

// Service orchestrates catalog use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, product)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	existing, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	// Stock mutations go through the inventory ledger, never through catalog updates.
	product.Stock = existing.Stock
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, product)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, page pagination.Page) (pagination.Result[*domain.Product], error) {
	page = page.Normalize()
	products, total, err := s.repo.List(ctx, page)
	if err != nil {
		return pagination.Result[*domain.Product]{}, err
	}
	return pagination.NewResult(products, total, page), nil
}

var _ ports.Service = (*Service)(nil)
