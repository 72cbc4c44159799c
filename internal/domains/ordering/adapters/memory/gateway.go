package memory

import (
	"context"
	"errors"
	"sync"

	catalogports "github.com/webshop/shop-api/internal/domains/catalog/ports"
	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

var (
	_ ports.ProductGateway  = (*CatalogGateway)(nil)
	_ ports.InventoryLedger = (*CatalogGateway)(nil)
)

// CatalogGateway adapts the catalog repository into the ordering core's
// product lookup and inventory ledger. A single mutex serializes every
// reserve/release so the read-then-decrement sequence is never interleaved,
// mirroring what the row-conditional update gives the Postgres adapter.
type CatalogGateway struct {
	mu       sync.Mutex
	products catalogports.Repository
}

// NewCatalogGateway wires the gateway over a catalog repository.
func NewCatalogGateway(products catalogports.Repository) *CatalogGateway {
	return &CatalogGateway{products: products}
}

// Get returns the live product view used for stock checks and snapshots.
func (g *CatalogGateway) Get(ctx context.Context, productID int64) (*domain.ProductSnapshot, error) {
	product, err := g.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogports.ErrNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &domain.ProductSnapshot{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Stock: product.Stock,
	}, nil
}

// Reserve decrements stock if and only if enough remains.
func (g *CatalogGateway) Reserve(ctx context.Context, productID int64, quantity int32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	product, err := g.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogports.ErrNotFound) {
			return ports.ErrProductNotFound
		}
		return err
	}
	if product.Stock < quantity {
		return &domain.InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}
	product.Stock -= quantity
	_, err = g.products.Save(ctx, product)
	return err
}

// Release increments stock unconditionally. A deleted product makes the
// release a no-op; there is no counter left to return the units to.
func (g *CatalogGateway) Release(ctx context.Context, productID int64, quantity int32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	product, err := g.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogports.ErrNotFound) {
			return nil
		}
		return err
	}
	product.Stock += quantity
	_, err = g.products.Save(ctx, product)
	return err
}
