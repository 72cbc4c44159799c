package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

var (
	_ ports.ProductGateway  = (*CatalogGateway)(nil)
	_ ports.InventoryLedger = (*CatalogGateway)(nil)
)

// productRow is the ordering-side view of the catalog's products table. Only
// the columns the ledger and the gateway touch are mapped.
type productRow struct {
	ID    int64   `gorm:"primaryKey;column:id"`
	Name  string  `gorm:"column:name"`
	Price float64 `gorm:"column:price"`
	Stock int32   `gorm:"column:stock"`
}

func (productRow) TableName() string { return "products" }

// CatalogGateway exposes product lookups and the inventory ledger over the
// shared products table.
type CatalogGateway struct {
	db *gorm.DB
}

// NewCatalogGateway wires the gateway. Caller manages DB lifecycle.
func NewCatalogGateway(db *gorm.DB) *CatalogGateway {
	return &CatalogGateway{db: db}
}

// Get returns the live product view used for stock checks and snapshots.
func (g *CatalogGateway) Get(ctx context.Context, productID int64) (*domain.ProductSnapshot, error) {
	if g == nil || g.db == nil {
		return nil, errors.New("postgres catalog gateway not configured")
	}
	var row productRow
	if err := g.db.WithContext(ctx).First(&row, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &domain.ProductSnapshot{ID: row.ID, Name: row.Name, Price: row.Price, Stock: row.Stock}, nil
}

// Reserve decrements stock through the conditional update. Outside an
// enclosing transaction each reservation commits on its own; checkout goes
// through the repository so all of an order's reservations share one
// transaction.
func (g *CatalogGateway) Reserve(ctx context.Context, productID int64, quantity int32) error {
	if g == nil || g.db == nil {
		return errors.New("postgres catalog gateway not configured")
	}
	return reserveStock(ctx, g.db, productID, quantity)
}

// Release increments stock unconditionally.
func (g *CatalogGateway) Release(ctx context.Context, productID int64, quantity int32) error {
	if g == nil || g.db == nil {
		return errors.New("postgres catalog gateway not configured")
	}
	return releaseStock(ctx, g.db, productID, quantity)
}

// reserveStock performs the single-statement conditional decrement. The
// "stock >= quantity" predicate plus the affected-row check keeps two
// concurrent reservations of the last unit from both succeeding.
func reserveStock(ctx context.Context, tx *gorm.DB, productID int64, quantity int32) error {
	result := tx.WithContext(ctx).Model(&productRow{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var row productRow
	if err := tx.WithContext(ctx).First(&row, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrProductNotFound
		}
		return err
	}
	return &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: row.Name,
		Requested:   quantity,
		Available:   row.Stock,
	}
}

// releaseStock increments the counter. A deleted product leaves nothing to
// release; that is not an error.
func releaseStock(ctx context.Context, tx *gorm.DB, productID int64, quantity int32) error {
	return tx.WithContext(ctx).Model(&productRow{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
