package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists order aggregates in PostgreSQL using GORM. Checkout and
// status updates run the order write and its stock movement in one
// transaction; a failure anywhere rolls the whole operation back.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to a relational table. The partial
// unique index on (customer_id) where status = 'cart' makes "one open cart
// per customer" a schema invariant, not a query convention.
type orderRecord struct {
	ID              int64        `gorm:"primaryKey;column:id"`
	CustomerID      int64        `gorm:"column:customer_id;index:idx_orders_customer_status;uniqueIndex:udx_orders_open_cart,where:status = 'cart'"`
	Status          string       `gorm:"column:status;type:varchar(20);index:idx_orders_customer_status"`
	Total           float64      `gorm:"column:total_amount"`
	ShippingAddress string       `gorm:"column:shipping_address;type:varchar(500)"`
	PhoneNumber     string       `gorm:"column:phone_number;type:varchar(20)"`
	Notes           string       `gorm:"column:notes;type:varchar(1000)"`
	CompletedAt     *time.Time   `gorm:"column:completed_at"`
	CreatedAt       time.Time    `gorm:"column:created_at;index"`
	UpdatedAt       time.Time    `gorm:"column:updated_at"`
	Items           []itemRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

// itemRecord maps a line item. ProductID is nullable so items survive product
// deletion; the price/name snapshots are what historical orders stand on.
type itemRecord struct {
	ID          int64   `gorm:"primaryKey;column:id"`
	OrderID     int64   `gorm:"column:order_id;index;not null"`
	ProductID   *int64  `gorm:"column:product_id;index"`
	Quantity    int32   `gorm:"column:quantity;not null"`
	Price       float64 `gorm:"column:price;not null"`
	ProductName string  `gorm:"column:product_name;type:varchar(255);not null"`
}

func (itemRecord) TableName() string { return "order_items" }

// GetOrCreateCart returns the customer's open cart, creating one on first
// access. A concurrent create races on the partial unique index; the loser
// retries the lookup.
func (r *Repository) GetOrCreateCart(ctx context.Context, customerID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	cart, err := r.findCart(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	record := orderRecord{CustomerID: customerID, Status: string(domain.StatusCart), Total: 0}
	if createErr := r.db.WithContext(ctx).Create(&record).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return r.findCart(ctx, customerID)
		}
		return nil, createErr
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) findCart(ctx context.Context, customerID int64) (*domain.Order, error) {
	var record orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "customer_id = ? AND status = ?", customerID, string(domain.StatusCart)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID loads an order with items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return getOrder(ctx, r.db, id)
}

// GetOwned loads an order with items only if the customer owns it.
func (r *Repository) GetOwned(ctx context.Context, id, customerID int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ? AND customer_id = ?", id, customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// SaveCart replaces the cart's line items and total wholesale, guarded on the
// order still being a cart.
func (r *Repository) SaveCart(ctx context.Context, cart *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", cart.ID, string(domain.StatusCart)).
			Updates(map[string]any{"total_amount": cart.Total, "updated_at": gorm.Expr("NOW()")})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrConcurrentTransition
		}
		if err := tx.Where("order_id = ?", cart.ID).Delete(&itemRecord{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		// Items that already have identifiers keep them across the rewrite;
		// fresh lines go in separately so the sequence assigns theirs.
		var kept, fresh []itemRecord
		for _, item := range cart.Items {
			record := toItemRecord(cart.ID, item)
			if record.ID != 0 {
				kept = append(kept, record)
			} else {
				fresh = append(fresh, record)
			}
		}
		if len(kept) > 0 {
			if err := tx.Create(&kept).Error; err != nil {
				return err
			}
		}
		if len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, cart.ID)
}

// Checkout persists the CART→NEW conversion and reserves every line item's
// stock in one transaction. Any shortfall rolls everything back; no stock is
// decremented and the cart stays untouched.
func (r *Repository) Checkout(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", order.ID, string(domain.StatusCart)).
			Updates(map[string]any{
				"status":           string(order.Status),
				"shipping_address": order.Shipping.Address,
				"phone_number":     order.Shipping.Phone,
				"notes":            order.Shipping.Notes,
				"updated_at":       gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrConcurrentTransition
		}
		var items []itemRecord
		if err := tx.Find(&items, "order_id = ?", order.ID).Error; err != nil {
			return err
		}
		for _, item := range items {
			if item.ProductID == nil {
				continue
			}
			if err := reserveStock(ctx, tx, *item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, order.ID)
}

// UpdateStatus persists a status change conditional on the expected prior
// status. The affected-row guard is what keeps a retried cancellation from
// releasing stock twice: the second attempt matches no row and the release
// never runs.
func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status, restock bool) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(order.Status),
			"updated_at": gorm.Expr("NOW()"),
		}
		if order.CompletedAt != nil {
			updates["completed_at"] = *order.CompletedAt
		}
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", order.ID, string(expected)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrConcurrentTransition
		}
		if !restock {
			return nil
		}
		var items []itemRecord
		if err := tx.Find(&items, "order_id = ?", order.ID).Error; err != nil {
			return err
		}
		for _, item := range items {
			if item.ProductID == nil {
				continue
			}
			if err := releaseStock(ctx, tx, *item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, order.ID)
}

// UpdateShipping persists the non-status fields.
func (r *Repository) UpdateShipping(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"shipping_address": order.Shipping.Address,
			"phone_number":     order.Shipping.Phone,
			"notes":            order.Shipping.Notes,
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, order.ID)
}

// List returns one page of orders, newest first, plus the unpaged count.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter, page pagination.Page) ([]*domain.Order, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if !filter.IncludeCarts {
		query = query.Where("status <> ?", string(domain.StatusCart))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []orderRecord
	if err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, total, nil
}

func getOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var record orderRecord
	if err := db.WithContext(ctx).Preload("Items").First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toItemRecord(orderID int64, item *domain.Item) itemRecord {
	return itemRecord{
		ID:          item.ID,
		OrderID:     orderID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		Price:       item.Price,
		ProductName: item.ProductName,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Status:     domain.Status(r.Status),
		Total:      r.Total,
		Shipping: domain.ShippingDetails{
			Address: r.ShippingAddress,
			Phone:   r.PhoneNumber,
			Notes:   r.Notes,
		},
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	order.Items = make([]*domain.Item, 0, len(r.Items))
	for i := range r.Items {
		item := r.Items[i]
		order.Items = append(order.Items, &domain.Item{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			ProductName: item.ProductName,
		})
	}
	return order
}
