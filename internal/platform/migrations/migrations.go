package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&orderRecord{},
		&itemRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter. The check constraint
// is the last line of defense against oversell; the ledger's conditional
// updates should never trip it.
type productRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;type:varchar(255);index"`
	Description string    `gorm:"column:description;type:text"`
	Price       float64   `gorm:"column:price;index"`
	Stock       int32     `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	SKU         string    `gorm:"column:sku;type:varchar(50);uniqueIndex"`
	Active      bool      `gorm:"column:active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Order schema mirrors the ordering Postgres adapter. The partial unique
// index enforces one open cart per customer at the schema level.
type orderRecord struct {
	ID              int64      `gorm:"primaryKey;column:id"`
	CustomerID      int64      `gorm:"column:customer_id;index:idx_orders_customer_status;uniqueIndex:udx_orders_open_cart,where:status = 'cart'"`
	Status          string     `gorm:"column:status;type:varchar(20);index:idx_orders_customer_status"`
	Total           float64    `gorm:"column:total_amount"`
	ShippingAddress string     `gorm:"column:shipping_address;type:varchar(500)"`
	PhoneNumber     string     `gorm:"column:phone_number;type:varchar(20)"`
	Notes           string     `gorm:"column:notes;type:varchar(1000)"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;index"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Line items cascade with their order; deleting a product nulls the
// reference and the snapshot columns keep the history intact.
type itemRecord struct {
	ID          int64          `gorm:"primaryKey;column:id"`
	OrderID     int64          `gorm:"column:order_id;index;not null"`
	ProductID   *int64         `gorm:"column:product_id;index"`
	Quantity    int32          `gorm:"column:quantity;not null"`
	Price       float64        `gorm:"column:price;not null"`
	ProductName string         `gorm:"column:product_name;type:varchar(255);not null"`
	Order       *orderRecord   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Product     *productRecord `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

func (itemRecord) TableName() string { return "order_items" }
