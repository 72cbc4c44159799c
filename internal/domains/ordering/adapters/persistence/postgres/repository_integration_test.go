//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	catalogpostgres "github.com/webshop/shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/platform/migrations"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

func setupOrderingPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int32) *catalogdomain.Product {
	t.Helper()
	product, err := catalogpostgres.NewRepository(db).Save(context.Background(), &catalogdomain.Product{
		Name: name, Price: price, Stock: stock, Active: true,
	})
	require.NoError(t, err)
	return product
}

func productStock(t *testing.T, db *gorm.DB, productID int64) int32 {
	t.Helper()
	var stock int32
	require.NoError(t, db.Table("products").Select("stock").Where("id = ?", productID).Scan(&stock).Error)
	return stock
}

func placeOrder(t *testing.T, repo *Repository, gateway *CatalogGateway, customerID, productID int64, quantity int32) *domain.Order {
	t.Helper()
	ctx := context.Background()
	cart, err := repo.GetOrCreateCart(ctx, customerID)
	require.NoError(t, err)
	snapshot, err := gateway.Get(ctx, productID)
	require.NoError(t, err)
	_, err = cart.AddItem(*snapshot, quantity)
	require.NoError(t, err)
	cart, err = repo.SaveCart(ctx, cart)
	require.NoError(t, err)
	require.NoError(t, cart.Checkout(domain.ShippingDetails{Address: "1 Main St"}))
	order, err := repo.Checkout(ctx, cart)
	require.NoError(t, err)
	return order
}

func TestRepository_GetOrCreateCart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCart, first.Status)

	second, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRepository_GetOrCreateCart_ConcurrentSingleCart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	const goroutines = 8
	ids := make([]int64, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := repo.GetOrCreateCart(ctx, 42)
			require.NoError(t, err)
			ids[i] = cart.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var count int64
	require.NoError(t, db.Table("orders").Where("customer_id = ? AND status = ?", 42, "cart").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_SaveCartRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	ctx := context.Background()
	product := seedProduct(t, db, "Keyboard", 49.90, 10)

	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	snapshot, err := gateway.Get(ctx, product.ID)
	require.NoError(t, err)
	_, err = cart.AddItem(*snapshot, 2)
	require.NoError(t, err)

	saved, err := repo.SaveCart(ctx, cart)
	require.NoError(t, err)
	require.Len(t, saved.Items, 1)
	assert.NotZero(t, saved.Items[0].ID)
	assert.Equal(t, 49.90, saved.Items[0].Price)
	assert.InDelta(t, 99.80, saved.Total, 1e-9)

	// Items keep their identifiers across a rewrite.
	_, err = saved.UpdateItemQuantity(saved.Items[0].ID, 3)
	require.NoError(t, err)
	again, err := repo.SaveCart(ctx, saved)
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, saved.Items[0].ID, again.Items[0].ID)
	assert.Equal(t, int32(3), again.Items[0].Quantity)
}

func TestRepository_CheckoutReservesStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	product := seedProduct(t, db, "Chair", 80.00, 10)

	order := placeOrder(t, repo, gateway, 1, product.ID, 4)
	assert.Equal(t, domain.StatusNew, order.Status)
	assert.Equal(t, int32(6), productStock(t, db, product.ID))
}

func TestRepository_CheckoutShortfallRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	ctx := context.Background()
	plenty := seedProduct(t, db, "Plenty", 5.00, 10)
	scarce := seedProduct(t, db, "Scarce", 5.00, 2)

	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	for _, p := range []*catalogdomain.Product{plenty, scarce} {
		snapshot, err := gateway.Get(ctx, p.ID)
		require.NoError(t, err)
		_, err = cart.AddItem(*snapshot, 2)
		require.NoError(t, err)
	}
	cart, err = repo.SaveCart(ctx, cart)
	require.NoError(t, err)

	// Stock drains between cart time and checkout.
	require.NoError(t, db.Exec("UPDATE products SET stock = 1 WHERE id = ?", scarce.ID).Error)

	require.NoError(t, cart.Checkout(domain.ShippingDetails{}))
	_, err = repo.Checkout(ctx, cart)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, int32(1), stockErr.Available)

	// The whole transaction rolled back: stock untouched, order still a cart.
	assert.Equal(t, int32(10), productStock(t, db, plenty.ID))
	reloaded, err := repo.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCart, reloaded.Status)
}

func TestRepository_ConcurrentCheckoutNeverOversells(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	ctx := context.Background()

	const stock = 3
	const customers = 6
	product := seedProduct(t, db, "Limited", 10.00, stock)

	carts := make([]*domain.Order, customers)
	for i := 0; i < customers; i++ {
		customerID := int64(i + 1)
		cart, err := repo.GetOrCreateCart(ctx, customerID)
		require.NoError(t, err)
		snapshot, err := gateway.Get(ctx, product.ID)
		require.NoError(t, err)
		_, err = cart.AddItem(*snapshot, 1)
		require.NoError(t, err)
		carts[i], err = repo.SaveCart(ctx, cart)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]error, customers)
	for i := 0; i < customers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart := carts[i]
			if err := cart.Checkout(domain.ShippingDetails{}); err != nil {
				results[i] = err
				return
			}
			_, results[i] = repo.Checkout(ctx, cart)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
	}
	assert.Equal(t, stock, succeeded)
	assert.Zero(t, productStock(t, db, product.ID))
}

func TestRepository_CancelReleasesStockExactlyOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	ctx := context.Background()
	product := seedProduct(t, db, "Shelf", 60.00, 10)

	order := placeOrder(t, repo, gateway, 1, product.ID, 3)
	require.Equal(t, int32(7), productStock(t, db, product.ID))

	canceled := *order
	canceled.Status = domain.StatusCanceled
	_, err := repo.UpdateStatus(ctx, &canceled, domain.StatusNew, true)
	require.NoError(t, err)
	assert.Equal(t, int32(10), productStock(t, db, product.ID))

	// The stale expected status matches no row; nothing moves.
	_, err = repo.UpdateStatus(ctx, &canceled, domain.StatusNew, true)
	assert.ErrorIs(t, err, ports.ErrConcurrentTransition)
	assert.Equal(t, int32(10), productStock(t, db, product.ID))
}

func TestRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	gateway := NewCatalogGateway(db)
	ctx := context.Background()
	product := seedProduct(t, db, "Pen", 3.00, 100)

	for customerID := int64(1); customerID <= 3; customerID++ {
		placeOrder(t, repo, gateway, customerID, product.ID, 1)
	}
	// Customer 1 also keeps an open cart.
	_, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)

	orders, total, err := repo.List(ctx, ports.ListFilter{}, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 3)

	customerID := int64(1)
	orders, total, err = repo.List(ctx, ports.ListFilter{CustomerID: &customerID}, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, customerID, orders[0].CustomerID)
}
