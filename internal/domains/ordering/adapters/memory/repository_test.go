package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	catalogmemory "github.com/webshop/shop-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/webshop/shop-api/internal/domains/catalog/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

func newTestStores(t *testing.T) (*Repository, *CatalogGateway, *catalogmemory.Repository) {
	t.Helper()
	products := catalogmemory.NewRepository()
	gateway := NewCatalogGateway(products)
	return NewRepository(gateway), gateway, products
}

func seedCart(t *testing.T, repo *Repository, gateway *CatalogGateway, customerID, productID int64, quantity int32) *domain.Order {
	t.Helper()
	ctx := context.Background()
	cart, err := repo.GetOrCreateCart(ctx, customerID)
	require.NoError(t, err)
	product, err := gateway.Get(ctx, productID)
	require.NoError(t, err)
	_, err = cart.AddItem(*product, quantity)
	require.NoError(t, err)
	cart, err = repo.SaveCart(ctx, cart)
	require.NoError(t, err)
	return cart
}

func TestCheckout_ConcurrentOverStockLimit(t *testing.T) {
	repo, gateway, products := newTestStores(t)
	ctx := context.Background()

	const stock = 5
	const customers = 10
	product, err := products.Save(ctx, &catalogdomain.Product{Name: "Limited", Price: 10.00, Stock: stock, Active: true})
	require.NoError(t, err)

	carts := make([]*domain.Order, customers)
	for i := 0; i < customers; i++ {
		carts[i] = seedCart(t, repo, gateway, int64(i+1), product.ID, 1)
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

	var succeeded, rejected int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		rejected++
	}
	require.Equal(t, stock, succeeded)
	require.Equal(t, customers-stock, rejected)

	remaining, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.Zero(t, remaining.Stock)
}

func TestCheckout_ShortfallRollsBackEarlierReservations(t *testing.T) {
	repo, gateway, products := newTestStores(t)
	ctx := context.Background()

	plenty, err := products.Save(ctx, &catalogdomain.Product{Name: "Plenty", Price: 5.00, Stock: 10, Active: true})
	require.NoError(t, err)
	scarce, err := products.Save(ctx, &catalogdomain.Product{Name: "Scarce", Price: 5.00, Stock: 2, Active: true})
	require.NoError(t, err)

	cart, err := repo.GetOrCreateCart(ctx, 1)
	require.NoError(t, err)
	for _, p := range []*catalogdomain.Product{plenty, scarce} {
		snap, err := gateway.Get(ctx, p.ID)
		require.NoError(t, err)
		_, err = cart.AddItem(*snap, 2)
		require.NoError(t, err)
	}
	cart, err = repo.SaveCart(ctx, cart)
	require.NoError(t, err)

	// The shelf empties between cart time and checkout.
	scarce.Stock = 1
	_, err = products.Save(ctx, scarce)
	require.NoError(t, err)

	require.NoError(t, cart.Checkout(domain.ShippingDetails{}))
	_, err = repo.Checkout(ctx, cart)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, scarce.ID, stockErr.ProductID)

	// The reservation on the first line was compensated.
	got, err := products.GetByID(ctx, plenty.ID)
	require.NoError(t, err)
	require.Equal(t, int32(10), got.Stock)
}

func TestUpdateStatus_ExpectedStatusGuard(t *testing.T) {
	repo, gateway, products := newTestStores(t)
	ctx := context.Background()

	product, err := products.Save(ctx, &catalogdomain.Product{Name: "Guarded", Price: 5.00, Stock: 10, Active: true})
	require.NoError(t, err)
	cart := seedCart(t, repo, gateway, 1, product.ID, 2)
	require.NoError(t, cart.Checkout(domain.ShippingDetails{}))
	order, err := repo.Checkout(ctx, cart)
	require.NoError(t, err)

	canceled := *order
	canceled.Status = domain.StatusCanceled
	_, err = repo.UpdateStatus(ctx, &canceled, domain.StatusNew, true)
	require.NoError(t, err)
	got, err := products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(10), got.Stock)

	// The stale expected status matches no row; stock stays put.
	_, err = repo.UpdateStatus(ctx, &canceled, domain.StatusNew, true)
	require.ErrorIs(t, err, ports.ErrConcurrentTransition)
	got, err = products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(10), got.Stock)
}

func TestSaveCart_RejectsPlacedOrder(t *testing.T) {
	repo, gateway, products := newTestStores(t)
	ctx := context.Background()

	product, err := products.Save(ctx, &catalogdomain.Product{Name: "Done", Price: 5.00, Stock: 10, Active: true})
	require.NoError(t, err)
	cart := seedCart(t, repo, gateway, 1, product.ID, 1)
	stale := cloneOrder(cart)

	require.NoError(t, cart.Checkout(domain.ShippingDetails{}))
	_, err = repo.Checkout(ctx, cart)
	require.NoError(t, err)

	_, err = repo.SaveCart(ctx, stale)
	require.ErrorIs(t, err, ports.ErrConcurrentTransition)
}

func TestGetOrCreateCart_ReusesOpenCart(t *testing.T) {
	repo, _, _ := newTestStores(t)
	ctx := context.Background()

	first, err := repo.GetOrCreateCart(ctx, 7)
	require.NoError(t, err)
	second, err := repo.GetOrCreateCart(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	other, err := repo.GetOrCreateCart(ctx, 8)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}
