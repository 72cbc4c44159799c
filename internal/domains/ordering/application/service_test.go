package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	catalogmemory "github.com/webshop/shop-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/webshop/shop-api/internal/domains/catalog/domain"
	orderingmemory "github.com/webshop/shop-api/internal/domains/ordering/adapters/memory"
	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/auth"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

type fixture struct {
	svc      *Service
	products *catalogmemory.Repository
	gateway  *orderingmemory.CatalogGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := catalogmemory.NewRepository()
	gateway := orderingmemory.NewCatalogGateway(products)
	repo := orderingmemory.NewRepository(gateway)
	return &fixture{
		svc:      NewService(repo, gateway),
		products: products,
		gateway:  gateway,
	}
}

func (f *fixture) addProduct(t *testing.T, name string, price float64, stock int32) *catalogdomain.Product {
	t.Helper()
	product, err := f.products.Save(context.Background(), &catalogdomain.Product{
		Name: name, Price: price, Stock: stock, Active: true,
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) stockOf(t *testing.T, productID int64) int32 {
	t.Helper()
	product, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func TestAddCartItem_SnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Keyboard", 49.90, 10)

	item, err := f.svc.AddCartItem(ctx, 1, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 49.90, item.Price)
	require.Equal(t, "Keyboard", item.ProductName)

	// Catalog price hike after the item entered the cart.
	product.Price = 89.90
	_, err = f.products.Save(ctx, product)
	require.NoError(t, err)

	cart, err := f.svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 49.90, cart.Items[0].Price)
	require.InDelta(t, 99.80, cart.Total, 1e-9)
}

func TestAddCartItem_MergesAndChecksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Mouse", 19.00, 5)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 3)
	require.NoError(t, err)

	// 3 + 3 exceeds the 5 in stock.
	_, err = f.svc.AddCartItem(ctx, 1, product.ID, 3)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int32(5), stockErr.Available)

	item, err := f.svc.AddCartItem(ctx, 1, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, int32(5), item.Quantity)

	// Adding to the cart never touches the live counter.
	require.Equal(t, int32(5), f.stockOf(t, product.ID))
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddCartItem(context.Background(), 1, 404, 1)
	require.ErrorIs(t, err, ports.ErrProductNotFound)
}

func TestAddCartItem_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddCartItem(context.Background(), 1, 1, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCartItem_RevalidatesLiveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Desk", 120.00, 10)

	item, err := f.svc.AddCartItem(ctx, 1, product.ID, 2)
	require.NoError(t, err)

	product.Stock = 3
	_, err = f.products.Save(ctx, product)
	require.NoError(t, err)

	_, err = f.svc.UpdateCartItem(ctx, 1, item.ID, 8)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	updated, err := f.svc.UpdateCartItem(ctx, 1, item.ID, 3)
	require.NoError(t, err)
	require.Equal(t, int32(3), updated.Quantity)
}

func TestUpdateCartItem_DeletedProductKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Lamp", 35.00, 10)

	item, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, product.ID))

	// No live stock to validate against; the snapshot stands alone.
	updated, err := f.svc.UpdateCartItem(ctx, 1, item.ID, 4)
	require.NoError(t, err)
	require.Equal(t, int32(4), updated.Quantity)
	require.Equal(t, 35.00, updated.Price)
}

func TestRemoveAndClearCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.addProduct(t, "A", 1.00, 10)
	b := f.addProduct(t, "B", 2.00, 10)

	itemA, err := f.svc.AddCartItem(ctx, 1, a.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddCartItem(ctx, 1, b.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveCartItem(ctx, 1, itemA.ID))
	cart, err := f.svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.InDelta(t, 2.00, cart.Total, 1e-9)

	require.NoError(t, f.svc.ClearCart(ctx, 1))
	cart, err = f.svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Zero(t, cart.Total)

	require.ErrorIs(t, f.svc.RemoveCartItem(ctx, 1, itemA.ID), domain.ErrItemNotFound)
}

func TestCheckout_DecrementsStockAndPlacesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Chair", 80.00, 10)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 4)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{Address: "1 Main St"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusNew, order.Status)
	require.Equal(t, "1 Main St", order.Shipping.Address)
	require.Equal(t, int32(6), f.stockOf(t, product.ID))

	// The cart was consumed; the next access starts a fresh one.
	cart, err := f.svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.NotEqual(t, order.ID, cart.ID)
	require.Empty(t, cart.Items)
}

func TestCheckout_DeletedProductLineIsKeptWithoutReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.addProduct(t, "Desk", 120.00, 8)
	gone := f.addProduct(t, "Discontinued Shelf", 45.00, 3)

	_, err := f.svc.AddCartItem(ctx, 1, kept.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddCartItem(ctx, 1, gone.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, gone.ID))

	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusNew, order.Status)

	// Both lines survive; the total still counts the snapshotted price.
	require.Len(t, order.Items, 2)
	require.InDelta(t, 285.00, order.Total, 1e-9)

	// Only the surviving product was reserved.
	require.Equal(t, int32(6), f.stockOf(t, kept.ID))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), 1, domain.ShippingDetails{})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckout_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Monitor", 200.00, 5)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 5)
	require.NoError(t, err)

	// Another customer drains the stock before checkout.
	product.Stock = 2
	_, err = f.products.Save(ctx, product)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int32(2), stockErr.Available)

	require.Equal(t, int32(2), f.stockOf(t, product.ID))
	cart, err := f.svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, domain.StatusCart, cart.Status)
}

func TestCancelOrder_RestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Customer(1)
	product := f.addProduct(t, "Shelf", 60.00, 10)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 3)
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	require.NoError(t, err)
	require.Equal(t, int32(7), f.stockOf(t, product.ID))

	canceled, err := f.svc.CancelOrder(ctx, owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, canceled.Status)
	require.Equal(t, int32(10), f.stockOf(t, product.ID))

	// A repeat cancellation must not release the stock again.
	_, err = f.svc.CancelOrder(ctx, owner, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, int32(10), f.stockOf(t, product.ID))
}

func TestCancelOrder_CustomerBlockedAfterProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Customer(1)
	admin := auth.Admin(99)
	product := f.addProduct(t, "Rug", 45.00, 10)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	require.NoError(t, err)

	_, err = f.svc.SetOrderStatus(ctx, admin, order.ID, domain.StatusProcessing)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, owner, order.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	// The admin still can, and the stock comes back.
	canceled, err := f.svc.CancelOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, canceled.Status)
	require.Equal(t, int32(10), f.stockOf(t, product.ID))
}

func TestSetOrderStatus_AdminStepwise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin(99)
	owner := auth.Customer(1)
	product := f.addProduct(t, "Table", 150.00, 10)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	require.NoError(t, err)

	_, err = f.svc.SetOrderStatus(ctx, admin, order.ID, domain.StatusShipped)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.SetOrderStatus(ctx, owner, order.ID, domain.StatusProcessing)
	require.ErrorIs(t, err, domain.ErrForbidden)

	for _, status := range []domain.Status{domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered} {
		order, err = f.svc.SetOrderStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
		require.Equal(t, status, order.Status)
	}
	require.NotNil(t, order.CompletedAt)

	_, err = f.svc.SetOrderStatus(ctx, admin, order.ID, domain.StatusProcessing)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateOrderShipping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Customer(1)
	admin := auth.Admin(99)
	product := f.addProduct(t, "Sofa", 500.00, 5)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{Address: "old"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderShipping(ctx, owner, order.ID, domain.ShippingDetails{Address: "new"})
	require.NoError(t, err)
	require.Equal(t, "new", updated.Shipping.Address)

	_, err = f.svc.SetOrderStatus(ctx, admin, order.ID, domain.StatusProcessing)
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderShipping(ctx, owner, order.ID, domain.ShippingDetails{Address: "late"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err = f.svc.UpdateOrderShipping(ctx, admin, order.ID, domain.ShippingDetails{Address: "admin"})
	require.NoError(t, err)
	require.Equal(t, "admin", updated.Shipping.Address)
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Clock", 25.00, 10)

	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
	require.NoError(t, err)

	// Another customer's lookup reads as not found, not forbidden.
	_, err = f.svc.GetOrder(ctx, auth.Customer(2), order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)

	got, err := f.svc.GetOrder(ctx, auth.Admin(99), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
}

func TestListOrders_ExcludesCartAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Customer(1)
	product := f.addProduct(t, "Pen", 3.00, 100)

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
		require.NoError(t, err)
		_, err = f.svc.Checkout(ctx, 1, domain.ShippingDetails{})
		require.NoError(t, err)
	}
	// Leave an open cart behind; it must not appear in listings.
	_, err := f.svc.AddCartItem(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	page, err := f.svc.ListOrders(ctx, owner, nil, pagination.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 3)
	for _, order := range page.Items {
		require.Equal(t, domain.StatusNew, order.Status)
	}

	statusNew := domain.StatusNew
	page, err = f.svc.ListOrders(ctx, owner, &statusNew, pagination.Page{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)

	statusCanceled := domain.StatusCanceled
	page, err = f.svc.ListOrders(ctx, owner, &statusCanceled, pagination.Page{})
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestListAllOrders_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Cup", 5.00, 100)

	for _, customerID := range []int64{1, 2} {
		_, err := f.svc.AddCartItem(ctx, customerID, product.ID, 1)
		require.NoError(t, err)
		_, err = f.svc.Checkout(ctx, customerID, domain.ShippingDetails{})
		require.NoError(t, err)
	}

	_, err := f.svc.ListAllOrders(ctx, auth.Customer(1), ports.ListFilter{}, pagination.Page{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	page, err := f.svc.ListAllOrders(ctx, auth.Admin(99), ports.ListFilter{}, pagination.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)

	customerID := int64(2)
	page, err = f.svc.ListAllOrders(ctx, auth.Admin(99), ports.ListFilter{CustomerID: &customerID}, pagination.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, int64(2), page.Items[0].CustomerID)
}
