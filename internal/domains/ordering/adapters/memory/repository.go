package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/shared/pagination"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. Checkout and status
// updates compensate through the ledger instead of a real transaction, which
// is equivalent under the single repository mutex.
type Repository struct {
	mu         sync.Mutex
	orders     map[int64]*domain.Order
	nextID     int64
	nextItemID int64
	ledger     ports.InventoryLedger
}

func NewRepository(ledger ports.InventoryLedger) *Repository {
	return &Repository{orders: map[int64]*domain.Order{}, ledger: ledger}
}

func (r *Repository) GetOrCreateCart(_ context.Context, customerID int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.CustomerID == customerID && order.IsCart() {
			return cloneOrder(order), nil
		}
	}
	cart := domain.NewCart(customerID)
	r.nextID++
	cart.ID = r.nextID
	cart.CreatedAt = time.Now()
	cart.UpdatedAt = cart.CreatedAt
	r.orders[cart.ID] = cart
	return cloneOrder(cart), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) GetOwned(_ context.Context, id, customerID int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.CustomerID != customerID {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) SaveCart(_ context.Context, cart *domain.Order) (*domain.Order, error) {
	if cart == nil {
		return nil, errors.New("cart is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[cart.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !stored.IsCart() {
		return nil, ports.ErrConcurrentTransition
	}
	clone := cloneOrder(cart)
	for _, item := range clone.Items {
		if item.ID == 0 {
			r.nextItemID++
			item.ID = r.nextItemID
		}
		item.OrderID = clone.ID
	}
	clone.UpdatedAt = time.Now()
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) Checkout(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !stored.IsCart() {
		return nil, ports.ErrConcurrentTransition
	}
	reserved := make([]*domain.Item, 0, len(stored.Items))
	for _, item := range stored.Items {
		if item.ProductID == nil {
			continue
		}
		err := r.ledger.Reserve(ctx, *item.ProductID, item.Quantity)
		if errors.Is(err, ports.ErrProductNotFound) {
			// The product vanished after the line was added. The snapshot
			// stands on its own and the line carries no reservation,
			// matching what the SET NULL foreign key does in Postgres.
			item.ProductID = nil
			continue
		}
		if err != nil {
			for _, prev := range reserved {
				_ = r.ledger.Release(ctx, *prev.ProductID, prev.Quantity)
			}
			return nil, err
		}
		reserved = append(reserved, item)
	}
	stored.Status = order.Status
	stored.Shipping = order.Shipping
	stored.UpdatedAt = time.Now()
	return cloneOrder(stored), nil
}

func (r *Repository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status, releaseStock bool) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Status != expected {
		return nil, ports.ErrConcurrentTransition
	}
	if releaseStock {
		for _, item := range stored.Items {
			if item.ProductID == nil {
				continue
			}
			if err := r.ledger.Release(ctx, *item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}
	stored.Status = order.Status
	stored.CompletedAt = order.CompletedAt
	stored.UpdatedAt = time.Now()
	return cloneOrder(stored), nil
}

func (r *Repository) UpdateShipping(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	stored.Shipping = order.Shipping
	stored.UpdatedAt = time.Now()
	return cloneOrder(stored), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter, page pagination.Page) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Order
	for _, order := range r.orders {
		if !filter.IncludeCarts && order.IsCart() {
			continue
		}
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if page.Skip >= len(matched) {
		return nil, total, nil
	}
	matched = matched[page.Skip:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, total, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	if order.CompletedAt != nil {
		completed := *order.CompletedAt
		clone.CompletedAt = &completed
	}
	clone.Items = make([]*domain.Item, 0, len(order.Items))
	for _, item := range order.Items {
		itemClone := *item
		if item.ProductID != nil {
			productID := *item.ProductID
			itemClone.ProductID = &productID
		}
		clone.Items = append(clone.Items, &itemClone)
	}
	return &clone
}
