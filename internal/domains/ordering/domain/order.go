package domain

import (
	"time"

	"github.com/webshop/shop-api/internal/shared/auth"
)

// ShippingDetails carries the optional delivery fields attached at checkout.
type ShippingDetails struct {
	Address string
	Phone   string
	Notes   string
}

// ProductSnapshot is the live product view consumed from the catalog at the
// moment an item enters the cart.
type ProductSnapshot struct {
	ID    int64
	Name  string
	Price float64
	Stock int32
}

// Item is a line item. Price and ProductName are captured when the item enters
// the cart and never change afterwards, regardless of later catalog edits.
// ProductID is nil once the referenced product has been deleted.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   *int64
	Quantity    int32
	Price       float64
	ProductName string
}

// LineTotal is the snapshotted price times quantity.
func (i *Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Order is the cart/order aggregate. An order in StatusCart is the customer's
// shopping cart; checkout consumes it in place.
type Order struct {
	ID          int64
	CustomerID  int64
	Status      Status
	Total       float64
	Shipping    ShippingDetails
	CompletedAt *time.Time
	Items       []*Item
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCart constructs the customer's open cart.
func NewCart(customerID int64) *Order {
	return &Order{
		CustomerID: customerID,
		Status:     StatusCart,
		Total:      0,
	}
}

// IsCart reports whether the order is still the open cart.
func (o *Order) IsCart() bool {
	return o.Status == StatusCart
}

// OwnedBy reports whether the principal owns this order.
func (o *Order) OwnedBy(p auth.Principal) bool {
	return o.CustomerID == p.CustomerID
}

// Item finds a line item by identifier.
func (o *Order) Item(itemID int64) (*Item, bool) {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return nil, false
}

// AddItem merges the quantity into an existing line for the same product or
// appends a new line snapshotting the product's current price and name. Stock
// is checked against the live counter but not reserved; reservation happens at
// checkout.
func (o *Order) AddItem(product ProductSnapshot, quantity int32) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if product.Stock < quantity {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}
	for _, item := range o.Items {
		if item.ProductID != nil && *item.ProductID == product.ID {
			merged := item.Quantity + quantity
			if product.Stock < merged {
				return nil, &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   merged,
					Available:   product.Stock,
				}
			}
			item.Quantity = merged
			o.RecomputeTotal()
			return item, nil
		}
	}
	productID := product.ID
	item := &Item{
		OrderID:     o.ID,
		ProductID:   &productID,
		Quantity:    quantity,
		Price:       product.Price,
		ProductName: product.Name,
	}
	o.Items = append(o.Items, item)
	o.RecomputeTotal()
	return item, nil
}

// UpdateItemQuantity replaces a line item's quantity.
func (o *Order) UpdateItemQuantity(itemID int64, quantity int32) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	item, ok := o.Item(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	item.Quantity = quantity
	o.RecomputeTotal()
	return item, nil
}

// RemoveItem deletes a line item.
func (o *Order) RemoveItem(itemID int64) error {
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.RecomputeTotal()
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear removes every line item and resets the total.
func (o *Order) Clear() {
	o.Items = nil
	o.Total = 0
}

// RecomputeTotal derives the total from the snapshotted line prices. The live
// catalog price never participates.
func (o *Order) RecomputeTotal() {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	o.Total = total
}

// Checkout converts the cart into a placed order. The caller is responsible
// for reserving stock atomically with persisting the transition.
func (o *Order) Checkout(shipping ShippingDetails) error {
	if !o.IsCart() {
		return ErrInvalidTransition
	}
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	o.Status = StatusNew
	o.Shipping = shipping
	return nil
}

// Transition applies the status state machine for the given principal.
// Forward progression is admin-only and strictly stepwise. Cancellation is
// open to the owning customer while the order is new, and to admins while it
// is new or processing. Terminal states reject everything.
func (o *Order) Transition(p auth.Principal, to Status, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if to == StatusCart {
		return ErrInvalidTransition
	}
	if o.Status.Terminal() || o.IsCart() {
		return ErrInvalidTransition
	}
	if to == StatusCanceled {
		return o.cancelAs(p)
	}
	if !p.IsAdmin() {
		return ErrForbidden
	}
	if o.Status.next() != to {
		return ErrInvalidTransition
	}
	o.Status = to
	if to == StatusDelivered {
		completed := now
		o.CompletedAt = &completed
	}
	return nil
}

// Cancel moves the order to canceled under the asymmetric permission rules.
// The caller must release reserved stock atomically with persisting this.
func (o *Order) Cancel(p auth.Principal) error {
	return o.Transition(p, StatusCanceled, time.Time{})
}

func (o *Order) cancelAs(p auth.Principal) error {
	if p.IsAdmin() {
		if !o.Status.Cancelable() {
			return ErrInvalidTransition
		}
	} else {
		if !o.OwnedBy(p) {
			return ErrForbidden
		}
		// Customers may only back out before processing starts.
		if o.Status != StatusNew {
			return ErrForbidden
		}
	}
	o.Status = StatusCanceled
	return nil
}

// UpdateShipping lets the owning customer edit non-status fields while the
// order is new; admins may edit any order.
func (o *Order) UpdateShipping(p auth.Principal, shipping ShippingDetails) error {
	if !p.IsAdmin() {
		if !o.OwnedBy(p) || o.Status != StatusNew {
			return ErrForbidden
		}
	}
	o.Shipping = shipping
	return nil
}
