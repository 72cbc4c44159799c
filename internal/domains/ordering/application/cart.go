package application

import (
	"context"
	"errors"

	"github.com/webshop/shop-api/internal/domains/ordering/domain"
	"github.com/webshop/shop-api/internal/domains/ordering/ports"
)

// GetCart returns the customer's open cart with items, creating an empty one
// lazily on first access.
func (s *Service) GetCart(ctx context.Context, customerID int64) (*domain.Order, error) {
	return s.repo.GetOrCreateCart(ctx, customerID)
}

// AddCartItem puts a product into the cart. An existing line for the same
// product absorbs the quantity; a new line snapshots the product's current
// price and name. Stock is checked against the live counter but not reserved.
func (s *Service) AddCartItem(ctx context.Context, customerID, productID int64, quantity int32) (*domain.Item, error) {
	if quantity < 1 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.repo.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := cart.AddItem(*product, quantity); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	return itemForProduct(saved, productID)
}

// UpdateCartItem replaces a line item's quantity after revalidating against
// live stock.
func (s *Service) UpdateCartItem(ctx context.Context, customerID, itemID int64, quantity int32) (*domain.Item, error) {
	if quantity < 1 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	cart, err := s.repo.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	item, ok := cart.Item(itemID)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if item.ProductID != nil {
		product, err := s.catalog.Get(ctx, *item.ProductID)
		switch {
		case err == nil:
			if product.Stock < quantity {
				return nil, &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   quantity,
					Available:   product.Stock,
				}
			}
		case errors.Is(err, ports.ErrProductNotFound):
			// The product vanished from the catalog; the snapshot stands on
			// its own and there is no live stock to validate against.
		default:
			return nil, err
		}
	}
	if _, err := cart.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	updated, ok := saved.Item(itemID)
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return updated, nil
}

// RemoveCartItem deletes a line item from the cart.
func (s *Service) RemoveCartItem(ctx context.Context, customerID, itemID int64) error {
	cart, err := s.repo.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return err
	}
	if err := cart.RemoveItem(itemID); err != nil {
		return err
	}
	_, err = s.repo.SaveCart(ctx, cart)
	return err
}

// ClearCart removes every line item; a no-op on an empty cart.
func (s *Service) ClearCart(ctx context.Context, customerID int64) error {
	cart, err := s.repo.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return err
	}
	cart.Clear()
	_, err = s.repo.SaveCart(ctx, cart)
	return err
}

func itemForProduct(order *domain.Order, productID int64) (*domain.Item, error) {
	for _, item := range order.Items {
		if item.ProductID != nil && *item.ProductID == productID {
			return item, nil
		}
	}
	return nil, domain.ErrItemNotFound
}
