package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/orbitdine/internal/cart"
)

type CartStore interface {
	Get(ctx context.Context, sessionID string, tableID uint) ([]cart.Entry, error)
	Set(ctx context.Context, sessionID string, tableID uint, entries []cart.Entry) error
	Clear(ctx context.Context, sessionID string, tableID uint) error
}

type CartService struct {
	Store CartStore
}

func cartErr(err error) error {
	if errors.Is(err, cart.ErrCacheUnavailable) {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return fmt.Errorf("%w: cart: %v", ErrPersistence, err)
}

func checkKey(sessionID string, tableID uint) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id required", ErrValidation)
	}
	if tableID == 0 {
		return fmt.Errorf("%w: table id required", ErrValidation)
	}
	return nil
}

func (svc *CartService) Get(ctx context.Context, sessionID string, tableID uint) ([]cart.Entry, error) {
	if err := checkKey(sessionID, tableID); err != nil {
		return nil, err
	}
	entries, err := svc.Store.Get(ctx, sessionID, tableID)
	if err != nil {
		return nil, cartErr(err)
	}
	return entries, nil
}

func (svc *CartService) Replace(ctx context.Context, sessionID string, tableID uint, entries []cart.Entry) error {
	if err := checkKey(sessionID, tableID); err != nil {
		return err
	}
	if err := svc.Store.Set(ctx, sessionID, tableID, entries); err != nil {
		return cartErr(err)
	}
	return nil
}

func (svc *CartService) Clear(ctx context.Context, sessionID string, tableID uint) error {
	if err := checkKey(sessionID, tableID); err != nil {
		return err
	}
	if err := svc.Store.Clear(ctx, sessionID, tableID); err != nil {
		return cartErr(err)
	}
	return nil
}

// AddItem merges e into the cart, adding to the quantity of an existing line.
func (svc *CartService) AddItem(ctx context.Context, sessionID string, tableID uint, e cart.Entry) ([]cart.Entry, error) {
	if e.ID == 0 {
		return nil, fmt.Errorf("%w: item id required", ErrValidation)
	}
	if e.Quantity <= 0 {
		e.Quantity = 1
	}

	return svc.modify(ctx, sessionID, tableID, func(entries []cart.Entry) ([]cart.Entry, error) {
		for i := range entries {
			if entries[i].ID == e.ID {
				entries[i].Quantity += e.Quantity
				return entries, nil
			}
		}
		return append(entries, e), nil
	})
}

// RemoveItem drops a line from the cart. An item that is not in the cart is
// ErrNotFound and nothing is written.
func (svc *CartService) RemoveItem(ctx context.Context, sessionID string, tableID, itemID uint) ([]cart.Entry, error) {
	return svc.modify(ctx, sessionID, tableID, func(entries []cart.Entry) ([]cart.Entry, error) {
		for i, it := range entries {
			if it.ID == itemID {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: item %d not in cart", ErrNotFound, itemID)
	})
}

// UpdateQuantity shifts a line's quantity by delta and drops it at zero.
func (svc *CartService) UpdateQuantity(ctx context.Context, sessionID string, tableID, itemID uint, delta int) ([]cart.Entry, error) {
	return svc.modify(ctx, sessionID, tableID, func(entries []cart.Entry) ([]cart.Entry, error) {
		for i := range entries {
			if entries[i].ID != itemID {
				continue
			}
			entries[i].Quantity += delta
			if entries[i].Quantity <= 0 {
				return append(entries[:i], entries[i+1:]...), nil
			}
			return entries, nil
		}
		return nil, fmt.Errorf("%w: item %d not in cart", ErrNotFound, itemID)
	})
}

// modify is a read-modify-write on one cart key; concurrent writers race and the last Set wins.
// When fn fails the cart is left untouched.
func (svc *CartService) modify(ctx context.Context, sessionID string, tableID uint, fn func([]cart.Entry) ([]cart.Entry, error)) ([]cart.Entry, error) {
	entries, err := svc.Get(ctx, sessionID, tableID)
	if err != nil {
		return nil, err
	}
	entries, err = fn(entries)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []cart.Entry{}
	}
	if err := svc.Replace(ctx, sessionID, tableID, entries); err != nil {
		return nil, err
	}
	return entries, nil
}
