package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/orbitdine/internal/cart"
)

var ErrInvalid = errors.New("invalid request")

type Geofence struct {
	Enabled        bool    `json:"enabled"`
	DistanceMeters float64 `json:"distanceMeters"`
	AllowedMeters  float64 `json:"allowedMeters"`
}

// Outside reports whether the caller is farther away than allowed.
func (g *Geofence) Outside() bool {
	return g != nil && g.Enabled && g.DistanceMeters > g.AllowedMeters
}

type OrderItem struct {
	ID       uint   `json:"id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
	Price    int64  `json:"price"`
}

type CreateOrderRequest struct {
	TableID      uint        `json:"tableId"`
	Items        []OrderItem `json:"items"`
	Total        *int64      `json:"total"`
	CustomerName string      `json:"customerName"`
	Geofence     *Geofence   `json:"geofence"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.TableID == 0 {
		return fmt.Errorf("%w: tableId required", ErrInvalid)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: items required", ErrInvalid)
	}
	for i, it := range r.Items {
		if it.ID == 0 {
			return fmt.Errorf("%w: items[%d].id required", ErrInvalid, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be > 0", ErrInvalid, i)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: items[%d].price must be >= 0", ErrInvalid, i)
		}
	}
	if r.Total != nil && *r.Total < 0 {
		return fmt.Errorf("%w: total must be >= 0", ErrInvalid)
	}
	if g := r.Geofence; g != nil && g.Enabled && (g.DistanceMeters < 0 || g.AllowedMeters < 0) {
		return fmt.Errorf("%w: geofence distances must be >= 0", ErrInvalid)
	}
	return nil
}

type CreateOrderResponse struct {
	Success bool `json:"success"`
	OrderID uint `json:"orderId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return fmt.Errorf("%w: status required", ErrInvalid)
	}
	return nil
}

type UpdateStatusResponse struct {
	Success bool   `json:"success"`
	ID      uint   `json:"id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

const (
	RequestBill = "bill"
	RequestHelp = "help"
)

type TableRequest struct {
	Type string `json:"type"`
}

func (r *TableRequest) Validate() error {
	switch r.Type {
	case RequestBill, RequestHelp:
		return nil
	case "":
		return fmt.Errorf("%w: type required", ErrInvalid)
	default:
		return fmt.Errorf("%w: type must be %q or %q", ErrInvalid, RequestBill, RequestHelp)
	}
}

type CartResponse struct {
	Items []cart.Entry `json:"items"`
}

type PutCartRequest struct {
	Items []cart.Entry `json:"items"`
}

func (r *PutCartRequest) Validate() error {
	for i, it := range r.Items {
		if it.ID == 0 {
			return fmt.Errorf("%w: items[%d].id required", ErrInvalid, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be > 0", ErrInvalid, i)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: items[%d].price must be >= 0", ErrInvalid, i)
		}
	}
	return nil
}

type AddCartItemRequest struct {
	cart.Entry
}

func (r *AddCartItemRequest) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: id required", ErrInvalid)
	}
	if r.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalid)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalid)
	}
	return nil
}

type UpdateCartItemRequest struct {
	Delta int `json:"delta"`
}

func (r *UpdateCartItemRequest) Validate() error {
	if r.Delta == 0 {
		return fmt.Errorf("%w: delta must not be 0", ErrInvalid)
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return fmt.Errorf("%w: username and password required", ErrInvalid)
	}
	return nil
}

type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expiresAt"`
	User      UserView `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
