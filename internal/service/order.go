package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Skotchmaster/orbitdine/internal/models"
	"github.com/Skotchmaster/orbitdine/internal/repo"
	"github.com/Skotchmaster/orbitdine/internal/transport"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
)

const DefaultCustomerName = "Guest"

type OrderStore interface {
	CreateOrder(ctx context.Context, tableID uint, customerName string, total int64, items []models.NewItem) (uint, error)
	FindOrder(ctx context.Context, id uint) (*models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.OrderDetail, error)
	ListActiveOrders(ctx context.Context) ([]models.OrderDetail, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	CompleteOrder(ctx context.Context, id uint) (bool, error)
	GetTable(ctx context.Context, id uint) (*models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	SetTableStatus(ctx context.Context, id uint, status models.TableStatus) error
	ListMenu(ctx context.Context) ([]models.Category, error)
}

type Notifier interface {
	OrderCreated(ctx context.Context, order models.OrderDetail)
	OrderStatusChanged(ctx context.Context, id, tableID uint, status models.OrderStatus)
	TableServiceRequest(ctx context.Context, tableID uint, requestType string)
}

type OrderService struct {
	Store    OrderStore
	Notifier Notifier
}

func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, what, err)
}

// CreateOrder commits the order and then announces it.
func (svc *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.OrderDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Geofence.Outside() {
		return nil, fmt.Errorf("%w: %.0fm away, %.0fm allowed", ErrGeofence, req.Geofence.DistanceMeters, req.Geofence.AllowedMeters)
	}

	var sum int64
	items := make([]models.NewItem, 0, len(req.Items))
	for i, it := range req.Items {
		if it.Price > math.MaxInt64/int64(it.Quantity) {
			return nil, fmt.Errorf("%w: items[%d] line total overflows", ErrValidation, i)
		}
		line := it.Price * int64(it.Quantity)
		if sum > math.MaxInt64-line {
			return nil, fmt.Errorf("%w: order total overflows", ErrValidation)
		}
		sum += line
		items = append(items, models.NewItem{
			MenuItemID: it.ID,
			Quantity:   it.Quantity,
			Notes:      it.Notes,
			Price:      it.Price,
		})
	}
	if req.Total != nil && *req.Total != sum {
		return nil, fmt.Errorf("%w: total %d does not match items %d", ErrValidation, *req.Total, sum)
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = DefaultCustomerName
	}

	id, err := svc.Store.CreateOrder(ctx, req.TableID, name, sum, items)
	if err != nil {
		return nil, storeErr(err, "create order")
	}

	order, err := svc.Store.GetOrder(ctx, id)
	if err != nil {
		// the order is committed; answer with what was written rather than fail
		logging.FromContext(ctx).Warn("load_created_order", "order_id", id, "error", err)
		order = committedOrder(id, req.TableID, name, sum, items)
	}

	svc.notify(ctx, func(n Notifier) { n.OrderCreated(ctx, *order) })
	return order, nil
}

func committedOrder(id, tableID uint, name string, total int64, items []models.NewItem) *models.OrderDetail {
	d := &models.OrderDetail{Order: models.Order{
		ID:           id,
		TableID:      tableID,
		CustomerName: name,
		Status:       models.StatusNew,
		TotalAmount:  total,
		CreatedAt:    time.Now().UTC(),
	}}
	for _, it := range items {
		d.Items = append(d.Items, models.OrderItemDetail{OrderItem: models.OrderItem{
			OrderID:    id,
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Notes:      it.Notes,
			Price:      it.Price,
		}})
	}
	return d
}

func (svc *OrderService) GetOrder(ctx context.Context, id uint) (*models.OrderDetail, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: order id required", ErrValidation)
	}
	order, err := svc.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, fmt.Sprintf("order %d", id))
	}
	return order, nil
}

func (svc *OrderService) ListActive(ctx context.Context) ([]models.OrderDetail, error) {
	orders, err := svc.Store.ListActiveOrders(ctx)
	if err != nil {
		return nil, storeErr(err, "list active orders")
	}
	return orders, nil
}

// AdvanceStatus moves an order forward. Re-applying the current status is a
// no-op and reports changed=false.
func (svc *OrderService) AdvanceStatus(ctx context.Context, id uint, target string) (status models.OrderStatus, changed bool, err error) {
	l := logging.FromContext(ctx).With("svc", "order.advance_status")

	next, perr := models.ParseOrderStatus(target)
	if perr != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidState, perr)
	}

	cur, err := svc.Store.FindOrder(ctx, id)
	if err != nil {
		return "", false, storeErr(err, fmt.Sprintf("order %d", id))
	}

	switch {
	case next == cur.Status:
		return cur.Status, false, nil
	case cur.Status.Terminal():
		return cur.Status, false, fmt.Errorf("%w: order %d is %s", ErrInvalidState, id, cur.Status)
	case next.Rank() < cur.Status.Rank():
		return cur.Status, false, fmt.Errorf("%w: %s -> %s moves backwards", ErrInvalidState, cur.Status, next)
	}

	if next == models.StatusCompleted {
		released, err := svc.Store.CompleteOrder(ctx, id)
		if err != nil {
			return cur.Status, false, storeErr(err, fmt.Sprintf("complete order %d", id))
		}
		if released {
			l.Info("table_released", "table_id", cur.TableID, "order_id", id)
		}
	} else if err := svc.Store.UpdateStatus(ctx, id, next); err != nil {
		return cur.Status, false, storeErr(err, fmt.Sprintf("update order %d", id))
	}

	svc.notify(ctx, func(n Notifier) { n.OrderStatusChanged(ctx, id, cur.TableID, next) })
	return next, true, nil
}

// TableRequest announces a bill or help call from a table; bill also marks
// the table. Unknown tables are ErrNotFound and nothing is published.
func (svc *OrderService) TableRequest(ctx context.Context, tableID uint, req transport.TableRequest) error {
	if tableID == 0 {
		return fmt.Errorf("%w: table id required", ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := svc.Store.GetTable(ctx, tableID); err != nil {
		return storeErr(err, fmt.Sprintf("table %d", tableID))
	}

	if req.Type == transport.RequestBill {
		if err := svc.Store.SetTableStatus(ctx, tableID, models.TableBillRequested); err != nil {
			return storeErr(err, fmt.Sprintf("table %d", tableID))
		}
	}

	svc.notify(ctx, func(n Notifier) { n.TableServiceRequest(ctx, tableID, req.Type) })
	return nil
}

func (svc *OrderService) ListTables(ctx context.Context) ([]models.Table, error) {
	tables, err := svc.Store.ListTables(ctx)
	if err != nil {
		return nil, storeErr(err, "list tables")
	}
	return tables, nil
}

func (svc *OrderService) Menu(ctx context.Context) ([]models.Category, error) {
	menu, err := svc.Store.ListMenu(ctx)
	if err != nil {
		return nil, storeErr(err, "list menu")
	}
	return menu, nil
}

// notify runs after the commit and never fails the caller.
func (svc *OrderService) notify(ctx context.Context, fn func(Notifier)) {
	if svc.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("notify_panic", "panic", r)
		}
	}()
	fn(svc.Notifier)
}
