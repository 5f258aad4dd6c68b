package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/service"
	"github.com/Skotchmaster/orbitdine/internal/transport"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
)

type OrderHTTP struct {
	Svc  *service.OrderService
	Cart *service.CartService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", err)
	}

	order, err := h.Svc.CreateOrder(ctx, req)
	if err != nil {
		return fail(l, "create_order", err)
	}

	// the order is committed; a stale cart is only cosmetic
	if sid, err := sessionID(c); err == nil && h.Cart != nil {
		if err := h.Cart.Clear(ctx, sid, order.TableID); err != nil {
			l.Warn("clear_cart_error", "table_id", order.TableID, "error", err)
		}
	}

	l.Info("create_order_success", "order_id", order.ID, "table_id", order.TableID)
	return c.JSON(http.StatusCreated, transport.CreateOrderResponse{Success: true, OrderID: order.ID})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "get_order", err)
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListActive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_active")

	orders, err := h.Svc.ListActive(ctx)
	if err != nil {
		return fail(l, "list_active", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "update_status", err)
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(l, "update_status", err)
	}

	status, changed, err := h.Svc.AdvanceStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", id, "status", status, "changed", changed)
	return c.JSON(http.StatusOK, transport.UpdateStatusResponse{
		Success: true,
		ID:      id,
		Status:  string(status),
		Changed: changed,
	})
}

func (h *OrderHTTP) Print(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.print")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "print_order", err)
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "print_order", err)
	}

	return c.JSON(http.StatusOK, PrintResponse{OrderDetail: *order, Ticket: Ticket(*order)})
}

func (h *OrderHTTP) TableRequest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "table.request")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "table_request", err)
	}

	var req transport.TableRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "table_request", err)
	}

	if err := h.Svc.TableRequest(ctx, id, req); err != nil {
		return fail(l, "table_request", err)
	}
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *OrderHTTP) ListTables(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "table.list")

	tables, err := h.Svc.ListTables(ctx)
	if err != nil {
		return fail(l, "list_tables", err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *OrderHTTP) Menu(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "menu.list")

	menu, err := h.Svc.Menu(ctx)
	if err != nil {
		return fail(l, "menu", err)
	}
	return c.JSON(http.StatusOK, menu)
}
