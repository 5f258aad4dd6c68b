package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/service"
	"github.com/Skotchmaster/orbitdine/internal/transport"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

// cartKey reads the session header and the :tableId path param.
func cartKey(c echo.Context) (string, uint, error) {
	sid, err := sessionID(c)
	if err != nil {
		return "", 0, err
	}
	tableID, err := uintParam(c, "tableId")
	if err != nil {
		return "", 0, err
	}
	return sid, tableID, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "get_cart", err)
	}

	items, err := h.Svc.Get(ctx, sid, tableID)
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Items: items})
}

func (h *CartHTTP) PutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.put_cart")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "put_cart", err)
	}

	var req transport.PutCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "put_cart", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(l, "put_cart", err)
	}

	if err := h.Svc.Replace(ctx, sid, tableID, req.Items); err != nil {
		return fail(l, "put_cart", err)
	}
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "clear_cart", err)
	}

	if err := h.Svc.Clear(ctx, sid, tableID); err != nil {
		return fail(l, "clear_cart", err)
	}
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "add_item", err)
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(l, "add_item", err)
	}

	items, err := h.Svc.AddItem(ctx, sid, tableID, req.Entry)
	if err != nil {
		return fail(l, "add_item", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Items: items})
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "update_item", err)
	}
	itemID, err := uintParam(c, "itemId")
	if err != nil {
		return fail(l, "update_item", err)
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_item", err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(l, "update_item", err)
	}

	items, err := h.Svc.UpdateQuantity(ctx, sid, tableID, itemID, req.Delta)
	if err != nil {
		return fail(l, "update_item", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Items: items})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	sid, tableID, err := cartKey(c)
	if err != nil {
		return fail(l, "remove_item", err)
	}
	itemID, err := uintParam(c, "itemId")
	if err != nil {
		return fail(l, "remove_item", err)
	}

	items, err := h.Svc.RemoveItem(ctx, sid, tableID, itemID)
	if err != nil {
		return fail(l, "remove_item", err)
	}
	return c.JSON(http.StatusOK, transport.CartResponse{Items: items})
}
