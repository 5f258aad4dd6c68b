package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/models"
	middleware "github.com/Skotchmaster/orbitdine/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler    *OrderHTTP
	CartHandler     *CartHTTP
	AuthHandler     *AuthHTTP
	RealtimeHandler *RealtimeHTTP
	Gate            *middleware.RoleGate
	// Ready reports whether the backing stores answer.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	staff := d.Gate.RequireRoles(models.StaffRoles...)

	api := e.Group("/api")
	api.GET("/menu", d.OrderHandler.Menu)
	api.GET("/tables", d.OrderHandler.ListTables, staff)
	api.POST("/tables/:id/request", d.OrderHandler.TableRequest)

	cart := api.Group("/cart/:tableId")
	cart.GET("", d.CartHandler.GetCart)
	cart.PUT("", d.CartHandler.PutCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:itemId", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:itemId", d.CartHandler.RemoveItem)

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/active", d.OrderHandler.ListActive, staff)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/status", d.OrderHandler.UpdateStatus, staff)
	orders.GET("/:id/print", d.OrderHandler.Print, staff)

	auth := api.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, staff)

	if d.RealtimeHandler != nil {
		e.GET("/ws", d.RealtimeHandler.Serve)
	}
}
