package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/service"
	"github.com/Skotchmaster/orbitdine/internal/transport"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
	middleware "github.com/Skotchmaster/orbitdine/pkg/middleware/auth"
	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login", err)
	}
	if err := req.Validate(); err != nil {
		l.Warn("login_error", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "username and password required")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login", err)
	}

	c.SetCookie(tokens.CreateCookie(middleware.AccessCookie, res.Token, "/", res.ExpiresAt))
	l.Info("login_successful", "user_id", res.User.ID, "role", res.User.Role)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
		User: transport.UserView{
			ID:       strconv.FormatUint(uint64(res.User.ID), 10),
			Username: res.User.Username,
			Role:     string(res.User.Role),
		},
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFromEcho(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": transport.UserView{
			ID:       claims.Subject,
			Username: claims.Username,
			Role:     claims.Role,
		},
		"expiresAt": claims.ExpiresAt.Unix(),
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie(middleware.AccessCookie, "/"))
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}
