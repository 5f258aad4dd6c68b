package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/service"
)

// statusOf maps a service error to an HTTP status and the message shown to the client.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrGeofence):
		return http.StatusForbidden, "you appear to be outside the restaurant geofence"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, "cart temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func fail(l *slog.Logger, op string, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "error", err)
	} else {
		l.Warn(op+"_error", "status", code, "error", err)
	}
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, op string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}
