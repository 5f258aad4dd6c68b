package httpserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/internal/service"
)

const HeaderSessionID = "X-Session-Id"

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", service.ErrValidation, name)
	}
	return uint(v), nil
}

func sessionID(c echo.Context) (string, error) {
	sid := strings.TrimSpace(c.Request().Header.Get(HeaderSessionID))
	if sid == "" {
		return "", fmt.Errorf("%w: %s header required", service.ErrValidation, HeaderSessionID)
	}
	return sid, nil
}
