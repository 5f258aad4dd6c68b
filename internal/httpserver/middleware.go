package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/orbitdine/pkg/middleware/logging"
)

// Common is the middleware chain shared by every route. An empty origin list allows any origin.
func Common(logger *slog.Logger, allowedOrigins []string) []echo.MiddlewareFunc {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(logger),
		ecM.Secure(),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins: origins,
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, HeaderSessionID},
		}),
	}
}
