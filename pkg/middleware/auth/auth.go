package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
	ContextRole   = "role"

	// AccessCookie is read when no Authorization header is sent.
	AccessCookie = "accessToken"
)

type claimsKey struct{}

// RoleGate checks session tokens issued by Codec.
type RoleGate struct {
	Codec *tokens.Codec
}

func NewRoleGate(codec *tokens.Codec) *RoleGate {
	return &RoleGate{Codec: codec}
}

// RequireRoles answers 401 without a valid token and 403 when the role is not allowed.
func (m *RoleGate) RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := m.Codec.Verify(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if _, ok := allowed[claims.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}

			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.Subject)
			c.Set(ContextRole, claims.Role)
			req := c.Request()
			c.SetRequest(req.WithContext(WithClaims(req.Context(), claims)))

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func WithClaims(ctx context.Context, claims *tokens.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*tokens.Claims)
	return claims, ok
}

func ClaimsFromEcho(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(ContextClaims).(*tokens.Claims)
	return claims, ok
}
