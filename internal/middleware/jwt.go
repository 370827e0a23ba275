package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/utils"
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's claims into the request context.  The provided secret
// must match the one used when issuing tokens.  Handlers read the caller via
// UserID and Claims.  Missing or invalid tokens are answered with a 401 fail
// envelope before the handler runs.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return utils.JSONFail(c, http.StatusUnauthorized, "missing bearer token", "UNAUTHORIZED")
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return utils.JSONFail(c, http.StatusUnauthorized, "invalid token", "UNAUTHORIZED")
			}
			uid, _ := claims.UserID()
			c.Set(ctxUserID, uid)
			c.Set(ctxClaims, claims)
			return next(c)
		}
	}
}
