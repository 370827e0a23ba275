package middleware

// identity.go holds the context keys set by JWTAuth and the accessors
// handlers and other middleware use to read them.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/utils"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(ctxUserID).(uint64)
	return uid, ok && uid != 0
}

// Claims returns the verified access token claims, if any.
func Claims(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(ctxClaims).(*utils.Claims)
	return cl, ok
}

// userKey identifies the caller for rate limiting.  It returns "guest" when
// no user is authenticated.
func userKey(c echo.Context) string {
	if uid, ok := UserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return "guest"
}
