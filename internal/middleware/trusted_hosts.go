package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/class-booking/internal/utils"
)

// TrustedHosts rejects requests whose Host header is not in hosts.  A "*"
// entry allows every host; "*.example.com" allows any subdomain.
func TrustedHosts(hosts []string) echo.MiddlewareFunc {
	allowAll := len(hosts) == 0
	for _, h := range hosts {
		if h == "*" {
			allowAll = true
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if allowAll {
			return next
		}
		return func(c echo.Context) error {
			host := c.Request().Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if hostAllowed(strings.ToLower(host), hosts) {
				return next(c)
			}
			return utils.JSONFail(c, http.StatusBadRequest, "invalid host header", "INVALID_HOST")
		}
	}
}

func hostAllowed(host string, hosts []string) bool {
	for _, h := range hosts {
		h = strings.ToLower(h)
		switch {
		case h == host:
			return true
		case strings.HasPrefix(h, "*.") && strings.HasSuffix(host, h[1:]):
			return true
		}
	}
	return false
}
