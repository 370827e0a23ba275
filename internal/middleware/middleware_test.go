package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/class-booking/internal/config"
	"github.com/iliyamo/class-booking/internal/utils"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/who", func(c echo.Context) error {
		uid, ok := UserID(c)
		require.True(t, ok)
		claims, ok := Claims(c)
		require.True(t, ok)
		assert.Equal(t, "kim@example.com", claims.Email)
		assert.Equal(t, "42", userKey(c))
		return c.JSON(http.StatusOK, uid)
	}, JWTAuth("secret"))

	tok, err := utils.NewAccessToken("secret", utils.TokenSubject{ID: 42, Email: "kim@example.com"}, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(echo.HeaderAuthorization, tok.Bearer())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42\n", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_code":"UNAUTHORIZED"`)
}

func TestTrustedHosts(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/", ok, TrustedHosts([]string{"api.example.com", "*.academy.kr"}))

	for host, want := range map[string]int{
		"api.example.com":      http.StatusNoContent,
		"api.example.com:8000": http.StatusNoContent,
		"seoul.academy.kr":     http.StatusNoContent,
		"evil.com":             http.StatusBadRequest,
		"academy.kr.evil.com":  http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, host)
	}
}

func TestTrustedHosts_Wildcard(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, TrustedHosts([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "anything.local"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokenBucket_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/members/list", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/members/list")

	assert.Equal(t, "rl:ip:10.0.0.7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.7:user:guest", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}, c))

	c.Set(ctxUserID, uint64(9))
	assert.Equal(t, "rl:user:9:route:GET /v1/members/list", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
}

func TestBuildRateKey_UnknownStrategyUsesAllParts(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/courses/register", nil)
	req.RemoteAddr = "10.0.0.8:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/courses/register")

	assert.Equal(t, "x:ip:10.0.0.8:user:guest:route:POST /v1/courses/register",
		buildRateKey(config.RateLimitConfig{Prefix: "x", KeyStrategy: "bogus"}, c))
}
