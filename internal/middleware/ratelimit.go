package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/class-booking/internal/config"
	"github.com/iliyamo/class-booking/internal/utils"
)

// refillScript keeps {tokens, ts} per key and refills continuously at
// rate tokens per millisecond.  Returns {allowed, remaining, retry_ms}.
var refillScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if tokens == nil or ts == nil then
	tokens = capacity
	ts = now
end
tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry = 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	retry = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return { allowed, math.floor(tokens), retry }
`)

// authPathPrefix marks the sign-in routes, which get their own bucket.
const authPathPrefix = "/v1/auth/"

var errScriptReply = errors.New("unexpected rate limit script reply")

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

type bucket struct {
	rdb  *redis.Client
	rate float64 // tokens per millisecond
	ttl  time.Duration
}

func (b bucket) take(ctx context.Context, key string, capacity int) (decision, error) {
	vals, err := refillScript.Run(ctx, b.rdb, []string{key},
		time.Now().UnixMilli(), capacity, b.rate, b.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return decision{}, errors.Wrap(err, "rate limit script")
	}
	if len(vals) != 3 {
		return decision{}, errScriptReply
	}
	return decision{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		retry:     time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per caller with a Redis-backed token
// bucket.  Sign-in routes draw from a separate, smaller bucket.  Without a
// client, or when disabled, every request passes; Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	intervalMs := cfg.RefillInterval.Milliseconds()
	if intervalMs < 1 {
		intervalMs = 1
	}
	b := bucket{
		rdb:  rdb,
		rate: float64(cfg.RefillTokens) / float64(intervalMs),
		ttl:  cfg.TTL,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, capacity := buildRateKey(cfg, c), cfg.Capacity
			if cfg.AuthCapacity > 0 && strings.HasPrefix(c.Request().URL.Path, authPathPrefix) {
				key, capacity = cfg.Prefix+":auth:"+realIP(c), cfg.AuthCapacity
			}

			d, err := b.take(c.Request().Context(), key, capacity)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit %s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !d.allowed {
				h.Set("Retry-After", strconv.Itoa(int((d.retry+time.Second-1)/time.Second)))
				return utils.JSONFail(c, http.StatusTooManyRequests, "rate limit exceeded", "TOO_MANY_REQUESTS")
			}
			return next(c)
		}
	}
}

var keyStrategies = map[string][]string{
	"ip":         {"ip"},
	"user":       {"user"},
	"route":      {"route"},
	"ip_user":    {"ip", "user"},
	"ip_route":   {"ip", "route"},
	"user_route": {"user", "route"},
}

func realIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// buildRateKey joins the prefix with the parts named by the key strategy,
// e.g. "rl:ip:10.0.0.7:user:guest".  Unknown strategies use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts, ok := keyStrategies[strings.ToLower(cfg.KeyStrategy)]
	if !ok {
		parts = []string{"ip", "user", "route"}
	}
	key := []string{cfg.Prefix}
	for _, p := range parts {
		switch p {
		case "ip":
			key = append(key, p, realIP(c))
		case "user":
			key = append(key, p, userKey(c))
		case "route":
			key = append(key, p, c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(key, ":")
}
