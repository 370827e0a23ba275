package config

// Redis backs the request rate limiter only.  When the server cannot be
// reached at startup the constructor returns nil and the limiter is skipped.

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment.  REDIS_URL
// (redis:// or rediss://) wins over the discrete variables:
//
//	REDIS_HOST, REDIS_PORT   server address (or REDIS_ADDR as host:port)
//	REDIS_PASSWORD           optional password
//	REDIS_DB                 database number, default 0
//	REDIS_TLS                "true" or "1" to dial with TLS
//	REDIS_TLS_INSECURE       skip certificate verification
func RedisOptions() (*redis.Options, error) {
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		opt, err := redis.ParseURL(raw)
		return opt, errors.Wrap(err, "REDIS_URL")
	}

	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	opt := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		opt.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: envBool("REDIS_TLS_INSECURE", false), //nolint:gosec
		}
	}
	return opt, nil
}

// NewRedisClient connects with RedisOptions and pings once.  It returns nil
// when REDIS_DISABLED is set, the options are invalid, or the ping fails.
func NewRedisClient(ctx context.Context) *redis.Client {
	if envBool("REDIS_DISABLED", false) {
		return nil
	}
	opt, err := RedisOptions()
	if err != nil {
		log.Warnf("redis: %v, rate limiting disabled", err)
		return nil
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnf("redis: %s unreachable, rate limiting disabled: %v", opt.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
