package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"

	"github.com/joho/godotenv"        // optional .env file for local runs
	"github.com/labstack/gommon/log" // log is used to report configuration errors and halt execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string         // application environment (local, prod, test)
	Port           string         // HTTP port to listen on
	DBDriver       string         // "mysql" or "sqlite"
	DBUser         string         // database username
	DBPass         string         // database password (optional)
	DBHost         string         // database host address
	DBPort         string         // database port number
	DBName         string         // database name
	DBPath         string         // sqlite file path when DBDriver is sqlite
	DBMaxOpen      int            // pool size for mysql
	DBConnMaxLife  time.Duration  // recycle pooled mysql connections after this
	AutoMigrate    bool           // run schema migration at startup
	JWTSecret      string         // secret used to sign JWTs
	AccessTTLMin   int            // access token time-to-live in minutes
	RefreshTTLDays int            // refresh token time-to-live in days
	BcryptCost     int            // bcrypt cost for password hashing
	GoogleClientID string         // audience accepted for Google ID tokens
	Timezone       *time.Location // calendar used for same-day booking rules
	FaceStorePath  string         // on-disk embedding blob
	AMQPURL        string         // RabbitMQ url; empty disables booking events
	Profile        Profile
}

// Profile groups the handful of values that differ between environments.
type Profile struct {
	Debug        bool
	TestMode     bool
	TrustedHosts []string
	AllowOrigins []string
}

// ProfileFor returns the settings for an APP_ENV value.  Unknown values
// fall back to the local profile.
func ProfileFor(env string) Profile {
	switch strings.ToLower(env) {
	case "prod":
		return Profile{
			TrustedHosts: splitList(envStr("TRUSTED_HOSTS", "*")),
			AllowOrigins: splitList(envStr("ALLOW_SITE", "*")),
		}
	case "test":
		return Profile{
			Debug:        true,
			TestMode:     true,
			TrustedHosts: []string{"*"},
			AllowOrigins: []string{"*"},
		}
	default:
		return Profile{
			Debug:        true,
			TrustedHosts: []string{"*"},
			AllowOrigins: []string{"*"},
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Info("config: loaded .env")
	}

	env := envStr("APP_ENV", "local")
	cfg := Config{
		Env:            env,
		Port:           envStr("APP_PORT", "8000"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBPath:         envStr("DB_PATH", "class_booking.db"),
		DBMaxOpen:      envInt("DB_MAX_OPEN_CONNS", 25),
		DBConnMaxLife:  envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 14),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		Timezone:       mustLocation(envStr("APP_TIMEZONE", "UTC")),
		FaceStorePath:  envStr("FACE_STORE_PATH", "known_faces.dat"),
		AMQPURL:        firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		Profile:        ProfileFor(env),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", name, err)
	}
	return loc
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
