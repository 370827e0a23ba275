package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/iliyamo/class-booking/internal/config"
	"github.com/iliyamo/class-booking/internal/model"
)

// OpenMySQL dials MySQL with the pool settings from cfg and pings it.
// Times are parsed into time.Time and kept in UTC.
func OpenMySQL(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dc := mysql.NewConfig()
	dc.User = cfg.DBUser
	dc.Passwd = cfg.DBPass
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	dc.DBName = cfg.DBName
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}

	connector, err := mysql.NewConnector(dc)
	if err != nil {
		return nil, errors.Wrap(err, "mysql config")
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.DBMaxOpen)
	db.SetMaxIdleConns(cfg.DBMaxOpen)
	db.SetConnMaxLifetime(cfg.DBConnMaxLife)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "mysql ping %s", dc.Addr)
	}
	return db, nil
}

func gormConfig(debug bool) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(debug),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// OpenGorm wraps an already pooled MySQL handle in a GORM session.
func OpenGorm(sqlDB *sql.DB, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: sqlDB}), gormConfig(debug))
	if err != nil {
		return nil, errors.Wrap(err, "gorm mysql")
	}
	return db, nil
}

// OpenSQLite opens a file (or ":memory:") database.  In-memory databases
// are pinned to a single connection so every query sees the same schema.
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, errors.Wrap(err, "gorm sqlite")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect picks the driver named in cfg.
func Connect(cfg config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return OpenSQLite(cfg.DBPath, cfg.Profile.Debug)
	case "mysql", "":
		sqlDB, err := OpenMySQL(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return OpenGorm(sqlDB, cfg.Profile.Debug)
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Migrate creates or updates every table.  Parents are listed before the
// rows that reference them.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Member{},
		&model.Course{},
		&model.ClassBooking{},
		&model.User{},
		&model.RefreshToken{},
	)
}
