package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"BlenderChat/models"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is an open store handle plus whatever must be released with it.
type DB struct {
	Gorm    *gorm.DB
	Dialect string
	pool    *pgxpool.Pool
}

// Options tunes the connection pool.
type Options struct {
	MaxConns int
}

// Open connects to the store named by a SQLAlchemy style URL and verifies it.
// Supported schemes:
//   - postgres://, postgresql://, postgresql+psycopg2:// and other "+driver" variants
//   - mysql://, mysql+pymysql://
//   - sqlite://, sqlite:///relative.db, sqlite:////abs/path.db, sqlite:///:memory:
func Open(ctx context.Context, rawURL string, opts Options) (*DB, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch dialect {
	case "postgres":
		pool, err := connectPostgres(ctx, dsn, opts)
		if err != nil {
			return nil, err
		}
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gcfg)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: gorm open: %w", err)
		}
		return &DB{Gorm: gdb, Dialect: dialect, pool: pool}, nil
	case "mysql":
		gdb, err := gorm.Open(mysql.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("mysql: open: %w", err)
		}
		if err := pingAndTune(ctx, gdb, opts); err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		return &DB{Gorm: gdb, Dialect: dialect}, nil
	case "sqlite":
		gdb, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("sqlite: open: %w", err)
		}
		if err := pingAndTune(ctx, gdb, opts); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &DB{Gorm: gdb, Dialect: dialect}, nil
	}
	return nil, fmt.Errorf("database: unsupported dialect %q", dialect)
}

// Migrate creates the activity table if it does not exist.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("database: nil handle")
	}
	if err := db.AutoMigrate(&models.ActivityRecord{}); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Close releases the handle and, for postgres, the pgx pool behind it.
func (d *DB) Close() error {
	if d == nil || d.Gorm == nil {
		return nil
	}
	var err error
	if sqlDB, e := d.Gorm.DB(); e == nil {
		err = sqlDB.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// ParseURL maps a SQLAlchemy style URL to a dialect and a driver DSN.
func ParseURL(rawURL string) (dialect, dsn string, err error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", "", errors.New("database: empty url")
	}
	i := strings.Index(s, "://")
	if i <= 0 {
		return "", "", fmt.Errorf("database: url %q has no scheme", s)
	}
	scheme := strings.ToLower(s[:i])
	rest := s[i+3:]
	// drop SQLAlchemy driver suffixes, e.g. postgresql+psycopg2
	if j := strings.Index(scheme, "+"); j >= 0 {
		scheme = scheme[:j]
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres", scheme + "://" + rest, nil
	case "mysql", "mariadb":
		dsn, err := mysqlDSN(rest)
		return "mysql", dsn, err
	case "sqlite", "sqlite3":
		return "sqlite", sqlitePath(rest), nil
	}
	return "", "", fmt.Errorf("database: unsupported scheme %q", scheme)
}

func mysqlDSN(rest string) (string, error) {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", fmt.Errorf("mysql: parse url: %w", err)
	}
	cfg := mysqldrv.NewConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" && u.Host != "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	for k, vs := range u.Query() {
		if len(vs) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[k] = vs[0]
	}
	return cfg.FormatDSN(), nil
}

// sqlitePath follows SQLAlchemy: sqlite:// and sqlite:///:memory: are in
// memory, sqlite:///x.db is relative and sqlite:////x.db is absolute.
func sqlitePath(rest string) string {
	p := strings.TrimPrefix(rest, "/")
	if p == "" || p == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return p
}

func pingAndTune(ctx context.Context, gdb *gorm.DB, opts Options) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	tune(sqlDB, opts)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func tune(sqlDB *sql.DB, opts Options) {
	if opts.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)
}

// connectPostgres creates a pgx pool and verifies connectivity with a ping.
func connectPostgres(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = 60 * time.Minute
	}
	if cfg.HealthCheckPeriod == 0 {
		cfg.HealthCheckPeriod = time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	log.Printf("[store] postgres pool ready (max_conns=%d)", cfg.MaxConns)
	return pool, nil
}
