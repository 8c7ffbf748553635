package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDatabaseNotInitialized is returned by operations on a nil Database
var ErrDatabaseNotInitialized = errors.New("database not initialized")

// Database owns the GORM handle every repository is built on
type Database struct {
	DB *gorm.DB
}

// Option configures Open
type Option func(*openOptions)

type openOptions struct {
	logger    logger.Interface
	dialector gorm.Dialector
	ping      bool
}

// WithLogger reports SQL through l instead of discarding it
func WithLogger(l logger.Interface) Option {
	return func(o *openOptions) {
		o.logger = l
	}
}

// WithDialector replaces the Postgres dialector, e.g. with an in-memory
// SQLite database
func WithDialector(d gorm.Dialector) Option {
	return func(o *openOptions) {
		o.dialector = d
	}
}

// WithoutPing skips the connectivity check at open
func WithoutPing() Option {
	return func(o *openOptions) {
		o.ping = false
	}
}

// Open connects to the order database and applies the pool limits from cfg.
// Timestamps written through GORM are UTC.
func Open(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{
		logger: logger.Default.LogMode(logger.Silent),
		ping:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialector == nil {
		o.dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(o.dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &Database{DB: db}
	sqlDB, err := d.SQL()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if o.ping {
		if err := sqlDB.Ping(); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}
	return d, nil
}

// SQL returns the pooled connection under the GORM handle
func (d *Database) SQL() (*sql.DB, error) {
	if d == nil || d.DB == nil {
		return nil, ErrDatabaseNotInitialized
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// PingContext checks the connection within ctx's deadline. It backs the
// database health check.
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool
func (d *Database) Close() error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
