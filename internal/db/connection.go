package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tropicaldog17/soroban/internal/config"
)

// DB wraps the GORM runtime engine together with the dialect it speaks and
// the configured per-transaction statement timeout.
type DB struct {
	*gorm.DB
	Dialect            string
	StatementTimeoutMS int
}

// Connect opens the runtime engine from the settings. DatabaseURLAsync is
// used when set, otherwise it is normalized from DatabaseURL. Pool parameters
// apply only here; the migration engine opens short-lived connections.
func Connect(settings config.Settings) (*DB, error) {
	rawURL := settings.DatabaseURLAsync
	if rawURL == "" {
		if settings.DatabaseURL == "" {
			return nil, fmt.Errorf("no database URL configured")
		}
		normalized, err := NormalizeAsyncURL(settings.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rawURL = normalized
	}

	dialect, dsn, err := DriverDSN(rawURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dsn, err = withConnectTimeout(dsn, settings.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool: base size plus overflow
	sqlDB.SetMaxOpenConns(settings.PoolSize + settings.MaxOverflow)
	sqlDB.SetMaxIdleConns(settings.PoolSize)
	sqlDB.SetConnMaxLifetime(settings.PoolRecycle)

	// Test the connection within the connect deadline
	ctx, cancel := context.WithTimeout(context.Background(), settings.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:                 db,
		Dialect:            dialect,
		StatementTimeoutMS: settings.StatementTimeoutMS,
	}, nil
}

// withConnectTimeout appends connect_timeout to a postgres URL unless the
// caller already set one.
func withConnectTimeout(dsn string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("malformed postgres DSN: %w", err)
	}
	q := u.Query()
	if q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(timeout/time.Second)))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetSQLDB returns the underlying *sql.DB
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
