package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unilocator/server/pkg/models"
)

// DefaultOpTimeout bounds every store round trip so a dead backend
// surfaces as a timeout error instead of hanging the caller.
const DefaultOpTimeout = 10 * time.Second

type DB struct {
	*sqlx.DB
	opTimeout time.Duration
}

func NewPostgresDB() (*DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	opTimeout := DefaultOpTimeout
	if envTimeout := os.Getenv("STORE_TIMEOUT"); envTimeout != "" {
		if d, err := time.ParseDuration(envTimeout); err == nil && d > 0 {
			opTimeout = d
		}
	}

	return &DB{DB: db, opTimeout: opTimeout}, nil
}

// WrapDB wraps an existing sqlx connection with the default operation
// timeout. Used by tests that manage their own connection.
func WrapDB(db *sqlx.DB) *DB {
	return &DB{DB: db, opTimeout: DefaultOpTimeout}
}

// OpContext derives a context bounded by the store operation timeout.
// Every repository method goes through this, keeping the timeout policy
// in one place rather than re-implemented per call site.
func (db *DB) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := db.opTimeout
	if timeout == 0 {
		timeout = DefaultOpTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// wrapTimeout converts a context deadline hit inside a store call into the
// typed transient error so callers can branch on retryability.
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrStoreTimeout
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
