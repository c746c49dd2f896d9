package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Connection pool limits. The decision core runs a handful of concurrent
// evaluation cycles at most, so a small pool is plenty.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// DB wraps the sql connection pool the repositories share
type DB struct {
	*sql.DB
}

// NewDB opens a pooled connection to Postgres and verifies it with a ping.
// connStr follows lib/pq conventions, e.g.
// "host=localhost port=5432 user=postgres dbname=rebalance sslmode=disable"
// or a postgres:// URL.
func NewDB(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close releases the connection pool
func (db *DB) Close() error {
	return db.DB.Close()
}
