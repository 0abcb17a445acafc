// Package db manages the chat cache database: schema, connection handles and
// every query the application runs against it.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultPath is the database file name used when no path is configured.
const DefaultPath = "chat_cache.db"

// Default connection settings.
const (
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 8
)

// ErrBusy is returned when the database stayed locked past the busy timeout.
var ErrBusy = errors.New("database is busy")

// querier is the statement surface shared by the pool and a pinned connection.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// queries implements every operation on top of a querier. It is embedded by
// both DB (pooled) and Conn (pinned), so the two expose the same methods.
type queries struct {
	q querier
}

// DB wraps the SQL connection pool with application-specific methods.
type DB struct {
	*sql.DB
	queries
	path        string
	busyTimeout time.Duration
}

// Option configures a DB.
type Option func(*options)

type options struct {
	busyTimeout  time.Duration
	maxOpenConns int
}

// WithBusyTimeout sets how long a statement waits on a locked database
// before failing.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithMaxOpenConns bounds the number of handles the pool hands out.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// New opens the database at path, creating the file and its directory if
// needed, and makes sure the schema exists.
func New(path string, opts ...Option) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	o := options{
		busyTimeout:  defaultBusyTimeout,
		maxOpenConns: defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path, o.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetMaxIdleConns(o.maxOpenConns)

	db := &DB{
		DB:          sqlDB,
		queries:     queries{q: sqlDB},
		path:        path,
		busyTimeout: o.busyTimeout,
	}

	if err := db.bootstrap(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// dsn builds the driver connection string. Pragmas travel in the DSN so that
// every connection the pool opens gets them, not only the first one.
func dsn(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "foreign_keys(ON)")
	params.Set("_txlock", "immediate")
	return "file:" + filepath.ToSlash(path) + "?" + params.Encode()
}

// bootstrap creates the schema through a short-lived connection of its own,
// independent of any handle a worker may later acquire.
func (db *DB) bootstrap(ctx context.Context) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := fixLegacyTimeFormats(ctx, conn); err != nil {
		return fmt.Errorf("failed to fix legacy time formats: %w", err)
	}

	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// BusyTimeout returns the configured lock wait.
func (db *DB) BusyTimeout() time.Duration {
	return db.busyTimeout
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "VACUUM")
	return err
}

// withTx runs fn inside one transaction on q. Every public mutation goes
// through here so that it commits or rolls back as a single unit.
func (qs queries) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := qs.q.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// classify tags lock contention with ErrBusy so callers can tell it apart
// from a broken database.
func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", ErrBusy, err)
	}
	return err
}
