package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Conn is a database handle pinned to one worker for its whole lifetime.
// It exposes the same operations as DB. A Conn must not be shared between
// goroutines; call Close when the worker exits to hand the handle back.
type Conn struct {
	queries
	conn *sql.Conn
	once sync.Once
	err  error
}

// Acquire pins a dedicated connection from the pool. It blocks only while the
// pool is at its open-connection limit.
func (db *DB) Acquire(ctx context.Context) (*Conn, error) {
	c, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Conn{
		queries: queries{q: c},
		conn:    c,
	}, nil
}

// WithConn acquires a handle, runs fn with it and releases it afterwards.
func (db *DB) WithConn(ctx context.Context, fn func(*Conn) error) error {
	c, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

// Close returns the handle to the pool. It is safe to call more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.err = c.conn.Close()
	})
	return c.err
}
