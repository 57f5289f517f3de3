package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DB wraps the sqlite handle. Access is funneled through a single
// connection so that statements from concurrent requests are linearized;
// the expected request volume does not justify a pool.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the sqlite database at path and applies the
// embedded schema. Any failure here is a startup error: the process must
// not serve without a working store.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database at %s: %w", path, err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Info("database ready", "path", path)
	return &DB{conn: conn}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close shuts down the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
