package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour used by SQLGateway
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type sqlQueries struct {
	schema string
	get    string
	upsert string
}

var dialectQueries = map[Dialect]sqlQueries{
	DialectSQLite: {
		schema: `
		CREATE TABLE IF NOT EXISTS fitbuddy_records (
			record_key TEXT PRIMARY KEY,
			record_value BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		get: `SELECT record_value FROM fitbuddy_records WHERE record_key = ?`,
		upsert: `
		INSERT INTO fitbuddy_records (record_key, record_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(record_key) DO UPDATE SET record_value = excluded.record_value, updated_at = excluded.updated_at`,
	},
	DialectPostgres: {
		schema: `
		CREATE TABLE IF NOT EXISTS fitbuddy_records (
			record_key TEXT PRIMARY KEY,
			record_value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		get: `SELECT record_value FROM fitbuddy_records WHERE record_key = $1`,
		upsert: `
		INSERT INTO fitbuddy_records (record_key, record_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_key) DO UPDATE SET record_value = EXCLUDED.record_value, updated_at = EXCLUDED.updated_at`,
	},
}

// SQLGateway stores records in a single key/value table. Each Put is one
// upsert statement, so a record is never half written.
type SQLGateway struct {
	db      *sql.DB
	dialect Dialect
	queries sqlQueries
}

// NewSQLiteGateway opens (or creates) a local sqlite database file
func NewSQLiteGateway(ctx context.Context, path string) (*SQLGateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps sqlite free of SQLITE_BUSY under write-through.
	db.SetMaxOpenConns(1)
	return newSQLGateway(ctx, db, DialectSQLite)
}

// NewPostgresGateway connects to postgres using dsn
func NewPostgresGateway(ctx context.Context, dsn string) (*SQLGateway, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLGateway(ctx, db, DialectPostgres)
}

func newSQLGateway(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLGateway, error) {
	g := &SQLGateway{db: db, dialect: dialect, queries: dialectQueries[dialect]}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := g.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return g, nil
}

func (g *SQLGateway) initSchema(ctx context.Context) error {
	_, err := g.db.ExecContext(ctx, g.queries.schema)
	return err
}

// Dialect returns the SQL flavour in use
func (g *SQLGateway) Dialect() Dialect {
	return g.dialect
}

// Get implements Gateway
func (g *SQLGateway) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := g.db.QueryRowContext(ctx, g.queries.get, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return value, nil
}

// Put implements Gateway
func (g *SQLGateway) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, g.queries.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Close implements Gateway
func (g *SQLGateway) Close() error {
	return g.db.Close()
}
