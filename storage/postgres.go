package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPostgresTable   = "nftmarket_state"
	defaultPostgresTimeout = 5 * time.Second
)

// PostgresConfig selects the database and table holding node state.
type PostgresConfig struct {
	DSN      string
	Table    string
	MaxConns int
	Timeout  time.Duration
}

// PostgresDB keeps node state in a single key/value table. Batches are
// applied inside one transaction.
type PostgresDB struct {
	pool    *pgxpool.Pool
	table   string
	timeout time.Duration
}

// NewPostgresDB connects, verifies the connection and creates the state table
// when it does not exist.
func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres: dsn required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = defaultPostgresTable
	}
	if !validTableName(table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", table)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPostgresTimeout
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	db := &PostgresDB{pool: pool, table: table, timeout: timeout}
	if _, err := pool.Exec(ctx, db.sql(`CREATE TABLE IF NOT EXISTS %s (key BYTEA PRIMARY KEY, value BYTEA NOT NULL)`)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create table: %w", err)
	}
	return db, nil
}

// validTableName accepts lower-case identifiers so the name can be spliced
// into statements.
func validTableName(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}

func (db *PostgresDB) sql(format string) string { return fmt.Sprintf(format, db.table) }

func (db *PostgresDB) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), db.timeout)
}

func (db *PostgresDB) Put(key []byte, value []byte) error {
	ctx, cancel := db.ctx()
	defer cancel()
	_, err := db.pool.Exec(ctx, db.sql(`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`), key, value)
	if err != nil {
		return fmt.Errorf("postgres: put: %w", err)
	}
	return nil
}

func (db *PostgresDB) Get(key []byte) ([]byte, error) {
	ctx, cancel := db.ctx()
	defer cancel()
	var value []byte
	err := db.pool.QueryRow(ctx, db.sql(`SELECT value FROM %s WHERE key = $1`), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get: %w", err)
	}
	return value, nil
}

func (db *PostgresDB) Has(key []byte) (bool, error) {
	ctx, cancel := db.ctx()
	defer cancel()
	var exists bool
	err := db.pool.QueryRow(ctx, db.sql(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1)`), key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: has: %w", err)
	}
	return exists, nil
}

func (db *PostgresDB) Delete(key []byte) error {
	ctx, cancel := db.ctx()
	defer cancel()
	if _, err := db.pool.Exec(ctx, db.sql(`DELETE FROM %s WHERE key = $1`), key); err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// Write applies the batch in one transaction using a single round trip.
func (db *PostgresDB) Write(batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	ctx, cancel := db.ctx()
	defer cancel()
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := db.sql(`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
	remove := db.sql(`DELETE FROM %s WHERE key = $1`)
	queued := &pgx.Batch{}
	for _, op := range batch.ops {
		if op.delete {
			queued.Queue(remove, op.key)
			continue
		}
		queued.Queue(upsert, op.key, op.value)
	}
	if err := tx.SendBatch(ctx, queued).Close(); err != nil {
		return fmt.Errorf("postgres: write batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() {
	db.pool.Close()
}
