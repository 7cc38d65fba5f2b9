// store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Backend over a kv_store table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL. When migrateSchema is set the embedded
// migrations are applied first.
func OpenPostgres(ctx context.Context, databaseURL string, migrateSchema bool) (*Postgres, error) {
	if migrateSchema {
		if err := MigratePostgres(databaseURL); err != nil {
			return nil, err
		}
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// MigratePostgres applies the embedded postgres migrations.
func MigratePostgres(databaseURL string) error {
	return migrateUp("postgres", pgxMigrationURL(databaseURL))
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifyPgError("get", key, err)
	}
	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
         ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return classifyPgError("put", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key); err != nil {
		return classifyPgError("delete", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func classifyPgError(op, key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return fmt.Errorf("postgres %s %s: %w (run `saga-studio migrate`): %w", op, key, ErrSchemaMissing, err)
		case pgerrcode.ProgramLimitExceeded, pgerrcode.StringDataRightTruncationDataException, pgerrcode.DiskFull:
			return fmt.Errorf("postgres %s %s: %w: %w", op, key, ErrQuota, err)
		}
	}
	return fmt.Errorf("postgres %s %s: %w", op, key, err)
}
