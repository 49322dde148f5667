package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a connection to the PostgreSQL server receiving pushes.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a small pool to url and checks it is reachable.
func Connect(ctx context.Context, url string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URL: %w", err)
	}

	// One push is one COPY; a couple of connections is plenty
	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
}

// PushOptions controls Push.
type PushOptions struct {
	// Replace drops an existing table first; otherwise rows are appended.
	Replace    bool
	OnProgress ProgressFunc
}

// Push creates t's table if needed and copies its rows in with COPY, inside
// one transaction. It returns the number of rows copied.
func (p *Postgres) Push(ctx context.Context, t *Table, opts PushOptions) (int64, error) {
	var copied int64
	err := p.withTx(ctx, func(tx pgx.Tx) error {
		if opts.Replace {
			if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+quote(t.Name)); err != nil {
				return fmt.Errorf("drop table %s: %w", t.Name, err)
			}
		}
		if _, err := tx.Exec(ctx, createTable(t, postgresType)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}

		n, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{t.Name},
			t.ColumnNames(),
			&copySource{t: t, next: -1, onProgress: opts.OnProgress},
		)
		if err != nil {
			return fmt.Errorf("copy into %s: %w", t.Name, err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if opts.OnProgress != nil {
		opts.OnProgress(t.Len(), t.Len())
	}
	return copied, nil
}

// withTx executes a function within a transaction
func (p *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func postgresType(k Kind) string {
	switch k {
	case KindReal:
		return "double precision"
	case KindBool:
		return "boolean"
	}
	return "text"
}

// copySource streams table rows to CopyFrom without materializing them.
type copySource struct {
	t          *Table
	next       int
	onProgress ProgressFunc
}

func (s *copySource) Next() bool {
	s.next++
	if s.onProgress != nil && s.next > 0 && s.next%progressEvery == 0 {
		s.onProgress(s.next, s.t.Len())
	}
	return s.next < s.t.Len()
}

func (s *copySource) Values() ([]any, error) {
	return s.t.Values(s.next), nil
}

func (s *copySource) Err() error {
	return nil
}
