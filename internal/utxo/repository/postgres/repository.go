// Package postgres stores address records and scan progress in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

const pgErrUniqueViolation = "23505"

// ErrAggregationFailure means deduplication was rolled back.
var ErrAggregationFailure = errors.New("aggregation failure")

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// DB is the subset of *pgxpool.Pool used by the repository.
	DB interface {
		Begin(ctx context.Context) (pgx.Tx, error)
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Close()
	}
)

type Repository struct {
	db      DB
	metrics Metrics
	// afterDelete runs inside the deduplication transaction once rows are deleted.
	afterDelete func(ctx context.Context, tx pgx.Tx) error
}

func NewRepository(ctx context.Context, dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: pool, metrics: metrics}, nil
}

// Close releases the pool.
func (r *Repository) Close() {
	r.db.Close()
}

func (r *Repository) observe(operation string, err error, started time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.Observe(operation, err, started)
}

// mapError turns unique violations into model.ErrPersistenceConflict.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return fmt.Errorf("%w: %s: %w", model.ErrPersistenceConflict, pgErr.ConstraintName, err)
	}
	return err
}

func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
