package postgres

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// fakeTx records statements and answers from canned results. Methods the
// repository does not use panic through the embedded nil interface.
type fakeTx struct {
	pgx.Tx

	execs     []execCall
	execErr   map[string]error
	execTag   map[string]pgconn.CommandTag
	batch     *fakeBatchResults
	batchLen  int
	row       pgx.Row
	commitErr error

	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, execCall{sql: sql, args: args})
	if err := tx.execErr[sql]; err != nil {
		return pgconn.CommandTag{}, err
	}
	return tx.execTag[sql], nil
}

func (tx *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	tx.batchLen = b.Len()
	return tx.batch
}

func (tx *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return tx.row
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.commitErr != nil {
		return tx.commitErr
	}
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeBatchResults struct {
	tags   []pgconn.CommandTag
	errs   []error
	next   int
	closed bool
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	i := b.next
	b.next++
	if i < len(b.errs) && b.errs[i] != nil {
		return pgconn.CommandTag{}, b.errs[i]
	}
	if i < len(b.tags) {
		return b.tags[i], nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, fmt.Errorf("not supported") }
func (b *fakeBatchResults) QueryRow() pgx.Row { return fakeRow{err: fmt.Errorf("not supported")} }

func (b *fakeBatchResults) Close() error {
	b.closed = true
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

// fakeRows serves fixed rows. It implements pgx.Rows.
type fakeRows struct {
	pgx.Rows

	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(values[i]))
	}
	return nil
}
