// Package datastore defines the generic relational client the lifecycle and
// aggregation layers read and write through. Rows are untyped column maps so
// callers can tolerate column sets that drift between deployments.
package datastore

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by Update when no row carries the given id.
	ErrNotFound = errors.New("datastore: row not found")
	// ErrUndefinedColumn marks writes that referenced a column the relation lacks.
	ErrUndefinedColumn = errors.New("undefined column")
	// ErrDuplicateKey marks inserts whose primary or unique key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Client is the query/mutation surface every store implements.
type Client interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, values Row) (Row, error)
	Update(ctx context.Context, table string, id string, values Row) (Row, error)
	Delete(ctx context.Context, table string, id string) error
	// Sample returns up to n arbitrary rows of table.
	Sample(ctx context.Context, table string, n int) ([]Row, error)
}

// Transactor is implemented by clients that can run several writes atomically.
// fn receives a client bound to the transaction; returning an error rolls back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Client) error) error
}

// Nested declares a relation embedded into each selected row. The child row
// matches when child.ForeignColumn equals parent.LocalColumn. Many embeds a
// list, otherwise a single row or nil.
type Nested struct {
	Name          string
	Table         string
	LocalColumn   string
	ForeignColumn string
	Many          bool
	Order         []Order
	Children      []Nested
}

// NestedSelector is implemented by clients that can fetch a row together with
// its related rows in one round trip.
type NestedSelector interface {
	SelectNested(ctx context.Context, q Query, nested []Nested) ([]Row, error)
}

// ColumnLister is implemented by clients that can read a relation's columns
// from the catalog.
type ColumnLister interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// GetByID fetches one row by primary key. Returns nil, nil when absent.
func GetByID(ctx context.Context, c Client, table, id string) (Row, error) {
	rows, err := c.Select(ctx, Query{Table: table, Filters: []Filter{Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// IsUndefinedColumn reports whether err says a written column does not exist.
func IsUndefinedColumn(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUndefinedColumn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42703"
	}
	return strings.Contains(err.Error(), "does not exist") && strings.Contains(err.Error(), "column")
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
