package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGClient implements Client, Transactor, NestedSelector and ColumnLister on
// a pgx pool.
type PGClient struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPGClient creates a client backed by pool.
func NewPGClient(pool *pgxpool.Pool) *PGClient {
	return &PGClient{pool: pool, db: pool}
}

func (c *PGClient) Select(ctx context.Context, q Query) ([]Row, error) {
	args := make([]any, 0, len(q.Filters))
	where, err := buildWhere("", q.Filters, &args)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		selectList(q.Columns), ident(q.Table), where, buildOrder("", q.Order), buildLimit(q.Limit))
	return c.queryRows(ctx, sql, args...)
}

func (c *PGClient) Insert(ctx context.Context, table string, values Row) (Row, error) {
	cols := values.Columns()
	if len(cols) == 0 {
		rows, err := c.queryRows(ctx, fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", ident(table)))
		if err != nil {
			return nil, err
		}
		return first(rows), nil
	}

	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		names[i] = ident(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = encodeValue(values[col])
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	rows, err := c.queryRows(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

func (c *PGClient) Update(ctx context.Context, table string, id string, values Row) (Row, error) {
	cols := values.Columns()
	if len(cols) == 0 {
		row, err := GetByID(ctx, c, table, id)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, ErrNotFound
		}
		return row, nil
	}

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		args = append(args, encodeValue(values[col]))
		sets[i] = fmt.Sprintf("%s = $%d", ident(col), i+1)
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		ident(table), strings.Join(sets, ", "), len(args))
	rows, err := c.queryRows(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (c *PGClient) Delete(ctx context.Context, table string, id string) error {
	_, err := c.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", ident(table)), id)
	return err
}

func (c *PGClient) Sample(ctx context.Context, table string, n int) ([]Row, error) {
	return c.queryRows(ctx, fmt.Sprintf("SELECT * FROM %s%s", ident(table), buildLimit(n)))
}

// Columns lists the relation's columns from information_schema.
func (c *PGClient) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (c *PGClient) WithTx(ctx context.Context, fn func(tx Client) error) error {
	if c.pool == nil || c.db != c.pool {
		return fn(c)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&PGClient{db: tx}); err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

// SelectNested embeds the declared relations as jsonb objects and arrays so
// the whole tree comes back in one statement.
func (c *PGClient) SelectNested(ctx context.Context, q Query, nested []Nested) ([]Row, error) {
	args := make([]any, 0, len(q.Filters))
	where, err := buildWhere("t0", q.Filters, &args)
	if err != nil {
		return nil, err
	}

	counter := 0
	doc := nestedObject("t0", nested, &counter)
	sql := fmt.Sprintf("SELECT %s AS doc FROM %s t0%s%s%s",
		doc, ident(q.Table), where, buildOrder("t0", q.Order), buildLimit(q.Limit))

	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(docs))
	for _, raw := range docs {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decode nested row: %w", err)
		}
		out = append(out, Row(row))
	}
	return out, nil
}

func nestedObject(alias string, nested []Nested, counter *int) string {
	if len(nested) == 0 {
		return fmt.Sprintf("to_jsonb(%s)", alias)
	}

	pairs := make([]string, 0, len(nested))
	for _, n := range nested {
		*counter++
		child := fmt.Sprintf("t%d", *counter)
		inner := nestedObject(child, n.Children, counter)
		join := fmt.Sprintf("%s.%s = %s.%s", child, ident(n.ForeignColumn), alias, ident(n.LocalColumn))

		var sub string
		if n.Many {
			sub = fmt.Sprintf("(SELECT COALESCE(jsonb_agg(%s%s), '[]'::jsonb) FROM %s %s WHERE %s)",
				inner, buildOrder(child, n.Order), ident(n.Table), child, join)
		} else {
			sub = fmt.Sprintf("(SELECT %s FROM %s %s WHERE %s LIMIT 1)", inner, ident(n.Table), child, join)
		}
		pairs = append(pairs, fmt.Sprintf("'%s', %s", strings.ReplaceAll(n.Name, "'", ""), sub))
	}
	return fmt.Sprintf("to_jsonb(%s) || jsonb_build_object(%s)", alias, strings.Join(pairs, ", "))
}

func (c *PGClient) queryRows(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		row := make(Row, len(m))
		for k, v := range m {
			row[k] = decodeValue(v)
		}
		out = append(out, row)
	}
	return out, nil
}

func decodeValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return v
	}
}

func encodeValue(v any) any {
	switch x := v.(type) {
	case Row:
		return map[string]any(x)
	case []Row:
		out := make([]map[string]any, len(x))
		for i, r := range x {
			out[i] = map[string]any(r)
		}
		return out
	default:
		return v
	}
}

func buildWhere(alias string, filters []Filter, args *[]any) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		col := qualified(alias, f.Column)
		switch f.Op {
		case OpIsNull:
			if null, _ := f.Value.(bool); null {
				clauses = append(clauses, col+" IS NULL")
			} else {
				clauses = append(clauses, col+" IS NOT NULL")
			}
		case OpIn:
			values, err := f.InValues()
			if err != nil {
				return "", err
			}
			*args = append(*args, values)
			clauses = append(clauses, fmt.Sprintf("%s::text = ANY($%d::text[])", col, len(*args)))
		default:
			op, ok := sqlOps[f.Op]
			if !ok {
				return "", fmt.Errorf("datastore: unsupported filter op %q", f.Op)
			}
			*args = append(*args, f.Value)
			clauses = append(clauses, fmt.Sprintf("%s %s $%d", col, op, len(*args)))
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

func buildOrder(alias string, order []Order) string {
	if len(order) == 0 {
		return ""
	}
	return " ORDER BY " + orderTerms(alias, order)
}

func orderTerms(alias string, order []Order) string {
	terms := make([]string, len(order))
	for i, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms[i] = qualified(alias, o.Column) + " " + dir
	}
	return strings.Join(terms, ", ")
}

func buildLimit(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func selectList(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	cols := append([]string(nil), columns...)
	sort.Strings(cols)
	for i, col := range cols {
		cols[i] = ident(col)
	}
	return strings.Join(cols, ", ")
}

func qualified(alias, column string) string {
	if alias == "" {
		return ident(column)
	}
	return alias + "." + ident(column)
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func first(rows []Row) Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

var (
	_ Client         = (*PGClient)(nil)
	_ Transactor     = (*PGClient)(nil)
	_ NestedSelector = (*PGClient)(nil)
	_ ColumnLister   = (*PGClient)(nil)
)
