// Package memory provides an in-process datastore used by tests and local
// development. It mirrors the relational client closely enough to exercise
// column enforcement, nested fetches, transactions and injected failures.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"property_portal_backend/internal/datastore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a map-backed datastore.Client.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	tables   map[string][]datastore.Row
	columns  map[string]map[string]bool
	order    map[string][]string
	failures map[string]error

	// Now stamps created_at on inserts.
	Now func() time.Time
	// DisableNested hides nested selection, forcing callers onto their fallback path.
	DisableNested bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tables:   make(map[string][]datastore.Row),
		columns:  make(map[string]map[string]bool),
		order:    make(map[string][]string),
		failures: make(map[string]error),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// DefineColumns declares the relation's column set. Writes naming any other
// column then fail the way Postgres does.
func (s *Store) DefineColumns(table string, cols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]bool, len(cols))
	for _, col := range cols {
		set[col] = true
	}
	s.columns[table] = set
	s.order[table] = append([]string(nil), cols...)
}

// Seed stores rows verbatim, bypassing column checks.
func (s *Store) Seed(table string, rows ...datastore.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], row.Clone())
	}
}

// Rows returns copies of every row stored in table.
func (s *Store) Rows(table string) []datastore.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tables[table])
}

// FailSelect makes every Select against table return err.
func (s *Store) FailSelect(table string, err error) { s.fail("select", table, err) }

// FailInsert makes every Insert into table return err.
func (s *Store) FailInsert(table string, err error) { s.fail("insert", table, err) }

// FailUpdate makes every Update of table return err.
func (s *Store) FailUpdate(table string, err error) { s.fail("update", table, err) }

// FailSample makes every Sample of table return err.
func (s *Store) FailSample(table string, err error) { s.fail("sample", table, err) }

// FailNested makes SelectNested rooted at table return err.
func (s *Store) FailNested(table string, err error) { s.fail("nested", table, err) }

// ClearFailures removes every injected failure.
func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]error)
}

func (s *Store) fail(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+table] = err
}

func (s *Store) failure(op, table string) error {
	return s.failures[op+":"+table]
}

func (s *Store) Select(_ context.Context, q datastore.Query) ([]datastore.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("select", q.Table); err != nil {
		return nil, err
	}
	return s.selectLocked(q)
}

func (s *Store) selectLocked(q datastore.Query) ([]datastore.Row, error) {
	matched := make([]datastore.Row, 0)
	for _, row := range s.tables[q.Table] {
		ok, err := matches(row, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	sortRows(matched, q.Order)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]datastore.Row, len(matched))
	for i, row := range matched {
		out[i] = project(row, q.Columns)
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, table string, values datastore.Row) (datastore.Row, error) {
	return s.insert(table, values, nil)
}

func (s *Store) insert(table string, values datastore.Row, j *journal) (datastore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("insert", table); err != nil {
		return nil, err
	}
	if err := s.checkColumns(table, values); err != nil {
		return nil, err
	}

	row := values.Clone()
	if row == nil {
		row = datastore.Row{}
	}
	if id := row.String("id"); id != "" {
		for _, existing := range s.tables[table] {
			if existing.String("id") == id {
				return nil, fmt.Errorf("%w: id %s already exists in %q", datastore.ErrDuplicateKey, id, table)
			}
		}
	}
	if row.String("id") == "" && s.accepts(table, "id") {
		row["id"] = uuid.NewString()
	}
	if !row.Has("created_at") && s.accepts(table, "created_at") {
		row["created_at"] = s.Now()
	}
	s.fillNulls(table, row)

	s.tables[table] = append(s.tables[table], row)
	j.record(func() {
		if i := s.indexOf(table, row); i >= 0 {
			s.tables[table] = slices.Delete(s.tables[table], i, i+1)
		}
	})
	return row.Clone(), nil
}

func (s *Store) Update(_ context.Context, table string, id string, values datastore.Row) (datastore.Row, error) {
	return s.update(table, id, values, nil)
}

func (s *Store) update(table string, id string, values datastore.Row, j *journal) (datastore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("update", table); err != nil {
		return nil, err
	}
	if err := s.checkColumns(table, values); err != nil {
		return nil, err
	}

	for i, row := range s.tables[table] {
		if row.String("id") != id {
			continue
		}
		updated := row.Clone()
		for k, v := range values {
			updated[k] = v
		}
		s.tables[table][i] = updated
		j.record(func() {
			if k := s.indexOf(table, updated); k >= 0 {
				s.tables[table][k] = row
			}
		})
		return updated.Clone(), nil
	}
	return nil, datastore.ErrNotFound
}

func (s *Store) Delete(_ context.Context, table string, id string) error {
	return s.delete(table, id, nil)
}

func (s *Store) delete(table string, id string, j *journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("delete", table); err != nil {
		return err
	}
	rows := s.tables[table]
	for i, row := range rows {
		if row.String("id") == id {
			s.tables[table] = append(rows[:i:i], rows[i+1:]...)
			j.record(func() {
				pos := min(i, len(s.tables[table]))
				s.tables[table] = slices.Insert(s.tables[table], pos, row)
			})
			return nil
		}
	}
	return nil
}

func (s *Store) Sample(_ context.Context, table string, n int) ([]datastore.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.failure("sample", table); err != nil {
		return nil, err
	}
	rows := s.tables[table]
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return cloneAll(rows), nil
}

// Columns returns the declared column set, or nothing when undeclared.
func (s *Store) Columns(_ context.Context, table string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order[table]...), nil
}

// WithTx runs fn against a client that journals its writes. When fn fails
// only those writes are undone; writes made outside the transaction in the
// meantime are kept. Uncommitted writes are visible to other readers.
func (s *Store) WithTx(_ context.Context, fn func(tx datastore.Client) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txClient{Store: s, journal: &journal{}}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		tx.journal.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// journal holds the inverse of every write made inside a transaction. The
// undo functions run with s.mu held.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// txClient routes writes through the journal. Reads go to the store.
type txClient struct {
	*Store
	journal *journal
}

func (t *txClient) Insert(_ context.Context, table string, values datastore.Row) (datastore.Row, error) {
	return t.Store.insert(table, values, t.journal)
}

func (t *txClient) Update(_ context.Context, table string, id string, values datastore.Row) (datastore.Row, error) {
	return t.Store.update(table, id, values, t.journal)
}

func (t *txClient) Delete(_ context.Context, table string, id string) error {
	return t.Store.delete(table, id, t.journal)
}

// WithTx joins the enclosing transaction.
func (t *txClient) WithTx(_ context.Context, fn func(tx datastore.Client) error) error {
	return fn(t)
}

// indexOf locates the stored row by identity, falling back to its id when
// the row was replaced outside the transaction.
func (s *Store) indexOf(table string, row datastore.Row) int {
	ptr := reflect.ValueOf(row).Pointer()
	for i, existing := range s.tables[table] {
		if reflect.ValueOf(existing).Pointer() == ptr {
			return i
		}
	}
	if id := row.String("id"); id != "" {
		for i, existing := range s.tables[table] {
			if existing.String("id") == id {
				return i
			}
		}
	}
	return -1
}

// SelectNested resolves the declared relations row by row.
func (s *Store) SelectNested(_ context.Context, q datastore.Query, nested []datastore.Nested) ([]datastore.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.DisableNested {
		return nil, fmt.Errorf("nested select is not supported")
	}
	if err := s.failure("nested", q.Table); err != nil {
		return nil, err
	}

	q.Columns = nil
	rows, err := s.selectLocked(q)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := s.embed(row, nested); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (s *Store) embed(row datastore.Row, nested []datastore.Nested) error {
	for _, n := range nested {
		key := row[n.LocalColumn]
		if key == nil {
			if n.Many {
				row[n.Name] = []datastore.Row{}
			} else {
				row[n.Name] = nil
			}
			continue
		}

		if err := s.failure("select", n.Table); err != nil {
			return err
		}
		children, err := s.selectLocked(datastore.Query{
			Table:   n.Table,
			Filters: []datastore.Filter{datastore.Eq(n.ForeignColumn, key)},
			Order:   n.Order,
		})
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := s.embed(child, n.Children); err != nil {
				return err
			}
		}

		if n.Many {
			row[n.Name] = children
		} else if len(children) > 0 {
			row[n.Name] = children[0]
		} else {
			row[n.Name] = nil
		}
	}
	return nil
}

func (s *Store) checkColumns(table string, values datastore.Row) error {
	known, ok := s.columns[table]
	if !ok {
		return nil
	}
	for _, col := range values.Columns() {
		if !known[col] {
			return fmt.Errorf("%w: column %q of relation %q does not exist", datastore.ErrUndefinedColumn, col, table)
		}
	}
	return nil
}

func (s *Store) accepts(table, col string) bool {
	known, ok := s.columns[table]
	return !ok || known[col]
}

// fillNulls gives declared-but-unwritten columns an explicit null, so sampled
// rows expose the full column set like a real relation does.
func (s *Store) fillNulls(table string, row datastore.Row) {
	for _, col := range s.order[table] {
		if !row.Has(col) {
			row[col] = nil
		}
	}
}

func matches(row datastore.Row, filters []datastore.Filter) (bool, error) {
	for _, f := range filters {
		value := row[f.Column]
		switch f.Op {
		case datastore.OpIsNull:
			null, _ := f.Value.(bool)
			if (value == nil) != null {
				return false, nil
			}
		case datastore.OpIn:
			values, err := f.InValues()
			if err != nil {
				return false, err
			}
			if value == nil || !containsString(values, text(value)) {
				return false, nil
			}
		case datastore.OpEq, datastore.OpNeq:
			cmp, ok := compare(value, f.Value)
			equal := ok && cmp == 0
			if (f.Op == datastore.OpEq) != equal {
				return false, nil
			}
		case datastore.OpGt, datastore.OpGte, datastore.OpLt, datastore.OpLte:
			cmp, ok := compare(value, f.Value)
			if !ok {
				return false, nil
			}
			if !orderingHolds(f.Op, cmp) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("datastore: unsupported filter op %q", f.Op)
		}
	}
	return true, nil
}

func orderingHolds(op datastore.Op, cmp int) bool {
	switch op {
	case datastore.OpGt:
		return cmp > 0
	case datastore.OpGte:
		return cmp >= 0
	case datastore.OpLt:
		return cmp < 0
	default:
		return cmp <= 0
	}
}

// compare orders two column values; ok is false when they are not comparable.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return 0, false
	}

	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, ok := b.(bool)
		if !ok || x != y {
			return 1, ok
		}
		return 0, true
	case time.Time:
		y, ok := asTime(b)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case string:
		if y, ok := b.(time.Time); ok {
			t, ok := datastore.ParseTime(x)
			if !ok {
				return 0, false
			}
			return t.Compare(y), true
		}
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	}
	return 0, false
}

func normalize(v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return datastore.ParseTime(x)
	}
	return time.Time{}, false
}

func text(v any) string {
	return fmt.Sprint(normalize(v))
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func sortRows(rows []datastore.Row, order []datastore.Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			a, b := rows[i][o.Column], rows[j][o.Column]
			if a == nil || b == nil {
				if (a == nil) == (b == nil) {
					continue
				}
				return (a == nil) != o.Desc
			}
			cmp, ok := compare(a, b)
			if !ok || cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func project(row datastore.Row, columns []string) datastore.Row {
	if len(columns) == 0 {
		return row.Clone()
	}
	out := make(datastore.Row, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func cloneAll(rows []datastore.Row) []datastore.Row {
	out := make([]datastore.Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

var (
	_ datastore.Client         = (*Store)(nil)
	_ datastore.Transactor     = (*Store)(nil)
	_ datastore.NestedSelector = (*Store)(nil)
	_ datastore.ColumnLister   = (*Store)(nil)
)
