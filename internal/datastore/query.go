package datastore

import "fmt"

// Op is a filter comparison operator.
type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpIn     Op = "in"
	OpIsNull Op = "is_null"
)

// Filter restricts a query to rows whose column satisfies Op against Value.
// For OpIn, Value is a []string. For OpIsNull, Value is a bool (true = IS NULL).
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }
func Gt(column string, value any) Filter  { return Filter{Column: column, Op: OpGt, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lt(column string, value any) Filter  { return Filter{Column: column, Op: OpLt, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// In matches rows whose column equals any of values.
func In(column string, values []string) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// IsNull matches rows whose column is null (or not null when null is false).
func IsNull(column string, null bool) Filter {
	return Filter{Column: column, Op: OpIsNull, Value: null}
}

// Order sorts results by Column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a filtered read of one relation.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
}

// InValues extracts the value list of an OpIn filter.
func (f Filter) InValues() ([]string, error) {
	switch v := f.Value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("datastore: filter %s on %q needs a list value", f.Op, f.Column)
	}
}
