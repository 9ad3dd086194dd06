package schema

import "property_portal_backend/internal/datastore"

// Field is one value a caller wants written. Columns lists the candidate
// column names in priority order for fields renamed across schema revisions;
// when empty the field is written under Name.
type Field struct {
	Name    string
	Value   any
	Columns []string
}

// Plain is a field written under its own name.
func Plain(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Chain is a field written under the first of columns the relation has.
func Chain(name string, value any, columns ...string) Field {
	return Field{Name: name, Value: value, Columns: columns}
}

func (f Field) candidates() []string {
	if len(f.Columns) == 0 {
		return []string{f.Name}
	}
	return f.Columns
}

// BuildWritePayload keeps each candidate field whose column exists in cols.
// Chained fields resolve to their first present column. Fields with no
// matching column are returned in skipped. The payload only ever contains
// fields from candidates.
func BuildWritePayload(candidates []Field, cols ColumnSet) (datastore.Row, []string) {
	payload := make(datastore.Row, len(candidates))
	var skipped []string

	for _, field := range candidates {
		column, ok := resolveColumn(field, cols)
		if !ok {
			skipped = append(skipped, field.Name)
			continue
		}
		payload[column] = field.Value
	}
	return payload, skipped
}

func resolveColumn(field Field, cols ColumnSet) (string, bool) {
	for _, column := range field.candidates() {
		if cols.Has(column) {
			return column, true
		}
	}
	return "", false
}

// FirstPresent returns the value of the first column in chain that row
// carries with a non-null value.
func FirstPresent(row datastore.Row, chain ...string) (any, string, bool) {
	for _, column := range chain {
		if v, ok := row[column]; ok && v != nil {
			return v, column, true
		}
	}
	return nil, "", false
}
