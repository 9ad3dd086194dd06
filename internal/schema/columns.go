// Package schema discovers which columns a relation actually has and builds
// write payloads that only touch those columns.
package schema

import "sort"

// ColumnSet is the observed column set of one relation. An unknown set
// reports every column as present so writers fall back to optimistic writes.
type ColumnSet struct {
	known bool
	cols  map[string]struct{}
}

// NewColumnSet returns a known set containing cols.
func NewColumnSet(cols ...string) ColumnSet {
	set := ColumnSet{known: true, cols: make(map[string]struct{}, len(cols))}
	for _, col := range cols {
		set.cols[col] = struct{}{}
	}
	return set
}

// Unknown returns the set used when a relation could not be probed.
func Unknown() ColumnSet {
	return ColumnSet{}
}

// Known reports whether the set was actually observed.
func (s ColumnSet) Known() bool { return s.known }

// Has reports whether col may be written.
func (s ColumnSet) Has(col string) bool {
	if !s.known {
		return true
	}
	_, ok := s.cols[col]
	return ok
}

// Names returns the observed columns sorted, or nil when unknown.
func (s ColumnSet) Names() []string {
	if !s.known {
		return nil
	}
	out := make([]string, 0, len(s.cols))
	for col := range s.cols {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
