// Package store defines the wide-column store interface the query engine
// executes against (spec §6). No driver ships here — the real cluster
// backing this interface is out of scope — but the opaque value model and
// an in-process fake (memstore) live in this package so the compiler and
// executor are testable without one.
package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the primitive types a Value may hold. Row keys,
// clustering keys, and column names all share this value model (spec §6:
// "Row key is an ordered vector of primitive values").
type Kind int

const (
	KindString Kind = iota
	KindUint
	KindUUID
	KindDouble
)

// Value is one ordered-tuple element of a row key, clustering key, or
// stored column value.
type Value struct {
	Kind Kind
	Str  string
	Uint uint64
	UUID uuid.UUID
	Dbl  float64
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Uint(u uint64) Value   { return Value{Kind: KindUint, Uint: u} }
func Double(d float64) Value { return Value{Kind: KindDouble, Dbl: d} }
func UUID(u uuid.UUID) Value { return Value{Kind: KindUUID, UUID: u} }

// String renders v for logging and as a stable map/index key component.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindUint:
		return fmt.Sprintf("%d", v.Uint)
	case KindUUID:
		return v.UUID.String()
	case KindDouble:
		return fmt.Sprintf("%g", v.Dbl)
	default:
		return ""
	}
}

// Compare orders two Values of the same Kind; Values of differing Kind
// compare by Kind only (callers are expected to compare same-typed
// columns, per spec's ordered-tuple row/clustering keys).
func (v Value) Compare(other Value) int {
	if v.Kind != other.Kind {
		if v.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch v.Kind {
	case KindString:
		return compareStr(v.Str, other.Str)
	case KindUint:
		switch {
		case v.Uint < other.Uint:
			return -1
		case v.Uint > other.Uint:
			return 1
		default:
			return 0
		}
	case KindDouble:
		switch {
		case v.Dbl < other.Dbl:
			return -1
		case v.Dbl > other.Dbl:
			return 1
		default:
			return 0
		}
	case KindUUID:
		return compareStr(v.UUID.String(), other.UUID.String())
	default:
		return 0
	}
}

func compareStr(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Key is an ordered tuple of Values: a row key or a clustering key.
type Key []Value

// String renders a Key as a stable, comparable string (memstore's row
// index uses this; a real driver would use the cluster's native
// composite-key encoding instead).
func (k Key) String() string {
	s := ""
	for i, v := range k {
		if i > 0 {
			s += "\x1f"
		}
		s += fmt.Sprintf("%d:%s", v.Kind, v.String())
	}
	return s
}

// Row is one retrieved row: its key plus a column-name to Value map.
type Row struct {
	Key     Key
	Columns map[string]Value
}

// ColumnRange restricts a get_range_slice call to a clustering-key
// interval, inclusive on both ends; a nil bound is unbounded in that
// direction.
type ColumnRange struct {
	Start Key
	End   Key
}

// Predicate is one WHERE-style restriction the store is asked to apply
// server-side during get_range_slice (spec §6's where-predicate-vec).
type Predicate struct {
	Column string
	Op     PredicateOp
	Value  Value
	Value2 Value // second bound for Between
}

type PredicateOp int

const (
	Equal PredicateOp = iota
	NotEqual
	Between
	GreaterEqual
	LessEqual
	// Like matches Value as a glob-style pattern against a string column:
	// a '%' at the start and/or end of Value.Str marks that side
	// unanchored (spec §4.6/§6's LIKE semantics for PREFIX and CONTAINS —
	// "abc%" matches a prefix, "%abc%" matches a substring, "%abc" matches
	// a suffix). A pattern with no '%' falls back to exact match.
	Like
)
