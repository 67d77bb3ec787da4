// Package memstore is an in-process fake implementing store.Store, used
// by tests and by query-engine's --store=mem backend: it lets the query
// compiler and executor be exercised
// against spec §8's testable properties without a real wide-column
// cluster (SPEC_FULL §6).
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/netleaf/telemetry/pkg/store"
)

// Store is a single-keyspace, multi-column-family in-memory table set.
type Store struct {
	mu       sync.RWMutex
	keyspace string
	cf       string
	tables   map[string]map[string]store.Row // cf -> key.String() -> row
	stats    store.Stats
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]map[string]store.Row)}
}

func (s *Store) Init(ctx context.Context) error { return nil }

func (s *Store) SetKeyspace(ctx context.Context, keyspace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyspace = keyspace
	return nil
}

func (s *Store) UseColumnFamily(ctx context.Context, cf string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cf = cf
	if _, ok := s.tables[cf]; !ok {
		s.tables[cf] = make(map[string]store.Row)
	}
	return nil
}

// Put seeds one row into cf, for test setup.
func (s *Store) Put(cf string, key store.Key, columns map[string]store.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[cf]; !ok {
		s.tables[cf] = make(map[string]store.Row)
	}
	cp := make(map[string]store.Value, len(columns))
	for k, v := range columns {
		cp[k] = v
	}
	s.tables[cf][key.String()] = store.Row{Key: key, Columns: cp}
}

func (s *Store) GetRow(ctx context.Context, cf string, key store.Key) (store.Row, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tables[cf][key.String()]
	s.stats.RowsRead++
	return row, ok, nil
}

// GetRangeSlice returns every row named in keys, restricted to preds
// (every predicate must hold) and to the columns named in colRange.Start
// when non-empty (a simplification of the original column-slice
// semantics: memstore treats ColumnRange.Start as an explicit column
// allowlist rather than a clustering-key interval, since it stores rows
// as flat column maps rather than sorted column lists).
func (s *Store) GetRangeSlice(ctx context.Context, cf string, keys []store.Key, colRange store.ColumnRange, preds []store.Predicate) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table := s.tables[cf]
	var out []store.Row
	for _, k := range keys {
		row, ok := table[k.String()]
		if !ok {
			continue
		}
		if !matchesAll(row, preds) {
			continue
		}
		out = append(out, projectColumns(row, colRange))
	}
	s.stats.RowsRead += int64(len(out))
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

func matchesAll(row store.Row, preds []store.Predicate) bool {
	for _, p := range preds {
		v, ok := row.Columns[p.Column]
		if !ok {
			return false
		}
		switch p.Op {
		case store.Equal:
			if v.Compare(p.Value) != 0 {
				return false
			}
		case store.NotEqual:
			if v.Compare(p.Value) == 0 {
				return false
			}
		case store.Between:
			if v.Compare(p.Value) < 0 || v.Compare(p.Value2) > 0 {
				return false
			}
		case store.GreaterEqual:
			if v.Compare(p.Value) < 0 {
				return false
			}
		case store.LessEqual:
			if v.Compare(p.Value) > 0 {
				return false
			}
		case store.Like:
			if !matchLike(v.Str, p.Value.Str) {
				return false
			}
		}
	}
	return true
}

// matchLike implements the glob-style LIKE semantics store.Like
// documents: a leading and/or trailing '%' in pattern marks that side
// unanchored, giving substring/prefix/suffix matching off one op; a
// pattern with no '%' requires an exact match.
func matchLike(value, pattern string) bool {
	wildStart := strings.HasPrefix(pattern, "%")
	wildEnd := strings.HasSuffix(pattern, "%")
	core := pattern
	if wildStart {
		core = strings.TrimPrefix(core, "%")
	}
	if wildEnd {
		core = strings.TrimSuffix(core, "%")
	}
	switch {
	case wildStart && wildEnd:
		return strings.Contains(value, core)
	case wildEnd:
		return strings.HasPrefix(value, core)
	case wildStart:
		return strings.HasSuffix(value, core)
	default:
		return value == core
	}
}

func projectColumns(row store.Row, colRange store.ColumnRange) store.Row {
	if len(colRange.Start) == 0 {
		return row
	}
	allow := make(map[string]bool, len(colRange.Start))
	for _, v := range colRange.Start {
		allow[v.String()] = true
	}
	cp := make(map[string]store.Value, len(allow))
	for name, v := range row.Columns {
		if allow[name] {
			cp[name] = v
		}
	}
	return store.Row{Key: row.Key, Columns: cp}
}

func (s *Store) GetStats(ctx context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *Store) GetEndpoints(ctx context.Context, cf string, key store.Key) ([]string, error) {
	return []string{"memstore-local"}, nil
}
