package store

import "context"

// Store is the wide-column store interface the executor talks to — the
// Go shape of spec §6's init / set_keyspace / use_column_family /
// get_row / get_range_slice / get_stats / get_endpoints contract. A
// production driver is out of scope; memstore is the only implementation
// shipped here.
type Store interface {
	// Init establishes the store connection/session.
	Init(ctx context.Context) error

	// SetKeyspace selects the active keyspace for subsequent calls.
	SetKeyspace(ctx context.Context, keyspace string) error

	// UseColumnFamily selects the active column family (table) for
	// subsequent Get/GetRangeSlice calls.
	UseColumnFamily(ctx context.Context, cf string) error

	// GetRow fetches one row's full column set by key.
	GetRow(ctx context.Context, cf string, key Key) (Row, bool, error)

	// GetRangeSlice fetches every row whose key falls in keys, optionally
	// restricted to colRange and filtered by preds.
	GetRangeSlice(ctx context.Context, cf string, keys []Key, colRange ColumnRange, preds []Predicate) ([]Row, error)

	// GetStats reports store-side operational counters (rows scanned,
	// latency) for the perf record the coordinator attaches to each
	// query phase.
	GetStats(ctx context.Context) (Stats, error)

	// GetEndpoints reports which store nodes own key, for locality-aware
	// scheduling; memstore returns a single fixed endpoint.
	GetEndpoints(ctx context.Context, cf string, key Key) ([]string, error)
}

// Stats is a snapshot of store-side operational counters.
type Stats struct {
	RowsRead    int64
	BytesRead   int64
	ReadLatency int64 // microseconds, cumulative
}
