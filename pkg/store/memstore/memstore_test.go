package memstore

import (
	"context"
	"testing"

	"github.com/netleaf/telemetry/pkg/store"
)

func TestGetRowRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := store.Key{store.String("tenantA"), store.Uint(100)}
	s.Put("flow_series_table", key, map[string]store.Value{
		"sport": store.Uint(100),
		"proto": store.String("tcp"),
	})

	row, ok, err := s.GetRow(ctx, "flow_series_table", key)
	if err != nil || !ok {
		t.Fatalf("GetRow = %v, %v, %v", row, ok, err)
	}
	if row.Columns["proto"].Str != "tcp" {
		t.Errorf("proto = %q", row.Columns["proto"].Str)
	}
}

func TestGetRangeSliceAppliesPredicates(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Put("session_table", store.Key{store.Uint(1)}, map[string]store.Value{"sport": store.Uint(100)})
	s.Put("session_table", store.Key{store.Uint(2)}, map[string]store.Value{"sport": store.Uint(250)})

	rows, err := s.GetRangeSlice(ctx, "session_table",
		[]store.Key{{store.Uint(1)}, {store.Uint(2)}},
		store.ColumnRange{},
		[]store.Predicate{{Column: "sport", Op: store.Between, Value: store.Uint(100), Value2: store.Uint(200)}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Columns["sport"].Uint != 100 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestGetRangeSliceColumnProjection(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := store.Key{store.Uint(1)}
	s.Put("session_table", key, map[string]store.Value{
		"sport": store.Uint(100),
		"proto": store.String("tcp"),
	})

	rows, err := s.GetRangeSlice(ctx, "session_table", []store.Key{key},
		store.ColumnRange{Start: store.Key{store.String("proto")}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if _, ok := rows[0].Columns["sport"]; ok {
		t.Error("sport should have been projected out")
	}
	if rows[0].Columns["proto"].Str != "tcp" {
		t.Errorf("proto = %+v", rows[0].Columns["proto"])
	}
}
