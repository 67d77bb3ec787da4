// Package exec implements the Query Executor: it slices the requested
// time window into chunks, issues each compiled sub-query against the
// store, applies the set algebra spec §4.7 prescribes per table kind,
// runs SELECT, then POST-PROCESS. This is the only package downstream of
// the compiler that performs store I/O.
package exec

import (
	"github.com/netleaf/telemetry/pkg/store"
)

// ResultUnit is one where-result row: a timestamp plus the ordered tuple
// of opaque domain values the original calls query_result_unit_t (spec
// §4.7) — a UUID, an object-id string, or a stat-key+UUID pair, carried
// here as the row's full column set for simplicity.
type ResultUnit struct {
	TimestampUS int64
	Key         store.Key
	Columns     map[string]store.Value
}

// WhereResult is one chunk's gathered result: either a flat row set
// (message/object/flow/session tables) or a stat multi-map keyed by the
// grouping tuple (stat tables, populated by Select instead).
type WhereResult struct {
	Rows []ResultUnit
}

// ChunkPerf mirrors the three-counter perf record spec §4.9 attaches to
// each phase, plus the chunk's failure code if any.
type ChunkPerf struct {
	WhereMicros    int64
	SelectMicros   int64
	PostProcMicros int64
	ErrorCode      int
}

func dedupeKey(u ResultUnit) string { return u.Key.String() }

// union merges row sets, de-duplicating by row key (spec §4.7, §8
// property 7: "union of per-disjunct where-results equals the
// where-result of the full disjunction").
func union(sets ...[]ResultUnit) []ResultUnit {
	seen := make(map[string]bool)
	var out []ResultUnit
	for _, set := range sets {
		for _, u := range set {
			k := dedupeKey(u)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, u)
		}
	}
	return out
}

// intersect keeps only rows present (by key) in every set. ExecuteWhere
// does not call it: each sub-query carries its whole AND-group as one
// predicate list.
func intersect(sets ...[]ResultUnit) []ResultUnit {
	if len(sets) == 0 {
		return nil
	}
	counts := make(map[string]int)
	byKey := make(map[string]ResultUnit)
	for _, set := range sets {
		local := make(map[string]bool)
		for _, u := range set {
			k := dedupeKey(u)
			if local[k] {
				continue
			}
			local[k] = true
			counts[k]++
			byKey[k] = u
		}
	}
	var out []ResultUnit
	for k, c := range counts {
		if c == len(sets) {
			out = append(out, byKey[k])
		}
	}
	return out
}
