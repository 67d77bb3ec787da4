package exec

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netleaf/telemetry/pkg/query/compiler"
	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/store"
)

// Executor issues compiled sub-queries against a store.Store, fanning
// them out across goroutines bounded by MaxFanout (spec §5's worker
// pool, realized with errgroup rather than a hand-rolled thread pool —
// SPEC_FULL §AMBIENT).
type Executor struct {
	Store     store.Store
	MaxFanout int
}

// NewExecutor returns an Executor with a sensible default fanout bound.
func NewExecutor(s store.Store) *Executor {
	return &Executor{Store: s, MaxFanout: 16}
}

// ExecuteWhere runs every disjunct of cq against batch's time window and
// returns the gathered where-result plus perf counters. A failing chunk
// still returns (possibly empty) results and a non-zero ErrorCode rather
// than aborting the query (spec §4.9).
func (e *Executor) ExecuteWhere(ctx context.Context, cq *compiler.CompiledQuery, batch compiler.Batch) (WhereResult, ChunkPerf) {
	start := time.Now()
	if batch.NoOp {
		return WhereResult{}, ChunkPerf{}
	}

	disjunctResults := make([][]ResultUnit, len(cq.Disjuncts))
	var perf ChunkPerf

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanout())
	for i, conj := range cq.Disjuncts {
		i, conj := i, conj
		g.Go(func() error {
			rows, err := e.executeConjunct(gctx, cq.Table, conj, batch)
			if err != nil {
				perf.ErrorCode = 1
				return nil // partial results still surfaced, per spec §7 policy
			}
			disjunctResults[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var final []ResultUnit
	if isStatTable(cq.Table) {
		final = unionStatDisjuncts(disjunctResults, cq)
	} else {
		final = union(disjunctResults...)
	}

	perf.WhereMicros = time.Since(start).Microseconds()
	return WhereResult{Rows: final}, perf
}

func (e *Executor) fanout() int {
	if e.MaxFanout <= 0 {
		return 16
	}
	return e.MaxFanout
}

func isStatTable(table string) bool {
	_, _, ok := schema.ParseStatTableName(table)
	return ok
}

// executeConjunct runs every physical variant in conj (role/object-id
// fanout, or current/legacy stat schema) and unions them — they
// represent alternative ways the same logical AND-group can match (spec
// §4.7; union across role/schema variants, AND within each variant's own
// predicate list is already encoded in the sub-query).
func (e *Executor) executeConjunct(ctx context.Context, table string, conj compiler.Conjunct, batch compiler.Batch) ([]ResultUnit, error) {
	var variants [][]ResultUnit
	for _, sub := range conj.SubQueries {
		rows, err := e.executeSubQuery(ctx, table, sub, batch)
		if err != nil {
			return nil, err
		}
		variants = append(variants, rows)
	}
	return union(variants...), nil
}

func (e *Executor) executeSubQuery(ctx context.Context, table string, sub compiler.WhereSubQuery, batch compiler.Batch) ([]ResultUnit, error) {
	keys := BuildRowKeys(sub, batch)
	if len(keys) == 0 {
		return nil, nil
	}
	preds := toStorePredicates(sub.Predicates)
	rows, err := e.Store.GetRangeSlice(ctx, sub.PhysicalTable, keys, store.ColumnRange{}, preds)
	if err != nil {
		return nil, err
	}
	units := make([]ResultUnit, 0, len(rows))
	for _, row := range rows {
		if !withinClusterRange(row, sub) {
			continue
		}
		units = append(units, ResultUnit{Key: row.Key, Columns: row.Columns})
	}
	return units, nil
}

func toStorePredicates(preds []compiler.IndexedPredicate) []store.Predicate {
	out := make([]store.Predicate, 0, len(preds))
	for _, p := range preds {
		out = append(out, store.Predicate{Column: p.Column, Op: p.Op, Value: store.String(p.Value)})
	}
	return out
}

// withinClusterRange applies any clustering-range bounds client-side: the
// store interface's column range is reserved for true column-slice
// semantics (memstore repurposes it as a projection, see its doc
// comment), so clustering predicates (IN_RANGE, clustering-column
// PREFIX) are checked against the fetched row's columns here instead.
func withinClusterRange(row store.Row, sub compiler.WhereSubQuery) bool {
	for i, col := range sub.ClusterColumns {
		v, ok := row.Columns[col]
		if !ok {
			return false
		}
		if v.Compare(sub.ClusterStart[i]) < 0 || v.Compare(sub.ClusterEnd[i]) > 0 {
			return false
		}
	}
	return true
}

// unionStatDisjuncts applies the stats-specific set algebra: AND within
// each schema variant (current, legacy) is already folded into the
// sub-query's predicate list, so executeConjunct's per-variant results
// only need the documented current-union-legacy composition, which is
// exactly the plain union used for every other disjunct; this helper
// exists to keep the branch explicit and named per spec §4.7's "(A∪B)"
// wording.
func unionStatDisjuncts(disjunctResults [][]ResultUnit, cq *compiler.CompiledQuery) []ResultUnit {
	return union(disjunctResults...)
}
