// Package merge implements the Merge Layer (spec §4.8): accumulating
// each chunk's rows into a running accumulator honoring the query's
// sort/aggregation plan, then producing the final globally-ordered
// buffer (or multi-map, for stat queries) with limit-based truncation.
package merge

import (
	"sort"
	"strconv"

	"github.com/netleaf/telemetry/pkg/query/compiler"
	"github.com/netleaf/telemetry/pkg/query/exec"
)

// Accumulator gathers rows across chunks, honoring the plan's
// sort/aggregation, ahead of the final merge.
type Accumulator struct {
	plan   compiler.CompiledQuery
	rows   []exec.Row
	groups map[string][]exec.Row
}

// NewAccumulator starts an empty accumulator for one compiled query.
func NewAccumulator(plan compiler.CompiledQuery) *Accumulator {
	a := &Accumulator{plan: plan}
	if plan.Select.IsStatQuery {
		a.groups = make(map[string][]exec.Row)
	}
	return a
}

// Accumulate merges one chunk's SELECT-stage output into the
// accumulator (spec §4.8 "accumulate(input, output)").
func (a *Accumulator) Accumulate(flat []exec.Row, groups map[string][]exec.Row) {
	if a.plan.Select.IsStatQuery {
		for key, rows := range groups {
			a.groups[key] = append(a.groups[key], rows...)
		}
		return
	}
	a.rows = append(a.rows, flat...)
}

// FinalMerge produces the globally-ordered buffer (spec §4.8
// "final_merge(inputs…, output)"): POST-PROCESS's filter/sort run once
// over the fully accumulated set, then limit truncates the tail. For
// stat multi-map outputs, each group's rows are re-aggregated across
// chunks and limit keeps the first groups in grouping-key order; the
// plan's filter and sort fields are not applied to groups.
func (a *Accumulator) FinalMerge() ([]exec.Row, map[string][]exec.Row) {
	if a.plan.Select.IsStatQuery {
		return nil, a.finalMergeGroups()
	}
	return exec.PostProcess(a.plan.PostProcess, a.rows), nil
}

// finalMergeGroups re-aggregates each group's cross-chunk rows down to
// one row per group (spec's "group-and-aggregate" applies once more at
// merge time since chunk-level SELECT already aggregated per chunk, not
// across chunks), then applies limit by discarding the tail once the
// groups are sorted by their grouping key — the merge-layer analogue of
// "advancing an iterator and discarding the tail".
func (a *Accumulator) finalMergeGroups() map[string][]exec.Row {
	keys := make([]string, 0, len(a.groups))
	for k := range a.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string][]exec.Row, len(a.groups))
	limit := a.plan.PostProcess.Limit
	for i, k := range keys {
		if limit > 0 && i >= limit {
			break
		}
		out[k] = reaggregate(a.plan.Select.Aggregators, a.groups[k])
	}
	return out
}

// reaggregate folds a group's per-chunk aggregate rows (one row per
// chunk) into a single row per aggregator, combining partial sums/counts
// the way the original's accumulate/final_merge pair does for a
// streaming aggregate.
func reaggregate(aggregators []compiler.Aggregator, rows []exec.Row) []exec.Row {
	if len(rows) <= 1 {
		return rows
	}
	combined := make(exec.Row)
	for _, agg := range aggregators {
		combined[agg.Column] = combineAggregate(agg, rows)
	}
	return []exec.Row{combined}
}

func combineAggregate(agg compiler.Aggregator, rows []exec.Row) string {
	switch agg.Func {
	case "count", "sum":
		return formatFloat(sumColumn(rows, agg.Column))
	case "avg":
		sum, n := 0.0, 0
		for _, r := range rows {
			if v, ok := r[agg.Column]; ok {
				sum += parseFloat(v)
				n++
			}
		}
		if n == 0 {
			return "0"
		}
		return formatFloat(sum / float64(n))
	case "min":
		return formatFloat(extremeColumn(rows, agg.Column, false))
	case "max":
		return formatFloat(extremeColumn(rows, agg.Column, true))
	default:
		return ""
	}
}

func sumColumn(rows []exec.Row, col string) float64 {
	var sum float64
	for _, r := range rows {
		if v, ok := r[col]; ok {
			sum += parseFloat(v)
		}
	}
	return sum
}

func extremeColumn(rows []exec.Row, col string, max bool) float64 {
	var best float64
	first := true
	for _, r := range rows {
		v, ok := r[col]
		if !ok {
			continue
		}
		f := parseFloat(v)
		if first || (max && f > best) || (!max && f < best) {
			best = f
			first = false
		}
	}
	return best
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
