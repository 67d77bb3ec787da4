package cli

import (
	"fmt"
	"sort"

	"github.com/netleaf/telemetry/pkg/sink"
)

// ResultTable renders a flat query result buffer (spec §6's ordered
// row-map output) as a column-aligned table. columns fixes the leading
// column order (normally the query's select_fields); any other column
// present on a row but not listed is appended, sorted, so an ad hoc
// query that omitted select_fields still prints everything it got back.
func ResultTable(rows []sink.ResultRow, columns []string) *Table {
	headers := append([]string(nil), columns...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	var extra []string
	for _, r := range rows {
		for k := range r.Columns {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	headers = append(headers, extra...)

	t := NewTable(headers...)
	for _, r := range rows {
		values := make([]string, len(headers))
		for i, h := range headers {
			values[i] = r.Columns[h]
		}
		t.Row(values...)
	}
	return t
}

// GroupTable renders a stat query's grouping-tuple-keyed multi-map
// result as one row per group plus its row count — a group's rows are
// normally one aggregate value per aggregator, so a count summarizes it
// better than printing every column of every row.
func GroupTable(groups map[string][]sink.ResultRow) *Table {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewTable("GROUP", "ROWS")
	for _, k := range keys {
		t.Row(k, fmt.Sprintf("%d", len(groups[k])))
	}
	return t
}

// PerfLine renders a query's perf record (spec §4.9's three-phase
// timing plus error code) as a single colorized summary line.
func PerfLine(perf sink.QueryPerf) string {
	status := Green("ok")
	if perf.ErrorCode != 0 {
		status = Red(fmt.Sprintf("error %d", perf.ErrorCode))
	}
	return fmt.Sprintf("%s where=%dus select=%dus postproc=%dus chunks=%d",
		status, perf.WhereMicros, perf.SelectMicros, perf.PostProcMicros, perf.ChunksProcessed)
}
