package cli

import (
	"testing"

	"github.com/netleaf/telemetry/pkg/sink"
)

func TestResultTable_OrdersSelectedColumnsFirst(t *testing.T) {
	rows := []sink.ResultRow{
		{Columns: map[string]string{"Source": "host-a", "Level": "1"}},
		{Columns: map[string]string{"Source": "host-b", "Level": "5"}},
	}
	table := ResultTable(rows, []string{"Source"})
	if len(table.headers) != 2 || table.headers[0] != "Source" || table.headers[1] != "Level" {
		t.Fatalf("headers = %v, want [Source Level]", table.headers)
	}
	if len(table.rows) != 2 || table.rows[0][0] != "host-a" {
		t.Fatalf("rows = %v", table.rows)
	}
}

func TestGroupTable_CountsRowsPerGroupSorted(t *testing.T) {
	groups := map[string][]sink.ResultRow{
		"zgroup": {{}, {}},
		"agroup": {{}},
	}
	table := GroupTable(groups)
	if len(table.rows) != 2 || table.rows[0][0] != "agroup" || table.rows[0][1] != "1" {
		t.Fatalf("rows = %v, want agroup first with count 1", table.rows)
	}
	if table.rows[1][0] != "zgroup" || table.rows[1][1] != "2" {
		t.Fatalf("rows = %v, want zgroup second with count 2", table.rows)
	}
}

func TestPerfLine_ReportsErrorCode(t *testing.T) {
	line := PerfLine(sink.QueryPerf{ErrorCode: 42, ChunksProcessed: 3})
	if !containsAll(line, "error 42", "chunks=3") {
		t.Errorf("PerfLine() = %q, want it to mention the error code and chunk count", line)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !stringsContains(s, sub) {
			return false
		}
	}
	return true
}

func stringsContains(s, sub string) bool {
	return len(sub) == 0 || (len(s) >= len(sub) && indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
