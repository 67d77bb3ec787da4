// Package coord implements the Query Coordinator (spec §4.9): it drives
// a compiled query through its prepare/where/select/final-merge phases,
// attaches a three-counter perf record plus an error code to each phase,
// and delivers the finished buffer to the result sink. It is the only
// package that ties pkg/query/compiler, pkg/query/exec, pkg/query/merge,
// pkg/sink, and pkg/audit together.
package coord

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/netleaf/telemetry/pkg/audit"
	"github.com/netleaf/telemetry/pkg/query/compiler"
	"github.com/netleaf/telemetry/pkg/query/exec"
	"github.com/netleaf/telemetry/pkg/query/merge"
	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/sink"
	"github.com/netleaf/telemetry/pkg/store"
	"github.com/netleaf/telemetry/pkg/util"
)

// defaultChunkCount is the number of time-sliced chunks a parallelizable
// query is split into (spec §4.6's "batches" parameter to TimeSlice);
// non-parallelizable tables always run as a single chunk.
const defaultChunkCount = 4

// Coordinator owns the store, executor, and result sink a running query
// is driven against.
type Coordinator struct {
	Store      store.Store
	Executor   *exec.Executor
	Sink       sink.ResultSink
	Ttl        *schema.TtlPublisher
	AuditLog   audit.Logger
	ChunkCount int
}

// NewCoordinator wires a Coordinator from its dependencies, with
// ChunkCount set to defaultChunkCount.
func NewCoordinator(s store.Store, sk sink.ResultSink, ttl *schema.TtlPublisher, auditLog audit.Logger) *Coordinator {
	return &Coordinator{
		Store:      s,
		Executor:   exec.NewExecutor(s),
		Sink:       sk,
		Ttl:        ttl,
		AuditLog:   auditLog,
		ChunkCount: defaultChunkCount,
	}
}

// prepared is the prepare phase's output: the compiled query plus its
// chunk-size list and a merge-needed flag (spec §4.9).
type prepared struct {
	query       *compiler.CompiledQuery
	batches     []compiler.Batch
	mergeNeeded bool
}

// prepare compiles req once, derives the chunk list, and reports whether
// a cross-chunk merge is required (more than one non-no-op chunk).
func (c *Coordinator) prepare(req compiler.Request) (*prepared, error) {
	req.StartTime = c.clampStartTime(req)

	cq, err := compiler.Compile(req)
	if err != nil {
		return nil, err
	}

	chunks := c.ChunkCount
	if chunks < 1 {
		chunks = defaultChunkCount
	}
	if !cq.Parallelize {
		chunks = 1
	}
	batches := compiler.Batches(req.StartTime, req.EndTime, chunks)

	real := 0
	for _, b := range batches {
		if !b.NoOp {
			real++
		}
	}
	return &prepared{query: cq, batches: batches, mergeNeeded: real > 1}, nil
}

// clampStartTime enforces the TTL retention window for req.Table's
// category (global/flow/stats, per the system-object row §6 reads at
// startup): a caller-supplied StartTime older than now-TTL is pulled
// forward to now-TTL so the query never fans out across data the
// cluster has already aged out.
func (c *Coordinator) clampStartTime(req compiler.Request) int64 {
	if c.Ttl == nil {
		return req.StartTime
	}
	ttl := c.Ttl.Snapshot()
	var hours uint64
	switch {
	case req.Table == schema.FlowSeriesTable || req.Table == schema.SessionTable:
		hours = ttl.FlowHours
	default:
		if _, _, ok := schema.ParseStatTableName(req.Table); ok {
			hours = ttl.StatsHours
		} else {
			hours = ttl.GlobalHours
		}
	}
	earliest := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMicro()
	if req.StartTime < earliest {
		return earliest
	}
	return req.StartTime
}

// Execute runs a full query: prepare, then where/select per chunk, then
// final-merge, then delivery to the result sink. handle identifies the
// result-sink destination (spec §6); user and queryID name the audit
// trail entry.
func (c *Coordinator) Execute(ctx context.Context, req compiler.Request, handle, user, queryID string) error {
	if queryID == "" {
		queryID = uuid.NewString()
	}
	started := time.Now()
	ev := audit.NewEvent(user, queryID, req.Table)

	prep, err := c.prepare(req)
	if err != nil {
		c.logAuditFailure(ev, started, err)
		return err
	}

	if prep.mergeNeeded {
		util.WithQuery(queryID).Debug("query fanned out across multiple chunks, final merge required")
	}

	var perf sink.QueryPerf
	acc := merge.NewAccumulator(*prep.query)
	var rowsScanned int64

	for _, batch := range prep.batches {
		if cancelled(ctx) {
			break
		}
		chunkPerf := c.runChunk(ctx, prep.query, batch, acc)
		perf.WhereMicros += chunkPerf.WhereMicros
		perf.SelectMicros += chunkPerf.SelectMicros
		perf.PostProcMicros += chunkPerf.PostProcMicros
		if chunkPerf.ErrorCode != 0 {
			perf.ErrorCode = chunkPerf.ErrorCode
		}
		perf.ChunksProcessed++
		rowsScanned += chunkPerf.rowsScanned
	}

	postStart := time.Now()
	flat, groups := acc.FinalMerge()
	perf.PostProcMicros += time.Since(postStart).Microseconds()

	rowsReturned := int64(len(flat))
	for _, g := range groups {
		rowsReturned += int64(len(g))
	}

	var sendErr error
	if prep.query.Select.IsStatQuery {
		sendErr = c.Sink.QueryResultMultiMap(ctx, handle, perf, toResultMultiMap(groups))
	} else {
		sendErr = c.Sink.QueryResult(ctx, handle, perf, toResultRows(flat))
	}

	ev = ev.WithWhere(renderWhere(req.Where)).
		WithRows(rowsScanned, rowsReturned).
		WithShardsQueried(len(prep.batches)).
		WithDuration(time.Since(started))
	if sendErr != nil || perf.ErrorCode != 0 {
		ev = ev.WithError(sendErr)
	} else {
		ev = ev.WithSuccess()
	}
	c.logAudit(ev)

	return sendErr
}

// chunkResult carries one chunk's row count alongside the standard perf
// counters, so Execute can accumulate rows-scanned for the audit trail
// without re-deriving it from the accumulator.
type chunkResult struct {
	exec.ChunkPerf
	rowsScanned int64
}

// runChunk executes the where/select phases for one batch and folds the
// result into acc (spec §4.9's per-chunk where/select phases).
func (c *Coordinator) runChunk(ctx context.Context, cq *compiler.CompiledQuery, batch compiler.Batch, acc *merge.Accumulator) chunkResult {
	where, whereP := c.Executor.ExecuteWhere(ctx, cq, batch)

	selStart := time.Now()
	flat, groups := exec.Select(cq.Select, where)
	selectMicros := time.Since(selStart).Microseconds()

	acc.Accumulate(flat, groups)

	return chunkResult{
		ChunkPerf: exec.ChunkPerf{
			WhereMicros:  whereP.WhereMicros,
			SelectMicros: selectMicros,
			ErrorCode:    whereP.ErrorCode,
		},
		rowsScanned: int64(len(where.Rows)),
	}
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func toResultRows(rows []exec.Row) []sink.ResultRow {
	out := make([]sink.ResultRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, sink.ResultRow{Columns: r})
	}
	return out
}

func toResultMultiMap(groups map[string][]exec.Row) map[string][]sink.ResultRow {
	out := make(map[string][]sink.ResultRow, len(groups))
	for key, rows := range groups {
		out[key] = toResultRows(rows)
	}
	return out
}

func renderWhere(where [][]compiler.Term) string {
	s := ""
	for i, group := range where {
		if i > 0 {
			s += " OR "
		}
		for j, term := range group {
			if j > 0 {
				s += " AND "
			}
			s += term.Name
		}
	}
	return s
}

func (c *Coordinator) logAudit(ev *audit.Event) {
	if c.AuditLog == nil {
		return
	}
	if err := c.AuditLog.Log(ev); err != nil {
		util.WithField("query_id", ev.QueryID).Warnf("audit log write failed: %v", err)
	}
}

func (c *Coordinator) logAuditFailure(ev *audit.Event, started time.Time, err error) {
	c.logAudit(ev.WithError(err).WithDuration(time.Since(started)))
}
