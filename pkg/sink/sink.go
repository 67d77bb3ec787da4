// Package sink defines the result sink / job broker interface the query
// coordinator delivers finished buffers to, and the datagram server
// interface the syslog collector reads from (spec §6). redissink.go backs
// the former with go-redis, following the TABLE|key hash convention in
// the teacher's internal/testutil/redis.go.
package sink

import "context"

// QueryPerf is the per-query perf record the coordinator attaches to
// every ResultSink call: three phase timings and an error code (spec
// §4.9).
type QueryPerf struct {
	WhereMicros     int64
	SelectMicros    int64
	PostProcMicros  int64
	ErrorCode       int
	ChunksProcessed int
}

// ResultRow is one row of a query buffer: a flat string-keyed column map
// plus row metadata (spec §6: "ordered sequence of (row-map, metadata)").
type ResultRow struct {
	Columns  map[string]string
	Metadata map[string]string
}

// ResultSink is the job-broker interface the coordinator's final-merge
// phase delivers to: either an ordered row buffer, or (for stat queries)
// a grouping-tuple-keyed multi-map.
type ResultSink interface {
	// QueryResult delivers an ordered row buffer for handle.
	QueryResult(ctx context.Context, handle string, perf QueryPerf, buffer []ResultRow) error

	// QueryResultMultiMap delivers a grouping-tuple-keyed multi-map, used
	// for stat-table group-and-aggregate results.
	QueryResultMultiMap(ctx context.Context, handle string, perf QueryPerf, multiMap map[string][]ResultRow) error
}

// Datagram is the opaque datagram server interface: a collector binary
// implements this with a real UDP listener and feeds reads into
// pkg/syslogin.Parser; the interface exists so the parser itself stays
// transport-agnostic.
type Datagram interface {
	// ReadFrom blocks for the next read, returning its bytes and the
	// originating peer address.
	ReadFrom(ctx context.Context) (data []byte, peer string, err error)
}
