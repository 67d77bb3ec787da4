// Package compiler implements the Query Compiler: it parses a JSON query
// descriptor into WHERE sub-queries, a SELECT plan, and a POST-PROCESS
// plan, entirely without I/O (spec §4.6). pkg/query/exec is the only
// package downstream that talks to the store.
package compiler

import (
	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/store"
)

// Op is the WHERE-term operator code, shared between client and server
// per spec §6's Query API.
type Op int

const (
	OpEqual      Op = 1
	OpNotEqual   Op = 2
	OpInRange    Op = 3
	OpPrefix     Op = 7
	OpRegexMatch Op = 8
	OpContains   Op = 9
)

// Term is one parsed WHERE match, mirroring the JSON shape
// {name, op, value[, value2][, suffix]}.
type Term struct {
	Name   string
	Op     Op
	Value  string
	Value2 string
	Suffix *Term
}

// Request is the JSON query descriptor, spec §6's Query API.
type Request struct {
	Table        string
	StartTime    int64
	EndTime      int64
	SelectFields []string
	Where        [][]Term
	Filter       [][]Term
	Sort         int
	SortFields   []SortField
	Limit        int
	SessionType  string // "client" | "server"
	FlowDirIng   *int   // 0 | 1, direction_ing
	SessionIsSI  *int
	TableSchema  map[string]schema.Column // caller-supplied stat schema, may be nil
}

// SortField names one POST-PROCESS sort column plus its datatype.
type SortField struct {
	Column string
	Type   schema.DataType
}

// IndexedPredicate is one indexed-column restriction pushed into a
// sub-query (spec §4.6's "(column, operator, value)").
type IndexedPredicate struct {
	Column string
	Op     store.PredicateOp
	Value  string
	Value2 string
}

// WhereSubQuery is one compiled sub-query: the physical table, an
// optional row-key suffix (stat name/attr),
// an optional clustering-key range, and zero or more indexed predicates
// (spec §3).
type WhereSubQuery struct {
	PhysicalTable  string
	RowKeySuffix   []store.Value
	ClusterColumns []string // physical column name per ClusterStart/ClusterEnd entry
	ClusterStart   []store.Value
	ClusterEnd     []store.Value
	Predicates     []IndexedPredicate
	Role          string // "client" | "server", session/flow sub-queries only
	Legacy        bool   // true for legacy-schema stat sub-queries
}

// Conjunct is one AND-group of sub-queries: normally a single
// WhereSubQuery, except object-id fanout (N parallel sub-queries unioned
// at the same AND position) and stat queries (current + legacy, unioned
// rather than ANDed — the executor distinguishes by Legacy).
type Conjunct struct {
	SubQueries []WhereSubQuery
}

// SelectPlan describes the projection/aggregation step (spec §3/§4.7).
type SelectPlan struct {
	Columns     []string
	IsStatQuery bool
	GroupBy     []string
	Aggregators []Aggregator
}

// Aggregator is one SELECT-stage aggregation over a stat attribute.
type Aggregator struct {
	Column string
	Func   string // "sum" | "avg" | "count" | "min" | "max"; any other value (e.g. "percentile") aggregates to ""
}

// PostProcessPlan describes the filter/sort/limit step (spec §3/§4.7).
type PostProcessPlan struct {
	Filter     [][]Term
	SortFields []SortField
	SortDesc   bool
	Limit      int
}

// CompiledQuery is the compiler's output: one Conjunct per disjunct of
// the original WHERE clause, plus the select/post-process plans and the
// time-slice parameters the executor needs for batch fan-out.
type CompiledQuery struct {
	Table           string
	Disjuncts       []Conjunct
	Select          SelectPlan
	PostProcess     PostProcessPlan
	Parallelize     bool
	StartTime       int64
	EndTime         int64
	LegacySchema    bool
}
