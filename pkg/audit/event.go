// Package audit logs one record per query execution: who ran it, what
// WHERE clause it compiled to, how many rows it scanned and returned,
// and whether it succeeded. Grounded on the teacher's pkg/audit
// (Event/FileLogger/Filter), generalized from a network-config change
// log to a query-execution log.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event represents one completed (or failed) query execution.
type Event struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	QueryID       string        `json:"query_id"`
	User          string        `json:"user"`
	Table         string        `json:"table"`
	Where         string        `json:"where,omitempty"`
	ShardsQueried int           `json:"shards_queried"`
	RowsScanned   int64         `json:"rows_scanned"`
	RowsReturned  int64         `json:"rows_returned"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events.
type Filter struct {
	User        string
	Table       string
	QueryID     string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent starts an audit record for one query execution.
func NewEvent(user, queryID, table string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		QueryID:   queryID,
		User:      user,
		Table:     table,
	}
}

// WithWhere records the compiled WHERE clause, rendered for display.
func (e *Event) WithWhere(where string) *Event {
	e.Where = where
	return e
}

// WithRows records how many rows the execution scanned and returned.
func (e *Event) WithRows(scanned, returned int64) *Event {
	e.RowsScanned = scanned
	e.RowsReturned = returned
	return e
}

// WithShardsQueried records how many time chunks (batches) the
// coordinator split the query into (spec §5.2).
func (e *Event) WithShardsQueried(n int) *Event {
	e.ShardsQueried = n
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the total execution wall time.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}
