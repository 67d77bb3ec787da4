package schema

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/netleaf/telemetry/pkg/store"
	"github.com/netleaf/telemetry/pkg/util"
)

// systemObjectTable and systemObjectKey name the store row that holds the
// TTL values at startup (spec §6 "Persisted state": a system-object row
// keyed by fixed columns global/flow/stats/config-audit, each a u64 hour
// count).
const (
	systemObjectTable = "SystemObjectTable"
	systemObjectKey   = "system-object"
)

// DefaultTTLs are the compile-time fallback hours used once the bounded
// retry in Bootstrap is exhausted (spec §7: "after exhaustion, default
// TTLs are used and engine proceeds in degraded mode").
var DefaultTTLs = TtlMap{
	GlobalHours:      48,
	FlowHours:        48,
	StatsHours:       48,
	ConfigAuditHours: 168,
}

// TtlMap holds the four named TTLs the engine reads once at startup.
type TtlMap struct {
	GlobalHours      uint64
	FlowHours        uint64
	StatsHours       uint64
	ConfigAuditHours uint64
}

// TtlPublisher publishes TtlMap snapshots copy-on-write via atomic.Value
// so query-path readers never take a lock mid-query (SPEC_FULL §3).
type TtlPublisher struct {
	current atomic.Value // TtlMap
}

// NewTtlPublisher seeds the publisher with the compile-time defaults;
// Bootstrap replaces them once the store row is read.
func NewTtlPublisher() *TtlPublisher {
	p := &TtlPublisher{}
	p.current.Store(DefaultTTLs)
	return p
}

// Snapshot returns the currently published TtlMap.
func (p *TtlPublisher) Snapshot() TtlMap {
	return p.current.Load().(TtlMap)
}

func (p *TtlPublisher) publish(t TtlMap) {
	p.current.Store(t)
}

// BootstrapConfig parameterizes the retry loop Bootstrap runs against the
// store (spec §7: "12 attempts, 5s sleep").
type BootstrapConfig struct {
	Attempts int
	Sleep    time.Duration
}

// DefaultBootstrapConfig matches the spec's stated retry budget.
var DefaultBootstrapConfig = BootstrapConfig{Attempts: 12, Sleep: 5 * time.Second}

// Bootstrap reads the system-object row from s, retrying with a fixed
// sleep between attempts. On exhaustion it publishes DefaultTTLs and
// returns the exhaustion error so the caller can log degraded-mode entry;
// it never returns a fatal error, matching §7's "engine proceeds in
// degraded mode" policy.
func (p *TtlPublisher) Bootstrap(ctx context.Context, s store.Store, cfg BootstrapConfig) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		row, ok, err := s.GetRow(ctx, systemObjectTable, store.Key{store.String(systemObjectKey)})
		if err == nil && ok {
			p.publish(ttlMapFromRow(row))
			return nil
		}
		lastErr = err
		if !ok && err == nil {
			lastErr = util.NewStoreUnavailableError("ttl bootstrap", attempt, nil)
		}
		util.WithField("attempt", attempt).Warn("ttl bootstrap: system-object row unavailable, retrying")
		select {
		case <-ctx.Done():
			p.publish(DefaultTTLs)
			return ctx.Err()
		case <-time.After(cfg.Sleep):
		}
	}
	p.publish(DefaultTTLs)
	return util.NewStoreUnavailableError("ttl bootstrap", cfg.Attempts, lastErr)
}

func ttlMapFromRow(row store.Row) TtlMap {
	t := DefaultTTLs
	if v, ok := row.Columns["global"]; ok {
		t.GlobalHours = v.Uint
	}
	if v, ok := row.Columns["flow"]; ok {
		t.FlowHours = v.Uint
	}
	if v, ok := row.Columns["stats"]; ok {
		t.StatsHours = v.Uint
	}
	if v, ok := row.Columns["config-audit"]; ok {
		t.ConfigAuditHours = v.Uint
	}
	return t
}
