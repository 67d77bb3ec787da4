package syslogin

import (
	"testing"

	"github.com/netleaf/telemetry/pkg/sessioncache"
)

// TestParserEmitsE2E2Record exercises E2E-2 end to end through Parser: one
// BSD RT_FLOW frame, no configured MessageRule, emitted with the exact
// attribute set and types spec.md §8 requires.
func TestParserEmitsE2E2Record(t *testing.T) {
	raw := `<14>Dec 17 14:46:29 syslog-hostname RT_FLOW: APPTRACK_SESSION_CLOSE [junos@2636.1.1.1.2.26 reason="TCP RST" source-address="4.0.0.1" source-port="13175"]`

	var got EnrichedRecord
	var emitted int
	p := NewParser(nil, nil, func(r EnrichedRecord) { got = r; emitted++ }, nil)

	residual, ok := p.Parse([]byte(raw), nil, "127.0.0.1")
	if !ok {
		t.Fatal("expected clean parse")
	}
	if len(residual) != 0 {
		t.Fatalf("unexpected residual %q", residual)
	}
	if emitted != 1 {
		t.Fatalf("emitted %d records, want 1", emitted)
	}

	want := map[string]any{
		"Source":            "127.0.0.1",
		"data.hostname":     "syslog-hostname",
		"data.prog":         "RT_FLOW",
		"data.tag":          "APPTRACK_SESSION_CLOSE",
		"data.source-address": "4.0.0.1",
		"data.source-port":  uint64(13175),
		"data.reason":       "TCP RST",
	}
	for k, v := range want {
		if got.Attribs[k] != v {
			t.Errorf("Attribs[%q] = %#v, want %#v", k, got.Attribs[k], v)
		}
	}
}

func TestParserSplitsAcrossTwoReads(t *testing.T) {
	msg := `<14>Dec 17 14:46:29 host RT_FLOW: APPTRACK_SESSION_CREATE [junos@2636.1.1.1.2.26 source-port="1000"]`
	prefix := itoa(len(msg))

	var emitted int
	p := NewParser(nil, nil, func(EnrichedRecord) { emitted++ }, nil)

	residual, ok := p.Parse([]byte(prefix), nil, "10.0.0.1")
	if !ok {
		t.Fatal("expected clean parse of partial read")
	}
	if emitted != 0 {
		t.Fatalf("emitted %d records before frame completed", emitted)
	}

	residual, ok = p.Parse([]byte(" "+msg), residual, "10.0.0.1")
	if !ok {
		t.Fatal("expected clean parse of completing read")
	}
	if len(residual) != 0 {
		t.Fatalf("unexpected residual %q", residual)
	}
	if emitted != 1 {
		t.Fatalf("emitted %d records, want 1", emitted)
	}
}

func TestParserMalformedFrameDoesNotStopSubsequent(t *testing.T) {
	good := `<14>Dec 17 14:46:29 host prog: tag hello`
	bad := "garbage frame with no pri"
	data := []byte(itoa(len(bad)) + " " + bad + itoa(len(good)) + " " + good)

	var emitted int
	p := NewParser(nil, nil, func(EnrichedRecord) { emitted++ }, nil)
	_, ok := p.Parse(data, nil, "10.0.0.1")
	if ok {
		t.Fatal("expected ok=false due to the malformed first frame")
	}
	if emitted != 2 {
		t.Fatalf("emitted %d records, want 2 (the malformed frame is still emitted best-effort, then the good one)", emitted)
	}
}

func TestParserSummarizeAccumulatesSessionCounters(t *testing.T) {
	reg := newTestRegistry(t)
	addSummarizeRule(t, reg, "RT_FLOW_APPTRACK_SESSION_CLOSE", []string{"source-port"})

	cache := sessioncache.New(10)
	p := NewParser(reg, cache, nil, nil)

	msg1 := `<14>Dec 17 14:46:29 host1 RT_FLOW: APPTRACK_SESSION_CLOSE [junos@2636 source-port="100"]`
	msg2 := `<14>Dec 17 14:46:30 host1 RT_FLOW: APPTRACK_SESSION_CLOSE [junos@2636 source-port="50"]`

	if _, ok := p.Parse([]byte(msg1), nil, "10.0.0.1"); !ok {
		t.Fatal("expected clean parse")
	}
	if _, ok := p.Parse([]byte(msg2), nil, "10.0.0.1"); !ok {
		t.Fatal("expected clean parse")
	}

	counters, ok := cache.Get("host1")
	if !ok {
		t.Fatal("expected session counters for host1")
	}
	if counters["source-port"] != 150 {
		t.Errorf("source-port total = %d, want 150", counters["source-port"])
	}
}
