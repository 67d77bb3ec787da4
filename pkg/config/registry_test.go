package config

import (
	"encoding/json"
	"testing"

	"github.com/netleaf/telemetry/pkg/ipindex"
)

func newTestRegistry() *Registry {
	return New(ipindex.New())
}

func hostnameEventJSON(t *testing.T, name, tenant, location, vpn, cidr string) []byte {
	t.Helper()
	doc := map[string]any{
		"structured_syslog_hostname_record": map[string]any{
			"fq_name":                      []string{"default-domain", tenant, name},
			"structured_syslog_hostaddr":   "10.0.0.1",
			"structured_syslog_tenant":     tenant,
			"structured_syslog_location":   location,
			"structured_syslog_device":     "router1",
			"structured_syslog_hostname_tags": "rack=1",
			"structured_syslog_lan_segment_list": map[string]any{
				"LANSegmentList": []map[string]any{
					{"vpn": vpn, "network_ranges": cidr},
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestReceiveConfigHostnameRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	raw := hostnameEventJSON(t, "host1", "tenantA", "site1", "vpn1", "10.1.0.0/24")
	if err := reg.ReceiveConfig(raw, true); err != nil {
		t.Fatalf("ReceiveConfig add: %v", err)
	}

	snap, ok := reg.GetHostnameRecord("host1")
	if !ok {
		t.Fatal("expected host1 to be present")
	}
	if snap.Location != "site1" {
		t.Errorf("Location = %q, want site1", snap.Location)
	}

	if loc := reg.IPIndex().Find("10.1.0.5", "tenantA::vpn1", ""); loc != "site1" {
		t.Errorf("Find = %q, want site1", loc)
	}

	if err := reg.ReceiveConfig(raw, false); err != nil {
		t.Fatalf("ReceiveConfig remove: %v", err)
	}
	if _, ok := reg.GetHostnameRecord("host1"); ok {
		t.Error("expected host1 to be removed")
	}
	if loc := reg.IPIndex().Find("10.1.0.5", "tenantA::vpn1", ""); loc != "" {
		t.Errorf("Find after remove = %q, want empty", loc)
	}
}

// TestRefreshPurgesPreviousLocationOnly exercises Open Question 1's
// resolution: refreshing a hostname record to a new location purges the
// IP-Network entries for its previous location, not the new one.
func TestRefreshPurgesPreviousLocationOnly(t *testing.T) {
	reg := newTestRegistry()
	first := hostnameEventJSON(t, "host1", "tenantA", "site1", "vpn1", "10.1.0.0/24")
	if err := reg.ReceiveConfig(first, true); err != nil {
		t.Fatal(err)
	}

	second := hostnameEventJSON(t, "host1", "tenantA", "site2", "vpn1", "10.2.0.0/24")
	if err := reg.ReceiveConfig(second, true); err != nil {
		t.Fatal(err)
	}

	if loc := reg.IPIndex().Find("10.1.0.5", "tenantA::vpn1", ""); loc != "" {
		t.Errorf("site1 range should be purged, got %q", loc)
	}
	if loc := reg.IPIndex().Find("10.2.0.5", "tenantA::vpn1", ""); loc != "site2" {
		t.Errorf("site2 range should resolve, got %q", loc)
	}

	snap, ok := reg.GetHostnameRecord("host1")
	if !ok || snap.Location != "site2" {
		t.Errorf("record location = %+v, want site2", snap)
	}
}

func TestReceiveConfigMessageRuleExactAndRegexFallback(t *testing.T) {
	reg := newTestRegistry()
	doc := map[string]any{
		"structured_syslog_message": map[string]any{
			"fq_name": []string{"default-domain", "global-system-config", "BGP.*"},
			"structured_syslog_message_tagged_fields": map[string]any{
				"field_names": []string{"peer"},
			},
			"structured_syslog_message_process_and_store": true,
			"structured_syslog_message_forward":           "forward-unprocessed",
		},
	}
	raw, _ := json.Marshal(doc)
	if err := reg.ReceiveConfig(raw, true); err != nil {
		t.Fatal(err)
	}

	rule := reg.GetMessageRule("BGPNeighborDown")
	if rule == nil {
		t.Fatal("expected regex fallback match for BGPNeighborDown")
	}
	if !rule.Store || !rule.Forward || rule.ProcessBeforeForward {
		t.Errorf("rule = %+v, unexpected field values", rule)
	}

	if reg.GetMessageRule("Unrelated") != nil {
		t.Error("expected no match for unrelated message name")
	}
}

func TestReceiveConfigMalformedEventDoesNotPoisonSubsequent(t *testing.T) {
	reg := newTestRegistry()
	if err := reg.ReceiveConfig([]byte("not json"), true); err == nil {
		t.Error("expected error for malformed JSON")
	}
	raw := hostnameEventJSON(t, "host1", "tenantA", "site1", "vpn1", "10.1.0.0/24")
	if err := reg.ReceiveConfig(raw, true); err != nil {
		t.Fatalf("subsequent valid event should still succeed: %v", err)
	}
	if _, ok := reg.GetHostnameRecord("host1"); !ok {
		t.Error("expected host1 to be present after malformed event was dropped")
	}
}
