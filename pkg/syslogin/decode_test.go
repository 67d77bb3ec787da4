package syslogin

import "testing"

// TestDecodeFrameBSD exercises E2E-2 verbatim: Juniper RT_FLOW structured
// syslog in the legacy BSD layout.
func TestDecodeFrameBSD(t *testing.T) {
	raw := `<14>Dec 17 14:46:29 syslog-hostname RT_FLOW: APPTRACK_SESSION_CLOSE [junos@2636.1.1.1.2.26 reason="TCP RST" source-address="4.0.0.1" source-port="13175"]`
	f, err := DecodeFrame([]byte(raw), "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if f.Hostname != "syslog-hostname" {
		t.Errorf("Hostname = %q", f.Hostname)
	}
	if f.Program != "RT_FLOW" {
		t.Errorf("Program = %q", f.Program)
	}
	if f.Tag != "APPTRACK_SESSION_CLOSE" {
		t.Errorf("Tag = %q", f.Tag)
	}
	if f.Vendor != "junos@2636.1.1.1.2.26" {
		t.Errorf("Vendor = %q", f.Vendor)
	}
	want := map[string]string{
		"reason":         "TCP RST",
		"source-address": "4.0.0.1",
		"source-port":    "13175",
	}
	for k, v := range want {
		if f.Fields[k] != v {
			t.Errorf("Fields[%q] = %q, want %q", k, f.Fields[k], v)
		}
	}
	if !f.IsStructured {
		t.Error("expected IsStructured = true")
	}
	if f.Facility != 1 || f.Severity != 6 {
		t.Errorf("facility/severity = %d/%d, want 1/6", f.Facility, f.Severity)
	}
}

func TestDecodeFrameRFC5424(t *testing.T) {
	raw := `<34>1 2003-10-11T22:14:15.003Z mymachine.example.com appname 1234 ID47 [exampleSDID@32473 iut="3" eventSource="App"] some message`
	f, err := DecodeFrame([]byte(raw), "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if f.Hostname != "mymachine.example.com" {
		t.Errorf("Hostname = %q", f.Hostname)
	}
	if f.Program != "appname" {
		t.Errorf("Program = %q", f.Program)
	}
	if f.MsgID != "ID47" {
		t.Errorf("MsgID = %q", f.MsgID)
	}
	if f.Fields["iut"] != "3" || f.Fields["eventSource"] != "App" {
		t.Errorf("Fields = %+v", f.Fields)
	}
	if f.Message != "some message" {
		t.Errorf("Message = %q", f.Message)
	}
}

func TestDecodeFrameMissingPRIBestEffort(t *testing.T) {
	f, err := DecodeFrame([]byte("no pri here"), "10.0.0.1")
	if err == nil {
		t.Fatal("expected error for missing PRI")
	}
	if f == nil {
		t.Fatal("expected non-nil best-effort frame")
	}
	if f.IsStructured {
		t.Error("expected IsStructured = false on failure")
	}
}

func TestDecodeFrameUnstructuredMessage(t *testing.T) {
	raw := `<14>Dec 17 14:46:29 host sshd: plain text message with no structured data`
	f, err := DecodeFrame([]byte(raw), "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.IsStructured {
		t.Error("expected IsStructured = false")
	}
	if f.Program != "sshd" {
		t.Errorf("Program = %q", f.Program)
	}
}
