package sessioncache

import "testing"

func TestPutGetRemove(t *testing.T) {
	c := New(2)
	if !c.Put("s1", map[string]uint64{"bytes": 100}) {
		t.Fatal("expected admission")
	}
	got, ok := c.Get("s1")
	if !ok || got["bytes"] != 100 {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if c.Remove("s1") != 1 {
		t.Error("expected Remove to report 1")
	}
	if _, ok := c.Get("s1"); ok {
		t.Error("expected key gone after Remove")
	}
	if c.Remove("s1") != 0 {
		t.Error("expected Remove of missing key to report 0")
	}
}

func TestOverflowRefusesNewKeyWithoutEviction(t *testing.T) {
	c := New(1)
	if !c.Put("s1", map[string]uint64{"bytes": 1}) {
		t.Fatal("expected first key admitted")
	}
	if c.Put("s2", map[string]uint64{"bytes": 2}) {
		t.Fatal("expected second key refused at limit")
	}
	if _, ok := c.Get("s1"); !ok {
		t.Fatal("expected s1 untouched by the refused admission")
	}
	if _, ok := c.Get("s2"); ok {
		t.Fatal("expected s2 not present")
	}
}

func TestPutRefreshesExistingKeyEvenAtLimit(t *testing.T) {
	c := New(1)
	c.Put("s1", map[string]uint64{"bytes": 1})
	if !c.Put("s1", map[string]uint64{"bytes": 2}) {
		t.Fatal("expected refresh of existing key to succeed at limit")
	}
	got, _ := c.Get("s1")
	if got["bytes"] != 2 {
		t.Fatalf("Get after refresh = %v", got)
	}
}
