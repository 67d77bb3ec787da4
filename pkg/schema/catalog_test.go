package schema

import "testing"

func TestPhysicalNameUnknownColumn(t *testing.T) {
	if got := PhysicalName(MessageTable, "NoSuchColumn"); got != "" {
		t.Errorf("PhysicalName for unknown column = %q, want empty", got)
	}
	if got := PhysicalName(MessageTable, "Source"); got != "Source" {
		t.Errorf("PhysicalName(Source) = %q, want Source", got)
	}
}

func TestIsIndexedAndClustering(t *testing.T) {
	if !IsIndexed(MessageTable, "Source") {
		t.Error("Source should be indexed")
	}
	if IsClustering(MessageTable, "Source") {
		t.Error("Source should not be clustering")
	}
	if !IsClustering(MessageTable, "T2") {
		t.Error("T2 should be clustering")
	}
}

func TestParseStatTableName(t *testing.T) {
	tName, aName, ok := ParseStatTableName("StatTable.UveVMInterfaceAgent.if_stats")
	if !ok || tName != "UveVMInterfaceAgent" || aName != "if_stats" {
		t.Fatalf("got (%q,%q,%v)", tName, aName, ok)
	}
	if _, _, ok := ParseStatTableName("NotAStatTable"); ok {
		t.Error("expected no match")
	}
}

func TestTagShardColumnDeterministic(t *testing.T) {
	a := TagShardColumn("T=MyTag")
	b := TagShardColumn("T=MyTag")
	if a != b {
		t.Errorf("TagShardColumn not deterministic: %q vs %q", a, b)
	}
	if DjbHash("") != 5381 {
		t.Errorf("DjbHash('') = %d, want 5381", DjbHash(""))
	}
}

func TestIsLegacySchema(t *testing.T) {
	if IsLegacySchema(nil) {
		t.Error("nil schema should not be legacy")
	}
	current := ResolveStatTable("", "", nil).Columns
	if IsLegacySchema(current) {
		t.Error("identical schema should not be legacy")
	}
	legacy := map[string]Column{"T2": {Name: "T2", Type: TypeUint64, Clustering: true}}
	if !IsLegacySchema(legacy) {
		t.Error("differing schema should be legacy")
	}
}
