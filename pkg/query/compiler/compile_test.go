package compiler

import (
	"reflect"
	"testing"

	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/store"
)

// TestE2E4PrefixOnNonClusteringColumn covers E2E-4: PREFIX on a
// non-clustering indexed string column produces one LIKE-style predicate.
func TestE2E4PrefixOnNonClusteringColumn(t *testing.T) {
	req := Request{
		Table: schema.MessageTable,
		Where: [][]Term{{{Name: "Source", Op: OpPrefix, Value: "abc"}}},
	}
	cq, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	sub := cq.Disjuncts[0].SubQueries[0]
	if len(sub.Predicates) != 1 {
		t.Fatalf("predicates = %+v", sub.Predicates)
	}
	p := sub.Predicates[0]
	if p.Column != "Source" || p.Op != store.Like || p.Value != "abc%" {
		t.Errorf("predicate = %+v", p)
	}
	if len(sub.ClusterStart) != 0 {
		t.Errorf("expected no clustering range, got %+v", sub.ClusterStart)
	}
}

// TestE2E5InRangeOnNumericClusteringColumn covers E2E-5: IN_RANGE on
// sport (a clustering column) on the session table produces a clustering
// range and no indexed predicate.
func TestE2E5InRangeOnNumericClusteringColumn(t *testing.T) {
	req := Request{
		Table: schema.SessionTable,
		Where: [][]Term{{{Name: "sport", Op: OpInRange, Value: "100", Value2: "200"}}},
	}
	cq, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	sub := cq.Disjuncts[0].SubQueries[0]
	if len(sub.Predicates) != 0 {
		t.Fatalf("expected no indexed predicates, got %+v", sub.Predicates)
	}
	if len(sub.ClusterStart) != 1 || sub.ClusterStart[0].Str != "100" {
		t.Errorf("ClusterStart = %+v", sub.ClusterStart)
	}
	if len(sub.ClusterEnd) != 1 || sub.ClusterEnd[0].Str != "200" {
		t.Errorf("ClusterEnd = %+v", sub.ClusterEnd)
	}
}

// TestE2E6StatSuffixShard covers E2E-6: a tag-prefix term with a suffix
// term produces a shard-column LIKE predicate plus an EQ predicate on the
// suffix column.
func TestE2E6StatSuffixShard(t *testing.T) {
	req := Request{
		Table: "StatTable.MyStat.attr",
		Where: [][]Term{{{
			Name: "T=MyTag", Op: OpEqual, Value: "v1",
			Suffix: &Term{Name: "source", Op: OpEqual, Value: "s1"},
		}}},
	}
	cq, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	sub := cq.Disjuncts[0].SubQueries[0]
	wantShard := schema.TagShardColumn("T=MyTag")
	var shardPred, sourcePred *IndexedPredicate
	for i := range sub.Predicates {
		p := &sub.Predicates[i]
		switch p.Column {
		case wantShard:
			shardPred = p
		case "source":
			sourcePred = p
		}
	}
	if shardPred == nil || shardPred.Op != store.Like || shardPred.Value != "%T=MyTag=v1%" {
		t.Fatalf("shard predicate = %+v", shardPred)
	}
	if sourcePred == nil || sourcePred.Op != store.Equal || sourcePred.Value != "s1" {
		t.Fatalf("source predicate = %+v", sourcePred)
	}
}

// TestCompilePurity covers property 5: compiling the same request twice
// produces structurally identical plans.
func TestCompilePurity(t *testing.T) {
	req := Request{
		Table: schema.FlowSeriesTable,
		Where: [][]Term{{{Name: "sourceip", Op: OpEqual, Value: "10.0.0.1"}}},
	}
	a, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("compile not pure:\na=%+v\nb=%+v", a, b)
	}
}

func TestCompileUnknownColumnFailsBeforeStoreIO(t *testing.T) {
	req := Request{
		Table: schema.MessageTable,
		Where: [][]Term{{{Name: "NoSuchColumn", Op: OpEqual, Value: "x"}}},
	}
	_, err := Compile(req)
	if err == nil {
		t.Fatal("expected InvalidArg error")
	}
}

func TestCompileInRangeOnStringColumnRejected(t *testing.T) {
	req := Request{
		Table: schema.MessageTable,
		Where: [][]Term{{{Name: "Source", Op: OpInRange, Value: "a", Value2: "z"}}},
	}
	_, err := Compile(req)
	if err == nil {
		t.Fatal("expected error: IN_RANGE not allowed on string columns")
	}
}

func TestCompileFlowFansOutClientServerRoles(t *testing.T) {
	req := Request{
		Table: schema.FlowSeriesTable,
		Where: [][]Term{{{Name: "protocol", Op: OpEqual, Value: "6"}}},
	}
	cq, err := Compile(req)
	if err != nil {
		t.Fatal(err)
	}
	subs := cq.Disjuncts[0].SubQueries
	if len(subs) != 2 {
		t.Fatalf("expected 2 role sub-queries, got %d", len(subs))
	}
	roles := map[string]bool{subs[0].Role: true, subs[1].Role: true}
	if !roles["client"] || !roles["server"] {
		t.Errorf("roles = %+v", roles)
	}
}
