package compiler

import (
	"fmt"

	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/store"
	"github.com/netleaf/telemetry/pkg/util"
)

// objectIDAliasColumns are the fixed small set of physical columns an
// ObjectValueTable object-id may be indexed under (spec §4.6's "N fixed
// small number, e.g. 6"); the compiler fans a single ObjectId predicate
// out across all of them, unioned at execution time.
var objectIDAliasColumns = []string{"ObjectId", "ObjectId1", "ObjectId2"}

// Compile parses req into a CompiledQuery. It performs no I/O: every
// error is a validation failure (spec §4.6 "fail compilation with
// InvalidArg before any store I/O").
func Compile(req Request) (*CompiledQuery, error) {
	switch req.Table {
	case schema.MessageTable, schema.ObjectValueTable:
		return compileLogTable(req)
	case schema.FlowSeriesTable:
		return compileFlow(req)
	case schema.SessionTable:
		return compileSession(req)
	default:
		if statName, statAttr, ok := schema.ParseStatTableName(req.Table); ok {
			return compileStat(req, statName, statAttr)
		}
		return nil, util.NewInvalidArgError("table", fmt.Sprintf("unknown table %q", req.Table))
	}
}

func compileLogTable(req Request) (*CompiledQuery, error) {
	t := schema.Catalog[req.Table]
	disjuncts := make([]Conjunct, 0, len(req.Where))
	for _, terms := range req.Where {
		sub, err := compileConjunctTerms(req.Table, t.Physical, terms)
		if err != nil {
			return nil, err
		}
		if req.Table == schema.ObjectValueTable && hasObjectIDFanout(terms) {
			variants := fanoutObjectID(sub)
			disjuncts = append(disjuncts, Conjunct{SubQueries: variants})
			continue
		}
		disjuncts = append(disjuncts, Conjunct{SubQueries: []WhereSubQuery{sub}})
	}
	return finishCompile(req, t, disjuncts)
}

func hasObjectIDFanout(terms []Term) bool {
	for _, term := range terms {
		if term.Name == "ObjectId" {
			return true
		}
	}
	return false
}

func fanoutObjectID(base WhereSubQuery) []WhereSubQuery {
	variants := make([]WhereSubQuery, 0, len(objectIDAliasColumns))
	for _, col := range objectIDAliasColumns {
		v := base
		v.Predicates = make([]IndexedPredicate, len(base.Predicates))
		copy(v.Predicates, base.Predicates)
		for i, p := range v.Predicates {
			if p.Column == "ObjectId" {
				v.Predicates[i].Column = col
			}
		}
		variants = append(variants, v)
	}
	return variants
}

func compileFlow(req Request) (*CompiledQuery, error) {
	sessionTable := schema.Catalog[schema.SessionTable]
	disjuncts := make([]Conjunct, 0, len(req.Where))
	for _, terms := range req.Where {
		client, err := compileConjunctTerms(schema.SessionTable, sessionTable.Physical, terms)
		if err != nil {
			return nil, err
		}
		client.Role = "client"
		server := client
		server.Role = "server"
		server.Predicates = append([]IndexedPredicate(nil), client.Predicates...)
		disjuncts = append(disjuncts, Conjunct{SubQueries: []WhereSubQuery{client, server}})
	}
	cq, err := finishCompile(req, sessionTable, disjuncts)
	if err != nil {
		return nil, err
	}
	cq.Table = schema.FlowSeriesTable
	return cq, nil
}

func compileSession(req Request) (*CompiledQuery, error) {
	t := schema.Catalog[schema.SessionTable]
	role := req.SessionType
	if role == "" {
		role = "client"
	}
	disjuncts := make([]Conjunct, 0, len(req.Where))
	for _, terms := range req.Where {
		sub, err := resolveDirection(req, terms, t.Physical)
		if err != nil {
			return nil, err
		}
		sub.Role = role
		disjuncts = append(disjuncts, Conjunct{SubQueries: []WhereSubQuery{sub}})
	}
	return finishCompile(req, t, disjuncts)
}

// resolveDirection compiles one session-table conjunct, pushing down
// sourceip/destip according to direction_ing: the chosen side maps to an
// indexed predicate. Terms on the other side are not indexed and are
// dropped; they are not added to the post-process filter either.
func resolveDirection(req Request, terms []Term, physical string) (WhereSubQuery, error) {
	localCol, remoteCol := "sourceip", "destip"
	if req.FlowDirIng != nil && *req.FlowDirIng == 1 {
		localCol, remoteCol = "destip", "sourceip"
	}
	var indexed []Term
	for _, term := range terms {
		if term.Name == remoteCol {
			continue // not indexed; dropped from the compiled query
		}
		if term.Name == localCol {
			indexed = append(indexed, term)
			continue
		}
		indexed = append(indexed, term)
	}
	return compileConjunctTerms(schema.SessionTable, physical, indexed)
}

// compileConjunctTerms compiles one AND-group of WHERE terms against
// table's column descriptors into a single WhereSubQuery.
func compileConjunctTerms(logicalTable, physical string, terms []Term) (WhereSubQuery, error) {
	sub := WhereSubQuery{PhysicalTable: physical}
	for _, term := range terms {
		if err := compileTerm(logicalTable, term, &sub); err != nil {
			return WhereSubQuery{}, err
		}
	}
	return sub, nil
}

func compileTerm(table string, term Term, sub *WhereSubQuery) error {
	dtype, known := schema.ColumnDatatype(table, term.Name)
	if !known {
		return util.NewInvalidArgError(term.Name, "unknown column")
	}
	physical := schema.PhysicalName(table, term.Name)
	clustering := schema.IsClustering(table, term.Name)

	switch term.Op {
	case OpEqual:
		sub.Predicates = append(sub.Predicates, IndexedPredicate{Column: physical, Op: store.Equal, Value: term.Value})

	case OpPrefix:
		if dtype != schema.TypeString {
			return util.NewInvalidArgError(term.Name, "PREFIX requires a string column")
		}
		if clustering {
			sub.ClusterColumns = append(sub.ClusterColumns, physical)
			sub.ClusterStart = append(sub.ClusterStart, store.String(term.Value))
			sub.ClusterEnd = append(sub.ClusterEnd, store.String(term.Value+"\x7f"))
			return nil
		}
		sub.Predicates = append(sub.Predicates, IndexedPredicate{Column: physical, Op: store.Like, Value: term.Value + "%"})

	case OpInRange:
		if dtype == schema.TypeString {
			return util.NewInvalidArgError(term.Name, "IN_RANGE not allowed on string columns")
		}
		sub.ClusterColumns = append(sub.ClusterColumns, physical)
		sub.ClusterStart = append(sub.ClusterStart, store.String(term.Value))
		sub.ClusterEnd = append(sub.ClusterEnd, store.String(term.Value2))

	case OpContains:
		sub.Predicates = append(sub.Predicates, IndexedPredicate{Column: physical, Op: store.Like, Value: "%" + term.Value + "%"})

	case OpRegexMatch:
		// Not pushed down; the caller is expected to also add this term to
		// the PostProcessPlan filter list.
		return nil

	case OpNotEqual:
		sub.Predicates = append(sub.Predicates, IndexedPredicate{Column: physical, Op: store.NotEqual, Value: term.Value})

	default:
		return util.NewInvalidArgError(term.Name, "unsupported operator")
	}
	return nil
}

func finishCompile(req Request, t schema.Table, disjuncts []Conjunct) (*CompiledQuery, error) {
	selectPlan := SelectPlan{Columns: req.SelectFields}
	postProcess := PostProcessPlan{
		Filter:     req.Filter,
		SortFields: req.SortFields,
		SortDesc:   req.Sort != 0,
		Limit:      req.Limit,
	}
	return &CompiledQuery{
		Table:       req.Table,
		Disjuncts:   disjuncts,
		Select:      selectPlan,
		PostProcess: postProcess,
		Parallelize: t.Parallelize,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}, nil
}
