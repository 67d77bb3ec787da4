package compiler

import (
	"fmt"

	"github.com/netleaf/telemetry/pkg/schema"
	"github.com/netleaf/telemetry/pkg/store"
	"github.com/netleaf/telemetry/pkg/util"
)

// compileStat builds the stat-table sub-queries: a current-schema variant
// always, plus a legacy-schema variant unioned in when the caller's
// table_schema differs from the current generic tag-sharded layout (spec
// §4.6, §9 open question 3).
func compileStat(req Request, statName, statAttr string) (*CompiledQuery, error) {
	current := schema.ResolveStatTable(statName, statAttr, nil)
	legacyActive := schema.IsLegacySchema(req.TableSchema)
	var legacy schema.StatSchema
	if legacyActive {
		legacy = schema.ResolveStatTable(statName, statAttr, req.TableSchema)
	}

	disjuncts := make([]Conjunct, 0, len(req.Where))
	for _, terms := range req.Where {
		cur, err := compileStatConjunct(current, terms, false)
		if err != nil {
			return nil, err
		}
		variants := []WhereSubQuery{cur}
		if legacyActive {
			leg, err := compileStatConjunct(legacy, terms, true)
			if err != nil {
				return nil, err
			}
			variants = append(variants, leg)
		}
		disjuncts = append(disjuncts, Conjunct{SubQueries: variants})
	}

	t := schema.Catalog[schema.FlowSeriesTable] // borrow Parallelize=true; stat tables parallelize on time too
	cq, err := finishCompile(req, schema.Table{Physical: "StatTable", Parallelize: t.Parallelize}, disjuncts)
	if err != nil {
		return nil, err
	}
	cq.Table = req.Table
	cq.LegacySchema = legacyActive
	cq.Select.IsStatQuery = true
	return cq, nil
}

// compileStatConjunct compiles one AND-group of stat WHERE terms: a
// tag-prefix term hashes into its shard column as a LIKE predicate; a
// suffix term (if present) becomes an Equal predicate on the suffix's own
// column. When the query gives no suffix, no predicate and no sentinel
// value is added for it (spec §4.6, E2E-6).
func compileStatConjunct(s schema.StatSchema, terms []Term, legacy bool) (WhereSubQuery, error) {
	sub := WhereSubQuery{
		PhysicalTable: "StatTable",
		RowKeySuffix:  []store.Value{store.String(s.StatName), store.String(s.StatAttr)},
		Legacy:        legacy,
	}
	for _, term := range terms {
		switch term.Op {
		case OpEqual, OpPrefix:
			shardCol := schema.TagShardColumn(term.Name)
			if _, ok := s.Columns[shardCol]; !ok {
				return WhereSubQuery{}, util.NewInvalidArgError(term.Name, "tag shard column not present in schema")
			}
			sub.Predicates = append(sub.Predicates, IndexedPredicate{
				Column: shardCol,
				Op:     store.Like,
				Value:  "%" + term.Name + "=" + term.Value + "%",
			})
			if term.Suffix != nil {
				sub.Predicates = append(sub.Predicates, IndexedPredicate{
					Column: term.Suffix.Name,
					Op:     store.Equal,
					Value:  term.Suffix.Value,
				})
			}
		case OpContains:
			for name := range s.Columns {
				if name == "T2" || name == "source" {
					continue
				}
				sub.Predicates = append(sub.Predicates, IndexedPredicate{Column: name, Op: store.Like, Value: "%" + term.Value + "%"})
			}
		case OpInRange:
			sub.ClusterColumns = append(sub.ClusterColumns, term.Name)
			sub.ClusterStart = append(sub.ClusterStart, store.String(term.Value))
			sub.ClusterEnd = append(sub.ClusterEnd, store.String(term.Value2))
		default:
			return WhereSubQuery{}, util.NewInvalidArgError(term.Name, fmt.Sprintf("unsupported operator on stat table (op=%d)", term.Op))
		}
	}
	return sub, nil
}
