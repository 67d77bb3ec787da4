package exec

import (
	"fmt"

	"github.com/netleaf/telemetry/pkg/query/compiler"
)

// Row is one projected/aggregated row, string-keyed for delivery to the
// result sink (spec §6's "row-map<string,string>").
type Row map[string]string

// Select runs the SELECT stage: flat column projection for
// message/object/flow/session tables, or group-and-aggregate over the
// stat attribute map for stat tables (spec §4.7).
func Select(plan compiler.SelectPlan, where WhereResult) ([]Row, map[string][]Row) {
	if plan.IsStatQuery {
		return nil, selectStatGroups(plan, where)
	}
	return selectFlat(plan, where), nil
}

func selectFlat(plan compiler.SelectPlan, where WhereResult) []Row {
	rows := make([]Row, 0, len(where.Rows))
	for _, unit := range where.Rows {
		row := make(Row)
		cols := plan.Columns
		if len(cols) == 0 {
			for name, v := range unit.Columns {
				row[name] = v.String()
			}
		} else {
			for _, name := range cols {
				if v, ok := unit.Columns[name]; ok {
					row[name] = v.String()
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// selectStatGroups groups where.Rows by plan.GroupBy and applies each
// configured aggregator over the remaining numeric columns, keyed by the
// grouping tuple (spec §3 SelectPlan, §4.7).
func selectStatGroups(plan compiler.SelectPlan, where WhereResult) map[string][]Row {
	groups := make(map[string][]ResultUnit)
	for _, unit := range where.Rows {
		key := groupKey(plan.GroupBy, unit)
		groups[key] = append(groups[key], unit)
	}

	out := make(map[string][]Row, len(groups))
	for key, units := range groups {
		out[key] = []Row{aggregate(plan.Aggregators, units)}
	}
	return out
}

func groupKey(groupBy []string, unit ResultUnit) string {
	if len(groupBy) == 0 {
		return "*"
	}
	key := ""
	for i, col := range groupBy {
		if i > 0 {
			key += "\x1f"
		}
		if v, ok := unit.Columns[col]; ok {
			key += v.String()
		}
	}
	return key
}

func aggregate(aggregators []compiler.Aggregator, units []ResultUnit) Row {
	row := make(Row)
	for _, agg := range aggregators {
		row[agg.Column] = applyAggregator(agg, units)
	}
	return row
}

func applyAggregator(agg compiler.Aggregator, units []ResultUnit) string {
	switch agg.Func {
	case "count":
		return fmt.Sprintf("%d", len(units))
	case "sum", "avg", "min", "max":
		return numericAggregate(agg, units)
	default:
		return ""
	}
}

func numericAggregate(agg compiler.Aggregator, units []ResultUnit) string {
	var sum float64
	var count int
	var min, max float64
	for i, u := range units {
		v, ok := u.Columns[agg.Column]
		if !ok {
			continue
		}
		f := toFloat(v)
		if i == 0 || f < min {
			min = f
		}
		if i == 0 || f > max {
			max = f
		}
		sum += f
		count++
	}
	switch agg.Func {
	case "sum":
		return fmt.Sprintf("%g", sum)
	case "avg":
		if count == 0 {
			return "0"
		}
		return fmt.Sprintf("%g", sum/float64(count))
	case "min":
		return fmt.Sprintf("%g", min)
	case "max":
		return fmt.Sprintf("%g", max)
	}
	return ""
}

func toFloat(v interface{ String() string }) float64 {
	var f float64
	fmt.Sscanf(v.String(), "%g", &f)
	return f
}
