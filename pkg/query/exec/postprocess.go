package exec

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/netleaf/telemetry/pkg/query/compiler"
)

// PostProcess applies the filter list (OR of ANDs), sorts by the plan's
// sort fields, and truncates to limit (spec §4.7, §8 property 8: "limit
// truncates to at most N rows and preserves the sort order of the
// retained rows").
func PostProcess(plan compiler.PostProcessPlan, rows []Row) []Row {
	filtered := applyFilter(plan.Filter, rows)
	sorted := applySort(plan.SortFields, plan.SortDesc, filtered)
	if plan.Limit > 0 && len(sorted) > plan.Limit {
		sorted = sorted[:plan.Limit]
	}
	return sorted
}

// applyFilter keeps rows matching at least one AND-group (OR of ANDs);
// an empty filter list passes every row through unchanged.
func applyFilter(filter [][]compiler.Term, rows []Row) []Row {
	if len(filter) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matchesAnyGroup(filter, row) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAnyGroup(filter [][]compiler.Term, row Row) bool {
	for _, group := range filter {
		if matchesAllTerms(group, row) {
			return true
		}
	}
	return false
}

func matchesAllTerms(terms []compiler.Term, row Row) bool {
	for _, term := range terms {
		if !matchesTerm(term, row) {
			return false
		}
	}
	return true
}

func matchesTerm(term compiler.Term, row Row) bool {
	v, ok := row[term.Name]
	if !ok {
		return false
	}
	switch term.Op {
	case compiler.OpEqual:
		return v == term.Value
	case compiler.OpNotEqual:
		return v != term.Value
	case compiler.OpPrefix:
		return strings.HasPrefix(v, term.Value)
	case compiler.OpContains:
		return strings.Contains(v, term.Value)
	case compiler.OpRegexMatch:
		re, err := regexp.Compile(term.Value)
		return err == nil && re.MatchString(v)
	case compiler.OpInRange:
		return inNumericRange(v, term.Value, term.Value2)
	default:
		return false
	}
}

func inNumericRange(v, lo, hi string) bool {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	loN, err1 := strconv.ParseFloat(lo, 64)
	hiN, err2 := strconv.ParseFloat(hi, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return n >= loN && n <= hiN
}

func applySort(fields []compiler.SortField, desc bool, rows []Row) []Row {
	if len(fields) == 0 {
		return rows
	}
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, f := range fields {
			cmp := strings.Compare(sorted[i][f.Column], sorted[j][f.Column])
			if cmp == 0 {
				continue
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sorted
}
