package syslogin

import (
	"strconv"

	"github.com/netleaf/telemetry/pkg/config"
)

// Classified holds a decoded Frame's fields split into the tag/attrib
// shape a MessageRule produces: every field named in the rule's
// tag-field list goes to Tags, every field in the integer-field list is
// parsed into Attribs as uint64, and the remainder are carried as
// strings in Attribs (spec §4.5).
type Classified struct {
	Rule    *config.MessageRuleSnapshot // nil when no rule matched
	Tags    map[string]string
	Attribs map[string]any
}

func ruleName(f *Frame) string {
	if f.Tag == "" {
		return f.Program
	}
	return f.Program + "_" + f.Tag
}

// ClassifyFrame resolves the MessageRule for f (exact then regex
// fallback, via reg) and splits f's structured-data fields accordingly.
// When no rule matches, every field is heuristically typed: decimal
// integers become uint64, everything else stays a string (there is no
// rule to consult, so this is the best the generic path can do without
// one).
func ClassifyFrame(reg *config.Registry, f *Frame) Classified {
	rule := reg.GetMessageRule(ruleName(f))

	c := Classified{Rule: rule, Tags: map[string]string{}, Attribs: map[string]any{}}
	if rule == nil {
		for k, v := range f.Fields {
			c.Attribs[k] = typeHeuristic(v)
		}
		return c
	}

	isTag := make(map[string]bool, len(rule.TagFields))
	for _, name := range rule.TagFields {
		isTag[name] = true
	}
	isInt := make(map[string]bool, len(rule.IntFields))
	for _, name := range rule.IntFields {
		isInt[name] = true
	}

	for k, v := range f.Fields {
		switch {
		case isTag[k]:
			c.Tags[k] = v
		case isInt[k]:
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.Attribs[k] = n
			} else {
				c.Attribs[k] = v
			}
		default:
			c.Attribs[k] = v
		}
	}
	return c
}

func typeHeuristic(v string) any {
	if n, err := strconv.ParseUint(v, 10, 64); err == nil {
		return n
	}
	return v
}
