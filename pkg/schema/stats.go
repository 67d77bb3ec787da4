package schema

import (
	"strings"
)

// StatSchema is the dynamically resolved column set for one (StatTable,
// StatAttr) pair — e.g. "StatTable.UveVMInterfaceAgent.if_stats". The
// query JSON's optional table_schema field supplies it; when absent the
// compiler falls back to the tag-sharded generic layout below.
type StatSchema struct {
	StatName string // the "T" in StatTable.T.A
	StatAttr string // the "A" in StatTable.T.A
	Columns  map[string]Column
}

// ParseStatTableName splits "StatTable.<T>.<A>" into its (T, A) pair,
// used as the row-key suffix for stat sub-queries (§4.6).
func ParseStatTableName(name string) (statName, statAttr string, ok bool) {
	const prefix = "StatTable."
	if !strings.HasPrefix(name, prefix) {
		return "", "", false
	}
	rest := name[len(prefix):]
	idx := strings.IndexByte(rest, '.')
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// DjbHash is the classic djb2 string hash the original uses to shard stat
// tag strings across N_TAG_SHARDS columns.
func DjbHash(s string) uint32 {
	var hash uint32 = 5381
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint32(s[i])
	}
	return hash
}

// TagShardColumn returns the physical shard column a tag prefix term
// hashes into: "tagN" for N = djb(name) mod NTagShards.
func TagShardColumn(tagName string) string {
	shard := DjbHash(tagName) % NTagShards
	return columnNameForShard(shard)
}

func columnNameForShard(shard uint32) string {
	const base = "tag"
	digits := [2]byte{'0' + byte(shard/10), '0' + byte(shard%10)}
	if shard < 10 {
		return base + string(digits[1:])
	}
	return base + string(digits[:])
}

// ResolveStatTable builds the column descriptor for a stat sub-query,
// given the (statName, statAttr) parsed from the query's "name" field and
// an optional caller-supplied schema (the query JSON's table_schema). When
// callerSchema is nil the generic sharded-tag layout is used.
func ResolveStatTable(statName, statAttr string, callerSchema map[string]Column) StatSchema {
	if callerSchema != nil {
		return StatSchema{StatName: statName, StatAttr: statAttr, Columns: callerSchema}
	}
	cols := make(map[string]Column, NTagShards+2)
	cols["T2"] = Column{Name: "T2", Physical: "T2", Type: TypeUint64, Clustering: true}
	cols["source"] = Column{Name: "source", Physical: "source", Type: TypeString, Indexed: true}
	for i := uint32(0); i < NTagShards; i++ {
		name := columnNameForShard(i)
		cols[name] = Column{Name: name, Physical: name, Type: TypeString, Indexed: true}
	}
	return StatSchema{StatName: statName, StatAttr: statAttr, Columns: cols}
}

// IsLegacySchema reports whether callerSchema differs from the current
// generic tag-sharded schema, in which case the compiler must additionally
// emit legacy-schema sub-queries and union them with the current-schema
// result (spec §4.6, §9 open question 3: this is a per-compile decision,
// not a process-global switch).
func IsLegacySchema(callerSchema map[string]Column) bool {
	if callerSchema == nil {
		return false
	}
	current := ResolveStatTable("", "", nil).Columns
	if len(callerSchema) != len(current) {
		return true
	}
	for name, col := range callerSchema {
		cur, ok := current[name]
		if !ok || cur.Type != col.Type || cur.Indexed != col.Indexed {
			return true
		}
	}
	return false
}
