// Package schema describes the fixed set of logical analytic tables: their
// columns, datatypes, which columns are indexed, and the physical name the
// query compiler should use for each. It is static for message/object/flow/
// session tables and partially dynamic for statistics tables, whose schema
// is resolved at compile time from the query's table_schema hint.
package schema

// DataType enumerates the wide-column datatypes a column can hold.
type DataType int

const (
	TypeString DataType = iota
	TypeUint64
	TypeDouble
	TypeUUID
)

// Column describes one logical column of a table.
type Column struct {
	Name     string
	Physical string
	Type     DataType
	Indexed  bool
	// Clustering marks a column as part of the row's clustering key
	// rather than an indexed predicate column; IN_RANGE and PREFIX
	// compile to a clustering range against these.
	Clustering bool
}

// Table is the logical-table descriptor: its physical backing table name
// plus its column list.
type Table struct {
	Name        string
	Physical    string
	Columns     []Column
	Parallelize bool // supports time-slice fan-out, §4.6
}

// Well-known logical table names, per spec §2/§4.6.
const (
	MessageTable    = "MessageTable"
	ObjectValueTable = "ObjectValueTable"
	FlowSeriesTable = "FlowSeriesTable"
	SessionTable    = "SessionTable"
	StatTable       = "StatTable"
)

// NTagShards is the number of stat-tag shard columns a stat table carries
// (§4.6, "Stat (tag) sharding").
const NTagShards = 30

// Catalog is the static description of every logical table. Statistics
// tables are resolved dynamically (see ResolveStatTable) and are not
// listed here.
var Catalog = map[string]Table{
	MessageTable: {
		Name:     MessageTable,
		Physical: "collector-global",
		Columns: []Column{
			{Name: "T2", Physical: "T2", Type: TypeUint64, Clustering: true},
			{Name: "Source", Physical: "Source", Type: TypeString, Indexed: true},
			{Name: "ModuleId", Physical: "ModuleId", Type: TypeString, Indexed: true},
			{Name: "Messagetype", Physical: "Messagetype", Type: TypeString, Indexed: true},
			{Name: "Category", Physical: "Category", Type: TypeString, Indexed: true},
			{Name: "Level", Physical: "Level", Type: TypeUint64, Indexed: true},
			{Name: "NodeType", Physical: "NodeType", Type: TypeString, Indexed: true},
			{Name: "InstanceId", Physical: "InstanceId", Type: TypeString, Indexed: true},
			{Name: "ObjectId", Physical: "ObjectId", Type: TypeString},
			{Name: "SequenceNum", Physical: "SequenceNum", Type: TypeUint64},
			{Name: "Data", Physical: "Data", Type: TypeString},
		},
		Parallelize: true,
	},
	ObjectValueTable: {
		Name:     ObjectValueTable,
		Physical: "ObjectValueTable",
		Columns: []Column{
			{Name: "T2", Physical: "T2", Type: TypeUint64, Clustering: true},
			{Name: "ObjectId", Physical: "ObjectId", Type: TypeString, Indexed: true},
			{Name: "UUID", Physical: "UUIDKey", Type: TypeUUID},
		},
		Parallelize: true,
	},
	FlowSeriesTable: {
		Name:     FlowSeriesTable,
		Physical: "FlowSeriesTable",
		Columns: []Column{
			{Name: "T2", Physical: "T2", Type: TypeUint64, Clustering: true},
			{Name: "sourceip", Physical: "sourceip", Type: TypeString, Indexed: true},
			{Name: "destip", Physical: "destip", Type: TypeString, Indexed: true},
			{Name: "sport", Physical: "sport", Type: TypeUint64, Clustering: true},
			{Name: "dport", Physical: "dport", Type: TypeUint64, Clustering: true},
			{Name: "protocol", Physical: "protocol", Type: TypeUint64, Indexed: true},
			{Name: "vrouter", Physical: "vrouter", Type: TypeString, Indexed: true},
			{Name: "direction_ing", Physical: "direction_ing", Type: TypeUint64},
		},
		Parallelize: true,
	},
	SessionTable: {
		Name:     SessionTable,
		Physical: "SessionTable",
		Columns: []Column{
			{Name: "T2", Physical: "T2", Type: TypeUint64, Clustering: true},
			{Name: "sourceip", Physical: "local_ip", Type: TypeString, Indexed: true},
			{Name: "destip", Physical: "remote_ip", Type: TypeString, Indexed: true},
			{Name: "sport", Physical: "sport", Type: TypeUint64, Clustering: true},
			{Name: "vmi", Physical: "vmi", Type: TypeString, Indexed: true},
			{Name: "protocol", Physical: "protocol", Type: TypeUint64, Indexed: true},
		},
		Parallelize: true,
	},
}

// ColumnDatatype reports the datatype of col in table; the second return
// value is false for an unknown table or column.
func ColumnDatatype(table, col string) (DataType, bool) {
	t, ok := Catalog[table]
	if !ok {
		return 0, false
	}
	for _, c := range t.Columns {
		if c.Name == col {
			return c.Type, true
		}
	}
	return 0, false
}

// IsIndexed reports whether col is an indexed predicate column in table.
func IsIndexed(table, col string) bool {
	t, ok := Catalog[table]
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == col {
			return c.Indexed
		}
	}
	return false
}

// IsClustering reports whether col is a clustering-key column in table.
func IsClustering(table, col string) bool {
	t, ok := Catalog[table]
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == col {
			return c.Clustering
		}
	}
	return false
}

// PhysicalName returns the physical column backing the logical column
// name in table, or "" if the column is unknown — callers treat the
// empty string as "invalid column" (spec §4.1).
func PhysicalName(table, name string) string {
	t, ok := Catalog[table]
	if !ok {
		return ""
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Physical
		}
	}
	return ""
}

// Columns returns the column list for table, or nil if unknown.
func Columns(table string) []Column {
	t, ok := Catalog[table]
	if !ok {
		return nil
	}
	return t.Columns
}
