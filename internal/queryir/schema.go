package queryir

// ColumnKind is the storage class of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
)

// Column is one column of a store table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Table describes a store table: its columns in schema order and the
// deterministic order its rows are read in.
type Table struct {
	Name    string
	Columns []Column
	OrderBy string
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in schema order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Tables holds the queryable tables of the store schema.
var Tables = map[string]Table{
	"runs": {
		Name: "runs",
		Columns: []Column{
			{"seq", KindInt},
			{"id", KindText},
			{"scenario", KindText},
			{"definition", KindText},
			{"schedule", KindText},
			{"trace_digest", KindText},
			{"pass", KindInt},
		},
		OrderBy: "seq ASC, id COLLATE BINARY ASC",
	},
	"steps": {
		Name: "steps",
		Columns: []Column{
			{"run_id", KindText},
			{"seq", KindInt},
			{"thread", KindInt},
			{"op", KindText},
			{"object", KindInt},
			{"phase", KindInt},
			{"timed_out", KindInt},
			{"outcome", KindText},
			{"version_id", KindInt},
			{"digest", KindText},
		},
		OrderBy: "run_id COLLATE BINARY ASC, seq ASC",
	},
}
