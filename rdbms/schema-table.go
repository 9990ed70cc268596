package rdbms

import (
	"fmt"
	"regexp"
	"strings"
)

// SchemaTable holds a table reference of the form [<schema>.]<table>, where
// the table part may be a quoted identifier containing dots.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

// isQuotedTable reports whether the whole value is one quoted identifier with
// an embedded dot, e.g. "some.table", as opposed to "schema"."table".
func (st *SchemaTable) isQuotedTable() bool {
	wholeQuoted := regexp.MustCompile(`".+\..+"`)
	pairQuoted := regexp.MustCompile(`".+"\.".+"`)
	return wholeQuoted.MatchString(st.SchemaTable) && !pairQuoted.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() { // the dot is part of the quoted name.
		return st.SchemaTable
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 {
		return st.SchemaTable
	}
	return st.SchemaTable[i+1:]
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 {
		return ""
	}
	return st.SchemaTable[:i]
}

// AppendSuffix returns the schema.table string with suffix appended to the
// table name, keeping the suffix inside the quotes when the table is quoted.
func (st *SchemaTable) AppendSuffix(suffix string) string {
	schema := st.GetSchema()
	table := st.GetTable()
	sep := "."
	if schema == "" {
		sep = ""
	}
	closingQuote := ""
	if regexp.MustCompile(`".+"`).MatchString(table) {
		closingQuote = `"`
		table = strings.TrimRight(table, `"`)
	}
	return fmt.Sprintf("%v%v%v%v%v", schema, sep, table, suffix, closingQuote)
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}
