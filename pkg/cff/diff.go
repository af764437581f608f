package cff

import "fmt"

// FieldDiff is one field whose value differs between two rows.
type FieldDiff struct {
	Table string
	Row   int
	Field string
	Old   any
	New   any
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("%s[%d].%s: %v -> %v", d.Table, d.Row, d.Field, d.Old, d.New)
}

// TableDiff summarises the differences within one table.
type TableDiff struct {
	Table   string
	OldRows int
	NewRows int
	Fields  []FieldDiff
}

// Changed reports whether the table differs at all.
func (d TableDiff) Changed() bool {
	return d.OldRows != d.NewRows || len(d.Fields) > 0
}

// Diff compares two files table by table. Rows are paired by position; rows past the
// shorter table are only counted. Tables missing from either side are skipped.
func Diff(a, b *GameData) []TableDiff {
	var out []TableDiff
	for _, ta := range a.tables {
		tb, ok := b.byName[ta.name]
		if !ok || ta.schema != tb.schema {
			continue
		}
		d := TableDiff{Table: ta.name, OldRows: ta.Len(), NewRows: tb.Len()}
		for i := 0; i < min(ta.Len(), tb.Len()); i++ {
			d.Fields = append(d.Fields, diffRows(ta.name, i, ta.rows[i], tb.rows[i])...)
		}
		if d.Changed() {
			out = append(out, d)
		}
	}
	return out
}

func diffRows(table string, row int, a, b *Entity) []FieldDiff {
	var out []FieldDiff
	for i, f := range a.schema.fields {
		if !f.stored() || a.values[i] == b.values[i] {
			continue
		}
		out = append(out, FieldDiff{Table: table, Row: row, Field: f.Name, Old: a.values[i], New: b.values[i]})
	}
	return out
}
