package cff

import (
	"slices"
	"sort"
)

// UnknownEnum records one enum value that matched no declared member.
type UnknownEnum struct {
	Table  string
	Entity string
	Field  string
	Row    int
	Type   string
	Raw    []byte
}

// Diagnostics collects recoverable findings of one load. A nil *Diagnostics discards
// everything recorded into it.
type Diagnostics struct {
	unknown []UnknownEnum
}

func NewDiagnostics() *Diagnostics { return &Diagnostics{} }

func (d *Diagnostics) recordEnum(table, entity, field string, row int, v EnumValue) {
	if d == nil {
		return
	}
	tn := ""
	if v.typ != nil {
		tn = v.typ.name
	}
	d.unknown = append(d.unknown, UnknownEnum{
		Table:  table,
		Entity: entity,
		Field:  field,
		Row:    row,
		Type:   tn,
		Raw:    v.Bytes(),
	})
}

// UnknownEnums lists unknown enum values in the order they were decoded.
func (d *Diagnostics) UnknownEnums() []UnknownEnum {
	if d == nil {
		return nil
	}
	return slices.Clone(d.unknown)
}

func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.unknown)
}

// EnumCount is the number of unknown values seen for one enum type.
type EnumCount struct {
	Type     string
	Count    int
	Distinct int
}

// Summary groups unknown enum values by type, most frequent first.
func (d *Diagnostics) Summary() []EnumCount {
	if d == nil {
		return nil
	}
	counts := map[string]*EnumCount{}
	seen := map[string]map[string]struct{}{}
	for _, u := range d.unknown {
		c, ok := counts[u.Type]
		if !ok {
			c = &EnumCount{Type: u.Type}
			counts[u.Type] = c
			seen[u.Type] = map[string]struct{}{}
		}
		c.Count++
		if _, dup := seen[u.Type][string(u.Raw)]; !dup {
			seen[u.Type][string(u.Raw)] = struct{}{}
			c.Distinct++
		}
	}
	out := make([]EnumCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
