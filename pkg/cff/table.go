package cff

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// TableHeaderSize is the length of the header in front of every table body.
const TableHeaderSize = 12

// body length lives in header bytes [6:10]; the rest of the header is opaque.
const bodyLengthOffset = 6

// Constraints maps field names (or aliases) to required values for Where.
type Constraints map[string]any

type indexKey [MaxPrimaryKey]any

// Table is the ordered rows of one entity type, as stored between two table headers.
type Table struct {
	name   string
	schema *Schema
	header [TableHeaderSize]byte
	rows   []*Entity
	owner  TableSet
	base   int64

	index map[indexKey]*Entity
	stale bool
}

// PeekTableSize returns the header plus the body length the header declares.
func PeekTableSize(data []byte) (int, error) {
	if len(data) < TableHeaderSize {
		return 0, fmt.Errorf("%w: %d bytes left for a %d-byte table header", ErrTruncated, len(data), TableHeaderSize)
	}
	body := binary.LittleEndian.Uint32(data[bodyLengthOffset : bodyLengthOffset+4])
	if uint64(body) > uint64(int(^uint(0)>>1)-TableHeaderSize) {
		return 0, fmt.Errorf("%w: body length %d", ErrTruncated, body)
	}
	return TableHeaderSize + int(body), nil
}

// ParseTable decodes a header and its rows. data must hold exactly one table.
func ParseTable(name string, schema *Schema, data []byte, owner TableSet, diag *Diagnostics) (*Table, error) {
	return parseTable(name, schema, data, 0, owner, diag)
}

func parseTable(name string, schema *Schema, data []byte, base int64, owner TableSet, diag *Diagnostics) (*Table, error) {
	fail := func(err error, off int64) error {
		e := newError(OpParse, err)
		e.Table, e.Entity, e.Offset = name, schema.name, base+off
		return e
	}

	size, err := PeekTableSize(data)
	if err != nil {
		return nil, fail(err, 0)
	}
	body := size - TableHeaderSize
	if body%schema.length != 0 {
		return nil, fail(fmt.Errorf("%w: %d bytes of %d-byte rows", ErrBodyLength, body, schema.length), bodyLengthOffset)
	}
	switch {
	case len(data) < size:
		return nil, fail(fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncated, size, len(data)), int64(len(data)))
	case len(data) > size:
		return nil, fail(fmt.Errorf("%w: %d bytes after the last row", ErrTrailingBytes, len(data)-size), int64(size))
	}

	t := &Table{
		name:   name,
		schema: schema,
		owner:  owner,
		base:   base,
		rows:   make([]*Entity, 0, body/schema.length),
		stale:  true,
	}
	copy(t.header[:], data[:TableHeaderSize])

	for off, row := TableHeaderSize, 0; off < size; off, row = off+schema.length, row+1 {
		e, err := decodeEntity(schema, data[off:off+schema.length], owner, diag, name, row)
		if err != nil {
			return nil, locate(err, OpParse, func(ce *Error) {
				ce.Table, ce.Row = name, row
				if ce.Offset < 0 {
					ce.Offset = 0
				}
				ce.Offset += base + int64(off)
			})
		}
		e.table = t
		t.rows = append(t.rows, e)
	}
	t.Reindex()
	return t, nil
}

// NewTable builds an empty table with a zeroed header.
func NewTable(name string, schema *Schema, owner TableSet) *Table {
	return &Table{name: name, schema: schema, owner: owner, stale: true}
}

func (t *Table) Name() string     { return t.name }
func (t *Table) Schema() *Schema  { return t.schema }
func (t *Table) Len() int         { return len(t.rows) }
func (t *Table) Offset() int64    { return t.base }
func (t *Table) Header() [12]byte { return t.header }

// Row returns the i-th row.
func (t *Table) Row(i int) (*Entity, error) {
	if i < 0 || i >= len(t.rows) {
		e := newError(OpLookup, fmt.Errorf("%w: %d of %d", ErrRowIndex, i, len(t.rows)))
		e.Table = t.name
		return nil, e
	}
	return t.rows[i], nil
}

// Rows returns the rows in table order. The slice is a copy; the entities are not.
func (t *Table) Rows() []*Entity { return slices.Clone(t.rows) }

// RowIndex reports the position of e in the table, or -1.
func (t *Table) RowIndex(e *Entity) int {
	return slices.Index(t.rows, e)
}

// Size is the encoded length of the table including its header.
func (t *Table) Size() int { return TableHeaderSize + len(t.rows)*t.schema.length }

// NewRow returns a detached zero-filled entity for this table's schema.
func (t *Table) NewRow() (*Entity, error) {
	return decodeEntity(t.schema, make([]byte, t.schema.length), t.owner, nil, t.name, -1)
}

// Append adds a detached entity of this table's schema at the end.
func (t *Table) Append(e *Entity) error {
	if e.schema != t.schema {
		ce := newError(OpLookup, fmt.Errorf("%w: %s row in %s table", ErrTypeMismatch, e.schema.name, t.schema.name))
		ce.Table = t.name
		return ce
	}
	if e.table != nil {
		ce := newError(OpLookup, fmt.Errorf("%w: row already belongs to table %s", ErrSchema, e.table.name))
		ce.Table = t.name
		return ce
	}
	e.table, e.owner = t, t.owner
	t.rows = append(t.rows, e)
	t.invalidate()
	return nil
}

// Remove deletes the i-th row and returns it detached.
func (t *Table) Remove(i int) (*Entity, error) {
	e, err := t.Row(i)
	if err != nil {
		return nil, err
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	e.table = nil
	t.invalidate()
	return e, nil
}

// Bytes encodes the header, with its body length recomputed, followed by every row.
func (t *Table) Bytes() ([]byte, error) {
	out := make([]byte, 0, t.Size())
	out = append(out, t.header[:]...)
	binary.LittleEndian.PutUint32(out[bodyLengthOffset:], uint32(len(t.rows)*t.schema.length))
	for i, e := range t.rows {
		b, err := e.Bytes()
		if err != nil {
			return nil, locate(err, OpEncode, func(ce *Error) {
				ce.Table, ce.Row = t.name, i
				off := int64(TableHeaderSize + i*t.schema.length)
				if ce.Offset < 0 {
					ce.Offset = 0
				}
				ce.Offset += t.base + off
			})
		}
		out = append(out, b...)
	}
	return out, nil
}

func (t *Table) invalidate() { t.stale = true }

// Reindex rebuilds the primary key index now. Where rebuilds it on demand after rows
// are added or removed or a primary key field is set.
func (t *Table) Reindex() {
	t.stale = false
	if len(t.schema.pkIdx) == 0 {
		t.index = nil
		return
	}
	t.index = make(map[indexKey]*Entity, len(t.rows))
	for _, e := range t.rows {
		// Keys are not unique in shipped files; the last row wins.
		t.index[t.keyOf(e)] = e
	}
}

func (t *Table) keyOf(e *Entity) indexKey {
	var k indexKey
	for j, i := range t.schema.pkIdx {
		k[j] = e.values[i]
	}
	return k
}

type constraint struct {
	idx   int
	value any
	text  string // decided enum given by name, matched per row
}

// Where returns the rows whose fields equal every constraint, in table order. When the
// constrained fields are exactly the primary key the index answers with at most one row.
func (t *Table) Where(c Constraints) ([]*Entity, error) {
	cs, none, err := t.constraints(c)
	if err != nil || none {
		return nil, err
	}
	if t.indexable(cs) {
		if t.stale {
			t.Reindex()
		}
		var k indexKey
		for j, i := range t.schema.pkIdx {
			k[j] = cs[i].value
		}
		if e, ok := t.index[k]; ok {
			return []*Entity{e}, nil
		}
		return nil, nil
	}
	return t.scan(cs), nil
}

// Scan is Where without the index.
func (t *Table) Scan(c Constraints) ([]*Entity, error) {
	cs, none, err := t.constraints(c)
	if err != nil || none {
		return nil, err
	}
	return t.scan(cs), nil
}

// First is Where returning the first match, or nil.
func (t *Table) First(c Constraints) (*Entity, error) {
	rows, err := t.Where(c)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (t *Table) scan(cs map[int]constraint) []*Entity {
	var out []*Entity
	for _, e := range t.rows {
		if matches(e, cs) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e *Entity, cs map[int]constraint) bool {
	for i, c := range cs {
		if c.text != "" {
			want, err := e.enums[i].Parse(c.text)
			if err != nil || want != e.values[i] {
				return false
			}
			continue
		}
		if e.values[i] != c.value {
			return false
		}
	}
	return true
}

func (t *Table) indexable(cs map[int]constraint) bool {
	if len(t.schema.pkIdx) == 0 || len(cs) != len(t.schema.pkIdx) {
		return false
	}
	for _, i := range t.schema.pkIdx {
		c, ok := cs[i]
		if !ok || c.text != "" {
			return false
		}
	}
	return true
}

// constraints resolves aliases and converts values to canonical field types. none is
// true when two constraints on the same field disagree.
func (t *Table) constraints(c Constraints) (cs map[int]constraint, none bool, err error) {
	cs = make(map[int]constraint, len(c))
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		i, ok := t.schema.stored(n)
		if !ok {
			ce := newError(OpLookup, ErrUnknownField)
			ce.Table, ce.Entity, ce.Field = t.name, t.schema.name, n
			return nil, false, ce
		}
		f := &t.schema.fields[i]
		con := constraint{idx: i}
		if s, isText := c[n].(string); isText && f.Kind == KindDecidedEnum {
			con.text = strings.TrimSpace(s)
		} else {
			v, err := f.coerce(c[n], nil)
			if err != nil {
				ce := newError(OpLookup, err)
				ce.Table, ce.Entity, ce.Field = t.name, t.schema.name, n
				return nil, false, ce
			}
			con.value = v
		}
		if prev, dup := cs[i]; dup && prev != con {
			return nil, true, nil
		}
		cs[i] = con
	}
	return cs, false, nil
}
