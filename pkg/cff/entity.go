package cff

import (
	"fmt"
	"slices"
)

// Entity is one decoded record. It keeps the raw bytes it was read from so that
// bytes outside every declared field survive re-encoding.
type Entity struct {
	schema *Schema
	raw    []byte
	values []any
	enums  []*EnumType // chosen type per decided field
	owner  TableSet    // non-owning, used for relation lookups only
	table  *Table
}

// FieldValue pairs a field with its current value.
type FieldValue struct {
	Field Field
	Value any
}

// NewEntity decodes raw, which must be exactly schema.Length() bytes. raw is copied.
// owner may be nil when relations are resolved explicitly. Unknown enum values are
// recorded in diag when it is not nil.
func NewEntity(schema *Schema, raw []byte, owner TableSet, diag *Diagnostics) (*Entity, error) {
	return decodeEntity(schema, raw, owner, diag, "", -1)
}

func decodeEntity(schema *Schema, raw []byte, owner TableSet, diag *Diagnostics, table string, row int) (*Entity, error) {
	if len(raw) != schema.length {
		e := newError(OpDecode, fmt.Errorf("%w: got %d bytes, want %d", ErrWidth, len(raw), schema.length))
		e.Entity, e.Table, e.Row = schema.name, table, row
		return nil, e
	}
	e := &Entity{
		schema: schema,
		raw:    slices.Clone(raw),
		values: make([]any, len(schema.fields)),
		enums:  make([]*EnumType, len(schema.fields)),
		owner:  owner,
	}
	for i := range schema.fields {
		f := &schema.fields[i]
		if !f.stored() {
			continue
		}
		var enum *EnumType
		switch f.Kind {
		case KindEnum:
			enum = f.Enum
		case KindDecidedEnum:
			enum = e.decide(i)
		}
		v, err := f.decode(e.raw[f.Offset:f.End()], enum)
		if err != nil {
			ce := newError(OpDecode, err)
			ce.Entity, ce.Field, ce.Table, ce.Row, ce.Offset = schema.name, f.Name, table, row, int64(f.Offset)
			return nil, ce
		}
		if ev, ok := v.(EnumValue); ok && !ev.Known() {
			diag.recordEnum(table, schema.name, f.Name, row, ev)
		}
		e.values[i] = v
		e.enums[i] = enum
	}
	return e, nil
}

// decide picks the enum type of decided field i from its decider's current value.
func (e *Entity) decide(i int) *EnumType {
	f := &e.schema.fields[i]
	t := f.Decide(e.values[e.schema.byName[f.Decider]])
	if t == nil || t.Width() != f.Width {
		return rawEnum(f.Width)
	}
	return t
}

func (e *Entity) Schema() *Schema { return e.schema }

// Table returns the table holding the entity, or nil for a detached entity.
func (e *Entity) Table() *Table { return e.table }

// Len is the record length in bytes.
func (e *Entity) Len() int { return e.schema.length }

func (e *Entity) fieldIndex(name string) (int, error) {
	i, ok := e.schema.stored(name)
	if !ok {
		ce := newError(OpLookup, ErrUnknownField)
		ce.Entity, ce.Field = e.schema.name, name
		return 0, ce
	}
	return i, nil
}

// Get returns the current value of a field or alias.
func (e *Entity) Get(name string) (any, error) {
	i, err := e.fieldIndex(name)
	if err != nil {
		return nil, err
	}
	return e.values[i], nil
}

// Set assigns a field or alias. The value is converted to the field's canonical type and
// encoded before it is stored, so an entity never holds a value it cannot write back.
func (e *Entity) Set(name string, v any) error {
	i, err := e.fieldIndex(name)
	if err != nil {
		return err
	}
	f := &e.schema.fields[i]
	fail := func(err error) error {
		ce := newError(OpEncode, err)
		ce.Entity, ce.Field, ce.Offset = e.schema.name, f.Name, int64(f.Offset)
		return ce
	}

	cv, err := f.coerce(v, e.enums[i])
	if err != nil {
		return fail(err)
	}
	if _, err := f.Encode(cv); err != nil {
		return fail(err)
	}
	e.values[i] = cv

	// A new discriminant re-reads the dependent fields' bytes under the new enum type.
	for _, di := range e.schema.dependent[i] {
		d := &e.schema.fields[di]
		raw, err := d.Encode(e.values[di])
		if err != nil {
			return fail(err)
		}
		t := e.decide(di)
		e.enums[di] = t
		e.values[di] = t.Decode(raw)
	}
	if e.table != nil && e.schema.isPrimaryKey(i) {
		e.table.invalidate()
	}
	return nil
}

// ParseSet parses the text form of a value and assigns it.
func (e *Entity) ParseSet(name, text string) error {
	i, err := e.fieldIndex(name)
	if err != nil {
		return err
	}
	f := &e.schema.fields[i]
	v, err := f.parseValue(text, e.enums[i])
	if err != nil {
		ce := newError(OpParse, err)
		ce.Entity, ce.Field = e.schema.name, f.Name
		return ce
	}
	return e.Set(name, v)
}

// EnumTypeOf returns the enum type a field currently decodes as. For decided fields
// this depends on the decider's value.
func (e *Entity) EnumTypeOf(name string) (*EnumType, error) {
	i, err := e.fieldIndex(name)
	if err != nil {
		return nil, err
	}
	if e.enums[i] == nil {
		return nil, fmt.Errorf("%w: %s is not an enum", ErrTypeMismatch, name)
	}
	return e.enums[i], nil
}

func (e *Entity) Uint(name string) (uint32, error)    { return getAs[uint32](e, name) }
func (e *Entity) Int(name string) (int32, error)      { return getAs[int32](e, name) }
func (e *Entity) Bool(name string) (bool, error)      { return getAs[bool](e, name) }
func (e *Entity) Text(name string) (string, error)    { return getAs[string](e, name) }
func (e *Entity) Enum(name string) (EnumValue, error) { return getAs[EnumValue](e, name) }
func (e *Entity) Flags(name string) (Flags, error)    { return getAs[Flags](e, name) }

func getAs[T any](e *Entity, name string) (T, error) {
	var zero T
	v, err := e.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		ce := newError(OpLookup, fmt.Errorf("%w: %s holds %T, not %T", ErrTypeMismatch, name, v, zero))
		ce.Entity, ce.Field = e.schema.name, name
		return zero, ce
	}
	return t, nil
}

// Values lists every stored field with its value, in declaration order.
func (e *Entity) Values() []FieldValue {
	out := make([]FieldValue, 0, len(e.values))
	for i, f := range e.schema.fields {
		if f.stored() {
			out = append(out, FieldValue{Field: f, Value: e.values[i]})
		}
	}
	return out
}

// Bytes encodes every field over a copy of the original record.
func (e *Entity) Bytes() ([]byte, error) {
	out := slices.Clone(e.raw)
	for i := range e.schema.fields {
		f := &e.schema.fields[i]
		if !f.stored() {
			continue
		}
		b, err := f.Encode(e.values[i])
		if err != nil {
			ce := newError(OpEncode, err)
			ce.Entity, ce.Field, ce.Offset = e.schema.name, f.Name, int64(f.Offset)
			return nil, ce
		}
		copy(out[f.Offset:], b)
	}
	if len(out) != e.schema.length {
		ce := newError(OpEncode, fmt.Errorf("%w: encoded %d bytes, want %d", ErrWidth, len(out), e.schema.length))
		ce.Entity = e.schema.name
		return nil, ce
	}
	return out, nil
}

// Hex is a hex dump of the encoded record.
func (e *Entity) Hex() (string, error) {
	b, err := e.Bytes()
	if err != nil {
		return "", err
	}
	return HexDump(b, 0), nil
}

// Clone returns a detached copy carrying the same values and owner.
func (e *Entity) Clone() *Entity {
	return &Entity{
		schema: e.schema,
		raw:    slices.Clone(e.raw),
		values: slices.Clone(e.values),
		enums:  slices.Clone(e.enums),
		owner:  e.owner,
	}
}

// Attr reads a field, an alias or a relation by name. Relations resolve against the
// entity's owner.
func (e *Entity) Attr(name string) (any, error) {
	if _, ok := e.schema.byName[name]; ok {
		return e.Get(name)
	}
	if _, ok := e.schema.Relation(name); ok {
		return e.Relation(name)
	}
	ce := newError(OpLookup, ErrUnknownField)
	ce.Entity, ce.Field = e.schema.name, name
	return nil, ce
}

// attr is Attr with relations resolved against tables instead of the owner.
func (e *Entity) attr(name string, tables TableSet) (any, error) {
	if _, ok := e.schema.byName[name]; ok {
		return e.Get(name)
	}
	if r, ok := e.schema.Relation(name); ok {
		return r.Resolve(e, tables)
	}
	ce := newError(OpLookup, ErrUnknownField)
	ce.Entity, ce.Field = e.schema.name, name
	return nil, ce
}

// Relation resolves a declared relation against the entity's owner.
func (e *Entity) Relation(name string) (any, error) {
	r, err := e.relation(name)
	if err != nil {
		return nil, err
	}
	return r.Resolve(e, e.owner)
}

// SetRelation writes through a single-valued projected relation.
func (e *Entity) SetRelation(name string, v any) error {
	r, err := e.relation(name)
	if err != nil {
		return err
	}
	return r.Assign(e, e.owner, v)
}

func (e *Entity) relation(name string) (*Relation, error) {
	r, ok := e.schema.Relation(name)
	if !ok {
		ce := newError(OpLookup, ErrRelationNotFound)
		ce.Entity, ce.Field = e.schema.name, name
		return nil, ce
	}
	if e.owner == nil {
		ce := newError(OpLookup, fmt.Errorf("%w: entity is not attached to any tables", ErrTableNotFound))
		ce.Entity, ce.Field = e.schema.name, name
		return nil, ce
	}
	return r, nil
}
