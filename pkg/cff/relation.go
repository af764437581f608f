package cff

import (
	"fmt"
	"slices"
)

// TableSet looks tables up by name. Relations resolve against a TableSet.
type TableSet interface {
	Table(name string) (*Table, bool)
}

// Tables is an ad-hoc TableSet.
type Tables map[string]*Table

func (ts Tables) Table(name string) (*Table, bool) {
	t, ok := ts[name]
	return t, ok
}

// KeySource supplies one side of a relation key: a field on the source entity or a
// constant.
type KeySource struct {
	field   string
	value   any
	isConst bool
}

func FromField(name string) KeySource { return KeySource{field: name} }
func Const(v any) KeySource           { return KeySource{value: v, isConst: true} }

func (k KeySource) String() string {
	if k.isConst {
		return fmt.Sprintf("%v", k.value)
	}
	return k.field
}

// KeyMap binds a target field to its source.
type KeyMap struct {
	Field  string
	Source KeySource
}

// Relation is a lazily resolved reference from an entity to rows of another table.
type Relation struct {
	Name   string
	Target string
	Keys   []KeyMap
	// Path projects each match through a chain of attribute names. Empty yields the
	// matched entities.
	Path []string
	Many bool
	// Uncertain records doubts about the mapping. The mapping is used as declared.
	Uncertain string
}

// Keys is shorthand for building a relation key list.
func Keys(pairs ...any) []KeyMap {
	if len(pairs)%2 != 0 {
		panic("cff: Keys needs field/source pairs")
	}
	out := make([]KeyMap, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		field, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("cff: Keys pair %d has no target field name", i/2))
		}
		src, ok := pairs[i+1].(KeySource)
		if !ok {
			src = Const(pairs[i+1])
		}
		out = append(out, KeyMap{Field: field, Source: src})
	}
	return out
}

// fail keeps the innermost location already attached to err.
func (r *Relation) fail(e *Entity, err error) error {
	return locate(err, OpLookup, func(ce *Error) {
		if ce.Entity != "" {
			return
		}
		ce.Entity, ce.Field = e.schema.name, r.Name
		if e.table != nil {
			ce.Table = e.table.name
		}
	})
}

// Matches returns the target rows for e without projecting them.
func (r *Relation) Matches(e *Entity, tables TableSet) ([]*Entity, error) {
	if tables == nil {
		return nil, r.fail(e, fmt.Errorf("%w: no table set", ErrTableNotFound))
	}
	target, ok := tables.Table(r.Target)
	if !ok {
		return nil, r.fail(e, fmt.Errorf("%w: %s", ErrTableNotFound, r.Target))
	}
	c := make(Constraints, len(r.Keys))
	for _, k := range r.Keys {
		if k.Source.isConst {
			c[k.Field] = k.Source.value
			continue
		}
		v, err := e.Get(k.Source.field)
		if err != nil {
			return nil, r.fail(e, err)
		}
		c[k.Field] = v
	}
	rows, err := target.Where(c)
	if err != nil {
		return nil, r.fail(e, err)
	}
	return rows, nil
}

// Resolve evaluates the relation for e. Single relations return the first projected
// match or nil when nothing matches; Many relations return []any.
func (r *Relation) Resolve(e *Entity, tables TableSet) (any, error) {
	rows, err := r.Matches(e, tables)
	if err != nil {
		return nil, err
	}
	if !r.Many {
		if len(rows) == 0 {
			return nil, nil
		}
		return r.project(e, rows[0], tables)
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		v, err := r.project(e, row, tables)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// project follows Path from row. Every hop resolves against tables.
func (r *Relation) project(src, row *Entity, tables TableSet) (any, error) {
	var cur any = row
	for _, hop := range r.Path {
		switch v := cur.(type) {
		case nil:
			return nil, nil
		case *Entity:
			next, err := v.attr(hop, tables)
			if err != nil {
				return nil, r.fail(src, err)
			}
			cur = next
		default:
			return nil, r.fail(src, fmt.Errorf("%w: cannot read %s from %T", ErrTypeMismatch, hop, cur))
		}
	}
	if e, ok := cur.(*Entity); ok && e == nil {
		return nil, nil
	}
	return cur, nil
}

// Assign writes v through the relation. Only single relations with a projection path are
// writable, and every hop must match exactly one row.
func (r *Relation) Assign(e *Entity, tables TableSet, v any) error {
	if r.Many || len(r.Path) == 0 {
		return r.fail(e, fmt.Errorf("%w: %s", ErrRelationWrite, r.describe()))
	}
	cur, err := r.single(e, tables)
	if err != nil {
		return err
	}
	path := slices.Clone(r.Path)
	last := path[len(path)-1]
	for _, hop := range path[:len(path)-1] {
		next, err := cur.hop(hop, tables)
		if err != nil {
			return r.fail(e, err)
		}
		cur = next
	}
	if rel, ok := cur.schema.Relation(last); ok {
		return rel.Assign(cur, tables, v)
	}
	if err := cur.Set(last, v); err != nil {
		return r.fail(e, err)
	}
	return nil
}

func (r *Relation) single(e *Entity, tables TableSet) (*Entity, error) {
	rows, err := r.Matches(e, tables)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, r.fail(e, ErrNoMatch)
	case 1:
		return rows[0], nil
	default:
		return nil, r.fail(e, fmt.Errorf("%w: %d rows", ErrAmbiguousMatch, len(rows)))
	}
}

// hop follows one intermediate path element for a write.
func (e *Entity) hop(name string, tables TableSet) (*Entity, error) {
	rel, ok := e.schema.Relation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a relation", ErrRelationWrite, e.schema.name, name)
	}
	if rel.Many {
		return nil, fmt.Errorf("%w: %s.%s is multi-valued", ErrRelationWrite, e.schema.name, name)
	}
	if len(rel.Path) == 0 {
		return rel.single(e, tables)
	}
	v, err := rel.Resolve(e, tables)
	if err != nil {
		return nil, err
	}
	next, ok := v.(*Entity)
	if !ok || next == nil {
		return nil, fmt.Errorf("%w: %s.%s does not lead to a row", ErrRelationWrite, e.schema.name, name)
	}
	return next, nil
}

func (r *Relation) describe() string {
	if r.Many {
		return r.Name + " is multi-valued"
	}
	return r.Name + " projects whole rows"
}
