package cff

import (
	"fmt"
	"slices"
)

// MaxPrimaryKey is the largest number of fields a primary key may span.
const MaxPrimaryKey = 4

// Schema is the fixed record layout shared by every entity of one type.
// A Schema is immutable once built and safe to share.
type Schema struct {
	name      string
	fields    []Field
	byName    map[string]int
	length    int
	pk        []string
	pkIdx     []int
	relations []*Relation
	relByName map[string]int
	dependent map[int][]int // decider field -> decided fields
}

type schemaConfig struct {
	length    int
	pk        []string
	relations []*Relation
}

// SchemaOption configures NewSchema.
type SchemaOption func(*schemaConfig)

// WithLength declares the record length when trailing bytes follow the last field.
func WithLength(n int) SchemaOption {
	return func(c *schemaConfig) { c.length = n }
}

// WithPrimaryKey names the fields that identify a row. Order does not matter: index keys
// are built from the fields sorted by name.
func WithPrimaryKey(names ...string) SchemaOption {
	return func(c *schemaConfig) { c.pk = append(c.pk, names...) }
}

func WithRelations(rels ...*Relation) SchemaOption {
	return func(c *schemaConfig) { c.relations = append(c.relations, rels...) }
}

// NewSchema validates the field layout and returns the schema. Fields are decoded in
// the order given.
func NewSchema(name string, fields []Field, opts ...SchemaOption) (*Schema, error) {
	var cfg schemaConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Schema{
		name:      name,
		fields:    slices.Clone(fields),
		byName:    make(map[string]int, len(fields)),
		relByName: make(map[string]int, len(cfg.relations)),
		dependent: make(map[int][]int),
	}
	fail := func(field string, format string, args ...any) error {
		e := newError(OpSchema, fmt.Errorf(format, args...))
		e.Entity, e.Field = name, field
		return e
	}

	for i := range s.fields {
		f := &s.fields[i]
		if f.Name == "" {
			return nil, fail("", "%w: field %d has no name", ErrSchema, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fail(f.Name, "%w: duplicate field name", ErrSchema)
		}
		if err := checkFieldShape(f); err != nil {
			return nil, fail(f.Name, "%w", err)
		}
		if f.Kind == KindDecidedEnum {
			di, ok := s.byName[f.Decider]
			if !ok {
				return nil, fail(f.Name, "%w: decider %s must be declared before it", ErrSchema, f.Decider)
			}
			if !s.fields[di].stored() {
				return nil, fail(f.Name, "%w: decider %s is an alias", ErrSchema, f.Decider)
			}
			s.dependent[di] = append(s.dependent[di], i)
		}
		s.byName[f.Name] = i
	}

	for i := range s.fields {
		f := &s.fields[i]
		if f.stored() {
			s.length = max(s.length, f.End())
			continue
		}
		ti, ok := s.byName[f.Target]
		if !ok || !s.fields[ti].stored() {
			return nil, fail(f.Name, "%w: alias target %q is not a stored field", ErrSchema, f.Target)
		}
	}

	for i := range s.fields {
		a := &s.fields[i]
		if !a.stored() {
			continue
		}
		for j := i + 1; j < len(s.fields); j++ {
			b := &s.fields[j]
			if b.stored() && rangesOverlap(a.Offset, a.End(), b.Offset, b.End()) {
				return nil, fail(b.Name, "%w: [%d,%d) overlaps %s [%d,%d)",
					ErrFieldOverlap, b.Offset, b.End(), a.Name, a.Offset, a.End())
			}
		}
	}

	if cfg.length != 0 {
		if cfg.length < s.length {
			return nil, fail("", "%w: length %d is shorter than the fields (%d)", ErrSchema, cfg.length, s.length)
		}
		s.length = cfg.length
	}
	if s.length == 0 {
		return nil, fail("", "%w: no stored fields", ErrSchema)
	}

	if len(cfg.pk) > MaxPrimaryKey {
		return nil, fail("", "%w: primary key has %d fields, max %d", ErrSchema, len(cfg.pk), MaxPrimaryKey)
	}
	for _, n := range cfg.pk {
		i, ok := s.stored(n)
		if !ok {
			return nil, fail(n, "%w: primary key field does not exist", ErrSchema)
		}
		target := s.fields[i].Name
		if slices.Contains(s.pk, target) {
			return nil, fail(n, "%w: primary key repeats %s", ErrSchema, target)
		}
		s.pk = append(s.pk, target)
	}
	slices.Sort(s.pk)
	for _, n := range s.pk {
		s.pkIdx = append(s.pkIdx, s.byName[n])
	}

	for _, r := range cfg.relations {
		if r == nil || r.Name == "" || r.Target == "" {
			return nil, fail("", "%w: relation needs a name and a target", ErrSchema)
		}
		if _, dup := s.byName[r.Name]; dup {
			return nil, fail(r.Name, "%w: relation shadows a field", ErrSchema)
		}
		if _, dup := s.relByName[r.Name]; dup {
			return nil, fail(r.Name, "%w: duplicate relation name", ErrSchema)
		}
		if len(r.Keys) == 0 {
			return nil, fail(r.Name, "%w: relation has no keys", ErrSchema)
		}
		for _, k := range r.Keys {
			if k.Source.isConst {
				continue
			}
			if _, ok := s.stored(k.Source.field); !ok {
				return nil, fail(r.Name, "%w: relation key source %q is not a field", ErrSchema, k.Source.field)
			}
		}
		s.relByName[r.Name] = len(s.relations)
		s.relations = append(s.relations, r)
	}
	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema(name string, fields []Field, opts ...SchemaOption) *Schema {
	s, err := NewSchema(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func checkFieldShape(f *Field) error {
	if f.Kind == KindAlias {
		if f.Target == "" {
			return fmt.Errorf("%w: alias has no target", ErrSchema)
		}
		return nil
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrSchema, f.Offset)
	}
	switch f.Kind {
	case KindUint, KindInt:
		if f.Width < 1 || f.Width > 4 {
			return fmt.Errorf("%w: integer width %d", ErrSchema, f.Width)
		}
	case KindBool:
		if f.Width != 1 {
			return fmt.Errorf("%w: bool width %d", ErrSchema, f.Width)
		}
	case KindString:
		if f.Width < 1 {
			return fmt.Errorf("%w: string width %d", ErrSchema, f.Width)
		}
	case KindEnum:
		if f.Enum == nil {
			return fmt.Errorf("%w: enum field has no type", ErrSchema)
		}
		if f.Width != f.Enum.Width() {
			return fmt.Errorf("%w: width %d for %s of width %d", ErrSchema, f.Width, f.Enum.Name(), f.Enum.Width())
		}
	case KindDecidedEnum:
		if f.Width < 1 || f.Decider == "" || f.Decide == nil {
			return fmt.Errorf("%w: decided enum needs a width, a decider and a decide func", ErrSchema)
		}
	case KindFlags:
		if f.Flags == nil || f.Width != 1 {
			return fmt.Errorf("%w: flags field needs a flag type and width 1", ErrSchema)
		}
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrSchema, f.Kind)
	}
	return nil
}

func rangesOverlap(a0, a1, b0, b1 int) bool {
	// half-open ranges [a0,a1) and [b0,b1)
	return a0 < b1 && b0 < a1
}

func (s *Schema) Name() string { return s.name }

// Length is the fixed record length in bytes.
func (s *Schema) Length() int { return s.length }

// Fields returns the field descriptors in declaration order.
func (s *Schema) Fields() []Field { return slices.Clone(s.fields) }

// Field looks up a descriptor by name, aliases included.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Resolve returns the stored field behind name, following an alias to its target.
func (s *Schema) Resolve(name string) (Field, bool) {
	i, ok := s.stored(name)
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// PrimaryKey returns the primary key field names sorted by name.
func (s *Schema) PrimaryKey() []string { return slices.Clone(s.pk) }

func (s *Schema) Relations() []*Relation { return slices.Clone(s.relations) }

func (s *Schema) Relation(name string) (*Relation, bool) {
	i, ok := s.relByName[name]
	if !ok {
		return nil, false
	}
	return s.relations[i], true
}

// stored resolves a field or alias name to the index of the stored field behind it.
func (s *Schema) stored(name string) (int, bool) {
	i, ok := s.byName[name]
	if !ok {
		return 0, false
	}
	if f := &s.fields[i]; f.Kind == KindAlias {
		return s.byName[f.Target], true
	}
	return i, true
}

func (s *Schema) isPrimaryKey(i int) bool {
	return slices.Contains(s.pkIdx, i)
}
