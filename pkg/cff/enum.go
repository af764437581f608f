package cff

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// EnumMember is one named raw byte tuple of an EnumType.
type EnumMember struct {
	Name string
	Raw  []byte
}

// Member builds an EnumMember from its raw bytes.
func Member(name string, raw ...byte) EnumMember {
	return EnumMember{Name: name, Raw: raw}
}

// EnumType is a closed set of byte tuples of one width.
type EnumType struct {
	name    string
	width   int
	members []EnumMember
	byRaw   map[string]int
	byName  map[string]int
}

// NewEnumType validates the members and returns the type. Every member must be exactly
// width bytes long, and names and raw tuples must be unique.
func NewEnumType(name string, width int, members ...EnumMember) (*EnumType, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: enum %s has width %d", ErrSchema, name, width)
	}
	t := &EnumType{
		name:   name,
		width:  width,
		byRaw:  make(map[string]int, len(members)),
		byName: make(map[string]int, len(members)),
	}
	for _, m := range members {
		if len(m.Raw) != width {
			return nil, fmt.Errorf("%w: enum %s member %s has %d bytes, want %d", ErrSchema, name, m.Name, len(m.Raw), width)
		}
		if _, dup := t.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: enum %s repeats member %s", ErrSchema, name, m.Name)
		}
		if prev, dup := t.byRaw[string(m.Raw)]; dup {
			return nil, fmt.Errorf("%w: enum %s members %s and %s share bytes", ErrSchema, name, t.members[prev].Name, m.Name)
		}
		t.byName[m.Name] = len(t.members)
		t.byRaw[string(m.Raw)] = len(t.members)
		t.members = append(t.members, EnumMember{Name: m.Name, Raw: append([]byte(nil), m.Raw...)})
	}
	return t, nil
}

// MustEnumType is NewEnumType for package-level declarations.
func MustEnumType(name string, width int, members ...EnumMember) *EnumType {
	t, err := NewEnumType(name, width, members...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *EnumType) Name() string { return t.name }
func (t *EnumType) Width() int   { return t.width }

// Members returns the declared members in declaration order.
func (t *EnumType) Members() []EnumMember {
	out := make([]EnumMember, len(t.members))
	copy(out, t.members)
	return out
}

// Value returns the named member as a value.
func (t *EnumType) Value(name string) (EnumValue, bool) {
	i, ok := t.byName[name]
	if !ok {
		return EnumValue{}, false
	}
	return EnumValue{typ: t, name: name, raw: string(t.members[i].Raw)}, true
}

// MustValue is Value for static lookups; it panics on an undeclared name.
func (t *EnumType) MustValue(name string) EnumValue {
	v, ok := t.Value(name)
	if !ok {
		panic(fmt.Sprintf("cff: enum %s has no member %s", t.name, name))
	}
	return v
}

// Decode matches raw against the members. Unmatched bytes yield an unknown sentinel
// that still carries the raw bytes.
func (t *EnumType) Decode(raw []byte) EnumValue {
	v := EnumValue{typ: t, raw: string(raw)}
	if i, ok := t.byRaw[string(raw)]; ok {
		v.name = t.members[i].Name
	}
	return v
}

// Parse accepts a member name, or raw bytes written as 0x-prefixed hex.
func (t *EnumType) Parse(s string) (EnumValue, error) {
	if v, ok := t.Value(s); ok {
		return v, nil
	}
	if v, ok := t.Value(strings.ToUpper(s)); ok {
		return v, nil
	}
	if h, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		raw, err := hex.DecodeString(h)
		if err != nil {
			return EnumValue{}, fmt.Errorf("%w: %q is not hex", ErrTypeMismatch, s)
		}
		if len(raw) != t.width {
			return EnumValue{}, fmt.Errorf("%w: %s needs %d bytes", ErrWidth, t.name, t.width)
		}
		return t.Decode(raw), nil
	}
	return EnumValue{}, fmt.Errorf("%w: %q is not a member of %s", ErrTypeMismatch, s, t.name)
}

// EnumValue is a decoded enumeration. The zero value is invalid.
// Values are comparable and usable as map keys.
type EnumValue struct {
	typ  *EnumType
	name string
	raw  string
}

// Type returns the enum type the value was decoded as.
func (v EnumValue) Type() *EnumType { return v.typ }

// Name is the member name, or "" for an unknown variant.
func (v EnumValue) Name() string { return v.name }

// Known reports whether the raw bytes matched a declared member.
func (v EnumValue) Known() bool { return v.name != "" }

// Bytes returns a copy of the raw bytes.
func (v EnumValue) Bytes() []byte { return []byte(v.raw) }

// Is reports whether v is the named member.
func (v EnumValue) Is(name string) bool { return v.name != "" && v.name == name }

func (v EnumValue) String() string {
	if v.name != "" {
		return v.name
	}
	tn := "?"
	if v.typ != nil {
		tn = v.typ.name
	}
	return "Unknown" + tn + "(" + rawTuple([]byte(v.raw)) + ")"
}

func (v EnumValue) MarshalText() ([]byte, error) {
	if v.name != "" {
		return []byte(v.name), nil
	}
	return []byte("0x" + hex.EncodeToString([]byte(v.raw))), nil
}

func rawTuple(raw []byte) string {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ", ")
}
