package cff

import (
	"fmt"
	"strconv"
	"strings"
)

// FlagBit names one bit position (0-7) of a flag byte.
type FlagBit struct {
	Name string
	Bit  uint8
}

// FlagType is a one-byte bitmask over named bit positions.
type FlagType struct {
	name string
	bits []FlagBit
	mask map[string]uint8
}

func NewFlagType(name string, bits ...FlagBit) (*FlagType, error) {
	t := &FlagType{name: name, mask: make(map[string]uint8, len(bits))}
	var used uint8
	for _, b := range bits {
		if b.Bit > 7 {
			return nil, fmt.Errorf("%w: flag %s.%s uses bit %d", ErrSchema, name, b.Name, b.Bit)
		}
		if _, dup := t.mask[b.Name]; dup {
			return nil, fmt.Errorf("%w: flag %s repeats %s", ErrSchema, name, b.Name)
		}
		m := uint8(1) << b.Bit
		if used&m != 0 {
			return nil, fmt.Errorf("%w: flag %s reuses bit %d", ErrSchema, name, b.Bit)
		}
		used |= m
		t.mask[b.Name] = m
		t.bits = append(t.bits, b)
	}
	return t, nil
}

func MustFlagType(name string, bits ...FlagBit) *FlagType {
	t, err := NewFlagType(name, bits...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *FlagType) Name() string { return t.name }

// Of returns a Flags value with the named bits set.
func (t *FlagType) Of(names ...string) (Flags, error) {
	f := Flags{typ: t}
	for _, n := range names {
		m, ok := t.mask[n]
		if !ok {
			return Flags{}, fmt.Errorf("%w: %s has no flag %s", ErrTypeMismatch, t.name, n)
		}
		f.bits |= m
	}
	return f, nil
}

// FromByte wraps a raw flag byte. Undeclared bits are preserved.
func (t *FlagType) FromByte(b uint8) Flags {
	return Flags{typ: t, bits: b}
}

// Parse accepts "A|B", an empty string, or a number such as 0x05.
func (t *FlagType) Parse(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Flags{typ: t}, nil
	}
	f := Flags{typ: t}
	for _, p := range strings.Split(s, "|") {
		p = strings.TrimSpace(p)
		if n, err := strconv.ParseUint(p, 0, 8); err == nil {
			f.bits |= uint8(n)
			continue
		}
		m, ok := t.mask[p]
		if !ok {
			return Flags{}, fmt.Errorf("%w: %s has no flag %s", ErrTypeMismatch, t.name, p)
		}
		f.bits |= m
	}
	return f, nil
}

// Flags is a decoded flag byte.
type Flags struct {
	typ  *FlagType
	bits uint8
}

func (f Flags) Type() *FlagType { return f.typ }
func (f Flags) Byte() uint8     { return f.bits }

func (f Flags) Has(name string) bool {
	if f.typ == nil {
		return false
	}
	m, ok := f.typ.mask[name]
	return ok && f.bits&m == m
}

// With returns a copy with the named bits set.
func (f Flags) With(names ...string) (Flags, error) {
	add, err := f.typ.Of(names...)
	if err != nil {
		return f, err
	}
	f.bits |= add.bits
	return f, nil
}

// Without returns a copy with the named bits cleared.
func (f Flags) Without(names ...string) (Flags, error) {
	rm, err := f.typ.Of(names...)
	if err != nil {
		return f, err
	}
	f.bits &^= rm.bits
	return f, nil
}

// Names lists the set bits that have names, in declaration order.
func (f Flags) Names() []string {
	if f.typ == nil {
		return nil
	}
	var out []string
	for _, b := range f.typ.bits {
		if f.bits&(1<<b.Bit) != 0 {
			out = append(out, b.Name)
		}
	}
	return out
}

func (f Flags) String() string {
	names := f.Names()
	var rest uint8 = f.bits
	if f.typ != nil {
		for _, n := range names {
			rest &^= f.typ.mask[n]
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", rest))
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
