package cff

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Kind selects how a field's bytes are decoded and encoded.
type Kind uint8

const (
	KindUint Kind = iota + 1
	KindInt
	KindBool
	KindString
	KindEnum
	KindDecidedEnum
	KindFlags
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindDecidedEnum:
		return "decided-enum"
	case KindFlags:
		return "flags"
	case KindAlias:
		return "alias"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DecideFunc picks the enum type of a decided field from the already decoded value of
// its decider field. Returning nil decodes every value as an unknown variant.
type DecideFunc func(discriminant any) *EnumType

// Field describes one attribute of an entity schema. A Field belongs to the schema,
// not to any decoded row.
type Field struct {
	Name   string
	Offset int
	Width  int
	Kind   Kind

	Enum  *EnumType // KindEnum
	Flags *FlagType // KindFlags

	Decider string     // KindDecidedEnum: name of the discriminant field
	Decide  DecideFunc // KindDecidedEnum

	Target string // KindAlias
}

// Field constructors used by schema declarations.

func Uint(name string, offset, width int) Field {
	return Field{Name: name, Offset: offset, Width: width, Kind: KindUint}
}

func Int(name string, offset, width int) Field {
	return Field{Name: name, Offset: offset, Width: width, Kind: KindInt}
}

func Bool(name string, offset int) Field {
	return Field{Name: name, Offset: offset, Width: 1, Kind: KindBool}
}

func String(name string, offset, width int) Field {
	return Field{Name: name, Offset: offset, Width: width, Kind: KindString}
}

func Enum(name string, offset int, t *EnumType) Field {
	return Field{Name: name, Offset: offset, Width: t.Width(), Kind: KindEnum, Enum: t}
}

func DecidedEnum(name string, offset, width int, decider string, decide DecideFunc) Field {
	return Field{Name: name, Offset: offset, Width: width, Kind: KindDecidedEnum, Decider: decider, Decide: decide}
}

func FlagSet(name string, offset int, t *FlagType) Field {
	return Field{Name: name, Offset: offset, Width: 1, Kind: KindFlags, Flags: t}
}

func Alias(name, target string) Field {
	return Field{Name: name, Kind: KindAlias, Target: target}
}

// End is the offset one past the field's last byte.
func (f *Field) End() int { return f.Offset + f.Width }

func (f *Field) stored() bool { return f.Kind != KindAlias }

// Decode converts exactly Width bytes into the field's value.
// Decided enums need their discriminant and are decoded through an Entity.
func (f *Field) Decode(b []byte) (any, error) {
	if f.Kind == KindDecidedEnum {
		return nil, fmt.Errorf("%w: %s is decided by %s", ErrSchema, f.Name, f.Decider)
	}
	return f.decode(b, f.Enum)
}

func (f *Field) decode(b []byte, enum *EnumType) (any, error) {
	if !f.stored() {
		return nil, fmt.Errorf("%w: alias %s has no storage", ErrSchema, f.Name)
	}
	if len(b) != f.Width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrWidth, len(b), f.Width)
	}
	switch f.Kind {
	case KindUint:
		return uint32(readUint(b)), nil
	case KindInt:
		return readInt(b), nil
	case KindBool:
		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidBool, b[0])
		}
	case KindString:
		return decodeText(b)
	case KindEnum, KindDecidedEnum:
		if enum == nil {
			enum = rawEnum(f.Width)
		}
		return enum.Decode(b), nil
	case KindFlags:
		return f.Flags.FromByte(b[0]), nil
	default:
		return nil, fmt.Errorf("%w: %s has kind %s", ErrSchema, f.Name, f.Kind)
	}
}

// Encode converts a value into exactly Width bytes.
func (f *Field) Encode(v any) ([]byte, error) {
	if !f.stored() {
		return nil, fmt.Errorf("%w: alias %s has no storage", ErrSchema, f.Name)
	}
	v, err := f.coerce(v, nil)
	if err != nil {
		return nil, err
	}
	out := make([]byte, f.Width)
	switch f.Kind {
	case KindUint:
		writeUint(out, uint64(v.(uint32)))
	case KindInt:
		writeUint(out, uint64(int64(v.(int32))))
	case KindBool:
		if v.(bool) {
			out[0] = 1
		}
	case KindString:
		return encodeText(v.(string), f.Width)
	case KindEnum, KindDecidedEnum:
		raw := v.(EnumValue).raw
		if len(raw) != f.Width {
			return nil, fmt.Errorf("%w: enum value has %d bytes, want %d", ErrWidth, len(raw), f.Width)
		}
		copy(out, raw)
	case KindFlags:
		out[0] = v.(Flags).bits
	}
	return out, nil
}

// coerce converts v to the field's canonical Go type and checks it fits the width.
// enum is the expected type for decided enums; nil skips the type check.
func (f *Field) coerce(v any, enum *EnumType) (any, error) {
	switch f.Kind {
	case KindUint:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if n < 0 || uint64(n) > maxUint(f.Width) {
			return nil, fmt.Errorf("%w: %d in %d unsigned bytes", ErrValueRange, n, f.Width)
		}
		return uint32(n), nil
	case KindInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		lo, hi := intRange(f.Width)
		if n < lo || n > hi {
			return nil, fmt.Errorf("%w: %d in %d signed bytes", ErrValueRange, n, f.Width)
		}
		return int32(n), nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %T for bool", ErrTypeMismatch, v)
		}
		return b, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T for string", ErrTypeMismatch, v)
		}
		return s, nil
	case KindEnum, KindDecidedEnum:
		if enum == nil {
			enum = f.Enum
		}
		switch ev := v.(type) {
		case EnumValue:
			if ev.typ == nil {
				return nil, fmt.Errorf("%w: zero enum value", ErrTypeMismatch)
			}
			if enum != nil && ev.typ != enum {
				return nil, fmt.Errorf("%w: %s value for %s", ErrTypeMismatch, ev.typ.name, enum.name)
			}
			return ev, nil
		case string:
			if enum == nil {
				return nil, fmt.Errorf("%w: %s has no enum type to look up %q", ErrTypeMismatch, f.Name, ev)
			}
			return enum.Parse(ev)
		default:
			return nil, fmt.Errorf("%w: %T for enum", ErrTypeMismatch, v)
		}
	case KindFlags:
		switch fv := v.(type) {
		case Flags:
			if fv.typ != f.Flags {
				return nil, fmt.Errorf("%w: flags of another type", ErrTypeMismatch)
			}
			return fv, nil
		case string:
			return f.Flags.Parse(fv)
		default:
			n, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > math.MaxUint8 {
				return nil, fmt.Errorf("%w: %d for a flag byte", ErrValueRange, n)
			}
			return f.Flags.FromByte(uint8(n)), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s has kind %s", ErrSchema, f.Name, f.Kind)
	}
}

// ParseValue reads the text form of a value, as typed on a command line or query string.
func (f *Field) ParseValue(s string) (any, error) {
	return f.parseValue(s, f.Enum)
}

func (f *Field) parseValue(s string, enum *EnumType) (any, error) {
	switch f.Kind {
	case KindUint, KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, s)
		}
		return f.coerce(n, nil)
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, s)
		}
		return b, nil
	case KindString:
		return s, nil
	case KindEnum, KindDecidedEnum:
		if enum == nil {
			enum = rawEnum(f.Width)
		}
		return enum.Parse(strings.TrimSpace(s))
	case KindFlags:
		return f.Flags.Parse(s)
	default:
		return nil, fmt.Errorf("%w: %s has kind %s", ErrSchema, f.Name, f.Kind)
	}
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	}
	var n uint64
	for i := len(b) - 1; i >= 0; i-- {
		n = n<<8 | uint64(b[i])
	}
	return n
}

func readInt(b []byte) int32 {
	n := readUint(b)
	shift := 64 - 8*uint(len(b))
	return int32(int64(n<<shift) >> shift)
}

func writeUint(out []byte, n uint64) {
	for i := range out {
		out[i] = byte(n >> (8 * i))
	}
}

func maxUint(width int) uint64 {
	return 1<<(8*uint(width)) - 1
}

func intRange(width int) (int64, int64) {
	hi := int64(1)<<(8*uint(width)-1) - 1
	return -hi - 1, hi
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrValueRange, u)
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("%w: %T for integer", ErrTypeMismatch, v)
	}
}

var rawEnums sync.Map // int -> *EnumType

// rawEnum is the memberless enum used when no type applies.
func rawEnum(width int) *EnumType {
	if t, ok := rawEnums.Load(width); ok {
		return t.(*EnumType)
	}
	t, _ := rawEnums.LoadOrStore(width, MustEnumType("Raw"+strconv.Itoa(width), width))
	return t.(*EnumType)
}
