package cff

import (
	"errors"
	"fmt"
	"strings"
)

// Schema definition errors. These surface at startup when a schema is built.
var (
	ErrSchema       = errors.New("invalid schema")
	ErrFieldOverlap = errors.New("field byte ranges overlap")
)

// Value errors raised while decoding or encoding a single field.
var (
	ErrWidth         = errors.New("slice length does not match field width")
	ErrValueRange    = errors.New("value out of range for field width")
	ErrTypeMismatch  = errors.New("value type does not match field kind")
	ErrInvalidBool   = errors.New("boolean byte is neither 0 nor 1")
	ErrStringTooLong = errors.New("encoded string exceeds field width")
	ErrUnencodable   = errors.New("string is not representable in windows-1252")
	ErrUnknownField  = errors.New("unknown field")
	ErrRowIndex      = errors.New("row index out of range")
)

// Format integrity errors. Loading aborts on any of these.
var (
	ErrBodyLength       = errors.New("table body length is not a multiple of the row length")
	ErrTruncated        = errors.New("data ends before the declared length")
	ErrTrailingBytes    = errors.New("unconsumed bytes after the declared length")
	ErrLengthMismatch   = errors.New("file length does not match catalog")
	ErrChecksumMismatch = errors.New("file checksum does not match catalog")
	ErrOffsetMismatch   = errors.New("table does not start at the catalog offset")
)

// Lookup and relation errors.
var (
	ErrTableNotFound    = errors.New("table not found")
	ErrRelationNotFound = errors.New("relation not found")
	ErrRelationWrite    = errors.New("relation is not writable")
	ErrNoMatch          = errors.New("relation matched no rows")
	ErrAmbiguousMatch   = errors.New("relation matched more than one row")
)

// Op names the codec operation that failed.
type Op string

const (
	OpSchema Op = "schema"
	OpDecode Op = "decode"
	OpEncode Op = "encode"
	OpParse  Op = "parse"
	OpLookup Op = "lookup"
	OpLoad   Op = "load"
	OpSave   Op = "save"
)

// Error carries the location of a codec failure. Row and Offset are -1 when unknown.
type Error struct {
	Op     Op
	Table  string
	Entity string
	Field  string
	Row    int
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("cff: ")
	b.WriteString(string(e.Op))
	switch {
	case e.Entity != "" && e.Field != "":
		b.WriteString(" " + e.Entity + "." + e.Field)
	case e.Entity != "":
		b.WriteString(" " + e.Entity)
	case e.Field != "":
		b.WriteString(" " + e.Field)
	}

	var where []string
	if e.Table != "" {
		where = append(where, "table "+e.Table)
	}
	if e.Row >= 0 {
		where = append(where, fmt.Sprintf("row %d", e.Row))
	}
	if e.Offset >= 0 {
		where = append(where, fmt.Sprintf("offset 0x%x", e.Offset))
	}
	if len(where) > 0 {
		b.WriteString(" (" + strings.Join(where, ", ") + ")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op Op, err error) *Error {
	return &Error{Op: op, Row: -1, Offset: -1, Err: err}
}

// locate fills in missing context on err. Existing *Error values are annotated in place
// so the innermost location wins; other errors are wrapped.
func locate(err error, op Op, fill func(*Error)) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		fill(ce)
		return ce
	}
	ce = newError(op, err)
	fill(ce)
	return ce
}
