package cff

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Text fields are stored in windows-1252, never UTF-8.
var textEncoding = charmap.Windows1252

func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimRight(raw, "\x00")
	if len(raw) == 0 {
		return "", nil
	}
	out, err := textEncoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encodeText(s string, width int) ([]byte, error) {
	enc, err := textEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnencodable, s)
	}
	if len(enc) > width {
		return nil, fmt.Errorf("%w: %d bytes into %d", ErrStringTooLong, len(enc), width)
	}
	out := make([]byte, width)
	copy(out, enc)
	return out, nil
}
