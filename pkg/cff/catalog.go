package cff

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DefaultHeaderSize is the length of the opaque file header in known versions.
const DefaultHeaderSize = 20

// TableSpec places one table in the file. A non-zero Offset is checked against the
// position the table is actually found at.
type TableSpec struct {
	Name   string
	Schema *Schema
	Offset int64
}

// Catalog is the table directory of one file version. Tables appear in the file in
// exactly this order.
type Catalog struct {
	Version    string
	HeaderSize int
	// Length and Checksum are verified before parsing when set.
	Length   int64
	Checksum string
	Tables   []TableSpec
}

// Checksum is the hex BLAKE2b-256 digest used by catalogs.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Catalog) headerSize() int {
	if c.HeaderSize > 0 {
		return c.HeaderSize
	}
	return DefaultHeaderSize
}

// Verify checks the declared length and checksum against data.
func (c *Catalog) Verify(data []byte) error {
	if c.Length > 0 && int64(len(data)) != c.Length {
		return fmt.Errorf("%w: %s expects %d bytes, got %d", ErrLengthMismatch, c.Version, c.Length, len(data))
	}
	if c.Checksum != "" {
		if got := Checksum(data); !strings.EqualFold(got, c.Checksum) {
			return fmt.Errorf("%w: %s expects %s, got %s", ErrChecksumMismatch, c.Version, c.Checksum, got)
		}
	}
	return nil
}

// Spec returns the table spec with the given name.
func (c *Catalog) Spec(name string) (TableSpec, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// DetectCatalog picks the catalog for data: the first one whose length and checksum
// both match, otherwise the first one that declares no length.
func DetectCatalog(data []byte, catalogs []*Catalog) (*Catalog, error) {
	var fallback *Catalog
	var sum string
	for _, c := range catalogs {
		if c.Length == 0 {
			if fallback == nil {
				fallback = c
			}
			continue
		}
		if c.Length != int64(len(data)) {
			continue
		}
		if c.Checksum == "" {
			return c, nil
		}
		if sum == "" {
			sum = Checksum(data)
		}
		if strings.EqualFold(sum, c.Checksum) {
			return c, nil
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: no known version has %d bytes", ErrLengthMismatch, len(data))
}
