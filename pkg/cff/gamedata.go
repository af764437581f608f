package cff

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/sys/unix"
)

// Logger receives debug output during a load. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
}

type loadConfig struct {
	log  Logger
	diag *Diagnostics
}

// LoadOption configures Load and Open.
type LoadOption func(*loadConfig)

func WithLogger(l Logger) LoadOption {
	return func(c *loadConfig) { c.log = l }
}

// WithDiagnostics collects into d instead of a fresh collector.
func WithDiagnostics(d *Diagnostics) LoadOption {
	return func(c *loadConfig) { c.diag = d }
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// GameData is a whole data file: the opaque header followed by every table of the
// catalog. GameData owns its tables.
type GameData struct {
	catalog *Catalog
	header  []byte
	tables  []*Table
	byName  map[string]*Table
	diag    *Diagnostics
}

// Load parses data against cat. Integrity checks run before any table is parsed, and
// the tables must consume data exactly. data is not retained.
func Load(data []byte, cat *Catalog, opts ...LoadOption) (*GameData, error) {
	cfg := loadConfig{log: nopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.diag == nil {
		cfg.diag = NewDiagnostics()
	}
	fail := func(err error, off int64) error {
		return locate(err, OpLoad, func(ce *Error) {
			if ce.Offset < 0 {
				ce.Offset = off
			}
		})
	}

	if err := cat.Verify(data); err != nil {
		return nil, fail(err, -1)
	}
	hs := cat.headerSize()
	if len(data) < hs {
		return nil, fail(fmt.Errorf("%w: %d bytes for a %d-byte header", ErrTruncated, len(data), hs), 0)
	}

	g := &GameData{
		catalog: cat,
		header:  slices.Clone(data[:hs]),
		tables:  make([]*Table, 0, len(cat.Tables)),
		byName:  make(map[string]*Table, len(cat.Tables)),
		diag:    cfg.diag,
	}

	cursor := hs
	for _, spec := range cat.Tables {
		if _, dup := g.byName[spec.Name]; dup {
			return nil, fail(fmt.Errorf("%w: catalog lists table %s twice", ErrSchema, spec.Name), int64(cursor))
		}
		if spec.Offset != 0 && spec.Offset != int64(cursor) {
			e := newError(OpLoad, fmt.Errorf("%w: expected 0x%x", ErrOffsetMismatch, spec.Offset))
			e.Table, e.Offset = spec.Name, int64(cursor)
			return nil, e
		}
		size, err := PeekTableSize(data[cursor:])
		if err != nil {
			return nil, locate(err, OpLoad, func(ce *Error) {
				ce.Table, ce.Offset = spec.Name, int64(cursor)
			})
		}
		if size > len(data)-cursor {
			e := newError(OpLoad, fmt.Errorf("%w: table needs %d bytes, %d left", ErrTruncated, size, len(data)-cursor))
			e.Table, e.Offset = spec.Name, int64(cursor)
			return nil, e
		}
		t, err := parseTable(spec.Name, spec.Schema, data[cursor:cursor+size], int64(cursor), g, cfg.diag)
		if err != nil {
			return nil, err
		}
		cfg.log.Debug("parsed table", "table", spec.Name, "offset", cursor, "rows", t.Len(), "row_size", spec.Schema.Length())
		g.tables = append(g.tables, t)
		g.byName[spec.Name] = t
		cursor += size
	}
	if cursor != len(data) {
		return nil, fail(fmt.Errorf("%w: %d bytes after the last table", ErrTrailingBytes, len(data)-cursor), int64(cursor))
	}
	cfg.log.Debug("loaded data file", "version", cat.Version, "bytes", len(data), "tables", len(g.tables), "unknown_enums", cfg.diag.Len())
	return g, nil
}

// Open reads and parses the file at path. The file is mapped read-only where mmap is
// available; nothing refers to the mapping once Open returns.
func Open(path string, cat *Catalog, opts ...LoadOption) (*GameData, error) {
	var g *GameData
	err := withFileData(path, func(data []byte) error {
		var err error
		g, err = Load(data, cat, opts...)
		return err
	})
	return g, err
}

// OpenDetect is Open with the catalog chosen by DetectCatalog.
func OpenDetect(path string, catalogs []*Catalog, opts ...LoadOption) (*GameData, error) {
	var g *GameData
	err := withFileData(path, func(data []byte) error {
		cat, err := DetectCatalog(data, catalogs)
		if err != nil {
			return err
		}
		g, err = Load(data, cat, opts...)
		return err
	})
	return g, err
}

// ReadFile returns a private copy of the file contents.
func ReadFile(path string) ([]byte, error) {
	var out []byte
	err := withFileData(path, func(data []byte) error {
		out = slices.Clone(data)
		return nil
	})
	return out, err
}

func withFileData(path string, fn func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return fmt.Errorf("%w: %s is too large to map", ErrTruncated, path)
	}
	size := int(size64)
	if size == 0 {
		return fn([]byte{})
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		defer func() { _ = unix.Munmap(data) }()
		return fn(data)
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return err
	}
	return fn(data)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func (g *GameData) Catalog() *Catalog { return g.catalog }

// Header returns a copy of the opaque file header.
func (g *GameData) Header() []byte { return slices.Clone(g.header) }

// Table implements TableSet.
func (g *GameData) Table(name string) (*Table, bool) {
	t, ok := g.byName[name]
	return t, ok
}

// Lookup is Table returning ErrTableNotFound for unknown names.
func (g *GameData) Lookup(name string) (*Table, error) {
	t, ok := g.byName[name]
	if !ok {
		e := newError(OpLookup, ErrTableNotFound)
		e.Table = name
		return nil, e
	}
	return t, nil
}

// Tables returns the tables in file order.
func (g *GameData) Tables() []*Table { return slices.Clone(g.tables) }

func (g *GameData) Diagnostics() *Diagnostics { return g.diag }

// Reindex rebuilds every stale primary key index. Afterwards Where only reads, so
// callers sharing g between readers run it after their last write.
func (g *GameData) Reindex() {
	for _, t := range g.tables {
		if t.stale {
			t.Reindex()
		}
	}
}

// Size is the encoded file length.
func (g *GameData) Size() int {
	n := len(g.header)
	for _, t := range g.tables {
		n += t.Size()
	}
	return n
}

// Bytes encodes the header and every table in catalog order. An unmodified GameData
// reproduces its input exactly.
func (g *GameData) Bytes() ([]byte, error) {
	out := make([]byte, 0, g.Size())
	out = append(out, g.header...)
	for _, t := range g.tables {
		b, err := t.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// WriteTo streams the encoded file to w.
func (g *GameData) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(g.header)
	total := int64(n)
	if err != nil {
		return total, err
	}
	for _, t := range g.tables {
		b, err := t.Bytes()
		if err != nil {
			return total, err
		}
		n, err := w.Write(b)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Save encodes the file and writes it to path. The file is closed on every return path.
func (g *GameData) Save(path string) (err error) {
	// Encode before touching path.
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return saveError(path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, saveError(path, cerr))
		}
	}()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(data); err != nil {
		return saveError(path, err)
	}
	if err := bw.Flush(); err != nil {
		return saveError(path, err)
	}
	if err := f.Sync(); err != nil {
		return saveError(path, err)
	}
	return nil
}

func saveError(path string, err error) error {
	return newError(OpSave, fmt.Errorf("%s: %w", path, err))
}
