package spellforce

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cffkit/pkg/cff"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// ErrUnknownSchema is returned when a catalog names a schema that is not registered.
var ErrUnknownSchema = errors.New("unknown schema")

type catalogFile struct {
	Versions []versionEntry `yaml:"versions"`
}

type versionEntry struct {
	Version    string       `yaml:"version"`
	HeaderSize int          `yaml:"header_size"`
	Length     int64        `yaml:"length"`
	Checksum   string       `yaml:"checksum"`
	Tables     []tableEntry `yaml:"tables"`
}

type tableEntry struct {
	Name   string `yaml:"name"`
	Schema string `yaml:"schema"`
	Offset int64  `yaml:"offset"`
}

// ParseCatalogs decodes a YAML catalog document. Table schemas are looked up by
// name; a table without a schema key uses the schema named like the table.
func ParseCatalogs(data []byte) ([]*cff.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Versions) == 0 {
		return nil, errors.New("catalog declares no versions")
	}

	out := make([]*cff.Catalog, 0, len(f.Versions))
	seen := make(map[string]bool, len(f.Versions))
	for _, v := range f.Versions {
		if v.Version == "" {
			return nil, errors.New("catalog version without a name")
		}
		if seen[v.Version] {
			return nil, fmt.Errorf("duplicate catalog version %q", v.Version)
		}
		seen[v.Version] = true

		cat := &cff.Catalog{
			Version:    v.Version,
			HeaderSize: v.HeaderSize,
			Length:     v.Length,
			Checksum:   v.Checksum,
			Tables:     make([]cff.TableSpec, 0, len(v.Tables)),
		}
		names := make(map[string]bool, len(v.Tables))
		for _, t := range v.Tables {
			if t.Name == "" {
				return nil, fmt.Errorf("version %s: table without a name", v.Version)
			}
			if names[t.Name] {
				return nil, fmt.Errorf("version %s: duplicate table %q", v.Version, t.Name)
			}
			names[t.Name] = true

			schemaName := t.Schema
			if schemaName == "" {
				schemaName = t.Name
			}
			s, ok := Schema(schemaName)
			if !ok {
				return nil, fmt.Errorf("version %s: table %s: %w %q", v.Version, t.Name, ErrUnknownSchema, schemaName)
			}
			cat.Tables = append(cat.Tables, cff.TableSpec{Name: t.Name, Schema: s, Offset: t.Offset})
		}
		out = append(out, cat)
	}
	return out, nil
}

// ReadCatalogs parses a catalog document from disk.
func ReadCatalogs(path string) ([]*cff.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogs(data)
}

// Catalogs returns the built-in catalogs. Each call returns fresh values.
func Catalogs() []*cff.Catalog {
	cats, err := ParseCatalogs(builtinCatalog)
	if err != nil {
		panic("spellforce: builtin catalog: " + err.Error())
	}
	return cats
}

// Catalog returns the built-in catalog for version.
func Catalog(version string) (*cff.Catalog, error) {
	for _, c := range Catalogs() {
		if c.Version == version {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown version %q", version)
}
