// Package sqlexport copies decoded tables into a SQLite database for ad-hoc
// querying. The export is one-way; the database is never read back.
package sqlexport

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/samcharles93/cffkit/pkg/cff"
)

// MetaTable holds key/value facts about the exported file.
const MetaTable = "_cffkit_meta"

// RowColumn and RawColumn are added to every exported table.
const (
	RowColumn = "_row"
	RawColumn = "_raw"
)

type Stats struct {
	Tables int
	Rows   int
}

// Export writes every table of g to a new SQLite database at path. An existing
// file at path is replaced. Enums are stored by name, flags as their byte and
// every row keeps its raw record bytes.
func Export(ctx context.Context, g *cff.GameData, path string) (Stats, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Stats{}, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Stats{}, err
	}
	defer db.Close()

	var st Stats
	if err := writeMeta(ctx, db, g); err != nil {
		return st, err
	}
	for _, t := range g.Tables() {
		if err := exportTable(ctx, db, t); err != nil {
			return st, fmt.Errorf("export %s: %w", t.Name(), err)
		}
		st.Tables++
		st.Rows += t.Len()
	}
	return st, db.Close()
}

func writeMeta(ctx context.Context, db *sql.DB, g *cff.GameData) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE "+quote(MetaTable)+" (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
		return err
	}
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	facts := [][2]string{
		{"version", g.Catalog().Version},
		{"header", hex.EncodeToString(g.Header())},
		{"size", fmt.Sprint(len(data))},
		{"checksum", cff.Checksum(data)},
	}
	for _, f := range facts {
		if _, err := db.ExecContext(ctx, "INSERT INTO "+quote(MetaTable)+" (key, value) VALUES (?, ?)", f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func exportTable(ctx context.Context, db *sql.DB, t *cff.Table) error {
	s := t.Schema()
	cols := []string{quote(RowColumn) + " INTEGER PRIMARY KEY"}
	names := []string{quote(RowColumn)}
	for _, f := range s.Fields() {
		if f.Kind == cff.KindAlias {
			continue
		}
		cols = append(cols, quote(f.Name)+" "+columnType(f.Kind))
		names = append(names, quote(f.Name))
	}
	cols = append(cols, quote(RawColumn)+" BLOB NOT NULL")
	names = append(names, quote(RawColumn))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+quote(t.Name())+" ("+strings.Join(cols, ", ")+")"); err != nil {
		return err
	}
	if pk := s.PrimaryKey(); len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, n := range pk {
			quoted[i] = quote(n)
		}
		idx := quote("idx_" + t.Name() + "_pk")
		if _, err := tx.ExecContext(ctx, "CREATE INDEX "+idx+" ON "+quote(t.Name())+" ("+strings.Join(quoted, ", ")+")"); err != nil {
			return err
		}
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quote(t.Name())+" ("+strings.Join(names, ", ")+") VALUES ("+marks+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, 0, len(names))
	for i, e := range t.Rows() {
		raw, err := e.Bytes()
		if err != nil {
			return err
		}
		args = append(args[:0], i)
		for _, fv := range e.Values() {
			args = append(args, sqlValue(fv.Value))
		}
		args = append(args, raw)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func columnType(k cff.Kind) string {
	switch k {
	case cff.KindString, cff.KindEnum, cff.KindDecidedEnum:
		return "TEXT"
	}
	return "INTEGER"
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case cff.EnumValue:
		return x.String()
	case cff.Flags:
		return int(x.Byte())
	}
	return v
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
