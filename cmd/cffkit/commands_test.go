package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

// runApp runs the CLI with fresh flag state and returns what it printed.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envDataFile, "")
	t.Setenv(envGameDir, "")
	dataFile, catalogFile, gameVersion = "", "", ""
	logLevel, logFormat, debug = "info", "pretty", false

	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	app := newApp()
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := app.Run(context.Background(), append([]string{"cffkit"}, args...))
	return buf.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GameData.cff")
	if _, err := runApp(t, "fixture", "--extra-items", "2", "--log-level", "error", path); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return path
}

func TestVerifyFixture(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "verify", "--data", path)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.HasPrefix(out, "ok "+path+" version=1.54") {
		t.Fatalf("unexpected verify output: %q", out)
	}
}

func TestInspect(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "inspect", "-d", path, "--unknown")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Version: 1.54", "Localisation", "MerchantInventory", "Unknown enum values: 2", "Item[3].item_subtype"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output lacks %q:\n%s", want, out)
		}
	}
}

func TestQuery(t *testing.T) {
	path := writeFixture(t)

	out, err := runApp(t, "query", "-d", path, "Localisation", "text_id=1000")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Fatalf("expected 2 rows, got %d:\n%s", lines, out)
	}
	if !strings.Contains(out, `text="Eisenhalle"`) {
		t.Fatalf("query output lacks the German row:\n%s", out)
	}

	out, err = runApp(t, "query", "-d", path, "--scan", "--first", "Item", "item_type=INVENTORY_RUNE")
	if err != nil {
		t.Fatalf("query --first: %v", err)
	}
	if !strings.HasPrefix(out, "[2] item_id=3") {
		t.Fatalf("unexpected first match: %q", out)
	}

	if _, err := runApp(t, "query", "-d", path, "--first", "Item", "item_id=99"); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
	if _, err := runApp(t, "query", "-d", path, "Item", "nope=1"); err == nil {
		t.Fatalf("expected error for an unknown field")
	}
}

func TestGetFieldsAndRelations(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "get", "-d", path, "Item", "1", "id", "name", "item_subtype")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := "id=2\nname=\"Iron Helmet\"\nitem_subtype=HELMET\n"
	if out != want {
		t.Fatalf("unexpected get output:\n%s\nwant:\n%s", out, want)
	}

	if _, err := runApp(t, "get", "-d", path, "Item", "40"); err == nil {
		t.Fatalf("expected error for a row past the end")
	}
}

func TestDumpJSON(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "dump", "-d", path, "--json", "--limit", "1", "Race")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.HasPrefix(out, `{"row":0,"values":{`) || !strings.Contains(out, `"race_id":1`) {
		t.Fatalf("unexpected dump output: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one row, got:\n%s", out)
	}
}

func TestDumpHex(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "dump", "-d", path, "--hex", "--offset", "1", "Race")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.HasPrefix(out, "[1] race_id=2") {
		t.Fatalf("unexpected dump output: %q", out)
	}
}

func TestSetWritesBackupAndDiff(t *testing.T) {
	path := writeFixture(t)
	out, err := runApp(t, "set", "-d", path, "Item", "0", "selling_price=12")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if out != "Item[0].selling_price: 10 -> 12\n" {
		t.Fatalf("unexpected set output: %q", out)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("expected a backup: %v", err)
	}

	out, err = runApp(t, "get", "-d", path, "Item", "0", "selling_price")
	if err != nil || out != "selling_price=12\n" {
		t.Fatalf("get after set: %q, %v", out, err)
	}

	out, err = runApp(t, "diff", path+".bak", path)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if out != "Item[0].selling_price: 10 -> 12\n" {
		t.Fatalf("unexpected diff output: %q", out)
	}

	out, err = runApp(t, "diff", path, path)
	if err != nil || out != "no differences\n" {
		t.Fatalf("self diff: %q, %v", out, err)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	path := writeFixture(t)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	cases := [][]string{
		{"Item", "0", "nope=1"},
		{"Item", "0", "selling_price=-1"},
		{"Item", "0", "selling_price"},
		{"Item", "0"},
	}
	for _, args := range cases {
		if _, err := runApp(t, append([]string{"set", "-d", path}, args...)...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("rejected edits must not touch the file")
	}
}

func TestSetDryRunAndOut(t *testing.T) {
	path := writeFixture(t)
	before, _ := os.ReadFile(path)

	if _, err := runApp(t, "set", "-d", path, "--dry-run", "Race", "0", "clan=9"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatalf("dry run wrote the file")
	}

	out := filepath.Join(t.TempDir(), "edited.cff")
	if _, err := runApp(t, "set", "-d", path, "-o", out, "Race", "0", "clan=9"); err != nil {
		t.Fatalf("set --out: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("writing elsewhere must not back up the input")
	}
	got, err := runApp(t, "get", "-d", out, "Race", "0", "clan")
	if err != nil || got != "clan=9\n" {
		t.Fatalf("edited copy: %q, %v", got, err)
	}
}

func TestRelation(t *testing.T) {
	path := writeFixture(t)

	out, err := runApp(t, "relation", "-d", path, "Item", "0", "name")
	if err != nil || out != "name=\"Short Sword\"\n" {
		t.Fatalf("relation: %q, %v", out, err)
	}

	out, err = runApp(t, "relation", "-d", path, "--no-backup", "--set", "Blunt Sword", "Item", "0", "name")
	if err != nil {
		t.Fatalf("relation --set: %v", err)
	}
	if out != "Item[0].name: \"Short Sword\" -> \"Blunt Sword\"\n" {
		t.Fatalf("unexpected relation output: %q", out)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("--no-backup still wrote a backup")
	}

	out, err = runApp(t, "get", "-d", path, "Localisation", "3", "text")
	if err != nil || out != "text=\"Blunt Sword\"\n" {
		t.Fatalf("localisation after relation write: %q, %v", out, err)
	}

	if _, err := runApp(t, "relation", "-d", path, "--set", "x", "Item", "0", "requirements"); err == nil {
		t.Fatalf("expected error writing a many relation")
	}
	if _, err := runApp(t, "relation", "-d", path, "Item", "0", "nope"); err == nil {
		t.Fatalf("expected error for an unknown relation")
	}
}

func TestExport(t *testing.T) {
	path := writeFixture(t)
	db := filepath.Join(t.TempDir(), "out.db")
	if _, err := runApp(t, "export", "-d", path, db); err != nil {
		t.Fatalf("export: %v", err)
	}
	if st, err := os.Stat(db); err != nil || st.Size() == 0 {
		t.Fatalf("expected a database file: %v", err)
	}
}

func TestConfigSuppliesDataFile(t *testing.T) {
	path := writeFixture(t)
	cfgDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(cfgDir, "cffkit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := "data_file: " + path + "\nlog_level: error\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "cffkit", "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dataFile, catalogFile, gameVersion = "", "", ""
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()
	t.Setenv("XDG_CONFIG_HOME", cfgDir)
	t.Setenv(envDataFile, "")

	app := newApp()
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	if err := app.Run(context.Background(), []string{"cffkit", "get", "Race", "0", "race_id"}); err != nil {
		t.Fatalf("get via config: %v", err)
	}
	if buf.String() != "race_id=1\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestUnknownVersionFails(t *testing.T) {
	path := writeFixture(t)
	if _, err := runApp(t, "verify", "-d", path, "--game-version", "0.1"); err == nil {
		t.Fatalf("expected error for an unknown game version")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "version:    ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
