package cff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	data := testFile()
	g, err := Load(data, testCatalog())
	require.NoError(t, err)

	assert.Len(t, g.Tables(), 3)
	assert.Equal(t, data[:DefaultHeaderSize], g.Header())
	assert.Equal(t, len(data), g.Size())

	out, err := g.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLoadDoesNotRetainInput(t *testing.T) {
	t.Parallel()

	data := testFile()
	want := append([]byte(nil), data...)
	g, err := Load(data, testCatalog())
	require.NoError(t, err)

	for i := range data {
		data[i] = 0xff
	}
	out, err := g.Bytes()
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestLoadEditChangesOnlyTheField(t *testing.T) {
	t.Parallel()

	data := testFile()
	g, err := Load(data, testCatalog())
	require.NoError(t, err)

	items := mustTable(t, g, "Item")
	require.NoError(t, mustRow(t, items, 1).Set("modifier", -7))

	out, err := g.Bytes()
	require.NoError(t, err)
	require.Len(t, out, len(data))

	var changed []int
	for i := range data {
		if data[i] != out[i] {
			changed = append(changed, i)
		}
	}
	want := int(items.Offset()) + TableHeaderSize + testItem.Length() + 5
	assert.Equal(t, []int{want}, changed)
	assert.Equal(t, byte(0xf9), out[want])
}

func TestLoadTrailingBytes(t *testing.T) {
	t.Parallel()

	_, err := Load(append(testFile(), 0, 0), testCatalog())
	require.ErrorIs(t, err, ErrTrailingBytes)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, OpLoad, ce.Op)
	assert.Equal(t, int64(len(testFile())), ce.Offset)
}

func TestLoadTruncated(t *testing.T) {
	t.Parallel()

	data := testFile()
	_, err := Load(data[:len(data)-3], testCatalog())
	require.ErrorIs(t, err, ErrTruncated)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Item", ce.Table)

	_, err = Load(data[:10], testCatalog())
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLoadIntegrity(t *testing.T) {
	t.Parallel()

	data := testFile()

	cat := testCatalog()
	cat.Length = int64(len(data)) + 1
	_, err := Load(data, cat)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	cat = testCatalog()
	cat.Length = int64(len(data))
	cat.Checksum = Checksum([]byte("something else"))
	_, err = Load(data, cat)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	cat.Checksum = Checksum(data)
	_, err = Load(data, cat)
	assert.NoError(t, err)
}

func TestLoadIntegrityRunsBeforeParsing(t *testing.T) {
	t.Parallel()

	// Garbage that would fail to parse must still report the checksum.
	data := make([]byte, 64)
	cat := testCatalog()
	cat.Checksum = Checksum([]byte("x"))
	_, err := Load(data, cat)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestLoadTableOffsets(t *testing.T) {
	t.Parallel()

	data := testFile()
	locSize := TableHeaderSize + 3*testLocalisation.Length()

	cat := testCatalog()
	cat.Tables[0].Offset = DefaultHeaderSize
	cat.Tables[1].Offset = int64(DefaultHeaderSize + locSize)
	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultHeaderSize+locSize), mustTable(t, g, "Building").Offset())

	cat.Tables[2].Offset = 1234
	_, err = Load(data, cat)
	require.ErrorIs(t, err, ErrOffsetMismatch)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Item", ce.Table)
}

func TestLoadDiagnostics(t *testing.T) {
	t.Parallel()

	g := loadTestFile(t)
	unknown := g.Diagnostics().UnknownEnums()
	require.Len(t, unknown, 2)
	assert.Equal(t, UnknownEnum{Table: "Item", Entity: "Item", Field: "item_type", Row: 2, Type: "ItemType", Raw: []byte{9}}, unknown[0])
	assert.Equal(t, "item_subtype", unknown[1].Field)
	assert.Equal(t, []byte{4}, unknown[1].Raw)

	summary := g.Diagnostics().Summary()
	require.Len(t, summary, 2)
	assert.Equal(t, 1, summary[0].Count)
}

func TestLoadLogsTables(t *testing.T) {
	t.Parallel()

	var log recordingLogger
	_, err := Load(testFile(), testCatalog(), WithLogger(&log))
	require.NoError(t, err)
	assert.Equal(t, []string{"parsed table", "parsed table", "parsed table", "loaded data file"}, log.msgs)
}

type recordingLogger struct{ msgs []string }

func (l *recordingLogger) Debug(msg string, _ ...any) { l.msgs = append(l.msgs, msg) }

func TestSaveAndOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "GameData.cff")
	g := loadTestFile(t)
	require.NoError(t, mustRow(t, mustTable(t, g, "Building"), 0).SetRelation("name", "Ironhold"))
	require.NoError(t, g.Save(path))

	reopened, err := Open(path, testCatalog())
	require.NoError(t, err)
	name, err := mustRow(t, mustTable(t, reopened, "Building"), 0).Relation("name")
	require.NoError(t, err)
	assert.Equal(t, "Ironhold", name)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	out, err := reopened.Bytes()
	require.NoError(t, err)
	assert.Equal(t, onDisk, out)

	viaRead, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, onDisk, viaRead)
}

func TestSaveInvalidValueLeavesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "GameData.cff")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	g := loadTestFile(t)
	row := mustRow(t, mustTable(t, g, "Item"), 0)
	row.values[4] = int32(1000) // bypasses Set validation

	err := g.Save(path)
	require.ErrorIs(t, err, ErrValueRange)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), got)
}

func TestSaveReportsCreateErrors(t *testing.T) {
	t.Parallel()

	g := loadTestFile(t)
	err := g.Save(filepath.Join(t.TempDir(), "missing", "GameData.cff"))
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, OpSave, ce.Op)
}

func TestOpenDetect(t *testing.T) {
	t.Parallel()

	data := testFile()
	path := filepath.Join(t.TempDir(), "GameData.cff")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	exact := testCatalog()
	exact.Version = "exact"
	exact.Length = int64(len(data))
	exact.Checksum = Checksum(data)

	other := testCatalog()
	other.Version = "other"
	other.Length = int64(len(data))
	other.Checksum = Checksum([]byte("nope"))

	generic := testCatalog()
	generic.Version = "generic"

	g, err := OpenDetect(path, []*Catalog{other, generic, exact})
	require.NoError(t, err)
	assert.Equal(t, "exact", g.Catalog().Version)

	cat, err := DetectCatalog(append(data, 0), []*Catalog{other, generic, exact})
	require.NoError(t, err)
	assert.Equal(t, "generic", cat.Version)

	_, err = DetectCatalog(data[:5], []*Catalog{other, exact})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "absent.cff"), testCatalog())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	a := loadTestFile(t)
	b := loadTestFile(t)
	assert.Empty(t, Diff(a, b))

	require.NoError(t, mustRow(t, mustTable(t, b, "Item"), 1).Set("modifier", 9))
	require.NoError(t, mustRow(t, mustTable(t, b, "Building"), 0).Set("race_id", 4))
	_, err := mustTable(t, b, "Localisation").Remove(2)
	require.NoError(t, err)

	diffs := Diff(a, b)
	require.Len(t, diffs, 3)

	assert.Equal(t, "Localisation", diffs[0].Table)
	assert.Equal(t, 3, diffs[0].OldRows)
	assert.Equal(t, 2, diffs[0].NewRows)
	assert.Empty(t, diffs[0].Fields)

	require.Len(t, diffs[1].Fields, 1)
	assert.Equal(t, "Building[0].race_id: 1 -> 4", diffs[1].Fields[0].String())

	require.Len(t, diffs[2].Fields, 1)
	assert.Equal(t, FieldDiff{Table: "Item", Row: 1, Field: "modifier", Old: int32(3), New: int32(9)}, diffs[2].Fields[0])
}

func TestHexDumpBaseOffset(t *testing.T) {
	t.Parallel()

	dump := HexDump([]byte("0123456789abcdefXYZ"), 0x100)
	assert.Equal(t,
		"00000100  30 31 32 33 34 35 36 37  38 39 61 62 63 64 65 66  |0123456789abcdef|\n"+
			"00000110  58 59 5a                                          |XYZ|\n",
		dump)
}
