package spellforce_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/cffkit/internal/spellforce"
	"github.com/samcharles93/cffkit/internal/toy"
	"github.com/samcharles93/cffkit/pkg/cff"
)

func loadToy(t *testing.T) *cff.GameData {
	t.Helper()
	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	g, err := toy.Load(cat, toy.Options{})
	require.NoError(t, err)
	return g
}

func row(t *testing.T, g *cff.GameData, table string, i int) *cff.Entity {
	t.Helper()
	tbl, err := g.Lookup(table)
	require.NoError(t, err)
	e, err := tbl.Row(i)
	require.NoError(t, err)
	return e
}

func TestSchemasRegistered(t *testing.T) {
	t.Parallel()

	names := spellforce.SchemaNames()
	assert.Len(t, names, 16)
	assert.IsNonDecreasing(t, names)

	s, ok := spellforce.Schema(spellforce.TableLocalisation)
	require.True(t, ok)
	assert.Equal(t, 566, s.Length())
	assert.Equal(t, []string{"language", "text_id"}, s.PrimaryKey(), "sorted by name")

	s, ok = spellforce.Schema(spellforce.TableItemStats)
	require.True(t, ok)
	assert.Equal(t, 36, s.Length())

	_, ok = spellforce.Schema("Nope")
	assert.False(t, ok)
}

func TestBuiltinCatalog(t *testing.T) {
	t.Parallel()

	cats := spellforce.Catalogs()
	require.NotEmpty(t, cats)
	cat := cats[0]
	assert.Equal(t, "1.54", cat.Version)
	assert.Equal(t, cff.DefaultHeaderSize, cat.HeaderSize)
	require.Len(t, cat.Tables, 16)
	assert.Equal(t, spellforce.TableSpell, cat.Tables[0].Name)

	spec, ok := cat.Spec(spellforce.TableRace)
	require.True(t, ok)
	assert.Same(t, spellforce.RaceStats, spec.Schema)

	_, err := spellforce.Catalog("0.1")
	assert.Error(t, err)
}

func TestParseCatalogs(t *testing.T) {
	t.Parallel()

	cats, err := spellforce.ParseCatalogs([]byte(`
versions:
  - version: "patched"
    length: 1234
    checksum: abcd
    tables:
      - name: Localisation
      - name: Races
        schema: Race
        offset: 600
`))
	require.NoError(t, err)
	require.Len(t, cats, 1)
	c := cats[0]
	assert.Equal(t, int64(1234), c.Length)
	assert.Equal(t, "abcd", c.Checksum)
	assert.Zero(t, c.HeaderSize)
	require.Len(t, c.Tables, 2)
	assert.Equal(t, "Races", c.Tables[1].Name)
	assert.Same(t, spellforce.RaceStats, c.Tables[1].Schema)
	assert.Equal(t, int64(600), c.Tables[1].Offset)

	tests := []struct {
		name string
		doc  string
	}{
		{"no versions", "versions: []"},
		{"unnamed version", "versions: [{tables: [{name: Item}]}]"},
		{"duplicate version", "versions: [{version: a}, {version: a}]"},
		{"duplicate table", "versions: [{version: a, tables: [{name: Item}, {name: Item}]}]"},
		{"unnamed table", "versions: [{version: a, tables: [{schema: Item}]}]"},
		{"not yaml", "versions: ["},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := spellforce.ParseCatalogs([]byte(tc.doc))
			assert.Error(t, err)
		})
	}

	_, err = spellforce.ParseCatalogs([]byte("versions: [{version: a, tables: [{name: Dragons}]}]"))
	assert.ErrorIs(t, err, spellforce.ErrUnknownSchema)
}

func TestReadCatalogs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("versions: [{version: x, tables: [{name: Item}]}]"), 0o644))
	cats, err := spellforce.ReadCatalogs(path)
	require.NoError(t, err)
	assert.Equal(t, "x", cats[0].Version)

	_, err = spellforce.ReadCatalogs(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNameRelations(t *testing.T) {
	t.Parallel()

	g := loadToy(t)

	name, err := row(t, g, spellforce.TableBuilding, 0).Relation("name")
	require.NoError(t, err)
	assert.Equal(t, "Ironhall", name)

	texts, err := row(t, g, spellforce.TableBuilding, 0).Relation("translations")
	require.NoError(t, err)
	assert.Len(t, texts, 2)

	name, err = row(t, g, spellforce.TableSpell, 0).Relation("name")
	require.NoError(t, err)
	assert.Equal(t, "Fireburst", name, "through the spell line")

	name, err = row(t, g, spellforce.TableCreature, 0).Relation("race_name")
	require.NoError(t, err)
	assert.Equal(t, "Human", name, "creature -> stats -> race -> localisation")

	name, err = row(t, g, spellforce.TableMerchantInventory, 1).Relation("item_name")
	require.NoError(t, err)
	assert.Equal(t, "Iron Helmet", name)

	name, err = row(t, g, spellforce.TableMerchant, 0).Relation("name")
	require.NoError(t, err)
	assert.Equal(t, "Hjalmar", name)

	desc, err := row(t, g, spellforce.TableQuest, 0).Relation("description")
	require.NoError(t, err)
	assert.Equal(t, "Bring the blade to the smith.", desc)
}

func TestItemSubtypeFollowsItemType(t *testing.T) {
	t.Parallel()

	g := loadToy(t)
	sword := row(t, g, spellforce.TableItem, 0)

	sub, err := sword.Enum("item_subtype")
	require.NoError(t, err)
	assert.Same(t, spellforce.EquipmentSlot, sub.Type())
	assert.Equal(t, "RIGHT_HAND", sub.Name())

	elfRune := row(t, g, spellforce.TableItem, 2)
	sub, err = elfRune.Enum("item_subtype")
	require.NoError(t, err)
	assert.Equal(t, spellforce.Race.MustValue("ELF"), sub)

	assert.Same(t, spellforce.EquipmentSlot, spellforce.ItemSubtype(spellforce.ItemType.MustValue("EQUIPMENT")))
	assert.Same(t, spellforce.Race, spellforce.ItemSubtype(spellforce.ItemType.MustValue("INSTALLED_RUNE")))
	assert.Nil(t, spellforce.ItemSubtype(spellforce.ItemType.MustValue("SPELL_SCROLL")))
	assert.Nil(t, spellforce.ItemSubtype(nil))
}

func TestItemRelations(t *testing.T) {
	t.Parallel()

	g := loadToy(t)
	sword := row(t, g, spellforce.TableItem, 0)

	weapon, err := sword.Relation("weapon")
	require.NoError(t, err)
	require.NotNil(t, weapon)
	wt, err := weapon.(*cff.Entity).Enum("weapon_type")
	require.NoError(t, err)
	assert.Equal(t, "LIGHT_BLADE", wt.Name())

	reqs, err := sword.Relation("requirements")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	school, err := reqs.([]any)[0].(*cff.Entity).Enum("school")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, school.Bytes())

	stats, err := row(t, g, spellforce.TableItem, 1).Relation("stats")
	require.NoError(t, err)
	run, err := stats.(*cff.Entity).Int("speed_run")
	require.NoError(t, err)
	assert.Equal(t, int32(-2), run)

	require.NoError(t, sword.SetRelation("name", "Blunt Sword"))
	name, err := row(t, g, spellforce.TableMerchantInventory, 0).Relation("item_name")
	require.NoError(t, err)
	assert.Equal(t, "Blunt Sword", name)
}

func TestFlagsAndUncertainRelations(t *testing.T) {
	t.Parallel()

	g := loadToy(t)
	targets, err := row(t, g, spellforce.TableSpell, 0).Flags("targets")
	require.NoError(t, err)
	assert.True(t, targets.Has("ENEMY"))
	assert.False(t, targets.Has("SELF"))
	assert.Equal(t, "ENEMY|AREA", targets.String())

	for _, tc := range []struct {
		schema *cff.Schema
		rel    string
	}{
		{spellforce.Quest, "parent"},
		{spellforce.Quest, "subquests"},
		{spellforce.Map, "name"},
	} {
		rel, ok := tc.schema.Relation(tc.rel)
		require.True(t, ok, tc.rel)
		assert.NotEmpty(t, rel.Uncertain, "%s.%s", tc.schema.Name(), tc.rel)
	}
	rel, ok := spellforce.Building.Relation("name")
	require.True(t, ok)
	assert.Empty(t, rel.Uncertain)

	subs, err := row(t, g, spellforce.TableQuest, 0).Relation("subquests")
	require.NoError(t, err)
	assert.Empty(t, subs)
}
