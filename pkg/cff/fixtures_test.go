package cff

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testLanguage = MustEnumType("Language", 1,
		Member("GERMAN", 0),
		Member("ENGLISH", 1),
		Member("FRENCH", 2),
	)

	testItemType = MustEnumType("ItemType", 1,
		Member("WEAPON", 1),
		Member("ARMOR", 2),
	)
	testWeaponType = MustEnumType("WeaponType", 1,
		Member("SWORD", 1),
		Member("AXE", 2),
	)
	testArmorType = MustEnumType("ArmorType", 1,
		Member("HELMET", 1),
		Member("CHEST", 2),
	)
	testItemFlags = MustFlagType("ItemFlags",
		FlagBit{Name: "SELLABLE", Bit: 0},
		FlagBit{Name: "UNIQUE", Bit: 1},
		FlagBit{Name: "QUEST", Bit: 7},
	)

	testLocalisation = MustSchema("Localisation", []Field{
		Uint("text_id", 0, 2),
		Enum("language", 2, testLanguage),
		Bool("is_dialogue", 3),
		String("dialogue_name", 4, 50),
		String("text", 54, 512),
	}, WithPrimaryKey("text_id", "language"))

	testBuilding = MustSchema("Building", []Field{
		Uint("building_id", 0, 2),
		Uint("race_id", 2, 1),
		Uint("name_id", 3, 2),
		Alias("id", "building_id"),
	},
		WithPrimaryKey("building_id"),
		WithRelations(
			&Relation{
				Name:   "name",
				Target: "Localisation",
				Keys:   Keys("text_id", FromField("name_id"), "language", testLanguage.MustValue("ENGLISH")),
				Path:   []string{"text"},
			},
			&Relation{
				Name:   "translations",
				Target: "Localisation",
				Keys:   Keys("text_id", FromField("name_id")),
				Many:   true,
			},
			&Relation{
				Name:   "texts",
				Target: "Localisation",
				Keys:   Keys("text_id", FromField("name_id")),
				Path:   []string{"text"},
				Many:   true,
			},
		),
	)

	testItem = MustSchema("Item", []Field{
		Uint("item_id", 0, 2),
		Enum("item_type", 2, testItemType),
		DecidedEnum("item_subtype", 3, 1, "item_type", decideItemSubtype),
		FlagSet("flags", 4, testItemFlags),
		Int("modifier", 5, 1),
	}, WithLength(8), WithPrimaryKey("item_id"))
)

func decideItemSubtype(v any) *EnumType {
	t, _ := v.(EnumValue)
	switch {
	case t.Is("WEAPON"):
		return testWeaponType
	case t.Is("ARMOR"):
		return testArmorType
	}
	return nil
}

func locRow(id uint16, lang byte, text string) []byte {
	b := make([]byte, 566)
	binary.LittleEndian.PutUint16(b, id)
	b[2] = lang
	copy(b[54:], text)
	return b
}

func buildingRow(id uint16, race byte, nameID uint16) []byte {
	b := make([]byte, 5)
	binary.LittleEndian.PutUint16(b, id)
	b[2] = race
	binary.LittleEndian.PutUint16(b[3:], nameID)
	return b
}

func itemRow(id uint16, typ, subtype, flags byte, mod int8, pad ...byte) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b, id)
	b[2], b[3], b[4], b[5] = typ, subtype, flags, byte(mod)
	copy(b[6:], pad)
	return b
}

// tableBytes frames rows with a header whose opaque bytes are non-zero.
func tableBytes(rows ...[]byte) []byte {
	var body []byte
	for _, r := range rows {
		body = append(body, r...)
	}
	hdr := []byte{0xAA, 0xBB, 0x01, 0x00, 0x03, 0x00, 0, 0, 0, 0, 0xCC, 0xDD}
	binary.LittleEndian.PutUint32(hdr[6:], uint32(len(body)))
	return append(hdr, body...)
}

func testCatalog() *Catalog {
	return &Catalog{
		Version: "test",
		Tables: []TableSpec{
			{Name: "Localisation", Schema: testLocalisation},
			{Name: "Building", Schema: testBuilding},
			{Name: "Item", Schema: testItem},
		},
	}
}

func testFile() []byte {
	header := []byte("CFF-TEST-HEADER-0020")
	out := append([]byte(nil), header...)
	out = append(out, tableBytes(
		locRow(42, 1, "Ironhall"),
		locRow(42, 0, "Eisenhalle"),
		locRow(7, 1, "Farm"),
	)...)
	out = append(out, tableBytes(
		buildingRow(1, 1, 42),
		buildingRow(2, 1, 7),
		buildingRow(3, 2, 999),
	)...)
	out = append(out, tableBytes(
		itemRow(100, 1, 2, 0x01, -5, 0xDE, 0xAD),
		itemRow(101, 2, 1, 0x83, 3),
		itemRow(102, 9, 4, 0x00, 0),
	)...)
	return out
}

func loadTestFile(t *testing.T) *GameData {
	t.Helper()
	g, err := Load(testFile(), testCatalog())
	require.NoError(t, err)
	return g
}

func mustTable(t *testing.T, g *GameData, name string) *Table {
	t.Helper()
	tbl, err := g.Lookup(name)
	require.NoError(t, err)
	return tbl
}

func mustRow(t *testing.T, tbl *Table, i int) *Entity {
	t.Helper()
	e, err := tbl.Row(i)
	require.NoError(t, err)
	return e
}
