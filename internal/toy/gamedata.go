// Package toy builds small synthetic GameData files. They follow a catalog's table
// layout with a handful of hand-written rows, so tools and tests can run without
// the real game file.
package toy

import (
	"fmt"
	"math/rand/v2"

	"github.com/samcharles93/cffkit/internal/spellforce"
	"github.com/samcharles93/cffkit/pkg/cff"
)

// Magic fills the start of the synthetic file header.
const Magic = "CFFKIT-TOY"

// Options tune the generated file.
type Options struct {
	// Seed drives the filler rows; the fixed rows never change.
	Seed uint64
	// ExtraItems appends that many filler items with seeded prices.
	ExtraItems int
}

// row is an ordered list of field/value pairs. Order matters for decided enums.
type row []any

func r(pairs ...any) row { return pairs }

// fixture holds the fixed rows per table name.
var fixture = map[string][]row{
	spellforce.TableLocalisation: {
		r("text_id", 1000, "language", "ENGLISH", "text", "Ironhall"),
		r("text_id", 1000, "language", "GERMAN", "text", "Eisenhalle"),
		r("text_id", 1001, "language", "ENGLISH", "text", "Farm"),
		r("text_id", 2000, "language", "ENGLISH", "text", "Short Sword"),
		r("text_id", 2001, "language", "ENGLISH", "text", "Iron Helmet"),
		r("text_id", 2002, "language", "ENGLISH", "text", "Rune of the Elves"),
		r("text_id", 3000, "language", "ENGLISH", "text", "Fireburst"),
		r("text_id", 4000, "language", "ENGLISH", "text", "Human"),
		r("text_id", 4001, "language", "ENGLISH", "text", "Elf"),
		r("text_id", 5000, "language", "ENGLISH", "text", "Grey Wolf"),
		r("text_id", 5001, "language", "ENGLISH", "text", "Hjalmar"),
		r("text_id", 6000, "language", "ENGLISH", "text", "The Lost Blade"),
		r("text_id", 6001, "language", "ENGLISH", "is_dialogue", true, "dialogue_name", "smith", "text", "Bring the blade to the smith."),
		r("text_id", 7000, "language", "ENGLISH", "text", "Greyfell"),
	},
	spellforce.TableRace: {
		r("race_id", 1, "name_id", 4000, "flee_chance", 10, "aggro_range", 20, "clan", 1),
		r("race_id", 2, "name_id", 4001, "flee_chance", 5, "aggro_range", 25, "clan", 2),
	},
	spellforce.TableBuilding: {
		r("building_id", 1, "race_id", 1, "name_id", 1000, "hit_points", 800, "level", 1),
		r("building_id", 2, "race_id", 2, "name_id", 1001, "hit_points", 300, "level", 1, "enter_slot", true),
	},
	spellforce.TableBuildingRequirement: {
		r("building_id", 1, "position", 0, "resource", "WOOD", "amount", 50),
		r("building_id", 1, "position", 1, "resource", "STONE", "amount", 20),
	},
	spellforce.TableItem: {
		r("item_id", 1, "item_type", "EQUIPMENT", "item_subtype", "RIGHT_HAND", "name_id", 2000, "building_id", 1, "selling_price", 10, "buying_price", 40),
		r("item_id", 2, "item_type", "EQUIPMENT", "item_subtype", "HELMET", "name_id", 2001, "selling_price", 15, "buying_price", 60),
		r("item_id", 3, "item_type", "INVENTORY_RUNE", "item_subtype", "ELF", "name_id", 2002, "selling_price", 100, "buying_price", 400),
	},
	spellforce.TableItemStats: {
		r("item_id", 2, "stamina", 3, "armor", 12, "speed_run", -2),
	},
	spellforce.TableWeapon: {
		r("item_id", 1, "min_damage", 5, "max_damage", 9, "max_range", 2, "speed", 100, "weapon_type", "LIGHT_BLADE", "material", 1),
	},
	spellforce.TableItemRequirement: {
		r("item_id", 1, "position", 0, "level", 3, "school", "LIGHT_BLADE_WEAPONS", "school_level", 2),
	},
	spellforce.TableSpellLine: {
		r("spell_line_id", 1, "name_id", 3000, "magic_type", 5, "selectable", true),
	},
	spellforce.TableSpell: {
		r("spell_id", 1, "spell_line_id", 1, "requirement", "FIRE", "requirement_level", 1, "mana", 20,
			"cast_time", 1500, "recast_time", 3000, "max_range", 20, "targets", "ENEMY|AREA", "param0", 25),
	},
	spellforce.TableCreatureStats: {
		r("stats_id", 1, "level", 5, "race_id", 1, "strength", 30, "stamina", 25, "gender", "MALE", "size", 100),
	},
	spellforce.TableCreature: {
		r("creature_id", 1, "name_id", 5000, "stats_id", 1, "experience", 100, "flags", "WANDERS|AGGRESSIVE", "placeable", true),
		r("creature_id", 2, "name_id", 5001, "stats_id", 1, "money_copper", 500, "flags", "TRADER|UNIQUE"),
	},
	spellforce.TableMerchant: {
		r("merchant_id", 1, "creature_id", 2),
	},
	spellforce.TableMerchantInventory: {
		r("merchant_id", 1, "item_id", 1, "stock", 5),
		r("merchant_id", 1, "item_id", 2, "stock", 1),
	},
	spellforce.TableQuest: {
		r("quest_id", 1, "is_main", true, "name_id", 6000, "description_id", 6001, "order", 1),
	},
	spellforce.TableMap: {
		r("map_id", 1, "handle", "greyfell", "name_id", 7000),
	},
}

// Build encodes a synthetic file for cat. Tables the fixture has no rows for are
// written empty.
func Build(cat *cff.Catalog, opts Options) ([]byte, error) {
	header := make([]byte, headerSize(cat))
	copy(header, Magic)
	out := header

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	for _, spec := range cat.Tables {
		t := cff.NewTable(spec.Name, spec.Schema, nil)
		for i, fields := range fixture[spec.Name] {
			if err := appendRow(t, fields); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", spec.Name, i, err)
			}
		}
		if spec.Name == spellforce.TableItem {
			for i := range opts.ExtraItems {
				price := rng.IntN(1000)
				fields := r("item_id", 1000+i, "item_type", "MISCELLANEOUS",
					"selling_price", price, "buying_price", price*4, "unknown", rng.IntN(256))
				if err := appendRow(t, fields); err != nil {
					return nil, fmt.Errorf("%s filler %d: %w", spec.Name, i, err)
				}
			}
		}
		b, err := t.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Load builds a synthetic file and parses it back with a copy of cat whose length,
// checksum and offset assertions are dropped.
func Load(cat *cff.Catalog, opts Options, loadOpts ...cff.LoadOption) (*cff.GameData, error) {
	data, err := Build(cat, opts)
	if err != nil {
		return nil, err
	}
	loose := *cat
	loose.Length, loose.Checksum = 0, ""
	loose.Tables = make([]cff.TableSpec, len(cat.Tables))
	for i, spec := range cat.Tables {
		spec.Offset = 0
		loose.Tables[i] = spec
	}
	return cff.Load(data, &loose, loadOpts...)
}

func appendRow(t *cff.Table, fields row) error {
	e, err := t.NewRow()
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(fields); i += 2 {
		name, _ := fields[i].(string)
		if err := e.Set(name, fields[i+1]); err != nil {
			return err
		}
	}
	return t.Append(e)
}

func headerSize(cat *cff.Catalog) int {
	if cat.HeaderSize > 0 {
		return cat.HeaderSize
	}
	return cff.DefaultHeaderSize
}
