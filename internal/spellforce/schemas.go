package spellforce

import (
	"sort"

	"github.com/samcharles93/cffkit/pkg/cff"
)

// Table names. Every schema is stored in the table of the same name.
const (
	TableSpell               = "Spell"
	TableSpellLine           = "SpellLine"
	TableCreatureStats       = "CreatureStats"
	TableItem                = "Item"
	TableItemStats           = "ItemStats"
	TableWeapon              = "Weapon"
	TableItemRequirement     = "ItemRequirement"
	TableLocalisation        = "Localisation"
	TableRace                = "Race"
	TableCreature            = "Creature"
	TableBuilding            = "Building"
	TableBuildingRequirement = "BuildingRequirement"
	TableMerchant            = "Merchant"
	TableMerchantInventory   = "MerchantInventory"
	TableQuest               = "Quest"
	TableMap                 = "Map"
)

// name resolves a text id to its English localisation.
func name(rel, field string) *cff.Relation {
	return &cff.Relation{
		Name:   rel,
		Target: TableLocalisation,
		Keys:   cff.Keys("text_id", cff.FromField(field), "language", English),
		Path:   []string{"text"},
	}
}

// translations lists every localisation row of a text id.
func translations(field string) *cff.Relation {
	return &cff.Relation{
		Name:   "translations",
		Target: TableLocalisation,
		Keys:   cff.Keys("text_id", cff.FromField(field)),
		Many:   true,
	}
}

func byID(rel, target, targetField, field string) *cff.Relation {
	return &cff.Relation{Name: rel, Target: target, Keys: cff.Keys(targetField, cff.FromField(field))}
}

var Localisation = cff.MustSchema(TableLocalisation, []cff.Field{
	cff.Uint("text_id", 0, 2),
	cff.Enum("language", 2, Language),
	cff.Bool("is_dialogue", 3),
	cff.String("dialogue_name", 4, 50),
	cff.String("text", 54, 512),
	cff.Alias("language_id", "language"),
}, cff.WithPrimaryKey("text_id", "language"))

var Item = cff.MustSchema(TableItem, []cff.Field{
	cff.Uint("item_id", 0, 2),
	cff.Enum("item_type", 2, ItemType),
	cff.DecidedEnum("item_subtype", 3, 1, "item_type", ItemSubtype),
	cff.Uint("name_id", 4, 2),
	cff.Uint("creature_stats_id", 6, 2),
	cff.Uint("army_creature_id", 8, 2),
	cff.Uint("building_id", 10, 2),
	cff.Uint("unknown", 12, 1),
	cff.Uint("selling_price", 13, 4),
	cff.Uint("buying_price", 17, 4),
	cff.Uint("item_set_id", 21, 1),
	cff.Alias("id", "item_id"),
},
	cff.WithPrimaryKey("item_id"),
	cff.WithRelations(
		name("name", "name_id"),
		translations("name_id"),
		byID("stats", TableItemStats, "item_id", "item_id"),
		byID("weapon", TableWeapon, "item_id", "item_id"),
		&cff.Relation{
			Name:   "requirements",
			Target: TableItemRequirement,
			Keys:   cff.Keys("item_id", cff.FromField("item_id")),
			Many:   true,
		},
		byID("building", TableBuilding, "building_id", "building_id"),
	),
)

// ItemStats holds the attribute bonuses of wearable items.
var ItemStats = cff.MustSchema(TableItemStats, []cff.Field{
	cff.Uint("item_id", 0, 2),
	cff.Int("strength", 2, 2),
	cff.Int("stamina", 4, 2),
	cff.Int("agility", 6, 2),
	cff.Int("dexterity", 8, 2),
	cff.Int("health", 10, 2),
	cff.Int("charisma", 12, 2),
	cff.Int("intelligence", 14, 2),
	cff.Int("wisdom", 16, 2),
	cff.Int("mana", 18, 2),
	cff.Int("armor", 20, 2),
	cff.Int("resist_fire", 22, 2),
	cff.Int("resist_ice", 24, 2),
	cff.Int("resist_black", 26, 2),
	cff.Int("resist_mental", 28, 2),
	cff.Int("speed_run", 30, 2),
	cff.Int("speed_fight", 32, 2),
	cff.Int("speed_cast", 34, 2),
},
	cff.WithPrimaryKey("item_id"),
	cff.WithRelations(
		byID("item", TableItem, "item_id", "item_id"),
		&cff.Relation{
			Name:   "item_name",
			Target: TableItem,
			Keys:   cff.Keys("item_id", cff.FromField("item_id")),
			Path:   []string{"name"},
		},
	),
)

var Weapon = cff.MustSchema(TableWeapon, []cff.Field{
	cff.Uint("item_id", 0, 2),
	cff.Uint("min_damage", 2, 2),
	cff.Uint("max_damage", 4, 2),
	cff.Uint("min_range", 6, 2),
	cff.Uint("max_range", 8, 2),
	cff.Uint("speed", 10, 2),
	cff.Enum("weapon_type", 12, WeaponType),
	cff.Uint("material", 14, 2),
},
	cff.WithPrimaryKey("item_id"),
	cff.WithRelations(byID("item", TableItem, "item_id", "item_id")),
)

var ItemRequirement = cff.MustSchema(TableItemRequirement, []cff.Field{
	cff.Uint("item_id", 0, 2),
	cff.Uint("position", 2, 1),
	cff.Uint("level", 3, 1),
	cff.Enum("school", 4, SchoolRequirement),
	cff.Uint("school_level", 6, 1),
},
	cff.WithPrimaryKey("item_id", "position"),
	cff.WithRelations(byID("item", TableItem, "item_id", "item_id")),
)

var Spell = cff.MustSchema(TableSpell, []cff.Field{
	cff.Uint("spell_id", 0, 2),
	cff.Uint("spell_line_id", 2, 2),
	cff.Enum("requirement", 4, SchoolRequirement),
	cff.Uint("requirement_level", 6, 1),
	cff.Uint("mana", 7, 2),
	cff.Uint("cast_time", 9, 4),
	cff.Uint("recast_time", 13, 4),
	cff.Uint("min_range", 17, 2),
	cff.Uint("max_range", 19, 2),
	cff.FlagSet("targets", 21, SpellTarget),
	cff.Uint("param0", 22, 4),
	cff.Uint("param1", 26, 4),
	cff.Uint("param2", 30, 4),
	cff.Uint("param3", 34, 4),
	cff.Alias("id", "spell_id"),
},
	cff.WithLength(48),
	cff.WithPrimaryKey("spell_id"),
	cff.WithRelations(
		byID("line", TableSpellLine, "spell_line_id", "spell_line_id"),
		&cff.Relation{
			Name:   "name",
			Target: TableSpellLine,
			Keys:   cff.Keys("spell_line_id", cff.FromField("spell_line_id")),
			Path:   []string{"name"},
		},
	),
)

var SpellLine = cff.MustSchema(TableSpellLine, []cff.Field{
	cff.Uint("spell_line_id", 0, 2),
	cff.Uint("name_id", 2, 2),
	cff.Uint("magic_type", 4, 1),
	cff.Bool("selectable", 5),
},
	cff.WithPrimaryKey("spell_line_id"),
	cff.WithRelations(
		name("name", "name_id"),
		translations("name_id"),
		&cff.Relation{
			Name:   "spells",
			Target: TableSpell,
			Keys:   cff.Keys("spell_line_id", cff.FromField("spell_line_id")),
			Many:   true,
		},
	),
)

var CreatureStats = cff.MustSchema(TableCreatureStats, []cff.Field{
	cff.Uint("stats_id", 0, 2),
	cff.Uint("level", 2, 2),
	cff.Uint("race_id", 4, 1),
	cff.Uint("agility", 5, 2),
	cff.Uint("charisma", 7, 2),
	cff.Uint("dexterity", 9, 2),
	cff.Uint("intelligence", 11, 2),
	cff.Uint("stamina", 13, 2),
	cff.Uint("strength", 15, 2),
	cff.Uint("wisdom", 17, 2),
	cff.Enum("gender", 19, Gender),
	cff.Uint("resist_fire", 20, 2),
	cff.Uint("resist_ice", 22, 2),
	cff.Uint("resist_black", 24, 2),
	cff.Uint("resist_mental", 26, 2),
	cff.Uint("speed_walk", 28, 2),
	cff.Uint("speed_fight", 30, 2),
	cff.Uint("speed_cast", 32, 2),
	cff.Uint("size", 34, 2),
	cff.Uint("mana_usage", 36, 2),
	cff.Uint("spawn_base", 38, 4),
	cff.Uint("spawn_per_level", 42, 2),
},
	cff.WithPrimaryKey("stats_id"),
	cff.WithRelations(byID("race", TableRace, "race_id", "race_id")),
)

var RaceStats = cff.MustSchema(TableRace, []cff.Field{
	cff.Uint("race_id", 0, 1),
	cff.Uint("name_id", 1, 2),
	cff.Uint("flee_chance", 3, 1),
	cff.Uint("aggro_range", 4, 1),
	cff.Uint("clan", 5, 1),
},
	cff.WithLength(16),
	cff.WithPrimaryKey("race_id"),
	cff.WithRelations(name("name", "name_id"), translations("name_id")),
)

var Creature = cff.MustSchema(TableCreature, []cff.Field{
	cff.Uint("creature_id", 0, 2),
	cff.Uint("name_id", 2, 2),
	cff.Uint("stats_id", 4, 2),
	cff.Uint("experience", 6, 4),
	cff.Uint("experience_falloff", 10, 2),
	cff.Uint("money_copper", 12, 4),
	cff.Uint("money_variance", 16, 2),
	cff.Uint("armor", 18, 2),
	cff.FlagSet("flags", 20, CreatureFlags),
	cff.Bool("placeable", 21),
	cff.Alias("id", "creature_id"),
},
	cff.WithLength(24),
	cff.WithPrimaryKey("creature_id"),
	cff.WithRelations(
		name("name", "name_id"),
		translations("name_id"),
		byID("stats", TableCreatureStats, "stats_id", "stats_id"),
		&cff.Relation{
			Name:   "race_name",
			Target: TableCreatureStats,
			Keys:   cff.Keys("stats_id", cff.FromField("stats_id")),
			Path:   []string{"race", "name"},
		},
	),
)

var Building = cff.MustSchema(TableBuilding, []cff.Field{
	cff.Uint("building_id", 0, 2),
	cff.Uint("race_id", 2, 1),
	cff.Bool("enter_slot", 3),
	cff.Uint("slope", 4, 2),
	cff.Uint("worker_time", 6, 2),
	cff.Uint("name_id", 8, 2),
	cff.Uint("hit_points", 10, 2),
	cff.Uint("level", 12, 1),
	cff.Alias("id", "building_id"),
},
	cff.WithLength(16),
	cff.WithPrimaryKey("building_id"),
	cff.WithRelations(
		name("name", "name_id"),
		translations("name_id"),
		byID("race", TableRace, "race_id", "race_id"),
		&cff.Relation{
			Name:   "requirements",
			Target: TableBuildingRequirement,
			Keys:   cff.Keys("building_id", cff.FromField("building_id")),
			Many:   true,
		},
	),
)

var BuildingRequirement = cff.MustSchema(TableBuildingRequirement, []cff.Field{
	cff.Uint("building_id", 0, 2),
	cff.Uint("position", 2, 1),
	cff.Enum("resource", 3, Resource),
	cff.Uint("amount", 4, 2),
},
	cff.WithPrimaryKey("building_id", "position"),
	cff.WithRelations(byID("building", TableBuilding, "building_id", "building_id")),
)

var Merchant = cff.MustSchema(TableMerchant, []cff.Field{
	cff.Uint("merchant_id", 0, 2),
	cff.Uint("creature_id", 2, 2),
},
	cff.WithPrimaryKey("merchant_id"),
	cff.WithRelations(
		byID("creature", TableCreature, "creature_id", "creature_id"),
		&cff.Relation{
			Name:   "name",
			Target: TableCreature,
			Keys:   cff.Keys("creature_id", cff.FromField("creature_id")),
			Path:   []string{"name"},
		},
		&cff.Relation{
			Name:   "inventory",
			Target: TableMerchantInventory,
			Keys:   cff.Keys("merchant_id", cff.FromField("merchant_id")),
			Many:   true,
		},
	),
)

var MerchantInventory = cff.MustSchema(TableMerchantInventory, []cff.Field{
	cff.Uint("merchant_id", 0, 2),
	cff.Uint("item_id", 2, 2),
	cff.Uint("stock", 4, 2),
},
	cff.WithPrimaryKey("merchant_id", "item_id"),
	cff.WithRelations(
		byID("merchant", TableMerchant, "merchant_id", "merchant_id"),
		byID("item", TableItem, "item_id", "item_id"),
		&cff.Relation{
			Name:   "item_name",
			Target: TableItem,
			Keys:   cff.Keys("item_id", cff.FromField("item_id")),
			Path:   []string{"name"},
		},
	),
)

var Quest = cff.MustSchema(TableQuest, []cff.Field{
	cff.Uint("quest_id", 0, 4),
	cff.Uint("parent_id", 4, 4),
	cff.Bool("is_main", 8),
	cff.Uint("name_id", 9, 2),
	cff.Uint("description_id", 11, 2),
	cff.Uint("order", 13, 4),
},
	cff.WithPrimaryKey("quest_id"),
	cff.WithRelations(
		name("name", "name_id"),
		name("description", "description_id"),
		&cff.Relation{
			Name:      "parent",
			Target:    TableQuest,
			Keys:      cff.Keys("quest_id", cff.FromField("parent_id")),
			Uncertain: "parent_id has not been confirmed to hold a quest id",
		},
		&cff.Relation{
			Name:      "subquests",
			Target:    TableQuest,
			Keys:      cff.Keys("parent_id", cff.FromField("quest_id")),
			Many:      true,
			Uncertain: "inverse of parent, equally unconfirmed",
		},
	),
)

var Map = cff.MustSchema(TableMap, []cff.Field{
	cff.Uint("map_id", 0, 4),
	cff.Uint("unknown", 4, 1),
	cff.String("handle", 5, 64),
	cff.Uint("name_id", 69, 2),
},
	cff.WithPrimaryKey("map_id"),
	cff.WithRelations(&cff.Relation{
		Name:      "name",
		Target:    TableLocalisation,
		Keys:      cff.Keys("text_id", cff.FromField("name_id"), "language", English),
		Path:      []string{"text"},
		Uncertain: "name_id does not always point at the map's display name",
	}),
)

var schemas = map[string]*cff.Schema{}

func init() {
	for _, s := range []*cff.Schema{
		Spell, SpellLine, CreatureStats, Item, ItemStats, Weapon, ItemRequirement,
		Localisation, RaceStats, Creature, Building, BuildingRequirement,
		Merchant, MerchantInventory, Quest, Map,
	} {
		schemas[s.Name()] = s
	}
}

// Schema returns the schema registered under name.
func Schema(name string) (*cff.Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// SchemaNames lists every registered schema, sorted.
func SchemaNames() []string {
	out := make([]string, 0, len(schemas))
	for n := range schemas {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
