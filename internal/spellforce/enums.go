package spellforce

import "github.com/samcharles93/cffkit/pkg/cff"

var Language = cff.MustEnumType("Language", 1,
	cff.Member("GERMAN", 0),
	cff.Member("ENGLISH", 1),
	cff.Member("FRENCH", 2),
	cff.Member("SPANISH", 3),
	cff.Member("ITALIAN", 4),
	cff.Member("HAEGAR", 5),
)

// SchoolRequirement is a (school, branch) pair.
var SchoolRequirement = cff.MustEnumType("SchoolRequirement", 2,
	cff.Member("LEVEL_ONLY", 0, 0),
	cff.Member("PIERCING_WEAPONS", 1, 1),
	cff.Member("LIGHT_BLADE_WEAPONS", 1, 2),
	cff.Member("LIGHT_BLUNT_WEAPONS", 1, 3),
	cff.Member("LIGHT_ARMOR", 1, 4),
	cff.Member("HEAVY_BLADE_WEAPONS", 2, 1),
	cff.Member("HEAVY_BLUNT_WEAPONS", 2, 2),
	cff.Member("HEAVY_ARMOR", 2, 3),
	cff.Member("SHIELDS", 2, 4),
	cff.Member("BOWS", 3, 1),
	cff.Member("CROSSBOWS", 3, 2),
	cff.Member("LIFE", 4, 1),
	cff.Member("NATURE", 4, 2),
	cff.Member("BOONS", 4, 3),
	cff.Member("FIRE", 5, 1),
	cff.Member("ICE", 5, 2),
	cff.Member("EARTH", 5, 3),
	cff.Member("ENCHANTMENT", 6, 1),
	cff.Member("OFFENSIVE", 6, 2),
	cff.Member("DEFENSIVE", 6, 3),
	cff.Member("DEATH", 7, 1),
	cff.Member("NECROMANCY", 7, 2),
	cff.Member("CURSE", 7, 3),
)

var ItemType = cff.MustEnumType("ItemType", 1,
	cff.Member("EQUIPMENT", 1),
	cff.Member("INVENTORY_RUNE", 2),
	cff.Member("INSTALLED_RUNE", 3),
	cff.Member("SPELL_SCROLL", 4),
	cff.Member("EQUIPPED_SCROLL", 5),
	cff.Member("UNIT_PLAN", 6),
	cff.Member("BUILDING_PLAN", 7),
	cff.Member("EQUIPPED_UNIT_PLAN", 8),
	cff.Member("EQUIPPED_BUILDING_PLAN", 9),
	cff.Member("MISCELLANEOUS", 10),
)

// EquipmentSlot is the item subtype of equipment.
var EquipmentSlot = cff.MustEnumType("EquipmentSlot", 1,
	cff.Member("HELMET", 1),
	cff.Member("RIGHT_HAND", 2),
	cff.Member("CHEST", 3),
	cff.Member("LEFT_HAND", 4),
	cff.Member("RIGHT_RING", 5),
	cff.Member("LEGS", 6),
	cff.Member("LEFT_RING", 7),
)

// Race doubles as the item subtype of runes.
var Race = cff.MustEnumType("Race", 1,
	cff.Member("HUMAN", 1),
	cff.Member("ELF", 2),
	cff.Member("DWARF", 3),
	cff.Member("ORC", 4),
	cff.Member("TROLL", 5),
	cff.Member("DARK_ELF", 6),
)

// ItemSubtype selects the subtype enum from an item's type. Other item types keep
// their subtype byte as an unknown variant.
func ItemSubtype(itemType any) *cff.EnumType {
	t, _ := itemType.(cff.EnumValue)
	switch t.Name() {
	case "EQUIPMENT":
		return EquipmentSlot
	case "INVENTORY_RUNE", "INSTALLED_RUNE":
		return Race
	}
	return nil
}

var WeaponType = cff.MustEnumType("WeaponType", 2,
	cff.Member("LIGHT_BLADE", 1, 0),
	cff.Member("LIGHT_BLUNT", 2, 0),
	cff.Member("PIERCING", 3, 0),
	cff.Member("HEAVY_BLADE", 4, 0),
	cff.Member("HEAVY_BLUNT", 5, 0),
	cff.Member("BOW", 6, 0),
	cff.Member("CROSSBOW", 7, 0),
	cff.Member("STAFF", 8, 0),
)

var Gender = cff.MustEnumType("Gender", 1,
	cff.Member("MALE", 0),
	cff.Member("FEMALE", 1),
)

var Resource = cff.MustEnumType("Resource", 1,
	cff.Member("WOOD", 1),
	cff.Member("STONE", 2),
	cff.Member("IRON", 3),
	cff.Member("LENYA", 4),
	cff.Member("ARIA", 5),
	cff.Member("MOONSILVER", 6),
	cff.Member("FOOD", 7),
)

var SpellTarget = cff.MustFlagType("SpellTarget",
	cff.FlagBit{Name: "SELF", Bit: 0},
	cff.FlagBit{Name: "ALLY", Bit: 1},
	cff.FlagBit{Name: "ENEMY", Bit: 2},
	cff.FlagBit{Name: "GROUND", Bit: 3},
	cff.FlagBit{Name: "AREA", Bit: 4},
)

var CreatureFlags = cff.MustFlagType("CreatureFlags",
	cff.FlagBit{Name: "WANDERS", Bit: 0},
	cff.FlagBit{Name: "AGGRESSIVE", Bit: 1},
	cff.FlagBit{Name: "TRADER", Bit: 2},
	cff.FlagBit{Name: "UNIQUE", Bit: 3},
)

// English is the language constant used by name relations.
var English = Language.MustValue("ENGLISH")
