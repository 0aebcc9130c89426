package model

// RarityColors maps each rarity to the hex colour used for its label in the
// terminal and for placeholder card images.
var RarityColors = map[Rarity]string{
	Common:   "#6b7280", // gray
	Uncommon: "#94a3b8", // silver
	Rare:     "#f59e0b", // gold
	Mythic:   "#ef4444", // red-orange
}

// RarityColor returns the colour for r, falling back to the common colour.
func RarityColor(r Rarity) string {
	if c, ok := RarityColors[r]; ok {
		return c
	}
	return RarityColors[Common]
}
