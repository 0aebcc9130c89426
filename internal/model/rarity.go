package model

import "strings"

// Rarity is the normalized rarity tag of a card.
type Rarity string

const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
	Mythic   Rarity = "mythic"
)

// Rarities lists the rarity tags from lowest to highest.
var Rarities = []Rarity{Common, Uncommon, Rare, Mythic}

// NormalizeRarity maps a provider rarity string onto one of the four tags.
// Anything unrecognized becomes Common.
func NormalizeRarity(s string) Rarity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return Common
	case "uncommon":
		return Uncommon
	case "rare":
		return Rare
	case "mythic", "mythic rare":
		return Mythic
	default:
		return Common
	}
}

// ParseRarity returns the rarity named by s and whether s names one exactly.
func ParseRarity(s string) (Rarity, bool) {
	switch r := Rarity(strings.ToLower(strings.TrimSpace(s))); r {
	case Common, Uncommon, Rare, Mythic:
		return r, true
	}
	return "", false
}

// Rank orders rarities for sorting (common = 0).
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return 0
}
