package scryfall

import (
	"strings"

	"github.com/amterp/crack/internal/model"
)

// PoolNonbasicLand selects lands that are not basic. It is only produced by
// the booster engine's land split and is never written in pack files.
const PoolNonbasicLand = "nonbasic-land"

// Constraints narrow a random-card query. Empty fields add no term.
type Constraints struct {
	SetCode string
	Rarity  model.Rarity
	Type    string
	Pool    string
	Foil    *bool // nil leaves the finish unconstrained
}

// BuildQuery renders constraints as a Scryfall search string, terms joined
// by spaces in a fixed order: set, rarity, type, pool, finish.
// Pool "land" adds t:land; any pool that is not a rarity, land or wildcard
// tag is passed through verbatim.
func BuildQuery(c Constraints) string {
	var terms []string
	if c.SetCode != "" {
		terms = append(terms, "set:"+strings.ToLower(c.SetCode))
	}
	if c.Rarity != "" {
		terms = append(terms, "rarity:"+string(c.Rarity))
	}
	if c.Type != "" {
		terms = append(terms, "type:"+c.Type)
	}
	switch c.Pool {
	case model.PoolLand:
		terms = append(terms, "t:land")
	case PoolNonbasicLand:
		terms = append(terms, "t:land", "-t:basic")
	case "", model.PoolWildcard:
	default:
		// Rarity pools are already expressed through Rarity; anything else is
		// a raw search fragment such as "is:showcase".
		if _, isRarity := model.ParseRarity(c.Pool); !isRarity {
			terms = append(terms, c.Pool)
		}
	}
	if c.Foil != nil {
		if *c.Foil {
			terms = append(terms, "is:foil")
		} else {
			terms = append(terms, "is:nonfoil")
		}
	}
	return strings.Join(terms, " ")
}
