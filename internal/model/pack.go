package model

// Pool tags with special meaning to the booster engine.
const (
	PoolLand     = "land"
	PoolWildcard = "wildcard"
)

// PackDefinition is the static configuration of one purchasable pack type.
// Loaded from packs.toml; callers receive deep copies and must not share them.
type PackDefinition struct {
	Key     string           `toml:"key" json:"key"`
	Name    string           `toml:"name" json:"name"`
	SetCode string           `toml:"set_code" json:"set_code"`
	Price   float64          `toml:"price" json:"price"`
	Slots   []SlotDefinition `toml:"slots" json:"slots"`
}

// SlotDefinition is one rule producing zero or more cards.
type SlotDefinition struct {
	Count     int         `toml:"count" json:"count"`
	CountFunc string      `toml:"count_func,omitempty" json:"count_func,omitempty"` // registered count function, overrides Count
	Pool      string      `toml:"pool,omitempty" json:"pool,omitempty"`
	Odds      []OddsEntry `toml:"odds,omitempty" json:"odds,omitempty"` // order matters for the draw
	Foil      *bool       `toml:"foil,omitempty" json:"foil,omitempty"` // nil = unconstrained finish
	Resolver  string      `toml:"resolver,omitempty" json:"resolver,omitempty"`
}

// OddsEntry is one weighted rarity in a slot's odds table.
type OddsEntry struct {
	Rarity Rarity  `toml:"rarity" json:"rarity"`
	Weight float64 `toml:"weight" json:"weight"`
}

// NominalSize returns the number of cards the pack yields when every slot
// uses its fixed count. Slots with a count function count as their fixed value.
func (p *PackDefinition) NominalSize() int {
	n := 0
	for _, s := range p.Slots {
		n += s.Count
	}
	return n
}

// Clone returns a deep copy so that no slot, odds table or foil flag is shared.
func (p *PackDefinition) Clone() *PackDefinition {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Slots = make([]SlotDefinition, len(p.Slots))
	for i, s := range p.Slots {
		cp.Slots[i] = s.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the slot.
func (s SlotDefinition) Clone() SlotDefinition {
	cp := s
	if s.Odds != nil {
		cp.Odds = make([]OddsEntry, len(s.Odds))
		copy(cp.Odds, s.Odds)
	}
	if s.Foil != nil {
		f := *s.Foil
		cp.Foil = &f
	}
	return cp
}
