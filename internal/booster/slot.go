package booster

import (
	"github.com/amterp/crack/internal/model"
)

// Selection is what a slot unit resolves to before any card is fetched.
type Selection struct {
	Rarity model.Rarity // "" means any rarity
	Foil   *bool        // nil means the finish is unconstrained
	Pool   string

	// ExplicitFoil is true only when Foil came from a resolver or a static
	// foil flag. Normalization trusts the foil designation only when it is set.
	ExplicitFoil bool
}

// IsLand reports whether the unit draws from the land pool.
func (s Selection) IsLand() bool {
	return s.Pool == model.PoolLand
}

// Context is the open context passed to count functions and resolvers.
type Context struct {
	Pack      *model.PackDefinition
	SlotIndex int
	Unit      int
	RNG       RNG
}

// Slot is a compiled slot definition.
type Slot interface {
	// Units returns how many cards the slot yields for this opening.
	Units(ctx *Context) int
	// Resolve decides rarity, finish and pool for one unit.
	Resolve(ctx *Context) Selection
}

// units is the count part shared by every variant.
type units struct {
	count   int
	countFn CountFunc
}

func (u units) Units(ctx *Context) int {
	n := u.count
	if u.countFn != nil {
		n = u.countFn(ctx)
	}
	if n < 0 {
		return 0
	}
	return n
}

// staticPoolSlot draws from a fixed pool. A pool naming a rarity fixes the
// rarity; any other pool leaves it open.
type staticPoolSlot struct {
	units
	pool string
	foil *bool
}

func (s *staticPoolSlot) Resolve(*Context) Selection {
	sel := Selection{Pool: s.pool}
	if r, ok := model.ParseRarity(s.pool); ok {
		sel.Rarity = r
	}
	if s.foil != nil {
		sel.Foil = boolPtr(*s.foil)
		sel.ExplicitFoil = true
	}
	return sel
}

// weightedOddsSlot draws a rarity from an ordered odds table.
type weightedOddsSlot struct {
	staticPoolSlot
	odds []model.OddsEntry
}

func (s *weightedOddsSlot) Resolve(ctx *Context) Selection {
	sel := s.staticPoolSlot.Resolve(ctx)
	sel.Rarity = WeightedDraw(s.odds, ctx.RNG.Float64())
	return sel
}

// customResolverSlot lets a registered resolver override whatever the
// underlying static or odds slot would have produced.
type customResolverSlot struct {
	base     Slot
	resolver ResolverFunc
}

func (s *customResolverSlot) Units(ctx *Context) int {
	return s.base.Units(ctx)
}

func (s *customResolverSlot) Resolve(ctx *Context) Selection {
	sel := s.base.Resolve(ctx)
	o := s.resolver(ctx)
	if o.Rarity != "" {
		sel.Rarity = o.Rarity
	}
	if o.Pool != "" {
		sel.Pool = o.Pool
	}
	if o.Foil != nil {
		sel.Foil = boolPtr(*o.Foil)
		sel.ExplicitFoil = true
	}
	return sel
}

// landSlot draws lands. Rarity is never part of a land query; the engine
// decides between basic and nonbasic lands.
type landSlot struct {
	units
	foil *bool
}

func (s *landSlot) Resolve(*Context) Selection {
	sel := Selection{Pool: model.PoolLand}
	if s.foil != nil {
		sel.Foil = boolPtr(*s.foil)
		sel.ExplicitFoil = true
	}
	return sel
}

// WeightedDraw walks entries in declaration order subtracting weights from r
// and returns the first entry at which the remainder drops to zero or below.
// Entries with no weight are never selected by the walk. A float shortfall
// selects the last entry. Empty odds return "".
func WeightedDraw(odds []model.OddsEntry, r float64) model.Rarity {
	if len(odds) == 0 {
		return ""
	}
	remainder := r
	for _, entry := range odds {
		if entry.Weight <= 0 {
			continue
		}
		remainder -= entry.Weight
		if remainder <= 0 {
			return entry.Rarity
		}
	}
	return odds[len(odds)-1].Rarity
}

func boolPtr(b bool) *bool {
	return &b
}
