package booster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
)

// CountFunc decides a slot's unit count at open time.
type CountFunc func(ctx *Context) int

// ResolverFunc decides a unit's selection at open time. Zero fields in the
// returned Override leave the slot's own value in place.
type ResolverFunc func(ctx *Context) Override

// Override is a resolver's output.
type Override struct {
	Rarity model.Rarity
	Foil   *bool
	Pool   string
}

// Names of the built-in resolvers and count functions.
const (
	ResolverLandFoilSplit = "land-foil-split"
	ResolverFoilWildcard  = "foil-wildcard"
	CountBonusRare        = "bonus-rare"
	CountCollectorExtra   = "collector-extra"
)

// wildcardOdds is the rarity table used by the foil-wildcard resolver.
var wildcardOdds = []model.OddsEntry{
	{Rarity: model.Common, Weight: 0.60},
	{Rarity: model.Uncommon, Weight: 0.25},
	{Rarity: model.Rare, Weight: 0.12},
	{Rarity: model.Mythic, Weight: 0.03},
}

// Registry holds the named resolvers and count functions pack files may refer to.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolverFunc
	counts    map[string]CountFunc
}

// NewRegistry returns a registry preloaded with the built-ins.
func NewRegistry() *Registry {
	r := &Registry{
		resolvers: make(map[string]ResolverFunc),
		counts:    make(map[string]CountFunc),
	}

	r.RegisterResolver(ResolverLandFoilSplit, func(ctx *Context) Override {
		return Override{Pool: model.PoolLand, Foil: boolPtr(ctx.RNG.Float64() < 1.0/3.0)}
	})
	r.RegisterResolver(ResolverFoilWildcard, func(ctx *Context) Override {
		return Override{
			Rarity: WeightedDraw(wildcardOdds, ctx.RNG.Float64()),
			Pool:   model.PoolWildcard,
			Foil:   boolPtr(true),
		}
	})
	r.RegisterCount(CountBonusRare, func(ctx *Context) int {
		if ctx.RNG.Float64() < 0.25 {
			return 1
		}
		return 0
	})
	r.RegisterCount(CountCollectorExtra, func(ctx *Context) int {
		if ctx.RNG.Float64() < 0.10 {
			return 2
		}
		return 1
	})

	return r
}

// RegisterResolver adds or replaces a named resolver.
func (r *Registry) RegisterResolver(name string, fn ResolverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = fn
}

// RegisterCount adds or replaces a named count function.
func (r *Registry) RegisterCount(name string, fn CountFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] = fn
}

// ResolverNames returns the registered resolver names, sorted.
func (r *Registry) ResolverNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile turns a slot definition into its variant.
func (r *Registry) Compile(def model.SlotDefinition) (Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := units{count: def.Count}
	if def.CountFunc != "" {
		fn, ok := r.counts[def.CountFunc]
		if !ok {
			return nil, errors.InvalidField("count_func", fmt.Sprintf("unknown count function %q", def.CountFunc))
		}
		u.countFn = fn
	}

	var base Slot
	switch {
	case len(def.Odds) > 0:
		base = &weightedOddsSlot{
			staticPoolSlot: staticPoolSlot{units: u, pool: def.Pool, foil: def.Foil},
			odds:           def.Odds,
		}
	case def.Pool == model.PoolLand:
		base = &landSlot{units: u, foil: def.Foil}
	default:
		base = &staticPoolSlot{units: u, pool: def.Pool, foil: def.Foil}
	}

	if def.Resolver == "" {
		return base, nil
	}
	fn, ok := r.resolvers[def.Resolver]
	if !ok {
		return nil, errors.InvalidField("resolver", fmt.Sprintf("unknown resolver %q", def.Resolver))
	}
	return &customResolverSlot{base: base, resolver: fn}, nil
}

// CompilePack compiles every slot of a pack in declared order.
func (r *Registry) CompilePack(pack *model.PackDefinition) ([]Slot, error) {
	slots := make([]Slot, len(pack.Slots))
	for i, def := range pack.Slots {
		slot, err := r.Compile(def)
		if err != nil {
			return nil, fmt.Errorf("pack %s slot %d: %w", pack.Key, i+1, err)
		}
		slots[i] = slot
	}
	return slots, nil
}
