package booster

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/scryfall"
)

// BasicLandShare is the probability a land unit is a basic land.
const BasicLandShare = 0.95

// CardSource is the card data adapter the engine fetches through.
// *scryfall.Client satisfies it.
type CardSource interface {
	Random(ctx context.Context, c scryfall.Constraints) (*scryfall.Card, error)
	FetchConstrainedRandomCard(ctx context.Context, c scryfall.Constraints) *scryfall.Card
}

// Options tune the engine.
type Options struct {
	// Concurrency bounds simultaneous unit fetches. Values below 1 mean 1.
	Concurrency int
	// PadShortPacks gives every dropped unit one extra unconstrained attempt.
	PadShortPacks bool
}

// Report summarizes one assembly.
type Report struct {
	Nominal  int `json:"nominal"`  // units planned
	Obtained int `json:"obtained"` // cards returned
	Dropped  int `json:"dropped"`  // units with no card
	Padded   int `json:"padded"`   // units filled by the padding attempt
}

// Engine assembles packs. It performs no persistence.
type Engine struct {
	source   CardSource
	registry *Registry
	rng      RNG
	opts     Options
	logger   *slog.Logger
}

func NewEngine(source CardSource, registry *Registry, rng RNG, opts Options, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if rng == nil {
		rng = SystemRNG{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{source: source, registry: registry, rng: rng, opts: opts, logger: logger}
}

type landKind int

const (
	notLand landKind = iota
	basicLand
	nonbasicLand
)

// unit is one planned card: its position is its index in the plan.
type unit struct {
	slot int
	sel  Selection
	land landKind
}

// Assemble opens one pack: it plans every unit in declared slot order, then
// fetches the units concurrently and returns the obtained cards in plan order.
// Units the source cannot supply are dropped. The only error is a pack whose
// slots fail to compile.
func (e *Engine) Assemble(ctx context.Context, pack *model.PackDefinition) ([]model.Card, Report, error) {
	plan, err := e.plan(pack)
	if err != nil {
		return nil, Report{}, err
	}

	raws := make([]*scryfall.Card, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, u := range plan {
		g.Go(func() error {
			raws[i] = e.fetch(gctx, pack.SetCode, u)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Nominal: len(plan)}
	if e.opts.PadShortPacks {
		report.Padded = e.pad(ctx, pack.SetCode, plan, raws)
	}

	cards := make([]model.Card, 0, len(plan))
	for i, raw := range raws {
		if raw == nil {
			report.Dropped++
			e.logger.WarnContext(ctx, "dropping unobtainable unit",
				"pack", pack.Key, "slot", plan[i].slot+1, "unit", i+1)
			continue
		}
		sel := plan[i].sel
		foil := sel.Foil != nil && *sel.Foil
		cards = append(cards, Normalize(raw, sel.ExplicitFoil, foil))
	}
	report.Obtained = len(cards)

	if report.Dropped > 0 {
		e.logger.WarnContext(ctx, "pack came back short",
			"pack", pack.Key, "nominal", report.Nominal, "obtained", report.Obtained)
	}
	return cards, report, nil
}

// plan resolves every unit synchronously so that all RNG draws happen in a
// fixed order on one goroutine.
func (e *Engine) plan(pack *model.PackDefinition) ([]unit, error) {
	slots, err := e.registry.CompilePack(pack)
	if err != nil {
		return nil, err
	}

	var plan []unit
	for si, slot := range slots {
		ctx := &Context{Pack: pack, SlotIndex: si, RNG: e.rng}
		n := slot.Units(ctx)
		for ui := 0; ui < n; ui++ {
			ctx.Unit = ui
			u := unit{slot: si, sel: slot.Resolve(ctx)}
			if u.sel.IsLand() {
				u.land = e.rollLand()
			}
			plan = append(plan, u)
		}
	}
	return plan, nil
}

func (e *Engine) rollLand() landKind {
	if e.rng.Float64() < BasicLandShare {
		return basicLand
	}
	return nonbasicLand
}

func (e *Engine) fetch(ctx context.Context, setCode string, u unit) *scryfall.Card {
	switch u.land {
	case basicLand:
		return e.source.FetchConstrainedRandomCard(ctx, scryfall.Constraints{
			SetCode: setCode,
			Type:    "basic",
			Pool:    model.PoolLand,
			Foil:    u.sel.Foil,
		})
	case nonbasicLand:
		card, err := e.source.Random(ctx, scryfall.Constraints{
			SetCode: setCode,
			Pool:    scryfall.PoolNonbasicLand,
			Foil:    u.sel.Foil,
		})
		if err == nil && card != nil {
			return card
		}
		e.logger.DebugContext(ctx, "nonbasic land query failed, using any land", "error", err)
		return e.source.FetchConstrainedRandomCard(ctx, scryfall.Constraints{
			SetCode: setCode,
			Pool:    model.PoolLand,
			Foil:    u.sel.Foil,
		})
	default:
		return e.source.FetchConstrainedRandomCard(ctx, scryfall.Constraints{
			SetCode: setCode,
			Rarity:  u.sel.Rarity,
			Pool:    u.sel.Pool,
			Foil:    u.sel.Foil,
		})
	}
}

// pad gives each missing unit one unconstrained attempt within the set. A
// padded unit loses any foil designation. It returns how many were filled.
func (e *Engine) pad(ctx context.Context, setCode string, plan []unit, raws []*scryfall.Card) int {
	var missing []int
	for i, raw := range raws {
		if raw == nil {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for _, i := range missing {
		g.Go(func() error {
			raws[i] = e.source.FetchConstrainedRandomCard(gctx, scryfall.Constraints{SetCode: setCode})
			return nil
		})
	}
	_ = g.Wait()

	padded := 0
	for _, i := range missing {
		if raws[i] != nil {
			plan[i].sel = Selection{}
			padded++
		}
	}
	return padded
}
