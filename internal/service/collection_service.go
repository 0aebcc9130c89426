package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/scryfall"
	"github.com/amterp/crack/internal/store"
)

// Sort orders for ListCollection.
const (
	SortNewest = "newest"
	SortName   = "name"
	SortPrice  = "price"
	SortRarity = "rarity"
)

// SortOrders lists the accepted sort names.
var SortOrders = []string{SortNewest, SortName, SortPrice, SortRarity}

// CollectionFilter narrows a collection listing. Zero values match everything.
type CollectionFilter struct {
	Sort     string
	SetCode  string
	Rarity   model.Rarity
	FoilOnly bool
}

// CollectionSummary totals a collection.
type CollectionSummary struct {
	Count    int                  `json:"count"`
	Value    float64              `json:"value"`
	Foils    int                  `json:"foils"`
	ByRarity map[model.Rarity]int `json:"by_rarity"`
}

// SetProgress compares owned prints of a set against the full set.
type SetProgress struct {
	SetCode string         `json:"set_code"`
	SetName string         `json:"set_name"`
	Owned   int            `json:"owned"`
	Total   int            `json:"total"`
	Missing []MissingPrint `json:"missing,omitempty"`
}

// MissingPrint is a print of the set not yet in the collection.
type MissingPrint struct {
	Name            string       `json:"name"`
	CollectorNumber string       `json:"collector_number"`
	Rarity          model.Rarity `json:"rarity"`
}

// Percent returns completion in [0, 100].
func (p *SetProgress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Owned) / float64(p.Total) * 100
}

// SetLister fetches every print in a set. *scryfall.Client implements it.
type SetLister interface {
	SetCards(ctx context.Context, setCode string) ([]scryfall.Card, error)
}

// CollectionService answers read-only questions about the collection.
type CollectionService struct {
	collection store.CollectionStore
	lister     SetLister
	cache      store.SetCache
	logger     *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(collection store.CollectionStore, lister SetLister, cache store.SetCache, logger *slog.Logger) *CollectionService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CollectionService{collection: collection, lister: lister, cache: cache, logger: logger}
}

// List returns filtered, sorted cards.
func (s *CollectionService) List(filter CollectionFilter) ([]model.Card, error) {
	if filter.Sort == "" {
		filter.Sort = SortNewest
	}
	less, ok := sorters[filter.Sort]
	if !ok {
		return nil, crackerr.InvalidField("sort", fmt.Sprintf("must be one of %s", strings.Join(SortOrders, ", ")))
	}

	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}

	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if filter.SetCode != "" && !strings.EqualFold(c.SetCode, filter.SetCode) {
			continue
		}
		if filter.Rarity != "" && c.Rarity != filter.Rarity {
			continue
		}
		if filter.FoilOnly && !c.Foil {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out, nil
}

var sorters = map[string]func(a, b *model.Card) bool{
	SortNewest: func(a, b *model.Card) bool { return a.ObtainedAtMillis > b.ObtainedAtMillis },
	SortName:   func(a, b *model.Card) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) },
	SortPrice:  func(a, b *model.Card) bool { return a.Price > b.Price },
	SortRarity: func(a, b *model.Card) bool { return a.Rarity.Rank() > b.Rarity.Rank() },
}

// Get returns one card by instance ID.
func (s *CollectionService) Get(instanceID string) (*model.Card, error) {
	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].InstanceID == instanceID {
			return &cards[i], nil
		}
	}
	return nil, crackerr.CardNotFound(instanceID)
}

// Summary totals the whole collection.
func (s *CollectionService) Summary() (*CollectionSummary, error) {
	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}
	sum := &CollectionSummary{ByRarity: make(map[model.Rarity]int, len(model.Rarities))}
	for _, c := range cards {
		sum.Count++
		sum.Value += c.Price
		if c.Foil {
			sum.Foils++
		}
		sum.ByRarity[c.Rarity]++
	}
	sum.Value = roundCents(sum.Value)
	return sum, nil
}

// SetProgress reports how many distinct prints of a set the collection holds.
// The set listing comes from the cache when fresh.
func (s *CollectionService) SetProgress(ctx context.Context, setCode string) (*SetProgress, error) {
	setCode = strings.ToLower(strings.TrimSpace(setCode))
	if setCode == "" {
		return nil, crackerr.InvalidField("set", "set code is required")
	}

	prints, err := s.setCards(ctx, setCode)
	if err != nil {
		return nil, err
	}

	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool)
	for _, c := range cards {
		owned[c.OriginalID] = true
	}

	progress := &SetProgress{SetCode: setCode, Total: len(prints)}
	for _, p := range prints {
		if progress.SetName == "" {
			progress.SetName = p.SetName
		}
		if owned[p.ID] {
			progress.Owned++
			continue
		}
		progress.Missing = append(progress.Missing, MissingPrint{
			Name:            p.Name,
			CollectorNumber: p.CollectorNumber,
			Rarity:          model.NormalizeRarity(p.Rarity),
		})
	}
	return progress, nil
}

func (s *CollectionService) setCards(ctx context.Context, setCode string) ([]scryfall.Card, error) {
	if s.cache != nil {
		if cards, ok := s.cache.Get(setCode); ok {
			return cards, nil
		}
	}
	if s.lister == nil {
		return nil, fmt.Errorf("no card source configured")
	}

	cards, err := s.lister.SetCards(ctx, setCode)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, &crackerr.NotFoundError{Resource: "set", ID: setCode}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(setCode, cards); err != nil {
			s.logger.Warn("failed to cache set listing", "set", setCode, "error", err)
		}
	}
	return cards, nil
}
