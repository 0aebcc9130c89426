package service

import (
	"context"
	"errors"
	"testing"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/scryfall"
	"github.com/amterp/crack/internal/store"
)

type fakeLister struct {
	cards map[string][]scryfall.Card
	err   error
	calls int
}

func (f *fakeLister) SetCards(ctx context.Context, setCode string) ([]scryfall.Card, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cards[setCode], nil
}

func seedCollection(t *testing.T, env *testEnv) {
	t.Helper()
	forest := testCard("1")
	forest.Name, forest.OriginalID, forest.Price, forest.ObtainedAtMillis = "forest", "p-forest", 0.10, 100

	bolt := testCard("2")
	bolt.Name, bolt.OriginalID, bolt.Rarity, bolt.Price, bolt.ObtainedAtMillis = "Bolt", "p-bolt", model.Rare, 3.50, 300
	bolt.Foil = true

	angel := testCard("3")
	angel.Name, angel.OriginalID, angel.Rarity, angel.Price, angel.ObtainedAtMillis = "Angel", "p-angel", model.Mythic, 12.00, 200
	angel.SetCode = "neo"

	if err := env.collection.Save([]model.Card{forest, bolt, angel}); err != nil {
		t.Fatal(err)
	}
}

func names(cards []model.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func TestCollectionService_ListSorts(t *testing.T) {
	env := newTestEnv(t)
	seedCollection(t, env)
	svc := NewCollectionService(env.collection, nil, nil, nil)

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"Bolt", "Angel", "forest"}},
		{SortNewest, []string{"Bolt", "Angel", "forest"}},
		{SortName, []string{"Angel", "Bolt", "forest"}},
		{SortPrice, []string{"Angel", "Bolt", "forest"}},
		{SortRarity, []string{"Angel", "Bolt", "forest"}},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			cards, err := svc.List(CollectionFilter{Sort: tt.sort})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			got := names(cards)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("order = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestCollectionService_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	seedCollection(t, env)
	svc := NewCollectionService(env.collection, nil, nil, nil)

	cards, _ := svc.List(CollectionFilter{SetCode: "NEO"})
	if len(cards) != 1 || cards[0].Name != "Angel" {
		t.Errorf("set filter: %v", names(cards))
	}
	cards, _ = svc.List(CollectionFilter{FoilOnly: true})
	if len(cards) != 1 || cards[0].Name != "Bolt" {
		t.Errorf("foil filter: %v", names(cards))
	}
	cards, _ = svc.List(CollectionFilter{Rarity: model.Common})
	if len(cards) != 1 || cards[0].Name != "forest" {
		t.Errorf("rarity filter: %v", names(cards))
	}

	if _, err := svc.List(CollectionFilter{Sort: "color"}); !crackerr.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCollectionService_GetAndSummary(t *testing.T) {
	env := newTestEnv(t)
	seedCollection(t, env)
	svc := NewCollectionService(env.collection, nil, nil, nil)

	card, err := svc.Get("2")
	if err != nil || card.Name != "Bolt" {
		t.Errorf("Get(2) = %v, %v", card, err)
	}
	if _, err := svc.Get("nope"); !crackerr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	sum, err := svc.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Count != 3 || sum.Value != 15.60 || sum.Foils != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.ByRarity[model.Mythic] != 1 || sum.ByRarity[model.Common] != 1 {
		t.Errorf("unexpected rarity counts: %v", sum.ByRarity)
	}
}

func TestCollectionService_SetProgress(t *testing.T) {
	env := newTestEnv(t)
	seedCollection(t, env)

	lister := &fakeLister{cards: map[string][]scryfall.Card{
		"dmu": {
			{ID: "p-forest", Name: "forest", SetName: "Dominaria United", CollectorNumber: "1", Rarity: "common"},
			{ID: "p-bolt", Name: "Bolt", SetName: "Dominaria United", CollectorNumber: "2", Rarity: "rare"},
			{ID: "p-other", Name: "Other", SetName: "Dominaria United", CollectorNumber: "3", Rarity: "uncommon"},
		},
	}}
	cache := store.NewSetCache(env.paths, 0, nil)
	svc := NewCollectionService(env.collection, lister, cache, nil)

	progress, err := svc.SetProgress(context.Background(), " DMU ")
	if err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if progress.Owned != 2 || progress.Total != 3 || progress.SetName != "Dominaria United" {
		t.Errorf("unexpected progress: %+v", progress)
	}
	if len(progress.Missing) != 1 || progress.Missing[0].Name != "Other" || progress.Missing[0].Rarity != model.Uncommon {
		t.Errorf("unexpected missing: %+v", progress.Missing)
	}

	// Second call is served from the cache.
	if _, err := svc.SetProgress(context.Background(), "dmu"); err != nil {
		t.Fatalf("cached SetProgress failed: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("lister called %d times, want 1", lister.calls)
	}
}

func TestCollectionService_SetProgressUnknownSet(t *testing.T) {
	env := newTestEnv(t)
	lister := &fakeLister{err: &scryfall.APIError{Kind: scryfall.KindProvider, StatusCode: 404, Code: "not_found"}}
	svc := NewCollectionService(env.collection, lister, nil, nil)

	_, err := svc.SetProgress(context.Background(), "zzz")
	var nf *crackerr.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "set" {
		t.Fatalf("expected set not found, got %v", err)
	}

	if _, err := svc.SetProgress(context.Background(), "  "); !crackerr.IsValidationError(err) {
		t.Errorf("expected validation error for blank set, got %v", err)
	}
}
