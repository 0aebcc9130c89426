package service

import (
	"context"
	"errors"
	"testing"
	"time"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
)

func TestOpenPack_CommitsCardsAndMarker(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 2})

	engine := &fakeAssembler{cards: []model.Card{testCard("a"), testCard("b"), testCard("c")}}
	svc := env.openingService(engine, OpeningOptions{})
	svc.now = fixedClock(time.UnixMilli(1700000000000))

	result, err := svc.OpenPack(context.Background(), "dmu-draft")
	if err != nil {
		t.Fatalf("OpenPack failed: %v", err)
	}
	if len(result.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(result.Cards))
	}

	collection := env.loadCollection(t)
	pending := env.loadPending(t)
	if len(collection) != 3 || len(pending) != 3 {
		t.Fatalf("collection=%d pending=%d, want 3 and 3", len(collection), len(pending))
	}
	for i, c := range collection {
		if pending[i] != c.InstanceID {
			t.Errorf("pending[%d] = %q, want %q", i, pending[i], c.InstanceID)
		}
		if c.ObtainedAtMillis != 1700000000000 {
			t.Errorf("card %s not stamped: %d", c.InstanceID, c.ObtainedAtMillis)
		}
	}

	if got := env.loadInventory(t).Count("dmu-draft"); got != 1 {
		t.Errorf("inventory = %d, want 1", got)
	}
	if svc.State() != StateCommitted {
		t.Errorf("state = %s, want %s", svc.State(), StateCommitted)
	}
	if env.ledger.OpeningInFlight() {
		t.Error("opening should no longer be in flight")
	}
}

func TestOpenPack_SecondOpeningAppendsToMarker(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 2})

	svc := env.openingService(&fakeAssembler{cards: []model.Card{testCard("a")}}, OpeningOptions{})
	for i := 0; i < 2; i++ {
		if _, err := svc.OpenPack(context.Background(), "dmu-draft"); err != nil {
			t.Fatalf("OpenPack %d failed: %v", i, err)
		}
	}

	if got := len(env.loadPending(t)); got != 2 {
		t.Errorf("pending = %d, want 2", got)
	}
}

func TestOpenPack_UnknownPack(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	engine := &fakeAssembler{}

	_, err := env.openingService(engine, OpeningOptions{}).OpenPack(context.Background(), "nope")
	if !crackerr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not be called")
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 1 {
		t.Errorf("inventory changed: %d", got)
	}
}

func TestOpenPack_NoPacksChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 0})
	engine := &fakeAssembler{cards: []model.Card{testCard("a")}}
	svc := env.openingService(engine, OpeningOptions{})

	_, err := svc.OpenPack(context.Background(), "dmu-draft")
	if !crackerr.IsNoPacks(err) {
		t.Fatalf("expected NoPacksError, got %v", err)
	}
	if engine.calls != 0 {
		t.Error("engine should not be called without a pack")
	}
	if len(env.loadCollection(t)) != 0 || len(env.loadPending(t)) != 0 {
		t.Error("no state should change")
	}
	if svc.State() != StateIdle {
		t.Errorf("state = %s, want idle", svc.State())
	}
}

func TestOpenPack_TotalFailureConsumesPack(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	svc := env.openingService(&fakeAssembler{}, OpeningOptions{})

	_, err := svc.OpenPack(context.Background(), "dmu-draft")
	if !crackerr.IsPackUnobtainable(err) {
		t.Fatalf("expected PackOpeningFailedError, got %v", err)
	}
	var perr *crackerr.PackOpeningFailedError
	if !errors.As(err, &perr) || perr.Refunded {
		t.Errorf("expected unrefunded failure, got %+v", perr)
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 0 {
		t.Errorf("pack should stay consumed, inventory = %d", got)
	}
	if len(env.loadCollection(t)) != 0 || len(env.loadPending(t)) != 0 {
		t.Error("nothing should be committed")
	}
	if svc.State() != StateFailed {
		t.Errorf("state = %s, want failed", svc.State())
	}
}

func TestOpenPack_TotalFailureRefundsWhenEnabled(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	svc := env.openingService(&fakeAssembler{}, OpeningOptions{RefundOnTotalFailure: true})

	_, err := svc.OpenPack(context.Background(), "dmu-draft")
	var perr *crackerr.PackOpeningFailedError
	if !errors.As(err, &perr) || !perr.Refunded {
		t.Fatalf("expected refunded failure, got %v", err)
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 1 {
		t.Errorf("inventory = %d, want 1 after refund", got)
	}
}

func TestOpenPack_InvalidCardsAreDiscarded(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})

	broken := testCard("broken")
	broken.Image = ""
	svc := env.openingService(&fakeAssembler{cards: []model.Card{testCard("ok"), broken}}, OpeningOptions{})

	result, err := svc.OpenPack(context.Background(), "dmu-draft")
	if err != nil {
		t.Fatalf("OpenPack failed: %v", err)
	}
	if result.Invalid != 1 || len(result.Cards) != 1 {
		t.Errorf("invalid=%d cards=%d, want 1 and 1", result.Invalid, len(result.Cards))
	}
	if len(env.loadCollection(t)) != 1 {
		t.Error("only the valid card should be committed")
	}
}

func TestOpenPack_FullCollectionDiscardsExcess(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	if err := env.collection.Save([]model.Card{testCard("old")}); err != nil {
		t.Fatal(err)
	}

	engine := &fakeAssembler{cards: []model.Card{testCard("a"), testCard("b")}}
	result, err := env.openingService(engine, OpeningOptions{MaxCollectionSize: 2}).OpenPack(context.Background(), "dmu-draft")
	if err != nil {
		t.Fatalf("OpenPack failed: %v", err)
	}
	if len(result.Cards) != 1 || result.Discarded != 1 {
		t.Errorf("cards=%d discarded=%d, want 1 and 1", len(result.Cards), result.Discarded)
	}
	if got := env.loadPending(t); len(got) != 1 || got[0] != result.Cards[0].InstanceID {
		t.Errorf("marker should hold only the added card, got %v", got)
	}
}

func TestOpenPack_FullCollectionRefusedBeforeReserving(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	if err := env.collection.Save([]model.Card{testCard("old")}); err != nil {
		t.Fatal(err)
	}

	engine := &fakeAssembler{cards: []model.Card{testCard("a"), testCard("b")}}
	svc := env.openingService(engine, OpeningOptions{MaxCollectionSize: 1})

	result, err := svc.OpenPack(context.Background(), "dmu-draft")
	if !errors.Is(err, crackerr.ErrCollectionFull) {
		t.Fatalf("expected CollectionFullError, got result=%+v err=%v", result, err)
	}
	if crackerr.IsPackUnobtainable(err) {
		t.Error("a refused opening must not count as a failed one")
	}
	if engine.calls != 0 {
		t.Error("engine should not be called for a full collection")
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 1 {
		t.Errorf("inventory = %d, want 1", got)
	}
	if len(env.loadCollection(t)) != 1 || len(env.loadPending(t)) != 0 {
		t.Error("no state should change")
	}
	if svc.State() != StateIdle {
		t.Errorf("state = %s, want idle", svc.State())
	}
}

func TestOpenPack_CollectionFilledDuringFetchRefunds(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})

	engine := &fakeAssembler{
		cards:   []model.Card{testCard("a")},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc := env.openingService(engine, OpeningOptions{MaxCollectionSize: 1})

	errc := make(chan error, 1)
	go func() {
		_, err := svc.OpenPack(context.Background(), "dmu-draft")
		errc <- err
	}()

	<-engine.entered
	// Another process fills the collection while the pack is being fetched.
	if err := env.collection.Save([]model.Card{testCard("other")}); err != nil {
		t.Fatal(err)
	}
	close(engine.gate)

	err := <-errc
	var perr *crackerr.PackOpeningFailedError
	if !errors.As(err, &perr) || !perr.Refunded {
		t.Fatalf("expected refunded failure, got %v", err)
	}
	if !errors.Is(err, crackerr.ErrCollectionFull) {
		t.Errorf("cause should be a full collection, got %v", err)
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 1 {
		t.Errorf("inventory = %d, want the pack back", got)
	}
	if len(env.loadPending(t)) != 0 {
		t.Error("nothing should be pending reveal")
	}
	if svc.State() != StateFailed {
		t.Errorf("state = %s, want failed", svc.State())
	}
}

func TestOpenPack_SurvivesReload(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})
	engine := &fakeAssembler{cards: []model.Card{testCard("a"), testCard("b")}}
	if _, err := env.openingService(engine, OpeningOptions{}).OpenPack(context.Background(), "dmu-draft"); err != nil {
		t.Fatalf("OpenPack failed: %v", err)
	}

	// A new process sees the same pending reveal.
	reloaded := newTestEnvAt(t, env.paths.Root())
	svc := reloaded.openingService(&fakeAssembler{}, OpeningOptions{})

	cards, err := svc.PendingReveal()
	if err != nil {
		t.Fatalf("PendingReveal failed: %v", err)
	}
	if len(cards) != 2 || cards[0].Name != "Card a" || cards[1].Name != "Card b" {
		t.Fatalf("unexpected pending cards: %+v", cards)
	}

	if err := svc.AcknowledgeReveal(); err != nil {
		t.Fatalf("AcknowledgeReveal failed: %v", err)
	}
	if got := reloaded.loadPending(t); len(got) != 0 {
		t.Errorf("marker should be cleared, got %v", got)
	}
	if got := len(reloaded.loadCollection(t)); got != 2 {
		t.Errorf("acknowledging must not touch the collection, got %d cards", got)
	}
}

func TestAcknowledgeCards_KeepsEarlierPending(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 2})
	engine := &fakeAssembler{cards: []model.Card{testCard("a")}}
	svc := env.openingService(engine, OpeningOptions{})

	first, err := svc.OpenPack(context.Background(), "dmu-draft")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.OpenPack(context.Background(), "dmu-draft")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.AcknowledgeCards([]string{second.Cards[0].InstanceID}); err != nil {
		t.Fatalf("AcknowledgeCards failed: %v", err)
	}
	if got := env.loadPending(t); len(got) != 1 || got[0] != first.Cards[0].InstanceID {
		t.Errorf("earlier card should stay pending, got %v", got)
	}

	if err := svc.AcknowledgeCards([]string{first.Cards[0].InstanceID}); err != nil {
		t.Fatalf("AcknowledgeCards failed: %v", err)
	}
	if got := env.loadPending(t); len(got) != 0 {
		t.Errorf("marker should be empty, got %v", got)
	}
	if svc.State() != StateIdle {
		t.Errorf("state = %s, want idle", svc.State())
	}
}

func TestPendingReveal_SkipsUnknownIDs(t *testing.T) {
	env := newTestEnv(t)
	if err := env.collection.Save([]model.Card{testCard("a")}); err != nil {
		t.Fatal(err)
	}
	if err := env.pending.Save([]string{"ghost", "a"}); err != nil {
		t.Fatal(err)
	}

	cards, err := env.openingService(&fakeAssembler{}, OpeningOptions{}).PendingReveal()
	if err != nil {
		t.Fatalf("PendingReveal failed: %v", err)
	}
	if len(cards) != 1 || cards[0].InstanceID != "a" {
		t.Errorf("expected only card a, got %+v", cards)
	}
}

func TestOpenPack_CancelledContextStillSpendsPack(t *testing.T) {
	env := newTestEnv(t)
	env.setInventory(t, model.Inventory{"dmu-draft": 1})

	engine := &fakeAssembler{gate: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.openingService(engine, OpeningOptions{}).OpenPack(ctx, "dmu-draft")
	if !crackerr.IsPackUnobtainable(err) {
		t.Fatalf("expected failure, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cause to be context.Canceled, got %v", err)
	}
	if got := env.loadInventory(t).Count("dmu-draft"); got != 0 {
		t.Errorf("inventory = %d, want 0", got)
	}
}
