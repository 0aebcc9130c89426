package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// testEnv wires real file stores under a temp directory.
type testEnv struct {
	paths      *config.Paths
	registry   *booster.Registry
	catalog    *catalog.Catalog
	settings   *store.FileSettingsStore
	collection *store.FileCollectionStore
	inventory  *store.FileInventoryStore
	pending    *store.FilePendingRevealStore
	wallet     *store.FileWalletStore
	ledger     *Ledger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, t.TempDir())
}

// newTestEnvAt builds fresh stores on an existing directory, as a new process would.
func newTestEnvAt(t *testing.T, dir string) *testEnv {
	t.Helper()

	reg := booster.NewRegistry()
	cat, err := catalog.Default(reg)
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	paths := config.NewPaths(dir)
	return &testEnv{
		paths:      paths,
		registry:   reg,
		catalog:    cat,
		settings:   store.NewSettingsStore(paths, nil),
		collection: store.NewCollectionStore(paths, nil),
		inventory:  store.NewInventoryStore(paths, nil),
		pending:    store.NewPendingRevealStore(paths, nil),
		wallet:     store.NewWalletStore(paths, nil),
		ledger:     NewLedger(),
	}
}

func (e *testEnv) setInventory(t *testing.T, inv model.Inventory) {
	t.Helper()
	if err := e.inventory.Save(inv); err != nil {
		t.Fatalf("failed to save inventory: %v", err)
	}
}

func (e *testEnv) setBalance(t *testing.T, balance float64) {
	t.Helper()
	if err := e.wallet.Save(&model.Wallet{Version: 1, Balance: balance}); err != nil {
		t.Fatalf("failed to save wallet: %v", err)
	}
}

func (e *testEnv) openingService(engine Assembler, opts OpeningOptions) *OpeningService {
	return NewOpeningService(e.catalog, engine, e.inventory, e.collection, e.pending, e.ledger, opts, nil)
}

func (e *testEnv) shopService(opts ShopOptions) *ShopService {
	return NewShopService(e.catalog, e.inventory, e.collection, e.pending, e.wallet, e.ledger, opts)
}

func (e *testEnv) doctorService() *DoctorService {
	return NewDoctorService(e.paths, e.registry, e.catalog, e.settings, e.collection, e.inventory, e.pending, e.wallet, e.ledger)
}

func (e *testEnv) loadCollection(t *testing.T) []model.Card {
	t.Helper()
	cards, err := e.collection.Load()
	if err != nil {
		t.Fatalf("failed to load collection: %v", err)
	}
	return cards
}

func (e *testEnv) loadInventory(t *testing.T) model.Inventory {
	t.Helper()
	inv, err := e.inventory.Load()
	if err != nil {
		t.Fatalf("failed to load inventory: %v", err)
	}
	return inv
}

func (e *testEnv) loadPending(t *testing.T) []string {
	t.Helper()
	ids, err := e.pending.Load()
	if err != nil {
		t.Fatalf("failed to load pending reveal: %v", err)
	}
	return ids
}

func testCard(id string) model.Card {
	return model.Card{
		InstanceID: id,
		OriginalID: "orig-" + id,
		Name:       "Card " + id,
		Rarity:     model.Common,
		SetCode:    "dmu",
		Image:      "https://img.example/" + id + ".jpg",
		Price:      0.25,
	}
}

// fakeAssembler returns canned cards. When gate is set, Assemble blocks
// until it is closed and signals entered first.
type fakeAssembler struct {
	mu      sync.Mutex
	cards   []model.Card
	err     error
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAssembler) Assemble(ctx context.Context, pack *model.PackDefinition) ([]model.Card, booster.Report, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, booster.Report{}, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, booster.Report{}, f.err
	}

	out := make([]model.Card, len(f.cards))
	for i, c := range f.cards {
		c.InstanceID = fmt.Sprintf("%s-%d", c.InstanceID, call)
		out[i] = c
	}
	return out, booster.Report{Nominal: pack.NominalSize(), Obtained: len(out)}, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
