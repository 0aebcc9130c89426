package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/service"
	"github.com/amterp/crack/internal/store"
)

// stubAssembler returns the same cards on every call, with fresh instance IDs.
type stubAssembler struct {
	names []string
	calls int
}

func (s *stubAssembler) Assemble(ctx context.Context, pack *model.PackDefinition) ([]model.Card, booster.Report, error) {
	s.calls++
	cards := make([]model.Card, len(s.names))
	for i, name := range s.names {
		cards[i] = model.Card{
			InstanceID: name + "-" + string(rune('a'+s.calls)),
			OriginalID: "orig-" + name,
			Name:       name,
			Rarity:     model.Common,
			SetCode:    pack.SetCode,
			Image:      "https://img.example/" + name + ".jpg",
			Price:      0.5,
		}
	}
	return cards, booster.Report{Nominal: len(cards), Obtained: len(cards)}, nil
}

// publishRecorder implements Publisher.
type publishRecorder struct {
	types []string
}

func (p *publishRecorder) Publish(msgType string, data any) {
	p.types = append(p.types, msgType)
}

// testAPI provides a complete test environment for API handler tests.
type testAPI struct {
	mux       *http.ServeMux
	paths     *config.Paths
	inventory store.InventoryStore
	wallet    store.WalletStore
	published *publishRecorder
	assembler *stubAssembler
}

// setupTestAPI creates a test environment with real stores backed by a temp directory.
func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	cat, err := catalog.Default(booster.NewRegistry())
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	inventory := store.NewInventoryStore(paths, nil)
	collection := store.NewCollectionStore(paths, nil)
	pending := store.NewPendingRevealStore(paths, nil)
	wallet := store.NewWalletStore(paths, nil)
	ledger := service.NewLedger()
	assembler := &stubAssembler{names: []string{"Forest", "Shock"}}

	svc := &Services{
		Catalog:    cat,
		Inventory:  inventory,
		Opening:    service.NewOpeningService(cat, assembler, inventory, collection, pending, ledger, service.OpeningOptions{}, nil),
		Shop:       service.NewShopService(cat, inventory, collection, pending, wallet, ledger, service.ShopOptions{}),
		Collection: service.NewCollectionService(collection, nil, nil, nil),
	}
	handler, err := NewHandler(svc)
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	published := &publishRecorder{}
	handler.SetPublisher(published)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testAPI{
		mux:       mux,
		paths:     paths,
		inventory: inventory,
		wallet:    wallet,
		published: published,
		assembler: assembler,
	}
}

// request makes an HTTP request and returns the response.
func (api *testAPI) request(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestNewHandler_RequiresServices(t *testing.T) {
	if _, err := NewHandler(&Services{}); err == nil {
		t.Error("Expected error for empty services")
	}
}

func TestListPacks(t *testing.T) {
	api := setupTestAPI(t)
	api.inventory.Save(model.Inventory{"neo-set": 2})

	rec := api.request(http.MethodGet, "/api/v1/packs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	resp := decode[struct {
		Packs []PackResponse `json:"packs"`
	}](t, rec)
	if len(resp.Packs) != 3 {
		t.Fatalf("Expected 3 packs, got %d", len(resp.Packs))
	}
	if resp.Packs[0].Key != "dmu-draft" || resp.Packs[0].NominalSize != 15 {
		t.Errorf("unexpected first pack: %+v", resp.Packs[0])
	}
	if resp.Packs[1].Owned != 2 {
		t.Errorf("neo-set owned = %d, want 2", resp.Packs[1].Owned)
	}
}

func TestOpenPack_AndReveal(t *testing.T) {
	api := setupTestAPI(t)
	api.inventory.Save(model.Inventory{"dmu-draft": 1})

	rec := api.request(http.MethodPost, "/api/v1/packs/dmu-draft/open", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	result := decode[service.OpenResult](t, rec)
	if len(result.Cards) != 2 {
		t.Errorf("Expected 2 cards, got %d", len(result.Cards))
	}
	if len(api.published.types) != 1 || api.published.types[0] != MessagePackOpened {
		t.Errorf("Expected a pack_opened event, got %v", api.published.types)
	}

	rec = api.request(http.MethodGet, "/api/v1/reveal", nil)
	reveal := decode[struct {
		Cards []model.Card `json:"cards"`
	}](t, rec)
	if len(reveal.Cards) != 2 {
		t.Fatalf("Expected 2 pending cards, got %d", len(reveal.Cards))
	}

	rec = api.request(http.MethodPost, "/api/v1/reveal/ack", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("ack status = %d, want 204", rec.Code)
	}
	rec = api.request(http.MethodGet, "/api/v1/reveal", nil)
	reveal = decode[struct {
		Cards []model.Card `json:"cards"`
	}](t, rec)
	if len(reveal.Cards) != 0 {
		t.Errorf("Expected no pending cards after ack, got %d", len(reveal.Cards))
	}
}

func TestOpenPack_ErrorStatuses(t *testing.T) {
	api := setupTestAPI(t)

	rec := api.request(http.MethodPost, "/api/v1/packs/nope/open", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown pack: status = %d, want 404", rec.Code)
	}

	rec = api.request(http.MethodPost, "/api/v1/packs/dmu-draft/open", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("no packs: status = %d, want 409", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "no_packs" {
		t.Errorf("code = %q, want no_packs", resp.Code)
	}
	if api.assembler.calls != 0 {
		t.Error("assembler should not run without a pack")
	}
}

func TestOpenPack_TotalFailureIsBadGateway(t *testing.T) {
	api := setupTestAPI(t)
	api.inventory.Save(model.Inventory{"dmu-draft": 1})
	api.assembler.names = nil

	rec := api.request(http.MethodPost, "/api/v1/packs/dmu-draft/open", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "pack_opening_failed" || resp.Refunded {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestError_CollectionFullIsConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &crackerr.CollectionFullError{Size: 10, Max: 10})

	if rec.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "collection_full" {
		t.Errorf("code = %q, want collection_full", resp.Code)
	}
}

func TestShop_BuyAndWallet(t *testing.T) {
	api := setupTestAPI(t)
	api.wallet.Save(&model.Wallet{Version: 1, Balance: 10})

	rec := api.request(http.MethodPost, "/api/v1/shop/buy", BuyRequest{PackKey: "dmu-draft"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if result := decode[service.PurchaseResult](t, rec); result.Quantity != 1 || result.Balance != 5.51 {
		t.Errorf("unexpected purchase: %+v", result)
	}

	rec = api.request(http.MethodPost, "/api/v1/shop/buy", BuyRequest{PackKey: "mkm-collector"})
	if rec.Code != http.StatusConflict {
		t.Errorf("insufficient funds: status = %d, want 409", rec.Code)
	}

	rec = api.request(http.MethodPost, "/api/v1/shop/buy", BuyRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing key: status = %d, want 400", rec.Code)
	}

	rec = api.request(http.MethodGet, "/api/v1/wallet", nil)
	if wallet := decode[WalletResponse](t, rec); wallet.Balance != 5.51 || wallet.NextFreeClaimSeconds != 0 {
		t.Errorf("unexpected wallet: %+v", wallet)
	}
}

func TestShop_ClaimCooldown(t *testing.T) {
	api := setupTestAPI(t)

	if rec := api.request(http.MethodPost, "/api/v1/shop/claim", nil); rec.Code != http.StatusOK {
		t.Fatalf("first claim: status = %d: %s", rec.Code, rec.Body.String())
	}
	rec := api.request(http.MethodPost, "/api/v1/shop/claim", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second claim: status = %d, want 409", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "cooldown" {
		t.Errorf("code = %q, want cooldown", resp.Code)
	}
}

func TestCollection_ListAndSell(t *testing.T) {
	api := setupTestAPI(t)
	api.inventory.Save(model.Inventory{"dmu-draft": 1})
	api.request(http.MethodPost, "/api/v1/packs/dmu-draft/open", nil)

	rec := api.request(http.MethodGet, "/api/v1/collection?sort=name", nil)
	listing := decode[struct {
		Cards   []model.Card              `json:"cards"`
		Summary service.CollectionSummary `json:"summary"`
	}](t, rec)
	if len(listing.Cards) != 2 || listing.Cards[0].Name != "Forest" || listing.Summary.Count != 2 {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	// Unrevealed cards cannot be sold.
	ids := []string{listing.Cards[0].InstanceID}
	rec = api.request(http.MethodPost, "/api/v1/collection/sell", SellRequest{InstanceIDs: ids})
	if rec.Code != http.StatusConflict {
		t.Fatalf("pending sell: status = %d, want 409", rec.Code)
	}

	api.request(http.MethodPost, "/api/v1/reveal/ack", nil)
	rec = api.request(http.MethodPost, "/api/v1/collection/sell", SellRequest{InstanceIDs: ids})
	if rec.Code != http.StatusOK {
		t.Fatalf("sell: status = %d: %s", rec.Code, rec.Body.String())
	}
	if sale := decode[service.SaleResult](t, rec); sale.Credit != 0.5 {
		t.Errorf("credit = %.2f, want 0.50", sale.Credit)
	}
}

func TestCollection_BadQuery(t *testing.T) {
	api := setupTestAPI(t)

	tests := []string{
		"/api/v1/collection?rarity=legendary",
		"/api/v1/collection?foil=maybe",
		"/api/v1/collection?sort=color",
	}
	for _, path := range tests {
		if rec := api.request(http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}
