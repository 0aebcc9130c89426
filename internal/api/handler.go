package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/service"
)

// OpenTimeout bounds one opening once the request has been accepted.
const OpenTimeout = 2 * time.Minute

// Publisher pushes application events to live clients. *WebSocketHub implements it.
type Publisher interface {
	Publish(msgType string, data any)
}

// Handler contains all HTTP handlers for the API.
//
// Single user, single data directory. Every mutation goes through the
// services, which serialize on the shared ledger.
type Handler struct {
	svc       *Services
	publisher Publisher
}

// NewHandler creates a new handler with the given services.
func NewHandler(svc *Services) (*Handler, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	return &Handler{svc: svc}, nil
}

// SetPublisher sets where pack openings are announced.
func (h *Handler) SetPublisher(p Publisher) {
	h.publisher = p
}

// RegisterRoutes sets up all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Packs
	mux.HandleFunc("GET /api/v1/packs", h.ListPacks)
	mux.HandleFunc("POST /api/v1/packs/{key}/open", h.OpenPack)
	mux.HandleFunc("GET /api/v1/inventory", h.GetInventory)

	// Reveal
	mux.HandleFunc("GET /api/v1/reveal", h.GetReveal)
	mux.HandleFunc("POST /api/v1/reveal/ack", h.AckReveal)

	// Collection
	mux.HandleFunc("GET /api/v1/collection", h.ListCollection)
	mux.HandleFunc("POST /api/v1/collection/sell", h.SellCards)
	mux.HandleFunc("GET /api/v1/sets/{code}", h.GetSetProgress)

	// Shop
	mux.HandleFunc("GET /api/v1/wallet", h.GetWallet)
	mux.HandleFunc("POST /api/v1/shop/buy", h.BuyPacks)
	mux.HandleFunc("POST /api/v1/shop/claim", h.ClaimFree)
}

// --- Pack Handlers ---

// PackResponse describes one pack type on offer.
type PackResponse struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	SetCode     string  `json:"set_code"`
	Price       float64 `json:"price"`
	NominalSize int     `json:"nominal_size"`
	Owned       int     `json:"owned"`
}

// ListPacks returns the catalog with owned counts.
func (h *Handler) ListPacks(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Inventory.Load()
	if err != nil {
		Error(w, err)
		return
	}

	packs := h.svc.Catalog.List()
	resp := make([]PackResponse, len(packs))
	for i, p := range packs {
		resp[i] = PackResponse{
			Key:         p.Key,
			Name:        p.Name,
			SetCode:     p.SetCode,
			Price:       p.Price,
			NominalSize: p.NominalSize(),
			Owned:       inv.Count(p.Key),
		}
	}
	JSON(w, http.StatusOK, map[string]any{"packs": resp})
}

// GetInventory returns unopened pack counts.
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Inventory.Load()
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"inventory": inv, "total": inv.Total()})
}

// OpenPack opens one pack. The opening is detached from the request so a
// dropped connection cannot strand a reserved pack mid-fetch.
func (h *Handler) OpenPack(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), OpenTimeout)
	defer cancel()

	result, err := h.svc.Opening.OpenPack(ctx, key)
	if err != nil {
		Error(w, err)
		return
	}

	if h.publisher != nil {
		h.publisher.Publish(MessagePackOpened, map[string]any{
			"pack_key": result.PackKey,
			"count":    len(result.Cards),
		})
	}
	JSON(w, http.StatusOK, result)
}

// --- Reveal Handlers ---

// GetReveal returns cards committed but not yet acknowledged.
func (h *Handler) GetReveal(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Opening.PendingReveal()
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"cards": cards})
}

// AckReveal clears the pending reveal.
func (h *Handler) AckReveal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Opening.AcknowledgeReveal(); err != nil {
		Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Collection Handlers ---

// ListCollection returns cards filtered by the sort, set, rarity and foil
// query parameters, plus a summary of the whole collection.
func (h *Handler) ListCollection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.CollectionFilter{
		Sort:    q.Get("sort"),
		SetCode: q.Get("set"),
	}
	if raw := q.Get("rarity"); raw != "" {
		rarity, ok := model.ParseRarity(raw)
		if !ok {
			BadRequest(w, "unknown rarity: "+raw)
			return
		}
		filter.Rarity = rarity
	}
	if raw := q.Get("foil"); raw != "" {
		foil, err := strconv.ParseBool(raw)
		if err != nil {
			BadRequest(w, "foil must be true or false")
			return
		}
		filter.FoilOnly = foil
	}

	cards, err := h.svc.Collection.List(filter)
	if err != nil {
		Error(w, err)
		return
	}
	summary, err := h.svc.Collection.Summary()
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"cards": cards, "summary": summary})
}

// SellRequest is the JSON body for selling cards.
type SellRequest struct {
	InstanceIDs []string `json:"instance_ids"`
}

// SellCards sells cards back for their price.
func (h *Handler) SellCards(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	result, err := h.svc.Shop.Sell(req.InstanceIDs)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// GetSetProgress reports completion of one set.
func (h *Handler) GetSetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Collection.SetProgress(r.Context(), r.PathValue("code"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"progress": progress, "percent": progress.Percent()})
}

// --- Shop Handlers ---

// WalletResponse is the JSON response for the wallet.
type WalletResponse struct {
	Balance              float64 `json:"balance"`
	NextFreeClaimSeconds int64   `json:"next_free_claim_seconds"`
}

// GetWallet returns the balance and free-pack cooldown.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.Shop.Wallet()
	if err != nil {
		Error(w, err)
		return
	}
	next, err := h.svc.Shop.NextFreeClaim()
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, WalletResponse{
		Balance:              wallet.Balance,
		NextFreeClaimSeconds: int64(next.Round(time.Second) / time.Second),
	})
}

// BuyRequest is the JSON body for buying packs.
type BuyRequest struct {
	PackKey  string `json:"pack_key"`
	Quantity int    `json:"quantity"`
}

// BuyPacks buys packs with wallet funds. Quantity defaults to 1.
func (h *Handler) BuyPacks(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.PackKey == "" {
		BadRequest(w, "pack_key is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.svc.Shop.Buy(req.PackKey, req.Quantity)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// ClaimFree grants the free pack if the cooldown allows.
func (h *Handler) ClaimFree(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Shop.ClaimFree()
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}
