package service

import (
	"fmt"
	"math"
	"time"

	"github.com/amterp/crack/internal/catalog"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// ShopOptions carry the shop-related settings.
type ShopOptions struct {
	FreePackKey      string
	FreePackCooldown time.Duration
}

// PurchaseResult is returned by Buy and ClaimFree.
type PurchaseResult struct {
	PackKey  string  `json:"pack_key"`
	Quantity int     `json:"quantity"`
	Cost     float64 `json:"cost"`
	Balance  float64 `json:"balance"`
	Owned    int     `json:"owned"`
}

// SaleResult is returned by Sell.
type SaleResult struct {
	Sold    []model.Card `json:"sold"`
	Credit  float64      `json:"credit"`
	Balance float64      `json:"balance"`
}

// ShopService buys packs, sells cards and hands out the free pack.
// It shares the ledger with OpeningService.
type ShopService struct {
	catalog    *catalog.Catalog
	inventory  store.InventoryStore
	collection store.CollectionStore
	pending    store.PendingRevealStore
	wallet     store.WalletStore
	ledger     *Ledger
	opts       ShopOptions
	now        func() time.Time
}

// NewShopService creates a new shop service.
func NewShopService(
	cat *catalog.Catalog,
	inventory store.InventoryStore,
	collection store.CollectionStore,
	pending store.PendingRevealStore,
	wallet store.WalletStore,
	ledger *Ledger,
	opts ShopOptions,
) *ShopService {
	if opts.FreePackKey == "" {
		if keys := cat.Keys(); len(keys) > 0 {
			opts.FreePackKey = keys[0]
		}
	}
	if opts.FreePackCooldown <= 0 {
		opts.FreePackCooldown = model.DefaultFreePackCooldown
	}
	return &ShopService{
		catalog:    cat,
		inventory:  inventory,
		collection: collection,
		pending:    pending,
		wallet:     wallet,
		ledger:     ledger,
		opts:       opts,
		now:        time.Now,
	}
}

// Wallet returns the current wallet.
func (s *ShopService) Wallet() (*model.Wallet, error) {
	return s.wallet.Load()
}

// Buy purchases qty packs of the given type.
func (s *ShopService) Buy(packKey string, qty int) (*PurchaseResult, error) {
	if qty <= 0 {
		return nil, crackerr.InvalidField("quantity", "must be at least 1")
	}
	pack, err := s.catalog.Get(packKey)
	if err != nil {
		return nil, err
	}

	s.ledger.lock()
	defer s.ledger.unlock()

	w, err := s.wallet.Load()
	if err != nil {
		return nil, err
	}
	cost := roundCents(pack.Price * float64(qty))
	if cost > w.Balance {
		return nil, &crackerr.InsufficientFundsError{Needed: cost, Available: w.Balance}
	}

	inv, err := s.inventory.Load()
	if err != nil {
		return nil, err
	}

	// Packs go in before the charge; a failed charge takes them out again.
	inv[packKey] = inv.Count(packKey) + qty
	if err := s.inventory.Save(inv); err != nil {
		return nil, fmt.Errorf("failed to add packs: %w", err)
	}
	w.Balance = roundCents(w.Balance - cost)
	if err := s.wallet.Save(w); err != nil {
		inv[packKey] -= qty
		if rerr := s.inventory.Save(inv); rerr != nil {
			return nil, fmt.Errorf("failed to charge wallet: %w (removing the packs again also failed: %v)", err, rerr)
		}
		return nil, fmt.Errorf("failed to charge wallet: %w", err)
	}

	return &PurchaseResult{PackKey: packKey, Quantity: qty, Cost: cost, Balance: w.Balance, Owned: inv[packKey]}, nil
}

// Sell removes cards from the collection and credits their price. It refuses
// while an opening is in flight and for cards whose reveal is still pending.
func (s *ShopService) Sell(instanceIDs []string) (*SaleResult, error) {
	if len(instanceIDs) == 0 {
		return nil, crackerr.InvalidField("cards", "nothing to sell")
	}

	s.ledger.lock()
	defer s.ledger.unlock()

	if s.ledger.openingInFlight() {
		return nil, crackerr.OpeningInProgress()
	}

	pending, err := s.pending.Load()
	if err != nil {
		return nil, err
	}
	pendingSet := make(map[string]bool, len(pending))
	for _, id := range pending {
		pendingSet[id] = true
	}
	for _, id := range instanceIDs {
		if pendingSet[id] {
			return nil, &crackerr.BusyError{Reason: fmt.Sprintf("card %s has not been revealed yet", id)}
		}
	}

	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Card, len(cards))
	for _, c := range cards {
		byID[c.InstanceID] = c
	}
	credit := 0.0
	counted := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		c, ok := byID[id]
		if !ok {
			return nil, crackerr.CardNotFound(id)
		}
		if !counted[id] {
			counted[id] = true
			credit += c.Price
		}
	}
	credit = roundCents(credit)

	w, err := s.wallet.Load()
	if err != nil {
		return nil, err
	}
	// Credit first: a failed removal is undone by restoring the balance.
	before := w.Balance
	w.Balance = roundCents(w.Balance + credit)
	if err := s.wallet.Save(w); err != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", err)
	}
	sold, err := s.collection.Remove(instanceIDs)
	if err != nil {
		w.Balance = before
		if rerr := s.wallet.Save(w); rerr != nil {
			return nil, fmt.Errorf("failed to remove cards: %w (restoring the balance also failed: %v)", err, rerr)
		}
		return nil, fmt.Errorf("failed to remove cards: %w", err)
	}

	return &SaleResult{Sold: sold, Credit: credit, Balance: w.Balance}, nil
}

// ClaimFree grants one free pack when the cooldown has elapsed.
func (s *ShopService) ClaimFree() (*PurchaseResult, error) {
	if s.opts.FreePackKey == "" || !s.catalog.Has(s.opts.FreePackKey) {
		return nil, crackerr.PackNotFound(s.opts.FreePackKey)
	}

	s.ledger.lock()
	defer s.ledger.unlock()

	w, err := s.wallet.Load()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if remaining := s.cooldownRemaining(w, now); remaining > 0 {
		return nil, &crackerr.CooldownError{Action: "free pack", Remaining: remaining}
	}

	inv, err := s.inventory.Load()
	if err != nil {
		return nil, err
	}
	inv[s.opts.FreePackKey] = inv.Count(s.opts.FreePackKey) + 1
	if err := s.inventory.Save(inv); err != nil {
		return nil, fmt.Errorf("failed to add free pack: %w", err)
	}
	w.LastFreeClaimMillis = now.UnixMilli()
	if err := s.wallet.Save(w); err != nil {
		return nil, fmt.Errorf("failed to record claim: %w", err)
	}

	return &PurchaseResult{PackKey: s.opts.FreePackKey, Quantity: 1, Balance: w.Balance, Owned: inv[s.opts.FreePackKey]}, nil
}

// NextFreeClaim returns how long until the free pack can be claimed (0 if now).
func (s *ShopService) NextFreeClaim() (time.Duration, error) {
	w, err := s.wallet.Load()
	if err != nil {
		return 0, err
	}
	return s.cooldownRemaining(w, s.now()), nil
}

func (s *ShopService) cooldownRemaining(w *model.Wallet, now time.Time) time.Duration {
	if w.LastFreeClaimMillis == 0 {
		return 0
	}
	next := time.UnixMilli(w.LastFreeClaimMillis).Add(s.opts.FreePackCooldown)
	if !now.Before(next) {
		return 0
	}
	return next.Sub(now)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
