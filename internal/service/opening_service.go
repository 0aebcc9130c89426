package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// OpeningState is the phase of the most recent opening attempt.
type OpeningState string

const (
	StateIdle       OpeningState = "idle"
	StateValidating OpeningState = "validating"
	StateReserved   OpeningState = "reserved"
	StateFetching   OpeningState = "fetching"
	StateCommitted  OpeningState = "committed"
	StateFailed     OpeningState = "failed"
)

// Assembler builds the cards for one pack. *booster.Engine implements it.
type Assembler interface {
	Assemble(ctx context.Context, pack *model.PackDefinition) ([]model.Card, booster.Report, error)
}

// OpenResult describes a committed opening.
type OpenResult struct {
	PackKey string         `json:"pack_key"`
	Cards   []model.Card   `json:"cards"`
	Report  booster.Report `json:"report"`
	// Discarded counts valid cards that did not fit in the collection.
	Discarded int `json:"discarded,omitempty"`
	// Invalid counts assembled cards rejected by the validity check.
	Invalid int `json:"invalid,omitempty"`
}

// OpeningOptions carry the settings the controller honours.
type OpeningOptions struct {
	MaxCollectionSize    int
	RefundOnTotalFailure bool
}

// OpeningService is the only writer of inventory and collection during an
// opening. It reserves a pack before any network call and commits the cards
// and the pending reveal marker as one step.
type OpeningService struct {
	catalog    *catalog.Catalog
	engine     Assembler
	inventory  store.InventoryStore
	collection store.CollectionStore
	pending    store.PendingRevealStore
	ledger     *Ledger
	opts       OpeningOptions
	logger     *slog.Logger
	now        func() time.Time

	stateMu sync.Mutex
	state   OpeningState
}

// NewOpeningService creates a new opening service.
func NewOpeningService(
	cat *catalog.Catalog,
	engine Assembler,
	inventory store.InventoryStore,
	collection store.CollectionStore,
	pending store.PendingRevealStore,
	ledger *Ledger,
	opts OpeningOptions,
	logger *slog.Logger,
) *OpeningService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpeningService{
		catalog:    cat,
		engine:     engine,
		inventory:  inventory,
		collection: collection,
		pending:    pending,
		ledger:     ledger,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		state:      StateIdle,
	}
}

// State returns the phase of the latest opening attempt.
func (s *OpeningService) State() OpeningState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *OpeningService) setState(st OpeningState) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// OpenPack opens one pack of the given type.
//
// Before the reservation nothing is changed: an unknown key returns a
// NotFoundError, an empty inventory a NoPacksError and a full collection a
// CollectionFullError. Once reserved the pack
// is spent. If no valid card is obtained a PackOpeningFailedError is
// returned and the pack is refunded only when RefundOnTotalFailure is set.
func (s *OpeningService) OpenPack(ctx context.Context, packKey string) (*OpenResult, error) {
	s.setState(StateValidating)

	pack, err := s.catalog.Get(packKey)
	if err != nil {
		s.setState(StateIdle)
		return nil, err
	}

	if err := s.reserve(packKey); err != nil {
		s.setState(StateIdle)
		return nil, err
	}
	s.setState(StateReserved)
	defer s.ledger.endOpening()

	s.setState(StateFetching)
	cards, report, err := s.engine.Assemble(ctx, pack)
	if err != nil {
		s.logger.Error("pack assembly failed", "pack", packKey, "error", err)
		return nil, s.fail(packKey, err)
	}

	valid := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.IsValid() {
			valid = append(valid, c)
		}
	}
	invalid := len(cards) - len(valid)
	if invalid > 0 {
		s.logger.Warn("discarding invalid cards", "pack", packKey, "count", invalid)
	}
	if len(valid) == 0 {
		return nil, s.fail(packKey, nil)
	}

	committed, err := s.commit(valid)
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}
	if len(committed) == 0 {
		// Filled up by another process since the reservation.
		return nil, s.failFull(packKey)
	}

	s.setState(StateCommitted)
	return &OpenResult{
		PackKey:   packKey,
		Cards:     committed,
		Report:    report,
		Discarded: len(valid) - len(committed),
		Invalid:   invalid,
	}, nil
}

// reserve decrements the inventory under the ledger lock and marks an
// opening in flight.
func (s *OpeningService) reserve(packKey string) error {
	s.ledger.lock()
	defer s.ledger.unlock()

	inv, err := s.inventory.Load()
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	if inv.Count(packKey) <= 0 {
		return &crackerr.NoPacksError{PackKey: packKey}
	}
	if limit := s.opts.MaxCollectionSize; limit > 0 {
		cards, err := s.collection.Load()
		if err != nil {
			return fmt.Errorf("failed to load collection: %w", err)
		}
		if len(cards) >= limit {
			return &crackerr.CollectionFullError{Size: len(cards), Max: limit}
		}
	}

	inv[packKey] = inv.Count(packKey) - 1
	if err := s.inventory.Save(inv); err != nil {
		return fmt.Errorf("failed to reserve pack: %w", err)
	}
	s.ledger.beginOpening()
	return nil
}

// commit stamps and appends the cards, then records them as pending reveal.
// The collection write comes first; the marker never grants cards.
func (s *OpeningService) commit(cards []model.Card) ([]model.Card, error) {
	s.ledger.lock()
	defer s.ledger.unlock()

	stamp := s.now().UnixMilli()
	for i := range cards {
		cards[i].ObtainedAtMillis = stamp
	}

	added, err := s.collection.Append(cards, s.opts.MaxCollectionSize)
	if err != nil {
		return nil, fmt.Errorf("failed to commit cards: %w", err)
	}
	if len(added) == 0 {
		return added, nil
	}

	pending, err := s.pending.Load()
	if err != nil {
		s.logger.Warn("cannot read pending reveal marker, starting a new one", "error", err)
		pending = nil
	}
	for _, c := range added {
		pending = append(pending, c.InstanceID)
	}
	if err := s.pending.Save(pending); err != nil {
		// The cards are already owned; only the reveal bookkeeping is lost.
		s.logger.Warn("failed to record pending reveal", "error", err)
	}
	return added, nil
}

func (s *OpeningService) fail(packKey string, cause error) error {
	s.setState(StateFailed)

	refunded := false
	if s.opts.RefundOnTotalFailure {
		if err := s.refund(packKey); err != nil {
			s.logger.Error("refund failed", "pack", packKey, "error", err)
		} else {
			refunded = true
		}
	}
	return &crackerr.PackOpeningFailedError{PackKey: packKey, Refunded: refunded, Err: cause}
}

// failFull always refunds the reserved pack.
func (s *OpeningService) failFull(packKey string) error {
	s.setState(StateFailed)

	full := &crackerr.CollectionFullError{Max: s.opts.MaxCollectionSize}
	if cards, err := s.collection.Load(); err == nil {
		full.Size = len(cards)
	}
	refunded := true
	if err := s.refund(packKey); err != nil {
		s.logger.Error("refund failed", "pack", packKey, "error", err)
		refunded = false
	}
	return &crackerr.PackOpeningFailedError{PackKey: packKey, Refunded: refunded, Err: full}
}

func (s *OpeningService) refund(packKey string) error {
	s.ledger.lock()
	defer s.ledger.unlock()

	inv, err := s.inventory.Load()
	if err != nil {
		return err
	}
	inv[packKey] = inv.Count(packKey) + 1
	return s.inventory.Save(inv)
}

// PendingRevealIDs returns the instance IDs committed but not yet acknowledged.
func (s *OpeningService) PendingRevealIDs() ([]string, error) {
	return s.pending.Load()
}

// PendingReveal resolves the marker to collection cards in marker order.
// IDs no longer in the collection are skipped.
func (s *OpeningService) PendingReveal() ([]model.Card, error) {
	ids, err := s.pending.Load()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Card{}, nil
	}

	cards, err := s.collection.Load()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Card, len(cards))
	for _, c := range cards {
		byID[c.InstanceID] = c
	}

	out := make([]model.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// AcknowledgeReveal clears the pending marker. The collection is untouched.
func (s *OpeningService) AcknowledgeReveal() error {
	s.ledger.lock()
	defer s.ledger.unlock()

	if err := s.pending.Clear(); err != nil {
		return fmt.Errorf("failed to clear pending reveal: %w", err)
	}
	s.setState(StateIdle)
	return nil
}

// AcknowledgeCards removes only the given instance IDs from the marker, so
// cards left pending by an earlier opening stay pending. The marker is
// cleared once nothing remains.
func (s *OpeningService) AcknowledgeCards(instanceIDs []string) error {
	s.ledger.lock()
	defer s.ledger.unlock()

	ids, err := s.pending.Load()
	if err != nil {
		return fmt.Errorf("failed to read pending reveal: %w", err)
	}
	seen := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		seen[id] = true
	}
	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == 0 {
		err = s.pending.Clear()
	} else {
		err = s.pending.Save(remaining)
	}
	if err != nil {
		return fmt.Errorf("failed to update pending reveal: %w", err)
	}
	if len(remaining) == 0 {
		s.setState(StateIdle)
	}
	return nil
}
