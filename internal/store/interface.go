package store

import (
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/scryfall"
)

// CollectionStore handles the durable list of pulled cards.
type CollectionStore interface {
	Load() ([]model.Card, error)
	// Append adds cards in order, keeping at most maxSize cards in total by
	// dropping the excess new cards. It returns the cards actually added.
	Append(cards []model.Card, maxSize int) ([]model.Card, error)
	// Remove deletes the given instances and returns them. Nothing is removed
	// unless every ID is present.
	Remove(instanceIDs []string) ([]model.Card, error)
	Save(cards []model.Card) error
	Check() error
}

// InventoryStore handles unopened pack counts.
type InventoryStore interface {
	Load() (model.Inventory, error)
	Save(inv model.Inventory) error
	Check() error
}

// PendingRevealStore handles the marker of cards committed but not yet revealed.
type PendingRevealStore interface {
	Load() ([]string, error)
	Save(instanceIDs []string) error
	Clear() error
	Check() error
}

// WalletStore handles the currency balance.
type WalletStore interface {
	Load() (*model.Wallet, error)
	Save(w *model.Wallet) error
	Check() error
}

// SettingsStore handles settings.toml.
type SettingsStore interface {
	Load() (*model.Settings, error)
	Save(s *model.Settings) error
	Exists() bool
	Check() error
}

// SetCache holds bulk set listings.
type SetCache interface {
	Get(setCode string) ([]scryfall.Card, bool)
	Put(setCode string, cards []scryfall.Card) error
}
