package service

import (
	"fmt"
	"os"

	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
	"github.com/amterp/crack/internal/version"
)

// InitResult describes what Initialize did.
type InitResult struct {
	Root               string          `json:"root"`
	AlreadyInitialized bool            `json:"already_initialized"`
	Balance            float64         `json:"balance"`
	Inventory          model.Inventory `json:"inventory"`
}

// InitService sets up a data directory.
type InitService struct {
	paths     *config.Paths
	catalog   *catalog.Catalog
	settings  store.SettingsStore
	wallet    store.WalletStore
	inventory store.InventoryStore
}

// NewInitService creates a new init service.
func NewInitService(paths *config.Paths, cat *catalog.Catalog, settings store.SettingsStore, wallet store.WalletStore, inventory store.InventoryStore) *InitService {
	return &InitService{
		paths:     paths,
		catalog:   cat,
		settings:  settings,
		wallet:    wallet,
		inventory: inventory,
	}
}

// IsInitialized reports whether settings.toml exists.
func (s *InitService) IsInitialized() bool {
	return s.settings.Exists()
}

// Initialize creates default settings, a wallet holding the starting balance
// and one pack of every catalog type. An initialized directory is left alone
// unless force is set; force resets settings, wallet and inventory but never
// touches the collection.
func (s *InitService) Initialize(force bool) (*InitResult, error) {
	if s.settings.Exists() && !force {
		return &InitResult{Root: s.paths.Root(), AlreadyInitialized: true}, nil
	}

	if err := os.MkdirAll(s.paths.Root(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	settings := model.DefaultSettings()
	if keys := s.catalog.Keys(); len(keys) > 0 {
		settings.FreePackKey = keys[0]
	}
	if err := s.settings.Save(settings); err != nil {
		return nil, fmt.Errorf("failed to write settings: %w", err)
	}

	wallet := &model.Wallet{Version: version.CurrentWalletVersion, Balance: settings.StartingBalance}
	if err := s.wallet.Save(wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	inv := model.Inventory{}
	for _, key := range s.catalog.Keys() {
		inv[key] = 1
	}
	if err := s.inventory.Save(inv); err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}

	return &InitResult{Root: s.paths.Root(), Balance: wallet.Balance, Inventory: inv}, nil
}
