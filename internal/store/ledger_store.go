package store

import (
	"log/slog"
	"os"

	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/version"
)

type inventoryFile struct {
	Version int            `json:"_v"`
	Packs   map[string]int `json:"packs"`
}

func (f *inventoryFile) schemaVersion() int { return f.Version }

// FileInventoryStore implements InventoryStore.
type FileInventoryStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewInventoryStore creates a new inventory store.
func NewInventoryStore(paths *config.Paths, logger *slog.Logger) *FileInventoryStore {
	return &FileInventoryStore{paths: paths, logger: orDiscard(logger)}
}

// Load returns pack counts. Negative counts on disk read as zero.
func (s *FileInventoryStore) Load() (model.Inventory, error) {
	var f inventoryFile
	found, err := loadState(s.logger, s.paths.InventoryPath(), "inventory", version.CurrentInventoryVersion, &f)
	if err != nil {
		return nil, err
	}
	inv := model.Inventory{}
	if !found {
		return inv, nil
	}
	for key, n := range f.Packs {
		if n < 0 {
			s.logger.Warn("clamping negative pack count", "pack", key, "count", n)
			n = 0
		}
		inv[key] = n
	}
	return inv, nil
}

// Save writes pack counts.
func (s *FileInventoryStore) Save(inv model.Inventory) error {
	packs := map[string]int(inv.Clone())
	return writeState(s.paths.InventoryPath(), &inventoryFile{
		Version: version.CurrentInventoryVersion,
		Packs:   packs,
	})
}

// Check reports whether the file on disk is readable without resetting it.
func (s *FileInventoryStore) Check() error {
	_, err := readState(s.paths.InventoryPath(), "inventory", version.CurrentInventoryVersion, &inventoryFile{})
	return err
}

type pendingRevealFile struct {
	Version     int      `json:"_v"`
	InstanceIDs []string `json:"instance_ids"`
}

func (f *pendingRevealFile) schemaVersion() int { return f.Version }

// FilePendingRevealStore implements PendingRevealStore. The marker only
// tracks which committed cards still need their reveal shown.
type FilePendingRevealStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewPendingRevealStore creates a new pending reveal store.
func NewPendingRevealStore(paths *config.Paths, logger *slog.Logger) *FilePendingRevealStore {
	return &FilePendingRevealStore{paths: paths, logger: orDiscard(logger)}
}

// Load returns the pending instance IDs in commit order.
func (s *FilePendingRevealStore) Load() ([]string, error) {
	var f pendingRevealFile
	found, err := loadState(s.logger, s.paths.PendingRevealPath(), "pending_reveal", version.CurrentPendingRevealVersion, &f)
	if err != nil {
		return nil, err
	}
	if !found || f.InstanceIDs == nil {
		return []string{}, nil
	}
	return f.InstanceIDs, nil
}

// Save replaces the marker.
func (s *FilePendingRevealStore) Save(instanceIDs []string) error {
	if instanceIDs == nil {
		instanceIDs = []string{}
	}
	return writeState(s.paths.PendingRevealPath(), &pendingRevealFile{
		Version:     version.CurrentPendingRevealVersion,
		InstanceIDs: instanceIDs,
	})
}

// Clear removes the marker. Clearing an absent marker is not an error.
func (s *FilePendingRevealStore) Clear() error {
	if err := os.Remove(s.paths.PendingRevealPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Check reports whether the file on disk is readable without resetting it.
func (s *FilePendingRevealStore) Check() error {
	_, err := readState(s.paths.PendingRevealPath(), "pending_reveal", version.CurrentPendingRevealVersion, &pendingRevealFile{})
	return err
}

type walletFile struct {
	model.Wallet
}

func (f *walletFile) schemaVersion() int { return f.Version }

// FileWalletStore implements WalletStore.
type FileWalletStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWalletStore creates a new wallet store.
func NewWalletStore(paths *config.Paths, logger *slog.Logger) *FileWalletStore {
	return &FileWalletStore{paths: paths, logger: orDiscard(logger)}
}

// Load returns the wallet; missing or corrupt files read as an empty wallet.
func (s *FileWalletStore) Load() (*model.Wallet, error) {
	var f walletFile
	found, err := loadState(s.logger, s.paths.WalletPath(), "wallet", version.CurrentWalletVersion, &f)
	if err != nil {
		return nil, err
	}
	if !found {
		return &model.Wallet{Version: version.CurrentWalletVersion}, nil
	}
	w := f.Wallet
	if w.Balance < 0 {
		s.logger.Warn("clamping negative wallet balance", "balance", w.Balance)
		w.Balance = 0
	}
	return &w, nil
}

// Save writes the wallet, stamping the current version.
func (s *FileWalletStore) Save(w *model.Wallet) error {
	w.Version = version.CurrentWalletVersion
	return writeState(s.paths.WalletPath(), w)
}

// Check reports whether the file on disk is readable without resetting it.
func (s *FileWalletStore) Check() error {
	_, err := readState(s.paths.WalletPath(), "wallet", version.CurrentWalletVersion, &walletFile{})
	return err
}
