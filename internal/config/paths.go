package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultDataDir        = ".crack"
	SettingsFileName      = "settings.toml"
	PacksFileName         = "packs.toml"
	CollectionFileName    = "collection.json"
	InventoryFileName     = "inventory.json"
	PendingRevealFileName = "pending_reveal.json"
	WalletFileName        = "wallet.json"
	CacheDir              = "cache"
	SetCacheDir           = "sets"
)

// Paths provides path resolution for crack data files.
type Paths struct {
	root string
}

// NewPaths creates a new Paths resolver rooted at the given data directory.
func NewPaths(root string) *Paths {
	return &Paths{root: root}
}

// Root returns the data directory.
func (p *Paths) Root() string {
	return p.root
}

// SettingsPath returns the settings file path.
func (p *Paths) SettingsPath() string {
	return filepath.Join(p.root, SettingsFileName)
}

// PacksPath returns the path of the optional user pack catalog.
func (p *Paths) PacksPath() string {
	return filepath.Join(p.root, PacksFileName)
}

// CollectionPath returns the collection file path.
func (p *Paths) CollectionPath() string {
	return filepath.Join(p.root, CollectionFileName)
}

// InventoryPath returns the inventory file path.
func (p *Paths) InventoryPath() string {
	return filepath.Join(p.root, InventoryFileName)
}

// PendingRevealPath returns the pending-reveal marker path.
func (p *Paths) PendingRevealPath() string {
	return filepath.Join(p.root, PendingRevealFileName)
}

// WalletPath returns the wallet file path.
func (p *Paths) WalletPath() string {
	return filepath.Join(p.root, WalletFileName)
}

// SetCacheRoot returns the directory holding cached set listings.
func (p *Paths) SetCacheRoot() string {
	return filepath.Join(p.root, CacheDir, SetCacheDir)
}

// SetCachePath returns the cache file for one set.
func (p *Paths) SetCachePath(setCode string) string {
	return filepath.Join(p.SetCacheRoot(), strings.ToLower(setCode)+".json")
}

// DefaultDataDirPath returns ~/.crack, or "" if the home directory is unknown.
func DefaultDataDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultDataDir)
}
