package store

import (
	"log/slog"

	"github.com/amterp/crack/internal/config"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/version"
)

type collectionFile struct {
	Version int          `json:"_v"`
	Cards   []model.Card `json:"cards"`
}

func (f *collectionFile) schemaVersion() int { return f.Version }

// FileCollectionStore implements CollectionStore as one JSON file that is
// rewritten atomically on every change.
type FileCollectionStore struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCollectionStore creates a new collection store.
func NewCollectionStore(paths *config.Paths, logger *slog.Logger) *FileCollectionStore {
	return &FileCollectionStore{paths: paths, logger: orDiscard(logger)}
}

// Load returns the cards in append order. A missing or corrupt file yields
// an empty collection.
func (s *FileCollectionStore) Load() ([]model.Card, error) {
	var f collectionFile
	found, err := loadState(s.logger, s.paths.CollectionPath(), "collection", version.CurrentCollectionVersion, &f)
	if err != nil {
		return nil, err
	}
	if !found || f.Cards == nil {
		return []model.Card{}, nil
	}
	return f.Cards, nil
}

// Append adds cards after the existing ones.
func (s *FileCollectionStore) Append(cards []model.Card, maxSize int) ([]model.Card, error) {
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	room := len(cards)
	if maxSize > 0 {
		room = max(0, min(room, maxSize-len(existing)))
	}
	added := cards[:room]
	if room < len(cards) {
		s.logger.Warn("collection full, discarding new cards",
			"max_size", maxSize, "discarded", len(cards)-room)
	}
	if len(added) == 0 {
		return []model.Card{}, nil
	}

	all := make([]model.Card, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)
	if err := s.Save(all); err != nil {
		return nil, err
	}
	return added, nil
}

// Remove deletes cards by instance ID.
func (s *FileCollectionStore) Remove(instanceIDs []string) ([]model.Card, error) {
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(instanceIDs))
	for _, id := range instanceIDs {
		wanted[id] = true
	}

	var kept, removed []model.Card
	for _, c := range existing {
		if wanted[c.InstanceID] {
			removed = append(removed, c)
			delete(wanted, c.InstanceID)
			continue
		}
		kept = append(kept, c)
	}
	for _, id := range instanceIDs {
		if wanted[id] {
			return nil, crackerr.CardNotFound(id)
		}
	}

	if kept == nil {
		kept = []model.Card{}
	}
	if err := s.Save(kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// Save replaces the whole collection.
func (s *FileCollectionStore) Save(cards []model.Card) error {
	if cards == nil {
		cards = []model.Card{}
	}
	return writeState(s.paths.CollectionPath(), &collectionFile{
		Version: version.CurrentCollectionVersion,
		Cards:   cards,
	})
}

// Check reports whether the file on disk is readable without resetting it.
func (s *FileCollectionStore) Check() error {
	_, err := readState(s.paths.CollectionPath(), "collection", version.CurrentCollectionVersion, &collectionFile{})
	return err
}
