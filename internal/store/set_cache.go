package store

import (
	"log/slog"
	"strings"
	"time"

	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/scryfall"
	"github.com/amterp/crack/internal/version"
)

type setCacheFile struct {
	Version         int             `json:"_v"`
	SetCode         string          `json:"set_code"`
	FetchedAtMillis int64           `json:"fetched_at_millis"`
	Cards           []scryfall.Card `json:"cards"`
}

func (f *setCacheFile) schemaVersion() int { return f.Version }

// FileSetCache implements SetCache with one file per set. Entries older
// than the TTL read as misses. Random draws are never cached here.
type FileSetCache struct {
	paths  *config.Paths
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSetCache creates a set cache. A ttl of zero disables expiry.
func NewSetCache(paths *config.Paths, ttl time.Duration, logger *slog.Logger) *FileSetCache {
	return &FileSetCache{paths: paths, ttl: ttl, now: time.Now, logger: orDiscard(logger)}
}

// Get returns the cached listing for a set if present and fresh.
func (c *FileSetCache) Get(setCode string) ([]scryfall.Card, bool) {
	var f setCacheFile
	found, err := loadState(c.logger, c.paths.SetCachePath(setCode), "set_cache", version.CurrentSetCacheVersion, &f)
	if err != nil || !found {
		return nil, false
	}
	if !strings.EqualFold(f.SetCode, setCode) {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(time.UnixMilli(f.FetchedAtMillis)) > c.ttl {
		return nil, false
	}
	return f.Cards, true
}

// Put stores a listing, stamped with the current time.
func (c *FileSetCache) Put(setCode string, cards []scryfall.Card) error {
	return writeState(c.paths.SetCachePath(setCode), &setCacheFile{
		Version:         version.CurrentSetCacheVersion,
		SetCode:         strings.ToLower(setCode),
		FetchedAtMillis: c.now().UnixMilli(),
		Cards:           cards,
	})
}
