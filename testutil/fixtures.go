package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
)

// TestCard returns a valid collection card with sensible test defaults.
func TestCard(id string) model.Card {
	return model.Card{
		InstanceID: id,
		OriginalID: "orig-" + id,
		Name:       "Card " + id,
		Rarity:     model.Common,
		Image:      "https://img.example/" + id + ".jpg",
		Price:      0.5,
	}
}

// TestPack returns a pack definition with one slot per rarity given,
// e.g. TestPack("dmu-draft", model.Common, model.Rare).
func TestPack(key string, rarities ...model.Rarity) *model.PackDefinition {
	pack := &model.PackDefinition{
		Key:     key,
		Name:    key + " pack",
		SetCode: "dmu",
		Price:   4.49,
	}
	for _, r := range rarities {
		pack.Slots = append(pack.Slots, model.SlotDefinition{
			Count: 1,
			Odds:  []model.OddsEntry{{Rarity: r, Weight: 1}},
		})
	}
	return pack
}

// TempDataDir creates an empty data directory for testing.
// It is removed when the test ends.
func TempDataDir(t *testing.T) *config.Paths {
	t.Helper()
	return config.NewPaths(t.TempDir())
}

// WriteFile writes raw content to path, creating parent directories.
// Useful for planting malformed state files.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
