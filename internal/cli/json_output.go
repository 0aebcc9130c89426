package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/service"
	"github.com/amterp/crack/internal/util"
)

// cardJson is a collection card as printed by --json. It adds the obtained
// time in RFC 3339 next to the raw millis.
//
// SYNC WARNING: This struct must stay in sync with model.Card fields.
// If you add fields to model.Card, add them here too. See TestCardJsonFieldSync.
type cardJson struct {
	InstanceID       string       `json:"instance_id"`
	OriginalID       string       `json:"original_id"`
	Name             string       `json:"name"`
	Rarity           model.Rarity `json:"rarity"`
	Type             string       `json:"type"`
	Set              string       `json:"set"`
	SetCode          string       `json:"set_code"`
	CollectorNumber  string       `json:"collector_number"`
	Image            string       `json:"image"`
	CardFaces        *[2]string   `json:"card_faces,omitempty"`
	Price            float64      `json:"price"`
	Foil             bool         `json:"foil"`
	ObtainedAtMillis int64        `json:"date_obtained"`
	ObtainedAt       string       `json:"obtained_at,omitempty"`
}

func cardToJson(c *model.Card) cardJson {
	out := cardJson{
		InstanceID:       c.InstanceID,
		OriginalID:       c.OriginalID,
		Name:             c.Name,
		Rarity:           c.Rarity,
		Type:             c.Type,
		Set:              c.Set,
		SetCode:          c.SetCode,
		CollectorNumber:  c.CollectorNumber,
		Image:            c.Image,
		CardFaces:        c.CardFaces,
		Price:            c.Price,
		Foil:             c.Foil,
		ObtainedAtMillis: c.ObtainedAtMillis,
	}
	if c.ObtainedAtMillis > 0 {
		out.ObtainedAt = util.MillisToTime(c.ObtainedAtMillis).UTC().Format(time.RFC3339)
	}
	return out
}

func cardsToJson(cards []model.Card) []cardJson {
	result := make([]cardJson, 0, len(cards))
	for i := range cards {
		result = append(result, cardToJson(&cards[i]))
	}
	return result
}

// PackInfo describes one catalog pack for JSON output.
type PackInfo struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	SetCode     string  `json:"set_code"`
	Price       float64 `json:"price"`
	NominalSize int     `json:"nominal_size"`
	Owned       int     `json:"owned"`
}

// PacksOutput wraps the pack catalog for JSON output.
type PacksOutput struct {
	Packs []PackInfo `json:"packs"`
}

// NewPacksOutput lists every catalog pack with the number owned.
// Always returns an empty array (not null) when there are no packs.
func NewPacksOutput(packs []*model.PackDefinition, inv model.Inventory) PacksOutput {
	result := make([]PackInfo, 0, len(packs))
	for _, p := range packs {
		result = append(result, PackInfo{
			Key:         p.Key,
			Name:        p.Name,
			SetCode:     p.SetCode,
			Price:       p.Price,
			NominalSize: p.NominalSize(),
			Owned:       inv.Count(p.Key),
		})
	}
	return PacksOutput{Packs: result}
}

// InventoryEntry is one owned pack type.
type InventoryEntry struct {
	Key   string `json:"key"`
	Name  string `json:"name,omitempty"`
	Count int    `json:"count"`
}

// InventoryOutput wraps the owned packs for JSON output.
type InventoryOutput struct {
	Packs []InventoryEntry `json:"packs"`
	Total int              `json:"total"`
}

// NewInventoryOutput lists owned packs in catalog order. Keys the catalog
// no longer knows are listed last without a name.
func NewInventoryOutput(cat *catalog.Catalog, inv model.Inventory) InventoryOutput {
	out := InventoryOutput{Packs: []InventoryEntry{}, Total: inv.Total()}
	seen := make(map[string]bool)
	for _, p := range cat.List() {
		seen[p.Key] = true
		if n := inv.Count(p.Key); n > 0 {
			out.Packs = append(out.Packs, InventoryEntry{Key: p.Key, Name: p.Name, Count: n})
		}
	}
	for _, key := range sortedInventoryKeys(inv) {
		if !seen[key] && inv.Count(key) > 0 {
			out.Packs = append(out.Packs, InventoryEntry{Key: key, Count: inv.Count(key)})
		}
	}
	return out
}

// OpenOutput wraps a committed opening for JSON output.
type OpenOutput struct {
	PackKey   string         `json:"pack_key"`
	Cards     []cardJson     `json:"cards"`
	Report    booster.Report `json:"report"`
	Discarded int            `json:"discarded,omitempty"`
	Invalid   int            `json:"invalid,omitempty"`
	Value     float64        `json:"value"`
}

// NewOpenOutput creates an OpenOutput from a service result.
func NewOpenOutput(result *service.OpenResult) OpenOutput {
	return OpenOutput{
		PackKey:   result.PackKey,
		Cards:     cardsToJson(result.Cards),
		Report:    result.Report,
		Discarded: result.Discarded,
		Invalid:   result.Invalid,
		Value:     cardsValue(result.Cards),
	}
}

// RevealOutput wraps the cards awaiting reveal for JSON output.
type RevealOutput struct {
	Cards        []cardJson `json:"cards"`
	Acknowledged bool       `json:"acknowledged"`
}

// NewRevealOutput creates a RevealOutput.
// Always returns an empty array (not null) when nothing is pending.
func NewRevealOutput(cards []model.Card, acknowledged bool) RevealOutput {
	return RevealOutput{Cards: cardsToJson(cards), Acknowledged: acknowledged}
}

// CollectionOutput wraps a filtered collection listing for JSON output.
type CollectionOutput struct {
	Cards   []cardJson                `json:"cards"`
	Summary service.CollectionSummary `json:"summary"`
}

// NewCollectionOutput creates a CollectionOutput.
func NewCollectionOutput(cards []model.Card, summary *service.CollectionSummary) CollectionOutput {
	out := CollectionOutput{Cards: cardsToJson(cards)}
	if summary != nil {
		out.Summary = *summary
	}
	if out.Summary.ByRarity == nil {
		out.Summary.ByRarity = map[model.Rarity]int{}
	}
	return out
}

// SaleOutput wraps a sale for JSON output.
type SaleOutput struct {
	Sold    []cardJson `json:"sold"`
	Credit  float64    `json:"credit"`
	Balance float64    `json:"balance"`
}

// NewSaleOutput creates a SaleOutput from a service result.
func NewSaleOutput(result *service.SaleResult) SaleOutput {
	return SaleOutput{Sold: cardsToJson(result.Sold), Credit: result.Credit, Balance: result.Balance}
}

func cardsValue(cards []model.Card) float64 {
	total := 0.0
	for _, c := range cards {
		total += c.Price
	}
	return total
}

// printJson marshals the value as indented JSON and prints it to stdout.
func printJson(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// warnJsonNotSupported prints a warning to stderr when --json is used on an unsupported command.
func warnJsonNotSupported(command string) {
	PrintWarning("--json is not supported for '%s' (flag ignored)", command)
}
