package booster

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/amterp/crack/internal/id"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/scryfall"
	"github.com/amterp/crack/internal/util"
)

const placeholderImageBase = "https://placehold.co/488x680"

// Normalize converts a provider card into a collection card.
//
// The result is foil only when explicitFoil and foil are both true. The
// provider's own foil/nonfoil availability never decides the finish of a pull.
// ObtainedAtMillis is left zero for the commit to stamp.
func Normalize(raw *scryfall.Card, explicitFoil, foil bool) model.Card {
	isFoil := explicitFoil && foil
	rarity := model.NormalizeRarity(raw.Rarity)

	card := model.Card{
		InstanceID:      id.Instance(raw.ID),
		OriginalID:      raw.ID,
		Name:            raw.Name,
		Rarity:          rarity,
		Type:            raw.TypeLine,
		Set:             raw.SetName,
		SetCode:         raw.Set,
		CollectorNumber: raw.CollectorNumber,
		Price:           resolvePrice(raw.Prices, isFoil),
		Foil:            isFoil,
	}

	card.Image, card.CardFaces = resolveImages(raw)
	if card.Image == "" {
		card.Image = PlaceholderImage(rarity, raw.Name)
	}
	return card
}

// resolveImages prefers two faces with their own images, then the top-level
// image set, then the first face that has an image.
func resolveImages(raw *scryfall.Card) (string, *[2]string) {
	if len(raw.CardFaces) == 2 {
		front := raw.CardFaces[0].ImageURIs.Best()
		back := raw.CardFaces[1].ImageURIs.Best()
		if front != "" && back != "" {
			return front, &[2]string{front, back}
		}
	}
	if img := raw.ImageURIs.Best(); img != "" {
		return img, nil
	}
	for _, face := range raw.CardFaces {
		if img := face.ImageURIs.Best(); img != "" {
			return img, nil
		}
	}
	return "", nil
}

// resolvePrice picks the price for the pull's finish. A foil pull uses the
// foil price when there is one; otherwise the standard price, then the foil
// price as a last resort, then 0.
func resolvePrice(p scryfall.Prices, foil bool) float64 {
	if foil {
		if v, ok := parsePrice(p.USDFoil); ok {
			return v
		}
	}
	if v, ok := parsePrice(p.USD); ok {
		return v
	}
	if v, ok := parsePrice(p.USDFoil); ok {
		return v
	}
	return 0
}

func parsePrice(s *string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// PlaceholderImage returns a deterministic image URL for a card with no art,
// coloured by rarity and labelled with the rarity and card name.
func PlaceholderImage(rarity model.Rarity, name string) string {
	color := strings.TrimPrefix(model.RarityColor(rarity), "#")
	slug := util.Slugify(name)
	if slug == "" {
		slug = "unknown"
	}
	text := url.QueryEscape(fmt.Sprintf("%s %s", rarity, slug))
	return fmt.Sprintf("%s/%s/ffffff?text=%s", placeholderImageBase, color, text)
}
