package resolver

import (
	"fmt"
	"sort"
	"strings"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/prompt"
	"github.com/amterp/crack/internal/store"
)

// PackSource lists the pack types on offer. *catalog.Catalog implements it.
type PackSource interface {
	List() []*model.PackDefinition
}

// PackResolver turns user input into a pack key.
type PackResolver struct {
	packs     PackSource
	inventory store.InventoryStore
	prompter  prompt.Prompter
}

// NewPackResolver creates a new pack resolver.
func NewPackResolver(packs PackSource, inventory store.InventoryStore, prompter prompt.Prompter) *PackResolver {
	return &PackResolver{
		packs:     packs,
		inventory: inventory,
		prompter:  prompter,
	}
}

// Resolve determines which pack to use:
// 1. Exact key
// 2. Case-insensitive key or name
// 3. Unique key prefix
// 4. No input: the only pack type the user owns
// 5. If interactive, prompt among the candidates
// 6. Otherwise, fail with error
func (r *PackResolver) Resolve(input string, interactive bool) (string, error) {
	packs := r.packs.List()
	input = strings.TrimSpace(input)

	if input != "" {
		for _, p := range packs {
			if p.Key == input {
				return p.Key, nil
			}
		}
		for _, p := range packs {
			if strings.EqualFold(p.Key, input) || strings.EqualFold(p.Name, input) {
				return p.Key, nil
			}
		}

		var matches []*model.PackDefinition
		lower := strings.ToLower(input)
		for _, p := range packs {
			if strings.HasPrefix(strings.ToLower(p.Key), lower) {
				matches = append(matches, p)
			}
		}
		switch {
		case len(matches) == 1:
			return matches[0].Key, nil
		case len(matches) == 0:
			return "", crackerr.PackNotFound(input)
		case !interactive:
			return "", crackerr.InvalidField("pack", fmt.Sprintf("%q matches %s", input, joinKeys(matches)))
		}
		return r.prompter.Select("Which pack?", r.options(matches, nil))
	}

	inv, err := r.inventory.Load()
	if err != nil {
		return "", err
	}
	var owned []*model.PackDefinition
	for _, p := range packs {
		if inv.Count(p.Key) > 0 {
			owned = append(owned, p)
		}
	}

	if len(owned) == 0 {
		return "", &crackerr.NoPacksError{PackKey: "unopened"}
	}
	if len(owned) == 1 {
		return owned[0].Key, nil
	}
	if !interactive {
		return "", crackerr.InvalidField("pack", fmt.Sprintf("several pack types owned (%s); name one", joinKeys(owned)))
	}
	return r.prompter.Select("Select pack", r.options(owned, inv))
}

func (r *PackResolver) options(packs []*model.PackDefinition, inv model.Inventory) []prompt.Option {
	opts := make([]prompt.Option, len(packs))
	for i, p := range packs {
		label := fmt.Sprintf("%s (%s)", p.Name, p.Key)
		if inv != nil {
			label = fmt.Sprintf("%s ×%d", label, inv.Count(p.Key))
		}
		opts[i] = prompt.Option{Label: label, Value: p.Key}
	}
	return opts
}

func joinKeys(packs []*model.PackDefinition) string {
	keys := make([]string, len(packs))
	for i, p := range packs {
		keys[i] = p.Key
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
