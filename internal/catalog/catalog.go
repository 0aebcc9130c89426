package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
)

//go:embed packs.toml
var defaultPacks []byte

type packFile struct {
	Packs []model.PackDefinition `toml:"packs"`
}

// Catalog is the immutable set of pack definitions.
// Every accessor hands out deep copies.
type Catalog struct {
	packs []*model.PackDefinition
	byKey map[string]*model.PackDefinition
}

// Default returns the built-in catalog.
func Default(reg *booster.Registry) (*Catalog, error) {
	return Parse(defaultPacks, reg)
}

// DefaultTOML returns the built-in catalog source, for users who want to copy it.
func DefaultTOML() []byte {
	out := make([]byte, len(defaultPacks))
	copy(out, defaultPacks)
	return out
}

// Load reads the user's catalog override at path, falling back to the
// built-in catalog when the file is missing or unusable.
func Load(path string, reg *booster.Registry, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read pack catalog, using built-in packs", "path", path, "error", err)
		}
		return Default(reg)
	}

	c, err := Parse(data, reg)
	if err != nil {
		logger.Warn("invalid pack catalog, using built-in packs", "path", path, "error", err)
		return Default(reg)
	}
	return c, nil
}

// Parse decodes and validates a TOML catalog.
func Parse(data []byte, reg *booster.Registry) (*Catalog, error) {
	var f packFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("failed to parse pack catalog: %w", err)
	}
	if len(f.Packs) == 0 {
		return nil, errors.InvalidField("packs", "catalog defines no packs")
	}

	c := &Catalog{byKey: make(map[string]*model.PackDefinition, len(f.Packs))}
	for i := range f.Packs {
		p := f.Packs[i].Clone()
		p.Key = strings.TrimSpace(p.Key)
		p.SetCode = strings.ToLower(strings.TrimSpace(p.SetCode))
		if p.Name == "" {
			p.Name = p.Key
		}
		if err := validatePack(p, reg); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[p.Key]; dup {
			return nil, errors.InvalidField("key", fmt.Sprintf("duplicate pack key %q", p.Key))
		}
		c.packs = append(c.packs, p)
		c.byKey[p.Key] = p
	}
	return c, nil
}

// validatePack checks a pack and canonicalizes its odds rarities in place.
func validatePack(p *model.PackDefinition, reg *booster.Registry) error {
	if p.Key == "" {
		return errors.InvalidField("key", "pack key is required")
	}
	if p.SetCode == "" {
		return errors.InvalidField("set_code", fmt.Sprintf("pack %s has no set code", p.Key))
	}
	if p.Price < 0 {
		return errors.InvalidField("price", fmt.Sprintf("pack %s has a negative price", p.Key))
	}
	if len(p.Slots) == 0 {
		return errors.InvalidField("slots", fmt.Sprintf("pack %s has no slots", p.Key))
	}

	for i, s := range p.Slots {
		if s.Count < 0 {
			return errors.InvalidField("count", fmt.Sprintf("pack %s slot %d: count cannot be negative", p.Key, i+1))
		}
		if len(s.Odds) > 0 {
			total := 0.0
			for j, o := range s.Odds {
				r, ok := model.ParseRarity(string(o.Rarity))
				if !ok {
					return errors.InvalidField("odds", fmt.Sprintf("pack %s slot %d: unknown rarity %q", p.Key, i+1, o.Rarity))
				}
				p.Slots[i].Odds[j].Rarity = r
				if o.Weight < 0 {
					return errors.InvalidField("odds", fmt.Sprintf("pack %s slot %d: negative weight", p.Key, i+1))
				}
				total += o.Weight
			}
			if total <= 0 {
				return errors.InvalidField("odds", fmt.Sprintf("pack %s slot %d: odds have no weight", p.Key, i+1))
			}
		}
	}

	_, err := reg.CompilePack(p)
	return err
}

// Get returns a copy of the pack with the given key.
func (c *Catalog) Get(key string) (*model.PackDefinition, error) {
	p, ok := c.byKey[key]
	if !ok {
		return nil, errors.PackNotFound(key)
	}
	return p.Clone(), nil
}

// Has reports whether key names a pack.
func (c *Catalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// List returns copies of all packs in catalog order.
func (c *Catalog) List() []*model.PackDefinition {
	out := make([]*model.PackDefinition, len(c.packs))
	for i, p := range c.packs {
		out[i] = p.Clone()
	}
	return out
}

// Keys returns pack keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.packs))
	for i, p := range c.packs {
		keys[i] = p.Key
	}
	return keys
}
