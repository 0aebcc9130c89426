package resolver

import (
	"fmt"
	"strings"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// MinPrefixLen is the shortest instance ID prefix accepted.
const MinPrefixLen = 4

// CardResolver resolves instance IDs typed by the user.
type CardResolver struct {
	collection store.CollectionStore
}

// NewCardResolver creates a new card resolver.
func NewCardResolver(collection store.CollectionStore) *CardResolver {
	return &CardResolver{collection: collection}
}

// ResolveAll maps each reference to a full instance ID, preserving order.
// A reference is an exact instance ID or a unique prefix of one.
func (r *CardResolver) ResolveAll(refs []string) ([]string, error) {
	cards, err := r.collection.Load()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		id, err := resolveOne(cards, strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func resolveOne(cards []model.Card, ref string) (string, error) {
	if ref == "" {
		return "", crackerr.InvalidField("card", "empty card reference")
	}

	// Try direct ID lookup first
	for _, c := range cards {
		if c.InstanceID == ref {
			return ref, nil
		}
	}

	// Fall back to a unique prefix
	if len(ref) < MinPrefixLen {
		return "", crackerr.CardNotFound(ref)
	}
	match := ""
	for _, c := range cards {
		if !strings.HasPrefix(c.InstanceID, ref) {
			continue
		}
		if match != "" && match != c.InstanceID {
			return "", crackerr.InvalidField("card", fmt.Sprintf("%q matches more than one card", ref))
		}
		match = c.InstanceID
	}
	if match == "" {
		return "", crackerr.CardNotFound(ref)
	}
	return match, nil
}
