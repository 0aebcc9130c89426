package model

// Inventory maps pack keys to the number of unopened packs owned.
type Inventory map[string]int

// Count returns the number of packs of the given key, never negative.
func (inv Inventory) Count(key string) int {
	if n := inv[key]; n > 0 {
		return n
	}
	return 0
}

// Total returns the number of unopened packs across all keys.
func (inv Inventory) Total() int {
	total := 0
	for key := range inv {
		total += inv.Count(key)
	}
	return total
}

// Clone returns a copy safe to mutate.
func (inv Inventory) Clone() Inventory {
	cp := make(Inventory, len(inv))
	for k, v := range inv {
		cp[k] = v
	}
	return cp
}

// Wallet holds the virtual currency balance and free-pack bookkeeping.
type Wallet struct {
	Version             int     `json:"_v"`
	Balance             float64 `json:"balance"`
	LastFreeClaimMillis int64   `json:"last_free_claim_millis"`
}
