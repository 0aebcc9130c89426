package service

import "sync"

// Ledger serializes every mutation of inventory, wallet and collection made
// through services sharing it, and tracks openings whose fetch is still in
// flight. Services in one process must share a single Ledger.
type Ledger struct {
	mu      sync.Mutex
	opening int
}

// NewLedger creates a ledger with nothing in flight.
func NewLedger() *Ledger {
	return &Ledger{}
}

// lock acquires the ledger.
func (l *Ledger) lock() { l.mu.Lock() }

func (l *Ledger) unlock() { l.mu.Unlock() }

// beginOpening must be called with the lock held.
func (l *Ledger) beginOpening() { l.opening++ }

func (l *Ledger) endOpening() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opening--
}

// openingInFlight must be called with the lock held.
func (l *Ledger) openingInFlight() bool { return l.opening > 0 }

// OpeningInFlight reports whether a pack is currently being fetched.
func (l *Ledger) OpeningInFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opening > 0
}
