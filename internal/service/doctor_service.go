package service

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// IssueSeverity indicates how critical an issue is.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue codes for diagnostic results.
const (
	// Priority 1: Unreadable state (errors)
	CodeMalformedCollection = "MALFORMED_COLLECTION"
	CodeMalformedInventory  = "MALFORMED_INVENTORY"
	CodeMalformedPending    = "MALFORMED_PENDING_REVEAL"
	CodeMalformedWallet     = "MALFORMED_WALLET"
	CodeDuplicateInstanceID = "DUPLICATE_INSTANCE_ID"

	// Priority 2: Bad values (warnings)
	CodeInvalidCard       = "INVALID_CARD"
	CodeNegativeInventory = "NEGATIVE_INVENTORY"
	CodeNegativeBalance   = "NEGATIVE_BALANCE"
	CodeUnknownPackKey    = "UNKNOWN_PACK_KEY"

	// Priority 3: Referential integrity (warnings)
	CodeOrphanedPendingID = "ORPHANED_PENDING_ID"

	// Priority 4: Configuration (warnings)
	CodeNotInitialized     = "NOT_INITIALIZED"
	CodeMalformedSettings  = "MALFORMED_SETTINGS"
	CodeInvalidPackCatalog = "INVALID_PACK_CATALOG"
)

// Issue represents a single diagnostic finding.
type Issue struct {
	Severity   IssueSeverity     `json:"severity"`
	Code       string            `json:"code"`
	File       string            `json:"file,omitempty"`
	CardID     string            `json:"card_id,omitempty"`
	Message    string            `json:"message"`
	Fixable    bool              `json:"fixable"`
	FixAction  string            `json:"fix_action,omitempty"`
	FixError   string            `json:"fix_error,omitempty"`   // Populated if fix was attempted but failed
	FixContext map[string]string `json:"fix_context,omitempty"` // Structured details, e.g. the pack key
}

// StateDiagnostic counts what was found on disk.
type StateDiagnostic struct {
	Cards        int `json:"cards"`
	UnopenedPack int `json:"unopened_packs"`
	Pending      int `json:"pending_reveal"`
}

// ReportSummary summarizes the diagnostic results.
type ReportSummary struct {
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Fixed     int `json:"fixed"`
	FixFailed int `json:"fix_failed,omitempty"`
}

// DiagnosticReport contains all diagnostic results.
type DiagnosticReport struct {
	State   StateDiagnostic `json:"state"`
	Issues  []Issue         `json:"issues"`
	Summary ReportSummary   `json:"summary"`
}

// HasErrors returns true if there are any error-level issues.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Errors > 0
}

func (r *DiagnosticReport) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func (r *DiagnosticReport) summarize() {
	r.Summary.Errors, r.Summary.Warnings = 0, 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			r.Summary.Errors++
		} else {
			r.Summary.Warnings++
		}
	}
}

// DoctorService validates crack data for consistency issues.
type DoctorService struct {
	paths      *config.Paths
	registry   *booster.Registry
	catalog    *catalog.Catalog
	settings   store.SettingsStore
	collection store.CollectionStore
	inventory  store.InventoryStore
	pending    store.PendingRevealStore
	wallet     store.WalletStore
	ledger     *Ledger
}

// NewDoctorService creates a new diagnostic service.
func NewDoctorService(
	paths *config.Paths,
	registry *booster.Registry,
	cat *catalog.Catalog,
	settings store.SettingsStore,
	collection store.CollectionStore,
	inventory store.InventoryStore,
	pending store.PendingRevealStore,
	wallet store.WalletStore,
	ledger *Ledger,
) *DoctorService {
	return &DoctorService{
		paths:      paths,
		registry:   registry,
		catalog:    cat,
		settings:   settings,
		collection: collection,
		inventory:  inventory,
		pending:    pending,
		wallet:     wallet,
		ledger:     ledger,
	}
}

// Diagnose inspects every state file without modifying anything.
func (s *DoctorService) Diagnose() (*DiagnosticReport, error) {
	report := &DiagnosticReport{Issues: []Issue{}}

	if !s.settings.Exists() {
		report.add(Issue{
			Severity:  SeverityWarning,
			Code:      CodeNotInitialized,
			File:      s.paths.SettingsPath(),
			Message:   "Data directory has not been initialized",
			FixAction: "Run 'crack init'",
		})
	}

	s.checkSettings(report)
	s.checkPackCatalog(report)
	collectionIDs := s.checkCollection(report)
	s.checkInventory(report)
	s.checkPending(report, collectionIDs)
	s.checkWallet(report)

	report.summarize()
	return report, nil
}

// Fix applies automatic fixes for issues that have deterministic solutions.
// Returns a new report showing remaining issues and what was fixed.
func (s *DoctorService) Fix(report *DiagnosticReport) (*DiagnosticReport, error) {
	s.ledger.lock()
	defer s.ledger.unlock()

	fixed := 0
	fixFailed := 0
	remaining := []Issue{}

	for _, issue := range report.Issues {
		if !issue.Fixable {
			remaining = append(remaining, issue)
			continue
		}

		var err error
		switch issue.Code {
		case CodeMalformedSettings:
			err = s.fixSettings()
		case CodeMalformedCollection:
			err = s.resetCollection()
		case CodeDuplicateInstanceID:
			err = s.fixDuplicateInstanceID(issue.CardID)
		case CodeInvalidCard:
			err = s.fixInvalidCard(issue.CardID)
		case CodeMalformedInventory, CodeNegativeInventory:
			err = s.resaveInventory()
		case CodeMalformedPending:
			err = s.pending.Clear()
		case CodeOrphanedPendingID:
			err = s.fixOrphanedPendingID(issue.CardID)
		case CodeMalformedWallet, CodeNegativeBalance:
			err = s.resaveWallet()
		default:
			remaining = append(remaining, issue)
			continue
		}

		if err != nil {
			// If fix failed, keep the issue with error recorded
			issue.FixError = err.Error()
			remaining = append(remaining, issue)
			fixFailed++
		} else {
			fixed++
		}
	}

	newReport := &DiagnosticReport{
		State:   report.State,
		Issues:  remaining,
		Summary: ReportSummary{Fixed: fixed, FixFailed: fixFailed},
	}
	newReport.summarize()
	return newReport, nil
}

func (s *DoctorService) checkSettings(report *DiagnosticReport) {
	if err := s.settings.Check(); err != nil {
		report.add(Issue{
			Severity:  SeverityWarning,
			Code:      CodeMalformedSettings,
			File:      s.paths.SettingsPath(),
			Message:   fmt.Sprintf("Cannot use settings: %v", err),
			Fixable:   true,
			FixAction: "Move the file aside and write default settings",
		})
	}
}

func (s *DoctorService) checkPackCatalog(report *DiagnosticReport) {
	path := s.paths.PacksPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			report.add(Issue{Severity: SeverityWarning, Code: CodeInvalidPackCatalog, File: path, Message: fmt.Sprintf("Cannot read pack catalog: %v", err)})
		}
		return
	}
	if _, err := catalog.Parse(data, s.registry); err != nil {
		report.add(Issue{
			Severity:  SeverityWarning,
			Code:      CodeInvalidPackCatalog,
			File:      path,
			Message:   fmt.Sprintf("Pack catalog is ignored: %v", err),
			FixAction: "Edit packs.toml; built-in packs are used until it is valid",
		})
	}
}

// checkCollection returns the set of instance IDs present, or nil when the
// collection could not be read.
func (s *DoctorService) checkCollection(report *DiagnosticReport) map[string]bool {
	path := s.paths.CollectionPath()
	if err := s.collection.Check(); err != nil {
		report.add(Issue{
			Severity:  SeverityError,
			Code:      CodeMalformedCollection,
			File:      path,
			Message:   fmt.Sprintf("Cannot read collection: %v", err),
			Fixable:   true,
			FixAction: "Move the file aside and start an empty collection",
		})
		return nil
	}

	cards, err := s.collection.Load()
	if err != nil {
		return nil
	}
	report.State.Cards = len(cards)

	ids := make(map[string]bool, len(cards))
	dupes := make(map[string]int)
	for _, c := range cards {
		if ids[c.InstanceID] {
			dupes[c.InstanceID]++
		}
		ids[c.InstanceID] = true

		if !c.IsValid() {
			action := "Remove the card"
			if c.Name != "" {
				action = "Give the card a placeholder image"
			}
			report.add(Issue{
				Severity:  SeverityWarning,
				Code:      CodeInvalidCard,
				File:      path,
				CardID:    c.InstanceID,
				Message:   "Card has no name or image",
				Fixable:   true,
				FixAction: action,
			})
		}
	}

	for _, id := range sortedKeys(dupes) {
		report.add(Issue{
			Severity:  SeverityError,
			Code:      CodeDuplicateInstanceID,
			File:      path,
			CardID:    id,
			Message:   fmt.Sprintf("Instance ID appears %d times", dupes[id]+1),
			Fixable:   true,
			FixAction: "Keep the first copy, remove the rest",
		})
	}
	return ids
}

func (s *DoctorService) checkInventory(report *DiagnosticReport) {
	path := s.paths.InventoryPath()
	if err := s.inventory.Check(); err != nil {
		report.add(Issue{
			Severity:  SeverityError,
			Code:      CodeMalformedInventory,
			File:      path,
			Message:   fmt.Sprintf("Cannot read inventory: %v", err),
			Fixable:   true,
			FixAction: "Move the file aside and start an empty inventory",
		})
		return
	}

	// Read raw counts; the store clamps negatives on load.
	var raw struct {
		Packs map[string]int `json:"packs"`
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &raw)
	}

	for _, key := range sortedKeys(raw.Packs) {
		n := raw.Packs[key]
		if n < 0 {
			report.add(Issue{
				Severity:  SeverityWarning,
				Code:      CodeNegativeInventory,
				File:      path,
				Message:   fmt.Sprintf("Pack %s has a negative count (%d)", key, n),
				Fixable:   true,
				FixAction: "Reset the count to 0",
				FixContext: map[string]string{
					"pack_key": key,
					"count":    strconv.Itoa(n),
				},
			})
			continue
		}
		report.State.UnopenedPack += n
		if !s.catalog.Has(key) {
			report.add(Issue{
				Severity: SeverityWarning,
				Code:     CodeUnknownPackKey,
				File:     path,
				Message:  fmt.Sprintf("Inventory holds %d of unknown pack %s", n, key),
				FixContext: map[string]string{
					"pack_key": key,
					"count":    strconv.Itoa(n),
				},
			})
		}
	}
}

func (s *DoctorService) checkPending(report *DiagnosticReport, collectionIDs map[string]bool) {
	path := s.paths.PendingRevealPath()
	if err := s.pending.Check(); err != nil {
		report.add(Issue{
			Severity:  SeverityError,
			Code:      CodeMalformedPending,
			File:      path,
			Message:   fmt.Sprintf("Cannot read pending reveal marker: %v", err),
			Fixable:   true,
			FixAction: "Clear the marker",
		})
		return
	}

	ids, err := s.pending.Load()
	if err != nil {
		return
	}
	report.State.Pending = len(ids)
	if collectionIDs == nil {
		return
	}
	for _, id := range ids {
		if !collectionIDs[id] {
			report.add(Issue{
				Severity:  SeverityWarning,
				Code:      CodeOrphanedPendingID,
				File:      path,
				CardID:    id,
				Message:   "Pending reveal refers to a card not in the collection",
				Fixable:   true,
				FixAction: "Drop it from the marker",
			})
		}
	}
}

func (s *DoctorService) checkWallet(report *DiagnosticReport) {
	path := s.paths.WalletPath()
	if err := s.wallet.Check(); err != nil {
		report.add(Issue{
			Severity:  SeverityError,
			Code:      CodeMalformedWallet,
			File:      path,
			Message:   fmt.Sprintf("Cannot read wallet: %v", err),
			Fixable:   true,
			FixAction: "Move the file aside and start an empty wallet",
		})
		return
	}

	var raw struct {
		Balance float64 `json:"balance"`
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &raw)
	}
	if raw.Balance < 0 {
		report.add(Issue{
			Severity:  SeverityWarning,
			Code:      CodeNegativeBalance,
			File:      path,
			Message:   fmt.Sprintf("Wallet balance is negative (%.2f)", raw.Balance),
			Fixable:   true,
			FixAction: "Reset the balance to 0",
		})
	}
}

func (s *DoctorService) fixSettings() error {
	settings, err := s.settings.Load() // moves the bad file aside
	if err != nil {
		return err
	}
	if settings.FreePackKey == "" {
		if keys := s.catalog.Keys(); len(keys) > 0 {
			settings.FreePackKey = keys[0]
		}
	}
	return s.settings.Save(settings)
}

func (s *DoctorService) resetCollection() error {
	cards, err := s.collection.Load() // moves the bad file aside
	if err != nil {
		return err
	}
	return s.collection.Save(cards)
}

func (s *DoctorService) fixDuplicateInstanceID(instanceID string) error {
	cards, err := s.collection.Load()
	if err != nil {
		return err
	}
	seen := false
	kept := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.InstanceID == instanceID {
			if seen {
				continue
			}
			seen = true
		}
		kept = append(kept, c)
	}
	return s.collection.Save(kept)
}

func (s *DoctorService) fixInvalidCard(instanceID string) error {
	cards, err := s.collection.Load()
	if err != nil {
		return err
	}
	kept := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.InstanceID == instanceID && !c.IsValid() {
			if c.Name == "" {
				continue
			}
			c.Image = booster.PlaceholderImage(c.Rarity, c.Name)
		}
		kept = append(kept, c)
	}
	return s.collection.Save(kept)
}

func (s *DoctorService) resaveInventory() error {
	inv, err := s.inventory.Load() // clamps negatives, moves a bad file aside
	if err != nil {
		return err
	}
	return s.inventory.Save(inv)
}

func (s *DoctorService) fixOrphanedPendingID(instanceID string) error {
	ids, err := s.pending.Load()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != instanceID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return s.pending.Clear()
	}
	return s.pending.Save(kept)
}

func (s *DoctorService) resaveWallet() error {
	w, err := s.wallet.Load() // clamps a negative balance, moves a bad file aside
	if err != nil {
		return err
	}
	return s.wallet.Save(w)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
