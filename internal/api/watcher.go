package api

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/amterp/crack/internal/config"
)

// StateChangeType indicates what type of change occurred.
type StateChangeType string

const (
	StateChangeWritten StateChangeType = "written"
	StateChangeRemoved StateChangeType = "removed"
)

// StateKind names the state file that changed.
type StateKind string

const (
	StateKindCollection StateKind = "collection"
	StateKindInventory  StateKind = "inventory"
	StateKindPending    StateKind = "pending_reveal"
	StateKindWallet     StateKind = "wallet"
	StateKindSettings   StateKind = "settings"
	StateKindCatalog    StateKind = "catalog"
	StateKindUnknown    StateKind = "unknown"
)

var stateFiles = map[string]StateKind{
	config.CollectionFileName:    StateKindCollection,
	config.InventoryFileName:     StateKindInventory,
	config.PendingRevealFileName: StateKindPending,
	config.WalletFileName:        StateKindWallet,
	config.SettingsFileName:      StateKindSettings,
	config.PacksFileName:         StateKindCatalog,
}

// StateChange is sent to subscribers when a state file changes on disk,
// whether by this server, the CLI or a hand edit.
type StateChange struct {
	Type StateChangeType `json:"type"`
	Kind StateKind       `json:"kind"`
	File string          `json:"file"`
}

// StateSubscriber receives state change notifications.
type StateSubscriber interface {
	OnStateChange(change StateChange)
}

// DebounceInterval coalesces bursts of events on one file.
const DebounceInterval = 100 * time.Millisecond

// FileWatcher watches the data directory and notifies subscribers.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	dataDir     string
	logger      *slog.Logger
	mu          sync.RWMutex
	subscribers []StateSubscriber
	debounce    map[string]*time.Timer
	debounceMu  sync.Mutex
	stopCh      chan struct{}
	stopped     bool // Once stopped, cannot restart
	running     bool
}

// NewFileWatcher creates a watcher for the given data directory.
func NewFileWatcher(dataDir string, logger *slog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:  watcher,
		dataDir:  dataDir,
		logger:   orDiscard(logger),
		debounce: make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}, nil
}

// Subscribe adds a subscriber to receive state change notifications.
func (fw *FileWatcher) Subscribe(sub StateSubscriber) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.subscribers = append(fw.subscribers, sub)
}

// Unsubscribe removes a subscriber.
func (fw *FileWatcher) Unsubscribe(sub StateSubscriber) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for i, s := range fw.subscribers {
		if s == sub {
			fw.subscribers = append(fw.subscribers[:i], fw.subscribers[i+1:]...)
			return
		}
	}
}

// Start begins watching. Only the top level of the data directory is
// watched; the set cache below it is not state.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("file watcher cannot be restarted after stop")
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(fw.dataDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.dataDir, err)
	}

	go fw.run()
	return nil
}

// Stop stops watching for changes.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running || fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.stopped = true
	fw.mu.Unlock()

	// Cancel pending timers so nothing fires after stop
	fw.debounceMu.Lock()
	for path, timer := range fw.debounce {
		timer.Stop()
		delete(fw.debounce, path)
	}
	fw.debounceMu.Unlock()

	close(fw.stopCh)
	return fw.watcher.Close()
}

func (fw *FileWatcher) run() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "error", err)

		case <-fw.stopCh:
			return
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	// Atomic writes land as hidden temp files first; the rename onto the
	// real name is what we report.
	if fw.classifyChange(event).Kind == StateKindUnknown {
		return
	}

	fw.debounceMu.Lock()
	if timer, exists := fw.debounce[event.Name]; exists {
		timer.Stop()
	}
	fw.debounce[event.Name] = time.AfterFunc(DebounceInterval, func() {
		fw.emitChange(event)
		fw.debounceMu.Lock()
		delete(fw.debounce, event.Name)
		fw.debounceMu.Unlock()
	})
	fw.debounceMu.Unlock()
}

func (fw *FileWatcher) emitChange(event fsnotify.Event) {
	// Debounce timer may fire after Stop
	fw.mu.RLock()
	if fw.stopped {
		fw.mu.RUnlock()
		return
	}
	subs := make([]StateSubscriber, len(fw.subscribers))
	copy(subs, fw.subscribers)
	fw.mu.RUnlock()

	change := fw.classifyChange(event)
	if change.Kind == StateKindUnknown {
		return
	}
	for _, sub := range subs {
		sub.OnStateChange(change)
	}
}

func (fw *FileWatcher) classifyChange(event fsnotify.Event) StateChange {
	unknown := StateChange{Kind: StateKindUnknown}

	rel, err := filepath.Rel(fw.dataDir, event.Name)
	if err != nil || strings.Contains(rel, string(filepath.Separator)) {
		return unknown
	}
	kind, ok := stateFiles[rel]
	if !ok {
		return unknown
	}

	change := StateChange{Kind: kind, File: rel}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		change.Type = StateChangeWritten
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		change.Type = StateChangeRemoved
	default:
		return unknown
	}
	return change
}
