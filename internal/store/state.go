package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/amterp/crack/internal/util"
	"github.com/amterp/crack/internal/version"
)

// versioned is implemented by every JSON state file.
type versioned interface {
	schemaVersion() int
}

// readState decodes a JSON state file and checks its version.
// A missing file returns (false, nil) and leaves out untouched.
func readState(path, fileType string, expected int, out versioned) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return true, &CorruptError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if err := version.CheckFileVersion(fileType, path, out.schemaVersion(), expected); err != nil {
		return true, &CorruptError{Path: path, Err: err}
	}
	return true, nil
}

// writeState atomically replaces a JSON state file.
func writeState(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	return util.WriteFileAtomic(path, data, 0644)
}

// CorruptError describes a state file that exists but cannot be used.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt state file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// recoverCorrupt moves a corrupt file aside and logs what happened. Loading
// then continues with the default value.
func recoverCorrupt(logger *slog.Logger, fileType string, cerr *CorruptError) {
	moved, err := util.PreserveCorrupt(cerr.Path)
	if err != nil {
		logger.Warn("resetting corrupt "+fileType, "path", cerr.Path, "error", cerr.Err, "preserve_error", err)
		return
	}
	logger.Warn("resetting corrupt "+fileType, "path", cerr.Path, "error", cerr.Err, "preserved_as", moved)
}

// loadState wraps readState with the recovery policy: corrupt files are
// preserved and reported as absent.
func loadState(logger *slog.Logger, path, fileType string, expected int, out versioned) (bool, error) {
	found, err := readState(path, fileType, expected, out)
	if err == nil {
		return found, nil
	}
	var cerr *CorruptError
	if errors.As(err, &cerr) {
		recoverCorrupt(logger, fileType, cerr)
		return false, nil
	}
	return false, err
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
