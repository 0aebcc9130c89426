package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors for type checking
var (
	ErrNotFound          = errors.New("not found")
	ErrNotInitialized    = errors.New("not initialized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoPacks           = errors.New("no packs available")
	ErrPackUnobtainable  = errors.New("pack opening failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCooldown          = errors.New("on cooldown")
	ErrBusy              = errors.New("busy")
	ErrCollectionFull    = errors.New("collection full")
)

// NotFoundError indicates a resource doesn't exist.
type NotFoundError struct {
	Resource string // "pack", "card", "set"
	ID       string // The identifier that wasn't found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError indicates invalid user input or configuration.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotInitializedError indicates the data directory hasn't been set up.
type NotInitializedError struct {
	Path string
}

func (e *NotInitializedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("crack not initialized in %s (run 'crack init')", e.Path)
	}
	return "crack not initialized (run 'crack init')"
}

func (e *NotInitializedError) Unwrap() error {
	return ErrNotInitialized
}

// NoPacksError is returned before any state changes when the user owns
// no packs of the requested type. Retrying costs nothing.
type NoPacksError struct {
	PackKey string
}

func (e *NoPacksError) Error() string {
	return fmt.Sprintf("no %s packs available", e.PackKey)
}

func (e *NoPacksError) Unwrap() error {
	return ErrNoPacks
}

// PackOpeningFailedError is returned when a reserved pack yielded no usable
// cards. The pack has already been consumed unless Refunded is set.
type PackOpeningFailedError struct {
	PackKey  string
	Refunded bool
	Err      error
}

func (e *PackOpeningFailedError) Error() string {
	msg := fmt.Sprintf("opening %s pack failed: no cards could be obtained", e.PackKey)
	if e.Refunded {
		msg += " (pack refunded)"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PackOpeningFailedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPackUnobtainable, e.Err}
	}
	return []error{ErrPackUnobtainable}
}

// InsufficientFundsError indicates the wallet cannot cover a purchase.
type InsufficientFundsError struct {
	Needed    float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %.2f, have %.2f", e.Needed, e.Available)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// CooldownError indicates an action is not available again until Remaining elapses.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s available again in %s", e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldown
}

// BusyError indicates a mutation was refused because another one is in flight.
type BusyError struct {
	Reason string
}

func (e *BusyError) Error() string {
	return e.Reason
}

func (e *BusyError) Unwrap() error {
	return ErrBusy
}

// CollectionFullError indicates the collection holds its maximum number of cards.
type CollectionFullError struct {
	Size int
	Max  int
}

func (e *CollectionFullError) Error() string {
	return fmt.Sprintf("collection is full (%d of %d cards); sell some cards first", e.Size, e.Max)
}

func (e *CollectionFullError) Unwrap() error {
	return ErrCollectionFull
}

// Helper constructors for common cases

func PackNotFound(key string) error {
	return &NotFoundError{Resource: "pack", ID: key}
}

func CardNotFound(instanceID string) error {
	return &NotFoundError{Resource: "card", ID: instanceID}
}

func InvalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func OpeningInProgress() error {
	return &BusyError{Reason: "a pack is being opened; try again when it finishes"}
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNoPacks checks if an opening was refused before reserving a pack.
func IsNoPacks(err error) bool {
	return errors.Is(err, ErrNoPacks)
}

// IsPackUnobtainable checks if an opening failed after reserving a pack.
func IsPackUnobtainable(err error) bool {
	return errors.Is(err, ErrPackUnobtainable)
}
