package prompt

import "errors"

// ErrNonInteractive is returned when prompting in non-interactive mode.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// Option is one choice shown to the user. Value is what gets returned.
type Option struct {
	Label string
	Value string
}

// Options builds options whose label and value are the same.
func Options(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Label: v, Value: v}
	}
	return out
}

// Prompter defines the interface for interactive user prompts.
type Prompter interface {
	// Select presents options and returns the chosen value.
	Select(title string, options []Option) (string, error)

	// MultiSelect returns the chosen values in option order.
	MultiSelect(title string, options []Option) ([]string, error)

	// Confirm prompts for yes/no.
	Confirm(title string, defaultValue bool) (bool, error)
}

// NoopPrompter returns errors for all prompts (non-interactive mode).
type NoopPrompter struct{}

func (p *NoopPrompter) Select(title string, options []Option) (string, error) {
	return "", ErrNonInteractive
}

func (p *NoopPrompter) MultiSelect(title string, options []Option) ([]string, error) {
	return nil, ErrNonInteractive
}

func (p *NoopPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	return false, ErrNonInteractive
}
