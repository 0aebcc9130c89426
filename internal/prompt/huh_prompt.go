package prompt

import (
	"github.com/charmbracelet/huh"
)

// HuhPrompter implements Prompter using the charmbracelet/huh library.
type HuhPrompter struct {
	theme *huh.Theme
}

// NewHuhPrompter creates a new huh-based prompter.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeCharm()}
}

func toHuhOptions(options []Option) []huh.Option[string] {
	opts := make([]huh.Option[string], len(options))
	for i, opt := range options {
		opts[i] = huh.NewOption(opt.Label, opt.Value)
	}
	return opts
}

func (p *HuhPrompter) Select(title string, options []Option) (string, error) {
	var result string

	field := huh.NewSelect[string]().
		Title(title).
		Options(toHuhOptions(options)...).
		Value(&result)

	err := huh.NewForm(huh.NewGroup(field)).WithTheme(p.theme).Run()
	return result, err
}

func (p *HuhPrompter) MultiSelect(title string, options []Option) ([]string, error) {
	var picked []string

	field := huh.NewMultiSelect[string]().
		Title(title).
		Options(toHuhOptions(options)...).
		Value(&picked)

	if err := huh.NewForm(huh.NewGroup(field)).WithTheme(p.theme).Run(); err != nil {
		return nil, err
	}

	// Report picks in option order.
	chosen := make(map[string]bool, len(picked))
	for _, v := range picked {
		chosen[v] = true
	}
	result := make([]string, 0, len(picked))
	for _, opt := range options {
		if chosen[opt.Value] {
			result = append(result, opt.Value)
		}
	}
	return result, nil
}

func (p *HuhPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	result := defaultValue

	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&result)

	err := huh.NewForm(huh.NewGroup(field)).WithTheme(p.theme).Run()
	return result, err
}
