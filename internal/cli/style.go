package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/amterp/crack/internal/model"
)

// Adaptive colors that work in both light and dark terminals.
var (
	ColorSuccess = lipgloss.AdaptiveColor{Dark: "#22c55e", Light: "#16a34a"}
	ColorError   = lipgloss.AdaptiveColor{Dark: "#ef4444", Light: "#dc2626"}
	ColorWarning = lipgloss.AdaptiveColor{Dark: "#f59e0b", Light: "#d97706"}
	ColorMuted   = lipgloss.AdaptiveColor{Dark: "#6b7280", Light: "#9ca3af"}
	ColorAccent  = lipgloss.AdaptiveColor{Dark: "#a78bfa", Light: "#7c3aed"} // IDs
	ColorMoney   = lipgloss.AdaptiveColor{Dark: "#34d399", Light: "#059669"}
	ColorFoil    = lipgloss.AdaptiveColor{Dark: "#67e8f9", Light: "#0891b2"}
	ColorURL     = lipgloss.AdaptiveColor{Dark: "#38bdf8", Light: "#0284c7"}
)

// Reusable text styles
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleID      = lipgloss.NewStyle().Foreground(ColorAccent)
	StyleMoney   = lipgloss.NewStyle().Foreground(ColorMoney)
	StyleFoil    = lipgloss.NewStyle().Foreground(ColorFoil).Italic(true)
	StyleURL     = lipgloss.NewStyle().Foreground(ColorURL)
	StyleBold    = lipgloss.NewStyle().Bold(true)
)

// Icons for status messages
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "→"
	IconFoil    = "✦"
)

// money formats amounts with grouping, e.g. 1,234.50.
var money = message.NewPrinter(language.English)

// PrintSuccess prints a success message with a green checkmark.
func PrintSuccess(format string, args ...any) {
	icon := StyleSuccess.Render(IconSuccess)
	fmt.Printf("%s %s\n", icon, fmt.Sprintf(format, args...))
}

// PrintError prints an error message with a red X to stderr.
func PrintError(format string, args ...any) {
	icon := StyleError.Render(IconError)
	fmt.Fprintf(os.Stderr, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message with an amber icon to stderr.
func PrintWarning(format string, args ...any) {
	icon := StyleWarning.Render(IconWarning)
	fmt.Fprintf(os.Stderr, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message with a muted arrow.
func PrintInfo(format string, args ...any) {
	icon := StyleMuted.Render(IconInfo)
	fmt.Printf("%s %s\n", icon, fmt.Sprintf(format, args...))
}

// FormatMoney renders an amount of virtual currency without styling.
func FormatMoney(amount float64) string {
	return money.Sprintf("$%.2f", amount)
}

// RenderMoney renders an amount of virtual currency.
func RenderMoney(amount float64) string {
	return StyleMoney.Render(FormatMoney(amount))
}

// RenderID renders an instance ID in accent color.
func RenderID(id string) string {
	return StyleID.Render(id)
}

// RenderURL renders a URL in the URL color.
func RenderURL(url string) string {
	return StyleURL.Render(url)
}

// RenderMuted renders text in muted color.
func RenderMuted(text string) string {
	return StyleMuted.Render(text)
}

// RenderBold renders text in bold.
func RenderBold(text string) string {
	return StyleBold.Render(text)
}

// RenderRarity renders text in the rarity's color.
func RenderRarity(text string, r model.Rarity) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(model.RarityColor(r))).Render(text)
}

// RenderCardName renders a card name colored by rarity, marking foils.
func RenderCardName(c *model.Card) string {
	name := RenderRarity(c.Name, c.Rarity)
	if c.Foil {
		name += " " + StyleFoil.Render(IconFoil+" foil")
	}
	return name
}

// RarityTag renders a short fixed-width rarity label such as "[R]".
func RarityTag(r model.Rarity) string {
	s := string(r)
	if s == "" {
		s = "?"
	}
	return RenderRarity("["+strings.ToUpper(s[:1])+"]", r)
}

// Box renders content in a bordered box.
func Box(content string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)
	return style.Render(content)
}

// TitleBox renders a title in a prominent bordered box.
func TitleBox(title string) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 2).
		Bold(true)
	return style.Render(title)
}

// LabelValue formats a label-value pair with right-aligned label.
func LabelValue(label, value string, labelWidth int) string {
	labelStyle := lipgloss.NewStyle().
		Width(labelWidth).
		Align(lipgloss.Right).
		Foreground(ColorMuted)
	return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), value)
}
