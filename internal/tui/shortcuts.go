package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Shortcut defines a keyboard shortcut for the help overlay
type Shortcut struct {
	Key         string
	Description string
	Category    string
}

// shortcutRegistry holds all registered shortcuts grouped by category
var shortcutRegistry = []Shortcut{
	// Navigation
	{"Up/Down", "Scroll chat / pick track", "Navigation"},
	{"PgUp/PgDn", "Page up/down", "Navigation"},
	{"ESC", "Back / dismiss", "Navigation"},

	// Input
	{"Enter", "Submit query", "Input"},
	{"Tab", "Accept autocomplete", "Input"},

	// Session
	{"Ctrl+R", "Retry last failed request", "Session"},
	{"Ctrl+L", "Purge memory", "Session"},
	{"Ctrl+P", "Play last reply", "Session"},
	{"Ctrl+Y", "Copy last reply", "Session"},
	{"Ctrl+K", "Copy last code block", "Session"},

	// Panels
	{"Ctrl+T", "Research terminal", "Panels"},
	{"Ctrl+B", "Learning tracks", "Panels"},
	{"Ctrl+S", "Preferences", "Panels"},
	{"Ctrl+D", "Toggle dark/light", "Panels"},

	// General
	{"F1", "Toggle this help", "General"},
	{"Ctrl+C", "Quit", "General"},
}

// renderHelpOverlay renders a centered help overlay with all shortcuts and commands
func renderHelpOverlay(width, height int, st styles) string {
	categories := make(map[string][]Shortcut)
	var categoryOrder []string
	for _, s := range shortcutRegistry {
		if _, exists := categories[s.Category]; !exists {
			categoryOrder = append(categoryOrder, s.Category)
		}
		categories[s.Category] = append(categories[s.Category], s)
	}

	var lines []string
	lines = append(lines, st.panelTitle.Render("Keyboard Shortcuts"))

	for _, cat := range categoryOrder {
		lines = append(lines, st.headerTitle.Render(cat))
		for _, s := range categories[cat] {
			key := st.user.Render(padRight(s.Key, 12))
			lines = append(lines, "  "+key+st.item.Render(s.Description))
		}
		lines = append(lines, "")
	}

	lines = append(lines, st.headerTitle.Render("Commands"))
	for _, c := range BuiltinCommands {
		lines = append(lines, "  "+st.user.Render(padRight(c.Name, 12))+st.item.Render(c.Description))
	}
	lines = append(lines, "")
	lines = append(lines, st.hint.Render("Press F1 or ESC to close"))

	overlayWidth := 52
	if width < overlayWidth+4 {
		overlayWidth = width - 4
	}

	box := st.dialog.Width(overlayWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// padRight pads a string to a minimum width
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
