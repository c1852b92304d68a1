package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette is the set of colors for one theme
type palette struct {
	accent    lipgloss.Color
	text      lipgloss.Color
	bright    lipgloss.Color
	dim       lipgloss.Color
	error     lipgloss.Color
	warning   lipgloss.Color
	barFg     lipgloss.Color
	barBg     lipgloss.Color
	selection lipgloss.Color
}

var (
	darkPalette = palette{
		accent:    lipgloss.Color("#22c55e"),
		text:      lipgloss.Color("#d4d4d4"),
		bright:    lipgloss.Color("#fafafa"),
		dim:       lipgloss.Color("#737373"),
		error:     lipgloss.Color("#ef4444"),
		warning:   lipgloss.Color("#f59e0b"),
		barFg:     lipgloss.Color("#e5e5e5"),
		barBg:     lipgloss.Color("#171717"),
		selection: lipgloss.Color("#14532d"),
	}

	lightPalette = palette{
		accent:    lipgloss.Color("#15803d"),
		text:      lipgloss.Color("#262626"),
		bright:    lipgloss.Color("#0a0a0a"),
		dim:       lipgloss.Color("#737373"),
		error:     lipgloss.Color("#b91c1c"),
		warning:   lipgloss.Color("#b45309"),
		barFg:     lipgloss.Color("#171717"),
		barBg:     lipgloss.Color("#e5e5e5"),
		selection: lipgloss.Color("#bbf7d0"),
	}

	// Root mode swaps the green accent for red in either theme.
	rootAccentDark  = lipgloss.Color("#dc2626")
	rootAccentLight = lipgloss.Color("#991b1b")
	rootSelDark     = lipgloss.Color("#450a0a")
	rootSelLight    = lipgloss.Color("#fecaca")
)

func paletteFor(theme string, root bool) palette {
	p := darkPalette
	if theme == ThemeLight {
		p = lightPalette
	}
	if root {
		if theme == ThemeLight {
			p.accent, p.selection = rootAccentLight, rootSelLight
		} else {
			p.accent, p.selection = rootAccentDark, rootSelDark
		}
	}
	return p
}

// styles are rebuilt whenever the theme or root mode changes
type styles struct {
	header      lipgloss.Style
	headerTitle lipgloss.Style
	headerDim   lipgloss.Style
	footer      lipgloss.Style
	statusBar   lipgloss.Style
	prompt      lipgloss.Style
	spinner     lipgloss.Style

	userPrefix lipgloss.Style
	user       lipgloss.Style
	assistant  lipgloss.Style
	meta       lipgloss.Style
	link       lipgloss.Style
	errorText  lipgloss.Style
	warning    lipgloss.Style
	success    lipgloss.Style
	hint       lipgloss.Style

	sidebar     lipgloss.Style
	panelTitle  lipgloss.Style
	selected    lipgloss.Style
	item        lipgloss.Style
	dialog      lipgloss.Style
	terminal    lipgloss.Style
	terminalErr lipgloss.Style

	completerBox      lipgloss.Style
	completerItem     lipgloss.Style
	completerSelected lipgloss.Style
	completerScroll   lipgloss.Style
}

func newStyles(theme string, root bool) styles {
	p := paletteFor(theme, root)
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.barFg).
			Background(p.barBg).
			Padding(0, 1),
		headerTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		headerDim: lipgloss.NewStyle().
			Foreground(p.dim),
		footer: lipgloss.NewStyle().
			Foreground(p.barFg).
			Background(p.barBg).
			Padding(0, 1),
		statusBar: lipgloss.NewStyle().
			Foreground(p.dim).
			Padding(0, 1),
		prompt: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		spinner: lipgloss.NewStyle().
			Foreground(p.accent),

		userPrefix: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		user: lipgloss.NewStyle().
			Foreground(p.bright).
			Bold(true),
		assistant: lipgloss.NewStyle().
			Foreground(p.text),
		meta: lipgloss.NewStyle().
			Foreground(p.dim),
		link: lipgloss.NewStyle().
			Foreground(p.accent).
			Underline(true),
		errorText: lipgloss.NewStyle().
			Foreground(p.error).
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		success: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(p.dim).
			Italic(true),

		sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(p.dim).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true).
			MarginBottom(1),
		selected: lipgloss.NewStyle().
			Foreground(p.bright).
			Background(p.selection).
			Bold(true),
		item: lipgloss.NewStyle().
			Foreground(p.text),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(1, 2),
		terminal: lipgloss.NewStyle().
			Foreground(p.text),
		terminalErr: lipgloss.NewStyle().
			Foreground(p.error),

		completerBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(p.dim),
		completerItem: lipgloss.NewStyle().
			Foreground(p.text),
		completerSelected: lipgloss.NewStyle().
			Foreground(p.bright).
			Background(p.selection),
		completerScroll: lipgloss.NewStyle().
			Foreground(p.dim),
	}
}

// Icons
const (
	iconUser      = ">"
	iconAssistant = "◆"
	iconError     = "✗"
	iconSuccess   = "✓"
	iconWarning   = "⚠"
	iconLink      = "↳"
	iconImage     = "▨"
	iconRoot      = "#"
)

// Spinner frames (braille pattern)
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// GetSpinnerFrame returns the current spinner frame
func GetSpinnerFrame(frame int) string {
	return spinnerFrames[frame%len(spinnerFrames)]
}

// truncate shortens s to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
