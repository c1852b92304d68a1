package tui

import (
	"strings"
)

// TriggerChar identifies what activates a completion provider
type TriggerChar rune

const TriggerSlash TriggerChar = '/'

// CompletionKind classifies a completion item
type CompletionKind int

const (
	KindCommand  CompletionKind = iota // Slash command (/help, /track)
	KindArgument                       // Command argument (dark, light, md)
)

// CompletionItem is a single item in the completion dropdown
type CompletionItem struct {
	Label      string         // Primary display text
	Detail     string         // Secondary text (description)
	Kind       CompletionKind // Classification
	InsertText string         // Text to insert on accept
}

// CompletionProvider generates completion items for a trigger character
type CompletionProvider interface {
	Trigger() TriggerChar
	Complete(query string) []CompletionItem
}

// CompletionEngine orchestrates providers and manages completion state.
// Pointer-based to survive Bubbletea model copies.
type CompletionEngine struct {
	providers map[TriggerChar]CompletionProvider

	active       bool
	items        []CompletionItem
	selected     int
	scrollOffset int
	maxVisible   int
}

// NewCompletionEngine creates a new engine with the given providers
func NewCompletionEngine(providers ...CompletionProvider) *CompletionEngine {
	e := &CompletionEngine{
		providers:  make(map[TriggerChar]CompletionProvider),
		maxVisible: 8,
	}
	for _, p := range providers {
		e.providers[p.Trigger()] = p
	}
	return e
}

// Update processes new input text and dispatches to the matching provider
func (e *CompletionEngine) Update(input string) {
	if strings.HasPrefix(input, "/") {
		if p, ok := e.providers[TriggerSlash]; ok {
			e.items = p.Complete(input[1:])
			e.active = len(e.items) > 0
			if e.selected >= len(e.items) {
				e.selected = 0
				e.scrollOffset = 0
			}
			return
		}
	}
	e.Dismiss()
}

// IsActive returns whether the dropdown should be shown
func (e *CompletionEngine) IsActive() bool {
	return e.active
}

// Items returns the current candidates
func (e *CompletionEngine) Items() []CompletionItem {
	return e.items
}

// MoveUp moves the selection up, wrapping around
func (e *CompletionEngine) MoveUp() {
	if !e.active || len(e.items) == 0 {
		return
	}
	e.selected--
	if e.selected < 0 {
		e.selected = len(e.items) - 1
		if len(e.items) > e.maxVisible {
			e.scrollOffset = len(e.items) - e.maxVisible
		}
	}
	if e.selected < e.scrollOffset {
		e.scrollOffset = e.selected
	}
}

// MoveDown moves the selection down, wrapping around
func (e *CompletionEngine) MoveDown() {
	if !e.active || len(e.items) == 0 {
		return
	}
	e.selected++
	if e.selected >= len(e.items) {
		e.selected = 0
		e.scrollOffset = 0
	}
	if e.selected >= e.scrollOffset+e.maxVisible {
		e.scrollOffset = e.selected - e.maxVisible + 1
	}
}

// Accept returns the selected item and dismisses the dropdown
func (e *CompletionEngine) Accept() CompletionItem {
	if !e.active || len(e.items) == 0 {
		return CompletionItem{}
	}
	item := e.items[e.selected]
	e.Dismiss()
	return item
}

// Dismiss hides the dropdown and resets state
func (e *CompletionEngine) Dismiss() {
	e.active = false
	e.items = nil
	e.selected = 0
	e.scrollOffset = 0
}

// VisibleCount returns how many items are visible in the dropdown
func (e *CompletionEngine) VisibleCount() int {
	if len(e.items) < e.maxVisible {
		return len(e.items)
	}
	return e.maxVisible
}

// Render renders the dropdown popup. Returns empty string if not active.
func (e *CompletionEngine) Render(width int, st styles) string {
	if !e.active || len(e.items) == 0 {
		return ""
	}

	var lines []string
	visible := e.VisibleCount()
	for i := e.scrollOffset; i < e.scrollOffset+visible && i < len(e.items); i++ {
		item := e.items[i]

		name := item.Label
		nameWidth := 26
		if len(name) < nameWidth {
			name += strings.Repeat(" ", nameWidth-len(name))
		}

		maxLineWidth := width - 4
		if maxLineWidth < 20 {
			maxLineWidth = 20
		}
		line := truncate(name+" "+item.Detail, maxLineWidth)

		if i == e.selected {
			lines = append(lines, st.completerSelected.Render(line))
		} else {
			lines = append(lines, st.completerItem.Render(line))
		}
	}

	if e.scrollOffset > 0 {
		lines = append([]string{st.completerScroll.Render("  ▲ more")}, lines...)
	}
	if e.scrollOffset+visible < len(e.items) {
		lines = append(lines, st.completerScroll.Render("  ▼ more"))
	}

	return st.completerBox.Width(width).Render(strings.Join(lines, "\n"))
}
