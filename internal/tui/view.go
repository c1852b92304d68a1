package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/terminal"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
	"github.com/abdul-hamid-achik/ntricacid/internal/ui"
)

// Markdown renderers: Nord-compatible for the dark theme, glamour's light style otherwise
var (
	mdDark  *glamour.TermRenderer
	mdLight *glamour.TermRenderer
)

func init() {
	if r, err := glamour.NewTermRenderer(
		glamour.WithStyles(getNordGlamourStyle()),
		glamour.WithWordWrap(100),
	); err == nil {
		mdDark = r
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(100),
	); err == nil {
		mdLight = r
	}
}

// getNordGlamourStyle returns a glamour style matching the Nord theme
func getNordGlamourStyle() ansi.StyleConfig {
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#d8dee9"), // nord4 - primary text
			},
			Margin: uintPtr(0),
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#88c0d0"), // nord8 - accent
				Bold:  boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:  stringPtr("#88c0d0"),
				Bold:   boolPtr(true),
				Prefix: "",
			},
			Margin: uintPtr(1),
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:  stringPtr("#81a1c1"), // nord9
				Bold:   boolPtr(true),
				Prefix: "",
			},
		},
		H3: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:  stringPtr("#81a1c1"),
				Bold:   boolPtr(true),
				Prefix: "",
			},
		},
		H4: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#8fbcbb"), // nord7
				Bold:  boolPtr(true),
			},
		},
		H5: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#8fbcbb"),
			},
		},
		H6: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#4c566a"), // nord3
			},
		},
		Paragraph: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#d8dee9"),
			},
		},
		Text: ansi.StylePrimitive{
			Color: stringPtr("#d8dee9"),
		},
		Emph: ansi.StylePrimitive{
			Color:  stringPtr("#d8dee9"),
			Italic: boolPtr(true),
		},
		Strong: ansi.StylePrimitive{
			Color: stringPtr("#eceff4"), // nord6 - bright
			Bold:  boolPtr(true),
		},
		Strikethrough: ansi.StylePrimitive{
			Color: stringPtr("#4c566a"),
		},
		List: ansi.StyleList{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr("#d8dee9"),
				},
			},
			LevelIndent: 2,
		},
		Item: ansi.StylePrimitive{
			Color:       stringPtr("#d8dee9"),
			BlockPrefix: "  ", // Indent list items
		},
		Enumeration: ansi.StylePrimitive{
			Color:  stringPtr("#88c0d0"),
			Format: "%d. ", // Explicit format: number + period + space
		},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:           stringPtr("#a3be8c"), // nord14 - green for inline code
				BackgroundColor: stringPtr("#3b4252"), // nord1
			},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr("#d8dee9"),
				},
				Margin: uintPtr(1),
			},
			Chroma: &ansi.Chroma{
				Text: ansi.StylePrimitive{
					Color: stringPtr("#d8dee9"),
				},
				Keyword: ansi.StylePrimitive{
					Color: stringPtr("#81a1c1"),
				},
				Name: ansi.StylePrimitive{
					Color: stringPtr("#88c0d0"),
				},
				NameFunction: ansi.StylePrimitive{
					Color: stringPtr("#88c0d0"),
				},
				LiteralString: ansi.StylePrimitive{
					Color: stringPtr("#a3be8c"),
				},
				LiteralNumber: ansi.StylePrimitive{
					Color: stringPtr("#b48ead"),
				},
				Comment: ansi.StylePrimitive{
					Color: stringPtr("#4c566a"),
				},
				Operator: ansi.StylePrimitive{
					Color: stringPtr("#81a1c1"),
				},
			},
		},
		Link: ansi.StylePrimitive{
			Color:     stringPtr("#88c0d0"),
			Underline: boolPtr(true),
		},
		LinkText: ansi.StylePrimitive{
			Color: stringPtr("#8fbcbb"),
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr("#4c566a"),
			Format: "─────",
		},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr("#d8dee9"),
				},
			},
		},
		DefinitionList: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr("#d8dee9"),
			},
		},
		DefinitionTerm: ansi.StylePrimitive{
			Color: stringPtr("#88c0d0"),
			Bold:  boolPtr(true),
		},
		DefinitionDescription: ansi.StylePrimitive{
			Color: stringPtr("#d8dee9"),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:  stringPtr("#4c566a"),
				Italic: boolPtr(true),
			},
			Indent:      uintPtr(1),
			IndentToken: stringPtr("│ "),
		},
	}
}


// Helper functions for glamour style config
func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }
func uintPtr(u uint) *uint       { return &u }

// renderMarkdown renders markdown text for theme, falling back to plain text on error
func renderMarkdown(content, theme string) string {
	r := mdDark
	if theme == ThemeLight {
		r = mdLight
	}
	if r == nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	// Trim the blank lines glamour adds around the document
	return strings.Trim(rendered, "\n")
}

const sidebarWidth = 32

// contentWidth is the width left for the chat viewport
func (m Model) contentWidth() int {
	w := m.width
	if m.sidebarOpen {
		w -= sidebarWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

// View renders the entire TUI
func (m Model) View() string {
	if !m.ready {
		return "\n\n  Initializing link...\n\n"
	}

	if m.quitting {
		return "Link terminated.\n"
	}

	switch m.screen {
	case ScreenHelp:
		return renderHelpOverlay(m.width, m.height, m.st)
	case ScreenConfirmClear:
		return m.renderConfirmClear()
	case ScreenSettings:
		return m.renderSettings()
	case ScreenTerminal:
		return m.renderTerminal()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	body := m.viewport.View()
	dropdown := m.completion.Render(m.contentWidth(), m.st)
	if dropdown != "" {
		body = dropLastLines(body, lipgloss.Height(dropdown)) + "\n" + dropdown
	}
	if m.sidebarOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

// dropLastLines removes n lines from the end of s
func dropLastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if n >= len(lines) {
		return ""
	}
	return strings.Join(lines[:len(lines)-n], "\n")
}

// headerName is the name shown in the header: ROOT_CMD while root mode is on
func (m Model) headerName() string {
	if m.state.Root {
		return "ROOT_CMD"
	}
	return m.state.Settings.AIName
}

// renderHeader renders the header bar
func (m Model) renderHeader() string {
	title := m.st.headerTitle.Render(m.headerName())
	if m.state.Root {
		title = m.st.headerTitle.Render(iconRoot+" ") + title
	}

	var right []string
	if m.modelName != "" {
		right = append(right, m.modelName)
	}
	right = append(right, m.theme)
	rightPart := m.st.headerDim.Render(strings.Join(right, " · "))

	availWidth := m.width - lipgloss.Width(title) - lipgloss.Width(rightPart) - 2
	if availWidth < 1 {
		availWidth = 1
	}

	return m.st.header.Width(m.width).Render(title + strings.Repeat(" ", availWidth) + rightPart)
}

// renderFooter renders the status bar and the input line
func (m Model) renderFooter() string {
	var b strings.Builder
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	prompt := iconUser + " "
	if m.state.Root {
		prompt = iconRoot + " "
	}
	b.WriteString(m.st.footer.Width(m.width).Render(m.st.prompt.Render(prompt) + m.textInput.View()))
	return b.String()
}

// renderStatusBar renders activity, the last status message, or a hint
func (m Model) renderStatusBar() string {
	var content string
	switch {
	case m.working():
		content = m.st.spinner.Render(GetSpinnerFrame(m.spinnerFrame) + " Processing neural request...")
	case m.status != "" && m.statusErr:
		content = m.st.errorText.Render(iconError + " " + m.status)
	case m.status != "":
		content = m.st.success.Render(iconSuccess) + " " + m.status
	case m.lastErrorRetryable():
		content = m.st.hint.Render("ctrl+r to retry · F1 for help")
	default:
		content = m.st.hint.Render("F1 for help · /help for commands")
	}
	return m.st.statusBar.Width(m.width).Render(content)
}

// renderContent renders every message in the session
func (m Model) renderContent() string {
	var b strings.Builder
	msgs := m.state.Messages
	for i, msg := range msgs {
		b.WriteString(m.renderMessage(msg, i == len(msgs)-1))
		b.WriteString("\n\n")
	}
	if m.state.Loading {
		b.WriteString(m.st.spinner.Render(GetSpinnerFrame(m.spinnerFrame) + " Processing neural request..."))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders one chat message with its metadata line
func (m Model) renderMessage(msg chat.Message, last bool) string {
	var b strings.Builder
	stamp := m.st.meta.Render(" · " + msg.Timestamp.Local().Format("15:04"))
	width := m.contentWidth() - 2

	if msg.Role == chat.RoleUser {
		b.WriteString(m.st.userPrefix.Render(iconUser+" "+m.state.Settings.UserName) + stamp)
		b.WriteString("\n")
		b.WriteString(m.st.user.Width(width).Render(msg.Content))
		return b.String()
	}

	b.WriteString(m.st.headerTitle.Render(iconAssistant+" "+m.headerName()) + stamp)
	b.WriteString("\n")

	if msg.IsError() {
		b.WriteString(m.st.errorText.Width(width).Render(iconError + " " + msg.Content))
		if last && m.lastErrorRetryable() {
			b.WriteString("\n")
			b.WriteString(m.st.hint.Render("Press ctrl+r to retry."))
		}
		return b.String()
	}

	b.WriteString(renderMarkdown(msg.Content, m.theme))

	if msg.ImageURL != "" {
		b.WriteString("\n")
		b.WriteString(m.st.meta.Render(iconImage + " " + ui.DescribeImage(msg.ImageURL) + " (/export html to view)"))
	}

	if len(msg.GroundingLinks) > 0 {
		b.WriteString("\n")
		b.WriteString(m.st.meta.Render("Sources:"))
		for _, l := range msg.GroundingLinks {
			title := l.Title
			if title == "" {
				title = l.URI
			}
			b.WriteString("\n")
			b.WriteString(m.st.meta.Render("  "+iconLink+" "+truncate(title, 40)+" ") + m.st.link.Render(l.URI))
		}
	}
	return b.String()
}

// renderSidebar renders the learning tracks panel
func (m Model) renderSidebar() string {
	var lines []string
	lines = append(lines, m.st.panelTitle.Render("LEARNING TRACKS"))
	for i, t := range tracks.All() {
		label := fmt.Sprintf("%s %d. %s", t.Icon, i+1, t.Title)
		if i == m.trackCursor {
			lines = append(lines, m.st.selected.Render(truncate(label, sidebarWidth-4)))
		} else {
			lines = append(lines, m.st.item.Render(truncate(label, sidebarWidth-4)))
		}
		lines = append(lines, m.st.meta.Render("   "+truncate(t.Description, sidebarWidth-7)))
	}
	lines = append(lines, "", m.st.hint.Render("enter start · esc close"))

	return m.st.sidebar.
		Width(sidebarWidth - 2).
		Height(m.viewport.Height).
		Render(strings.Join(lines, "\n"))
}

// renderConfirmClear renders the purge confirmation dialog
func (m Model) renderConfirmClear() string {
	content := strings.Join([]string{
		m.st.errorText.Render("Purge Memory?"),
		"",
		m.st.item.Render("Permanently delete current session logs?"),
		"",
		m.st.hint.Render("[y] confirm   [n] cancel"),
	}, "\n")
	box := m.st.dialog.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderSettings renders the preferences screen
func (m Model) renderSettings() string {
	s := m.state.Settings
	var lines []string
	lines = append(lines, m.st.headerTitle.Render("Identity"))
	lines = append(lines, "  "+m.st.meta.Render(padRight("AI designation", 20))+m.st.item.Render(s.AIName))
	lines = append(lines, "  "+m.st.meta.Render(padRight("Operator", 20))+m.st.item.Render(s.UserName))
	lines = append(lines, "")

	lines = append(lines, m.st.headerTitle.Render("Modules"))
	for i, t := range toggles {
		box := "[ ]"
		if t.get(s) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, padRight(t.label, 20))
		if i == m.settingsPos {
			lines = append(lines, "  "+m.st.selected.Render(line))
		} else {
			lines = append(lines, "  "+m.st.item.Render(line))
		}
	}
	if s.LastSync != nil {
		lines = append(lines, "  "+m.st.meta.Render("Last sync "+s.LastSync.Local().Format(time.RFC822)))
	}
	lines = append(lines, "")

	lines = append(lines, m.st.headerTitle.Render("Display"))
	lines = append(lines, "  "+m.st.meta.Render(padRight("Theme", 20))+m.st.item.Render(m.theme))
	lines = append(lines, "")
	lines = append(lines, m.st.hint.Render("enter toggle · ctrl+d theme · esc back · /set aiName <name> to rename"))

	return m.st.header.Width(m.width).Render("Preferences") + "\n\n" +
		lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

// renderTerminal renders the terminal overlay
func (m Model) renderTerminal() string {
	header := m.st.header.Width(m.width).Render("RESEARCH TERMINAL" + m.st.headerDim.Render("  esc to close"))

	transcript := m.term.Transcript()
	avail := m.height - 3
	if avail < 1 {
		avail = 1
	}
	if len(transcript) > avail {
		transcript = transcript[len(transcript)-avail:]
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, l := range transcript {
		if strings.HasPrefix(l, "ERROR:") {
			b.WriteString(m.st.terminalErr.Render(l))
		} else {
			b.WriteString(m.st.terminal.Render(l))
		}
		b.WriteString("\n")
	}

	if m.termBusy {
		b.WriteString(m.st.spinner.Render(GetSpinnerFrame(m.spinnerFrame)))
	} else {
		b.WriteString(m.st.prompt.Render(terminal.Prompt) + m.termInput.View())
	}
	return b.String()
}
