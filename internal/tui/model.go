package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/conversation"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/terminal"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
)

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Session is the conversation the TUI drives.
type Session interface {
	Snapshot() conversation.State
	Submit(ctx context.Context, prompt string) conversation.Outcome
	RetryLast(ctx context.Context) conversation.Outcome
	Clear(ctx context.Context)
	Send(ctx context.Context, prompt string) (string, error)
	UpdateSettings(ctx context.Context, fn func(*settings.UserSettings) error) error
	SpeakLast(ctx context.Context) error
}

// Screen is what currently owns the keyboard
type Screen int

const (
	ScreenChat Screen = iota
	ScreenSettings
	ScreenTerminal
	ScreenConfirmClear
	ScreenHelp
)

// toggles are the settings the settings screen can flip, in display order
var toggles = []struct {
	name  string
	label string
	get   func(settings.UserSettings) bool
}{
	{"voiceEnabled", "Voice synthesis", func(s settings.UserSettings) bool { return s.VoiceEnabled }},
	{"autoPlayVoice", "Auto-play replies", func(s settings.UserSettings) bool { return s.AutoPlayVoice }},
	{"persistenceEnabled", "Persist history", func(s settings.UserSettings) bool { return s.PersistenceEnabled }},
	{"cloudSyncEnabled", "Cloud sync", func(s settings.UserSettings) bool { return s.CloudSyncEnabled }},
}

// Options configures a Model
type Options struct {
	Session   Session
	Logger    *logging.Logger
	ModelName string
	Theme     string
	// ExportDir receives /export files. Empty means the working directory.
	ExportDir string
}

// Model is the main Bubble Tea model for the TUI
type Model struct {
	// Dimensions
	width  int
	height int
	ready  bool

	// Navigation
	screen      Screen
	helpReturn  Screen
	sidebarOpen bool
	trackCursor int
	settingsPos int

	// Appearance
	theme string
	st    styles

	// Content
	state     conversation.State
	modelName string
	busy      bool
	status    string
	statusErr bool

	// Components
	viewport   viewport.Model
	textInput  textinput.Model
	termInput  textinput.Model
	term       *terminal.Emulator
	termBusy   bool
	completion *CompletionEngine // Pointer survives model copies

	// Spinner state
	spinnerActive bool
	spinnerFrame  int

	ctx       context.Context
	session   Session
	log       *logging.Logger
	exportDir string

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	theme := opts.Theme
	if theme != ThemeLight {
		theme = ThemeDark
	}

	ti := textinput.New()
	ti.Placeholder = "Query security lab..."
	ti.Prompt = "" // We render our own prompt in the footer
	ti.Focus()
	ti.CharLimit = 0
	ti.Width = 50

	tin := textinput.New()
	tin.Prompt = ""
	tin.CharLimit = 0
	tin.Width = 50

	var sender terminal.Sender
	if opts.Session != nil {
		sender = opts.Session
	}

	m := Model{
		theme:      theme,
		modelName:  opts.ModelName,
		textInput:  ti,
		termInput:  tin,
		term:       terminal.New(sender, log),
		completion: NewCompletionEngine(NewSlashCommandProvider()),
		ctx:        ctx,
		session:    opts.Session,
		log:        log.WithPrefix("tui"),
		exportDir:  opts.ExportDir,
	}
	if opts.Session != nil {
		m.state = opts.Session.Snapshot()
	}
	m.st = newStyles(m.theme, m.state.Root)
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Screen returns the active screen
func (m Model) Screen() Screen {
	return m.screen
}

// Theme returns the active theme
func (m Model) Theme() string {
	return m.theme
}

// State returns the last state received from the session
func (m Model) State() conversation.State {
	return m.state
}

// IsQuitting returns true if the model is quitting
func (m Model) IsQuitting() bool {
	return m.quitting
}

// applyState replaces the rendered state and restyles when root mode flips
func (m *Model) applyState(s conversation.State) {
	rootChanged := s.Root != m.state.Root
	m.state = s
	if rootChanged {
		m.st = newStyles(m.theme, s.Root)
	}
	m.updateViewportContent()
	m.scrollToBottom()
}

func (m *Model) setTheme(theme string) {
	m.theme = theme
	m.st = newStyles(theme, m.state.Root)
	m.updateViewportContent()
}

// updateViewportContent updates the viewport with current content
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

// scrollToBottom scrolls the viewport to the bottom
func (m *Model) scrollToBottom() {
	m.viewport.GotoBottom()
}

// selectedTrack returns the track under the sidebar cursor
func (m Model) selectedTrack() tracks.Track {
	all := tracks.All()
	return all[m.trackCursor%len(all)]
}

// lastErrorRetryable reports whether the last message is an error Retry can act on
func (m Model) lastErrorRetryable() bool {
	h := m.state.Messages
	n := len(h)
	return n >= 2 && h[n-1].IsError() && h[n-2].Role == chat.RoleUser
}

// conversationText returns the conversation as plain text for copying
func (m Model) conversationText() string {
	var b strings.Builder
	for _, msg := range m.state.Messages {
		who := m.state.Settings.AIName
		if msg.Role == chat.RoleUser {
			who = m.state.Settings.UserName
		}
		b.WriteString(who)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
