package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdul-hamid-achik/ntricacid/internal/export"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/terminal"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Header: 1 line, Footer: 2 lines (status bar + input line)
		viewportHeight := m.height - 1 - 2 - 1
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.contentWidth(), viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.contentWidth()
			m.viewport.Height = viewportHeight
		}
		m.textInput.Width = m.width - 4
		m.termInput.Width = m.width - len(terminal.Prompt) - 2

		m.updateViewportContent()
		m.scrollToBottom()
		return m, nil

	case StateMsg:
		m.applyState(msg.State)
		spin := m.spin()
		return m, spin

	case SubmitDoneMsg:
		m.busy = false
		m.applyState(msg.State)
		return m, nil

	case TerminalDoneMsg:
		m.termBusy = false
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		m.statusErr = msg.IsError
		return m, nil

	case TickMsg:
		if m.working() {
			m.spinnerFrame++
			return m, tickCmd()
		}
		m.spinnerActive = false
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// working reports whether anything is waiting on the gateway
func (m Model) working() bool {
	return m.busy || m.termBusy || m.state.Loading
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if msg.Type == tea.KeyF1 {
		if m.screen == ScreenHelp {
			m.screen = m.helpReturn
		} else {
			m.helpReturn = m.screen
			m.screen = ScreenHelp
		}
		return m, nil
	}

	switch m.screen {
	case ScreenHelp:
		if msg.Type == tea.KeyEsc {
			m.screen = m.helpReturn
		}
		return m, nil
	case ScreenConfirmClear:
		return m.handleConfirmKey(msg)
	case ScreenSettings:
		return m.handleSettingsKey(msg)
	case ScreenTerminal:
		return m.handleTerminalKey(msg)
	}

	if m.sidebarOpen {
		if handled, next, cmd := m.handleSidebarKey(msg); handled {
			return next, cmd
		}
	}

	if m.completion.IsActive() {
		switch msg.Type {
		case tea.KeyUp:
			m.completion.MoveUp()
			return m, nil
		case tea.KeyDown:
			m.completion.MoveDown()
			return m, nil
		case tea.KeyTab:
			item := m.completion.Accept()
			m.textInput.SetValue(item.InsertText)
			m.textInput.CursorEnd()
			m.completion.Update(item.InsertText)
			return m, nil
		case tea.KeyEsc:
			m.completion.Dismiss()
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		input := strings.TrimSpace(m.textInput.Value())
		if input == "" {
			return m, nil
		}
		m.textInput.Reset()
		m.completion.Dismiss()
		if strings.HasPrefix(input, "/") {
			if next, cmd, ok := m.runSlashCommand(input); ok {
				return next, cmd
			}
		}
		return m.submit(input)

	case tea.KeyCtrlR:
		return m.retry()

	case tea.KeyCtrlL:
		m.screen = ScreenConfirmClear
		return m, nil

	case tea.KeyCtrlT:
		return m.openTerminal()

	case tea.KeyCtrlB:
		m.sidebarOpen = !m.sidebarOpen
		m.resizeViewport()
		return m, nil

	case tea.KeyCtrlS:
		m.screen = ScreenSettings
		return m, nil

	case tea.KeyCtrlD:
		m.toggleTheme()
		return m, nil

	case tea.KeyCtrlP:
		return m, m.speakCmd()

	case tea.KeyCtrlY:
		return m, copyCmd(lastReply(m.state.Messages), "reply")

	case tea.KeyCtrlK:
		return m, copyCmd(lastCodeBlock(m.state.Messages), "code block")

	case tea.KeyEsc:
		m.status = ""
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown, tea.KeyHome, tea.KeyEnd:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.completion.Update(m.textInput.Value())
	return m, cmd
}

// handleSidebarKey handles the track list while it is open. Keys it does not
// use fall through to the chat input.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	n := len(tracks.All())
	switch msg.Type {
	case tea.KeyUp:
		m.trackCursor = (m.trackCursor + n - 1) % n
		return true, m, nil
	case tea.KeyDown:
		m.trackCursor = (m.trackCursor + 1) % n
		return true, m, nil
	case tea.KeyEsc:
		m.sidebarOpen = false
		m.resizeViewport()
		return true, m, nil
	case tea.KeyEnter:
		if strings.TrimSpace(m.textInput.Value()) != "" {
			return false, m, nil
		}
		t := m.selectedTrack()
		m.sidebarOpen = false
		m.resizeViewport()
		next, cmd := m.submit(t.Prompt)
		return true, next, cmd
	}
	return false, m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.screen = ScreenChat
		return m, m.clearCmd()
	case "n", "N", "esc":
		m.screen = ScreenChat
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.settingsPos > 0 {
			m.settingsPos--
		}
	case "down", "j":
		if m.settingsPos < len(toggles)-1 {
			m.settingsPos++
		}
	case "enter", " ":
		t := toggles[m.settingsPos]
		value := !t.get(m.state.Settings)
		return m, m.settingCmd(t.name, fmt.Sprint(value))
	case "esc", "ctrl+s":
		m.screen = ScreenChat
	case "ctrl+d":
		m.toggleTheme()
	}
	return m, nil
}

func (m Model) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlT:
		m.screen = ScreenChat
		m.termInput.Blur()
		m.textInput.Focus()
		return m, nil
	case tea.KeyEnter:
		if m.termBusy {
			return m, nil
		}
		line := m.termInput.Value()
		m.termInput.Reset()
		res, query, ok := m.term.Prepare(line)
		if res.Closed {
			m.screen = ScreenChat
			m.termInput.Blur()
			m.textInput.Focus()
			return m, nil
		}
		if !ok {
			return m, nil
		}
		m.termBusy = true
		spin := m.spin()
		return m, tea.Batch(m.terminalCmd(query), spin)
	}

	var cmd tea.Cmd
	m.termInput, cmd = m.termInput.Update(msg)
	return m, cmd
}

func (m Model) openTerminal() (tea.Model, tea.Cmd) {
	m.term.Reopen()
	m.screen = ScreenTerminal
	m.textInput.Blur()
	m.termInput.Focus()
	return m, textinput.Blink
}

func (m *Model) toggleTheme() {
	if m.theme == ThemeDark {
		m.setTheme(ThemeLight)
	} else {
		m.setTheme(ThemeDark)
	}
}

func (m *Model) resizeViewport() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.contentWidth()
	m.updateViewportContent()
}

// submit hands a prompt to the session. The controller rejects it while a
// request is in flight, so nothing is queued here.
func (m Model) submit(prompt string) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	if m.working() {
		m.status = "Busy: wait for the current request."
		m.statusErr = true
		return m, nil
	}
	m.busy = true
	m.status = ""
	m.statusErr = false
	spin := m.spin()
	return m, tea.Batch(m.submitCmd(prompt), spin)
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	if m.session == nil || m.working() || !m.lastErrorRetryable() {
		return m, nil
	}
	m.busy = true
	spin := m.spin()
	return m, tea.Batch(m.retryCmd(), spin)
}

// runSlashCommand executes a local command. ok is false when input is not a
// known command and should go to the session as a prompt (e.g. /image).
func (m Model) runSlashCommand(input string) (tea.Model, tea.Cmd, bool) {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/help":
		m.helpReturn = ScreenChat
		m.screen = ScreenHelp
		return m, nil, true
	case "/exit", "/quit":
		m.quitting = true
		return m, tea.Quit, true
	case "/retry":
		next, cmd := m.retry()
		return next, cmd, true
	case "/clear":
		m.screen = ScreenConfirmClear
		return m, nil, true
	case "/terminal":
		next, cmd := m.openTerminal()
		return next, cmd, true
	case "/settings":
		m.screen = ScreenSettings
		return m, nil, true
	case "/tracks":
		m.sidebarOpen = true
		m.resizeViewport()
		return m, nil, true
	case "/track":
		if len(args) == 0 {
			return m, status(StatusMsg{Text: "usage: /track <id|number>", IsError: true}), true
		}
		t, err := tracks.Lookup(args[0])
		if err != nil {
			return m, status(statusErr(err)), true
		}
		next, cmd := m.submit(t.Prompt)
		return next, cmd, true
	case "/theme":
		if len(args) > 0 && (args[0] == ThemeDark || args[0] == ThemeLight) {
			m.setTheme(args[0])
		} else {
			m.toggleTheme()
		}
		return m, nil, true
	case "/speak":
		return m, m.speakCmd(), true
	case "/copy":
		return m, copyCmd(m.conversationText(), "conversation"), true
	case "/set":
		if len(args) < 2 {
			return m, status(StatusMsg{Text: "usage: /set <setting> <value>", IsError: true}), true
		}
		return m, m.settingCmd(args[0], strings.Join(args[1:], " ")), true
	case "/export":
		format := string(export.FormatMarkdown)
		if len(args) > 0 {
			format = args[0]
		}
		return m, m.exportCmd(format), true
	}
	return m, nil, false
}

// Commands

func (m Model) submitCmd(prompt string) tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		out := s.Submit(ctx, prompt)
		return SubmitDoneMsg{Outcome: out, State: s.Snapshot()}
	}
}

func (m Model) retryCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		out := s.RetryLast(ctx)
		return SubmitDoneMsg{Outcome: out, State: s.Snapshot()}
	}
}

func (m Model) clearCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.Clear(ctx)
		return StateMsg{State: s.Snapshot()}
	}
}

func (m Model) terminalCmd(query string) tea.Cmd {
	ctx, term := m.ctx, m.term
	return func() tea.Msg {
		return TerminalDoneMsg{Lines: term.Complete(ctx, query)}
	}
}

func (m Model) speakCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		if err := s.SpeakLast(ctx); err != nil {
			return statusErr(err)
		}
		return statusOK("Playback finished.")
	}
}

func (m Model) settingCmd(name, value string) tea.Cmd {
	ctx, s := m.ctx, m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		err := s.UpdateSettings(ctx, func(u *settings.UserSettings) error {
			return u.Set(name, value)
		})
		if err != nil {
			return statusErr(err)
		}
		return StateMsg{State: s.Snapshot()}
	}
}

func (m Model) exportCmd(format string) tea.Cmd {
	st, dir := m.state, m.exportDir
	return func() tea.Msg {
		f, err := export.ParseFormat(format)
		if err != nil {
			return statusErr(err)
		}
		path := filepath.Join(dir, export.FileName(f, time.Now()))
		file, err := os.Create(path)
		if err != nil {
			return statusErr(err)
		}
		defer file.Close()
		if err := export.Write(file, f, st.Messages, st.Settings); err != nil {
			return statusErr(err)
		}
		return statusOK("Exported to " + path)
	}
}

func copyCmd(text, what string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return StatusMsg{Text: "Nothing to copy.", IsError: true}
		}
		if err := copyToClipboard(text); err != nil {
			return statusErr(err)
		}
		return statusOK("Copied " + what + " to clipboard.")
	}
}

func status(s StatusMsg) tea.Cmd {
	return func() tea.Msg { return s }
}

// tickCmd returns a command that sends a tick after a delay
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// spin starts the spinner if not already active
func (m *Model) spin() tea.Cmd {
	if m.spinnerActive || !m.working() {
		return nil
	}
	m.spinnerActive = true
	return tickCmd()
}
