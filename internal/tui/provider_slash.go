package tui

import (
	"strings"

	"github.com/abdul-hamid-achik/ntricacid/internal/export"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/tracks"
)

// CommandDef describes a slash command for the dropdown and help overlay
type CommandDef struct {
	Name        string
	Description string
	HasArgs     bool
	ArgHint     string
}

// BuiltinCommands are the slash commands the chat input understands.
// /image has no local handler; it reaches the AI as a prompt.
var BuiltinCommands = []CommandDef{
	{Name: "/help", Description: "Show keyboard shortcuts"},
	{Name: "/retry", Description: "Retry the last failed request"},
	{Name: "/clear", Description: "Purge session memory"},
	{Name: "/terminal", Description: "Open the research terminal"},
	{Name: "/settings", Description: "Open preferences"},
	{Name: "/tracks", Description: "Show learning tracks"},
	{Name: "/track", Description: "Start a learning track", HasArgs: true, ArgHint: "<id|number>"},
	{Name: "/theme", Description: "Toggle dark/light theme", HasArgs: true, ArgHint: "[dark|light]"},
	{Name: "/speak", Description: "Play the last reply aloud"},
	{Name: "/copy", Description: "Copy the conversation"},
	{Name: "/set", Description: "Change a setting", HasArgs: true, ArgHint: "<name> <value>"},
	{Name: "/export", Description: "Export history to a file", HasArgs: true, ArgHint: "[md|html|json]"},
	{Name: "/image", Description: "Generate an image", HasArgs: true, ArgHint: "<prompt>"},
	{Name: "/exit", Description: "Exit NtricAcid"},
}

// SlashCommandProvider provides completion for slash commands and their arguments
type SlashCommandProvider struct {
	commands []CommandDef
	argDefs  map[string][]string // Command name → valid arguments
}

// NewSlashCommandProvider creates a provider with builtin commands
func NewSlashCommandProvider() *SlashCommandProvider {
	trackIDs := make([]string, 0, len(tracks.All()))
	for _, t := range tracks.All() {
		trackIDs = append(trackIDs, t.ID)
	}
	var names []string
	for _, p := range settings.Defaults().Fields() {
		names = append(names, p.Name)
	}
	return &SlashCommandProvider{
		commands: BuiltinCommands,
		argDefs: map[string][]string{
			"/track":  trackIDs,
			"/theme":  {ThemeDark, ThemeLight},
			"/export": {string(export.FormatMarkdown), string(export.FormatHTML), string(export.FormatJSON)},
			"/set":    names,
		},
	}
}

// Trigger returns TriggerSlash
func (p *SlashCommandProvider) Trigger() TriggerChar {
	return TriggerSlash
}

// Complete returns matching commands or arguments.
// query is everything after "/" (e.g., "tr" for "/tr", "theme li" for "/theme li")
func (p *SlashCommandProvider) Complete(query string) []CompletionItem {
	if spaceIdx := strings.Index(query, " "); spaceIdx >= 0 {
		cmdName := "/" + strings.ToLower(query[:spaceIdx])
		argPrefix := strings.ToLower(strings.TrimSpace(query[spaceIdx+1:]))
		if strings.Contains(argPrefix, " ") {
			return nil
		}
		return p.completeArgs(cmdName, argPrefix)
	}

	return p.completeCommands(query)
}

// completeCommands filters commands by prefix
func (p *SlashCommandProvider) completeCommands(prefix string) []CompletionItem {
	lowerPrefix := strings.ToLower(prefix)
	var items []CompletionItem

	for _, cmd := range p.commands {
		cmdWithout := strings.TrimPrefix(cmd.Name, "/")
		if !strings.HasPrefix(cmdWithout, lowerPrefix) {
			continue
		}

		label := cmd.Name
		if cmd.HasArgs && cmd.ArgHint != "" {
			label += " " + cmd.ArgHint
		}

		insertText := cmd.Name
		if cmd.HasArgs {
			insertText += " "
		}

		items = append(items, CompletionItem{
			Label:      label,
			Detail:     cmd.Description,
			Kind:       KindCommand,
			InsertText: insertText,
		})
	}

	return items
}

// completeArgs returns argument completions for a known command
func (p *SlashCommandProvider) completeArgs(cmdName, argPrefix string) []CompletionItem {
	args, ok := p.argDefs[cmdName]
	if !ok {
		return nil
	}

	var items []CompletionItem
	for _, arg := range args {
		if argPrefix != "" && !strings.HasPrefix(strings.ToLower(arg), argPrefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      arg,
			Detail:     cmdName + " " + arg,
			Kind:       KindArgument,
			InsertText: cmdName + " " + arg,
		})
	}

	return items
}
