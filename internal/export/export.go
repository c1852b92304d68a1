// Package export renders the chat history as Markdown, HTML or JSON.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat accepts md, markdown, html or json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown", "":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want md, html or json)", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FileName is the default export file name for a snapshot taken at t.
func FileName(f Format, t time.Time) string {
	return "ntricacid-history-" + t.Format("20060102-150405") + f.Ext()
}

// Write renders h in format f to w.
func Write(w io.Writer, f Format, h chat.History, s settings.UserSettings) error {
	switch f {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(h, s))
		return err
	case FormatHTML:
		return HTML(w, h, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// Markdown renders h as a Markdown transcript.
func Markdown(h chat.History, s settings.UserSettings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s session log\n\n", s.AIName)

	for _, m := range h {
		who := s.UserName
		if m.Role == chat.RoleAssistant {
			who = s.AIName
		}
		fmt.Fprintf(&sb, "## %s · %s\n\n", who, m.Timestamp.Format(time.RFC3339))
		if m.IsError() {
			fmt.Fprintf(&sb, "> **%s** %s\n\n", strings.ToUpper(string(m.ErrorType)), m.Content)
			continue
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
		if m.ImageURL != "" {
			fmt.Fprintf(&sb, "![generated image](%s)\n\n", m.ImageURL)
		}
		if len(m.GroundingLinks) > 0 {
			sb.WriteString("Sources:\n\n")
			for _, l := range m.GroundingLinks {
				fmt.Fprintf(&sb, "- [%s](%s)\n", l.Title, l.URI)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #0a0a0a; color: #d4d4d4; font-family: ui-monospace, monospace; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
h1, h2 { color: #22c55e; }
blockquote { border-left: 3px solid #ef4444; margin-left: 0; padding-left: 1rem; color: #fca5a5; }
img { max-width: 100%; border-radius: 8px; }
a { color: #4ade80; }
pre { background: #171717; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders h as a standalone HTML page.
func HTML(w io.Writer, h chat.History, s settings.UserSettings) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(h, s)), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: s.AIName + " session log",
		Body:  template.HTML(body.String()),
	})
}
