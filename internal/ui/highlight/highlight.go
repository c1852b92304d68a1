// Package highlight colors fenced code blocks in replies for line-mode output.
package highlight

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Chroma styles per UI theme
const (
	DarkStyle  = "monokai"
	LightStyle = "github"
)

// Highlighter provides syntax highlighting for code blocks
type Highlighter struct {
	enabled   bool
	formatter chroma.Formatter
	style     *chroma.Style
}

// New creates a Highlighter with the dark style
func New(enabled bool) *Highlighter {
	return NewWithStyle(enabled, DarkStyle)
}

// NewWithStyle creates a Highlighter using the named chroma style.
// Unknown names fall back to chroma's default style.
func NewWithStyle(enabled bool, style string) *Highlighter {
	return &Highlighter{
		enabled:   enabled,
		formatter: formatters.Get("terminal256"),
		style:     styles.Get(style),
	}
}

// Highlight applies syntax highlighting to a code string. An empty or
// unknown language is guessed from the code.
func (h *Highlighter) Highlight(code, language string) string {
	if !h.enabled {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// codeBlockRegex matches fenced code blocks with an optional language tag
var codeBlockRegex = regexp.MustCompile("(?s)```([\\w+#-]*)[ \\t]*\\n(.*?)```")

// HighlightMarkdownCodeBlocks replaces each fenced block with its highlighted
// code, preceded by a language label when one was given.
func (h *Highlighter) HighlightMarkdownCodeBlocks(text string) string {
	if !h.enabled {
		return text
	}

	return codeBlockRegex.ReplaceAllStringFunc(text, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}

		language := strings.ToLower(parts[1])
		code := strings.TrimSuffix(parts[2], "\n")

		highlighted := h.Highlight(code, language)
		if language == "" {
			return highlighted
		}
		return "── " + language + " ──\n" + highlighted
	})
}
