package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleHistory() chat.History {
	reply := chat.NewAssistantMessage("Use **TLS 1.3**.", now)
	reply.GroundingLinks = []chat.GroundingLink{{Title: "RFC 8446", URI: "https://www.rfc-editor.org/rfc/rfc8446"}}
	img := chat.NewAssistantMessage("Image generation successful.", now)
	img.ImageURL = "data:image/png;base64,iVBORw0KGgo="
	return chat.History{
		chat.Welcome("NtricAcid", now),
		chat.NewUserMessage("how do I secure my API?", now),
		reply,
		img,
		chat.NewErrorMessage(nerrors.KindRateLimit, now),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": FormatMarkdown, "Markdown": FormatMarkdown, "": FormatMarkdown, "HTML": FormatHTML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, ".html", FormatHTML.Ext())
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 4, 5, 0, time.UTC)
	assert.Equal(t, "ntricacid-history-20250301-090405.json", FileName(FormatJSON, at))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleHistory(), settings.Defaults())

	assert.Contains(t, md, "# NtricAcid session log")
	assert.Contains(t, md, "## Researcher · 2025-03-01T12:00:00Z")
	assert.Contains(t, md, "how do I secure my API?")
	assert.Contains(t, md, "- [RFC 8446](https://www.rfc-editor.org/rfc/rfc8446)")
	assert.Contains(t, md, "![generated image](data:image/png;base64,iVBORw0KGgo=)")
	assert.Contains(t, md, "> **RATE_LIMIT** CONGESTION_ALERT")
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, sampleHistory(), settings.Defaults()))

	out := buf.String()
	assert.Contains(t, out, "<title>NtricAcid session log</title>")
	assert.Contains(t, out, "<strong>TLS 1.3</strong>")
	assert.Contains(t, out, `<a href="https://www.rfc-editor.org/rfc/rfc8446">RFC 8446</a>`)
	assert.Contains(t, out, `<img src="data:image/png;base64,iVBORw0KGgo="`)
}

func TestJSONMatchesStoredShape(t *testing.T) {
	h := sampleHistory()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, h, settings.Defaults()))

	var back chat.History
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, len(h))
	assert.Equal(t, h[2].GroundingLinks, back[2].GroundingLinks)
	assert.Equal(t, nerrors.KindRateLimit, back[4].ErrorType)
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("pdf"), nil, settings.Defaults()))
}
