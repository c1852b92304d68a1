package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "YES\n", false, true},
		{"no", "n\n", true, false},
		{"empty takes default no", "\n", false, false},
		{"empty takes default yes", "\n", true, true},
		{"eof takes default", "", false, false},
		{"no trailing newline", "y", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt bytes.Buffer
			h := NewInputHandlerFrom(strings.NewReader(tt.input), &prompt)
			got, err := h.Confirm("Purge memory?", tt.defaultYes)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(prompt.String(), "Purge memory? [") {
				t.Errorf("prompt = %q", prompt.String())
			}
		})
	}
}

func TestReadAll(t *testing.T) {
	h := NewInputHandlerFrom(strings.NewReader("  explain ASLR\nplease\n\n"), &bytes.Buffer{})
	got, err := h.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if got != "explain ASLR\nplease" {
		t.Errorf("ReadAll() = %q", got)
	}
}
