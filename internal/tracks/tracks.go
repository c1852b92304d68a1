// Package tracks holds the learning-track shortcuts shown in the sidebar.
// Selecting a track submits its prompt as if the user had typed it.
package tracks

import (
	"fmt"
	"strconv"
	"strings"
)

// Track is one sidebar entry.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Prompt      string `json:"prompt"`
}

var catalog = []Track{
	{
		ID:          "zero-day",
		Title:       "Zero-Day Research",
		Description: "How vulnerabilities are found, disclosed and patched.",
		Icon:        "⚠",
		Prompt:      "Walk me through the lifecycle of a memory-corruption vulnerability in a common web framework: how researchers find it, how it is triaged and responsibly disclosed, and which mitigations and patches close it.",
	},
	{
		ID:          "kernel-exploit",
		Title:       "Kernel Hardening",
		Description: "OS protections and why privilege escalation is hard.",
		Icon:        "▣",
		Prompt:      "Explain how modern kernels defend against privilege escalation. Cover KASLR, SMEP/SMAP, use-after-free mitigations in driver code, and how to audit a system's hardening settings.",
	},
	{
		ID:          "payload-gen",
		Title:       "Malware Analysis",
		Description: "Detecting and dissecting obfuscated payloads.",
		Icon:        "</>",
		Prompt:      "Show me how analysts detect and reverse an obfuscated reverse-shell sample, including string decoding, behavioural indicators and YARA rules that catch XOR-encoded strings.",
	},
	{
		ID:          "recon-master",
		Title:       "Attack Surface Mapping",
		Description: "OSINT for defenders: know what you expose.",
		Icon:        "⌕",
		Prompt:      "Give me a methodology for auditing my own organization's public attack surface using DNS records, code hosting leaks and search engine exposure, and how to remediate what it finds.",
	},
}

// All returns the catalog in display order.
func All() []Track {
	return append([]Track(nil), catalog...)
}

// Get returns the track with id.
func Get(id string) (Track, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Lookup accepts a track id or its 1-based position in the catalog.
func Lookup(ref string) (Track, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := Get(ref); ok {
		return t, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(catalog) {
		return catalog[n-1], nil
	}
	return Track{}, fmt.Errorf("unknown track %q", ref)
}
