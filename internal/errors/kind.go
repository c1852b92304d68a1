package errors

import (
	"errors"
	"strings"
)

// Kind is the failure classification shown to the user on an error message.
type Kind string

const (
	KindRateLimit Kind = "rate_limit"
	KindSafety    Kind = "safety"
	KindAuth      Kind = "auth"
	KindNetwork   Kind = "network"
	KindUnknown   Kind = "unknown"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRateLimit, KindSafety, KindAuth, KindNetwork, KindUnknown:
		return true
	}
	return false
}

// textRule maps a marker found in an untyped error's text to a kind.
// Rules are checked in order; the first hit wins.
type textRule struct {
	marker string
	fold   bool
	kind   Kind
}

var textRules = []textRule{
	{marker: "429", kind: KindRateLimit},
	{marker: "quota", fold: true, kind: KindRateLimit},
	{marker: "safety", kind: KindSafety},
}

// Classify returns the kind of a gateway failure.
// The text rules run first over the whole error text. A Kind carried by a
// NtricError in the chain only stands in for the KindUnknown fallback.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	text := err.Error()
	lower := strings.ToLower(text)
	for _, r := range textRules {
		haystack := text
		if r.fold {
			haystack = lower
		}
		if strings.Contains(haystack, r.marker) {
			return r.kind
		}
	}

	var ne *NtricError
	if errors.As(err, &ne) && ne.Kind != "" {
		return ne.Kind
	}
	return KindUnknown
}

var userText = map[Kind]string{
	KindRateLimit: "CONGESTION_ALERT: AI core rate limited. Please wait 60 seconds.",
	KindSafety:    "PROTOCOL_BLOCK: Security guardrails intercepted content. Re-verify ROOT_ACCESS.",
	KindAuth:      "AUTH_FAILURE: API key rejected. Check your credentials.",
	KindNetwork:   "CRITICAL: Connection severed. Check network interface.",
	KindUnknown:   "CRITICAL: Connection severed. Check network interface.",
}

// UserText returns the assistant-facing text for a failure of kind k.
func UserText(k Kind) string {
	if s, ok := userText[k]; ok {
		return s
	}
	return userText[KindUnknown]
}
