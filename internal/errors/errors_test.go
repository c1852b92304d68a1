package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNtricError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NtricError
		contains []string
	}{
		{
			name: "with cause",
			err: &NtricError{
				Category: CategoryGateway,
				Code:     "gateway_network",
				Message:  "chat request failed",
				Cause:    fmt.Errorf("connection refused"),
			},
			contains: []string{"[gateway]", "gateway_network", "chat request failed", "connection refused"},
		},
		{
			name: "without cause",
			err: &NtricError{
				Category: CategoryStorage,
				Code:     "corrupt_state",
				Message:  "stored value for \"k\" is malformed",
			},
			contains: []string{"[storage]", "corrupt_state", "malformed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want it to contain %q", msg, s)
				}
			}
		})
	}
}

func TestNtricError_UnwrapChain(t *testing.T) {
	root := fmt.Errorf("disk full")
	mid := ConfigLoadFailed("ntricacid.yaml", root)
	outer := fmt.Errorf("startup failed: %w", mid)

	if !errors.Is(outer, root) {
		t.Error("expected errors.Is to find root cause through chain")
	}

	var ne *NtricError
	if !errors.As(outer, &ne) {
		t.Fatal("expected errors.As to find NtricError in chain")
	}
	if ne.Code != "config_load_failed" {
		t.Errorf("got code %q, want %q", ne.Code, "config_load_failed")
	}
}

func TestNtricError_Is(t *testing.T) {
	err1 := &NtricError{Category: CategoryGateway, Code: "gateway_auth", Message: "a"}
	err2 := &NtricError{Category: CategoryGateway, Code: "gateway_auth", Message: "b"}
	err3 := &NtricError{Category: CategoryGateway, Code: "gateway_safety", Message: "c"}
	err4 := &NtricError{Category: CategoryStorage, Code: "gateway_auth", Message: "d"}

	if !errors.Is(err1, err2) {
		t.Error("expected Is() to match same category+code regardless of message")
	}
	if errors.Is(err1, err3) {
		t.Error("expected Is() to not match different codes")
	}
	if errors.Is(err1, err4) {
		t.Error("expected Is() to not match different categories")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", GatewayFailed("chat", KindRateLimit, nil), true},
		{"network", GatewayFailed("chat", KindNetwork, nil), true},
		{"safety", GatewayFailed("chat", KindSafety, nil), false},
		{"wrapped", fmt.Errorf("outer: %w", GatewayFailed("image", KindRateLimit, nil)), true},
		{"plain", fmt.Errorf("plain error"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCategoryAndUserMessage(t *testing.T) {
	err := fmt.Errorf("wrap: %w", StorageFailed("write", "ntricacid_history", nil))
	if got := GetCategory(err); got != CategoryStorage {
		t.Errorf("GetCategory() = %q, want %q", got, CategoryStorage)
	}
	if got := GetUserMessage(err); got != `storage write of "ntricacid_history" failed` {
		t.Errorf("GetUserMessage() = %q", got)
	}
	if got := GetUserMessage(fmt.Errorf("something broke")); got != "something broke" {
		t.Errorf("GetUserMessage() = %q", got)
	}
	if GetCategory(nil) != "" || GetUserMessage(nil) != "" {
		t.Error("expected empty results for nil")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"status 429 in text", fmt.Errorf("googleapi: Error 429: Resource exhausted"), KindRateLimit},
		{"quota any case", fmt.Errorf("QUOTA exceeded for project"), KindRateLimit},
		{"safety", fmt.Errorf("response blocked by safety filters"), KindSafety},
		{"Safety capitalised is unknown", fmt.Errorf("Safety"), KindUnknown},
		{"anything else", fmt.Errorf("dial tcp: connection refused"), KindUnknown},
		{"text wins over typed kind", GatewayFailed("chat", KindAuth, fmt.Errorf("429")), KindRateLimit},
		{"quota text wins over typed kind", GatewayFailed("chat", KindNetwork, fmt.Errorf("Quota exceeded")), KindRateLimit},
		{"typed kind replaces unknown", GatewayFailed("chat", KindAuth, fmt.Errorf("API key not valid")), KindAuth},
		{"typed network", fmt.Errorf("ctx: %w", GatewayFailed("chat", KindNetwork, nil)), KindNetwork},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserText(t *testing.T) {
	if !strings.HasPrefix(UserText(KindRateLimit), "CONGESTION_ALERT") {
		t.Errorf("rate limit text = %q", UserText(KindRateLimit))
	}
	if !strings.HasPrefix(UserText(KindSafety), "PROTOCOL_BLOCK") {
		t.Errorf("safety text = %q", UserText(KindSafety))
	}
	if UserText(Kind("bogus")) != UserText(KindUnknown) {
		t.Error("unknown kinds should fall back to the generic text")
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindRateLimit, KindSafety, KindAuth, KindNetwork, KindUnknown} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("timeout").Valid() {
		t.Error("timeout should not be a valid kind")
	}
}

func TestConstructors(t *testing.T) {
	t.Run("MissingAPIKey", func(t *testing.T) {
		err := MissingAPIKey("gemini", "GEMINI_API_KEY")
		if err.Kind != KindAuth || err.Category != CategoryConfig {
			t.Errorf("unexpected error %+v", err)
		}
		if !strings.Contains(err.Message, "GEMINI_API_KEY") {
			t.Errorf("Message should name the variable, got %q", err.Message)
		}
	})

	t.Run("GatewayUnsupported", func(t *testing.T) {
		err := GatewayUnsupported("anthropic", "image generation")
		if err.Retryable {
			t.Error("unsupported operations are not retryable")
		}
	})

	t.Run("TerminalForwardFailed inherits kind", func(t *testing.T) {
		err := TerminalForwardFailed(fmt.Errorf("quota"))
		if err.Kind != KindRateLimit {
			t.Errorf("Kind = %q, want %q", err.Kind, KindRateLimit)
		}
	})

	t.Run("CorruptState", func(t *testing.T) {
		cause := fmt.Errorf("unexpected end of JSON input")
		err := CorruptState("ntricacid_settings", cause)
		if err.Cause != cause || err.Category != CategoryStorage {
			t.Errorf("unexpected error %+v", err)
		}
	})
}
