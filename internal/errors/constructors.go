package errors

import "fmt"

// GatewayFailed creates an error for a failed remote AI call whose kind is known.
func GatewayFailed(op string, kind Kind, cause error) *NtricError {
	return &NtricError{
		Category:  CategoryGateway,
		Code:      "gateway_" + string(kind),
		Message:   fmt.Sprintf("%s request failed", op),
		Kind:      kind,
		Retryable: kind == KindRateLimit || kind == KindNetwork,
		Cause:     cause,
	}
}

// GatewayUnsupported creates an error for an operation the configured provider cannot perform.
func GatewayUnsupported(provider, op string) *NtricError {
	return &NtricError{
		Category:  CategoryGateway,
		Code:      "gateway_unsupported",
		Message:   fmt.Sprintf("provider %q does not support %s", provider, op),
		Kind:      KindUnknown,
		Retryable: false,
	}
}

// MissingAPIKey creates an error for when no credential is configured for the provider.
func MissingAPIKey(provider, envVar string) *NtricError {
	return &NtricError{
		Category:  CategoryConfig,
		Code:      "missing_api_key",
		Message:   fmt.Sprintf("%s environment variable is required for provider %q", envVar, provider),
		Kind:      KindAuth,
		Retryable: false,
	}
}

// ConfigLoadFailed creates an error for when configuration loading fails.
func ConfigLoadFailed(path string, cause error) *NtricError {
	return &NtricError{
		Category:  CategoryConfig,
		Code:      "config_load_failed",
		Message:   fmt.Sprintf("failed to load config from %q", path),
		Retryable: false,
		Cause:     cause,
	}
}

// StorageFailed creates an error for a failed key-value store operation.
func StorageFailed(op, key string, cause error) *NtricError {
	return &NtricError{
		Category:  CategoryStorage,
		Code:      "storage_" + op + "_failed",
		Message:   fmt.Sprintf("storage %s of %q failed", op, key),
		Retryable: false,
		Cause:     cause,
	}
}

// CorruptState creates an error for a stored value that cannot be decoded.
func CorruptState(key string, cause error) *NtricError {
	return &NtricError{
		Category:  CategoryStorage,
		Code:      "corrupt_state",
		Message:   fmt.Sprintf("stored value for %q is malformed", key),
		Retryable: false,
		Cause:     cause,
	}
}

// TerminalForwardFailed creates an error for a terminal query the gateway could not answer.
func TerminalForwardFailed(cause error) *NtricError {
	return &NtricError{
		Category:  CategoryTerminal,
		Code:      "terminal_forward_failed",
		Message:   "terminal query could not be answered",
		Kind:      Classify(cause),
		Retryable: false,
		Cause:     cause,
	}
}
