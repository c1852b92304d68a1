package errors

import (
	"errors"
	"fmt"
)

// Category groups errors by subsystem
type Category string

const (
	CategoryGateway      Category = "gateway"
	CategoryStorage      Category = "storage"
	CategoryConfig       Category = "config"
	CategoryConversation Category = "conversation"
	CategoryTerminal     Category = "terminal"
)

// NtricError is the structured error type for the project
type NtricError struct {
	Category  Category
	Code      string
	Message   string
	Kind      Kind
	Retryable bool
	Cause     error
}

func (e *NtricError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

func (e *NtricError) Unwrap() error {
	return e.Cause
}

func (e *NtricError) Is(target error) bool {
	t, ok := target.(*NtricError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Category == t.Category
}

// IsRetryable checks whether an error is retryable.
// Returns false for nil errors or non-NtricError types.
func IsRetryable(err error) bool {
	var ne *NtricError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return false
}

// GetCategory extracts the error category from a NtricError.
// Returns an empty Category for nil errors or non-NtricError types.
func GetCategory(err error) Category {
	var ne *NtricError
	if errors.As(err, &ne) {
		return ne.Category
	}
	return ""
}

// GetUserMessage returns a user-friendly message for the error.
// For NtricError it returns the Message field; for other errors it returns Error().
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ne *NtricError
	if errors.As(err, &ne) {
		return ne.Message
	}
	return err.Error()
}
