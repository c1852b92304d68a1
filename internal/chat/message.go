// Package chat holds the chat message model and its persistence.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
)

// Role of a message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status of a message
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// WelcomeID is the id of the seed assistant message.
const WelcomeID = "welcome"

// GroundingLink is a web source cited by a reply.
type GroundingLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Message is one entry in the chat history. Only Status and ErrorType
// change after creation.
type Message struct {
	ID             string          `json:"id"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	Timestamp      time.Time       `json:"timestamp"`
	GroundingLinks []GroundingLink `json:"groundingLinks,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	AudioData      string          `json:"audioData,omitempty"`
	Status         Status          `json:"status"`
	ErrorType      nerrors.Kind    `json:"errorType,omitempty"`
}

// IsError reports whether m records a failed request.
func (m Message) IsError() bool {
	return m.Status == StatusError
}

// WelcomeText is the greeting for an assistant named aiName.
func WelcomeText(aiName string) string {
	return fmt.Sprintf("Hello. I am %s. Neural modules initialized and ready. How can I assist with your research today?", aiName)
}

// Welcome returns the seed message.
func Welcome(aiName string, now time.Time) Message {
	return Message{
		ID:        WelcomeID,
		Role:      RoleAssistant,
		Content:   WelcomeText(aiName),
		Timestamp: now,
		Status:    StatusSent,
	}
}

// NewUserMessage returns a sent user message with a fresh id.
func NewUserMessage(content string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: now,
		Status:    StatusSent,
	}
}

// NewAssistantMessage returns a sent assistant message with a fresh id.
func NewAssistantMessage(content string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: now,
		Status:    StatusSent,
	}
}

// NewErrorMessage returns an assistant message recording a failure of kind k.
func NewErrorMessage(k nerrors.Kind, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   nerrors.UserText(k),
		Timestamp: now,
		Status:    StatusError,
		ErrorType: k,
	}
}
