package llm

import (
	"context"
	"sync"

	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

// MockGateway implements Gateway for testing.
type MockGateway struct {
	// Injectable behavior
	SendMessageFunc    func(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (*ChatReply, error)
	GenerateImageFunc  func(ctx context.Context, prompt string) (*ImageReply, error)
	GenerateSpeechFunc func(ctx context.Context, text string) (*Audio, error)

	mu sync.Mutex

	// Call recording
	SendMessageCalls    []SendMessageCall
	GenerateImageCalls  []string
	GenerateSpeechCalls []string
}

// SendMessageCall records the arguments of a SendMessage invocation.
type SendMessageCall struct {
	Prompt   string
	History  []Turn
	Settings settings.UserSettings
	Root     bool
}

// NewMockGateway creates a mock with default replies.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// SendMessage calls the injected func or returns "mock response".
func (m *MockGateway) SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (*ChatReply, error) {
	m.mu.Lock()
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{
		Prompt:   prompt,
		History:  append([]Turn(nil), history...),
		Settings: s,
		Root:     root,
	})
	m.mu.Unlock()

	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, prompt, history, s, root)
	}
	return &ChatReply{Text: "mock response"}, nil
}

// GenerateImage calls the injected func or returns an empty image.
func (m *MockGateway) GenerateImage(ctx context.Context, prompt string) (*ImageReply, error) {
	m.mu.Lock()
	m.GenerateImageCalls = append(m.GenerateImageCalls, prompt)
	m.mu.Unlock()

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return &ImageReply{Text: defaultImageText}, nil
}

// GenerateSpeech calls the injected func or reports no audio.
func (m *MockGateway) GenerateSpeech(ctx context.Context, text string) (*Audio, error) {
	m.mu.Lock()
	m.GenerateSpeechCalls = append(m.GenerateSpeechCalls, text)
	m.mu.Unlock()

	if m.GenerateSpeechFunc != nil {
		return m.GenerateSpeechFunc(ctx, text)
	}
	return nil, nil
}

func (m *MockGateway) Name() string { return "mock" }

// Calls returns the number of calls of each kind.
func (m *MockGateway) Calls() (chat, image, speech int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendMessageCalls), len(m.GenerateImageCalls), len(m.GenerateSpeechCalls)
}

// LastSend returns the most recent SendMessage call.
func (m *MockGateway) LastSend() (SendMessageCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SendMessageCalls) == 0 {
		return SendMessageCall{}, false
	}
	return m.SendMessageCalls[len(m.SendMessageCalls)-1], true
}

var _ Gateway = (*MockGateway)(nil)
