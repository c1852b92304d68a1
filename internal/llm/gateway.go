// Package llm holds the remote AI gateway: chat with web grounding,
// image generation and speech synthesis behind one interface.
package llm

import (
	"context"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

// Role of a turn as the gateway sees it
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange sent as conversation context
type Turn struct {
	Role    Role
	Content string
}

// ChatReply is the result of SendMessage
type ChatReply struct {
	Text  string
	Links []chat.GroundingLink
}

// ImageReply is the result of GenerateImage. ImageURL may be empty.
type ImageReply struct {
	ImageURL string
	Text     string
}

// Audio is synthesized speech
type Audio struct {
	Data     []byte
	MIMEType string
}

// Gateway is the remote AI boundary. Calls are single-shot; none retry.
type Gateway interface {
	// SendMessage sends prompt after history and returns the reply text and its sources.
	SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (*ChatReply, error)
	// GenerateImage returns an image for prompt.
	GenerateImage(ctx context.Context, prompt string) (*ImageReply, error)
	// GenerateSpeech returns spoken audio for text. A nil Audio with nil error means no audio.
	GenerateSpeech(ctx context.Context, text string) (*Audio, error)
	// Name identifies the provider in logs.
	Name() string
}

// Operation names used in logs, metrics and errors
const (
	OpChat   = "chat"
	OpImage  = "image"
	OpSpeech = "speech"
)

// New builds the Gateway for cfg.Provider, behind a breaker when
// cfg.Breaker.Enabled and paced when cfg.RateLimit.Enabled.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (Gateway, error) {
	var (
		gw  Gateway
		err error
	)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		gw, err = NewAnthropic(cfg, log)
	default:
		gw, err = NewGemini(ctx, cfg, log)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Breaker.Enabled {
		gw = NewBreaker(gw, cfg.Breaker, log)
	}
	if cfg.RateLimit.Enabled {
		gw = NewRateLimited(gw, cfg.RateLimit, log)
	}
	return gw, nil
}
