package llm

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

const anthropicMaxTokens = 4096

// messageCreator is the part of the Anthropic messages service the gateway uses.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic is a chat-only Gateway backed by the Anthropic API.
type Anthropic struct {
	messages messageCreator
	model    string
	log      *logging.Logger
}

// NewAnthropic creates an Anthropic gateway. The SDK's own retries are disabled.
func NewAnthropic(cfg *config.Config, log *logging.Logger) (*Anthropic, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return newAnthropic(&client.Messages, cfg.Models.Anthropic, log), nil
}

func newAnthropic(messages messageCreator, model string, log *logging.Logger) *Anthropic {
	if log == nil {
		log = logging.Nop()
	}
	return &Anthropic{messages: messages, model: model, log: log.WithPrefix("anthropic")}
}

func (a *Anthropic) Name() string { return string(config.ProviderAnthropic) }

// SendMessage sends the conversation. Anthropic offers no web grounding, so Links is always empty.
func (a *Anthropic) SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (reply *ChatReply, err error) {
	start := time.Now()
	reqID := a.log.NewRequestID()
	defer a.log.ClearRequestID()
	a.log.Event(logging.EventGatewayRequest, logging.Op(OpChat), logging.Root(root), logging.MessageCount(len(history)))
	defer func() { observe(a.log, a.Name(), OpChat, a.model, start, err) }()

	params := a.buildParams(prompt, history, Instructions(s, root), root)
	a.log.GatewayRequest(reqID, map[string]any{"model": a.model, "prompt": prompt, "history": len(history), "root": root})

	msg, err := a.messages.New(ctx, params)
	if err != nil {
		return nil, wrapFailure(OpChat, anthropicStatusKind(err), err)
	}
	if msg.StopReason == anthropic.StopReasonRefusal {
		return nil, nerrors.GatewayFailed(OpChat, nerrors.KindSafety, errors.New("model refused on safety grounds"))
	}

	reply = &ChatReply{}
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply.Text += b.Text
		}
	}
	a.log.GatewayResponse(reqID, map[string]any{"text": reply.Text, "stop_reason": string(msg.StopReason)})
	return reply, nil
}

// GenerateImage is not offered by this provider.
func (a *Anthropic) GenerateImage(context.Context, string) (*ImageReply, error) {
	return nil, nerrors.GatewayUnsupported(a.Name(), "image generation")
}

// GenerateSpeech is not offered by this provider; it reports no audio.
func (a *Anthropic) GenerateSpeech(context.Context, string) (*Audio, error) {
	return nil, nil
}

func (a *Anthropic) buildParams(prompt string, history []Turn, instruction string, root bool) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, t := range history {
		switch t.Role {
		case RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case RoleModel:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	temperature := 0.7
	if root {
		temperature = 1.0
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    msgs,
		System:      []anthropic.TextBlockParam{{Text: instruction}},
		Temperature: anthropic.Float(temperature),
	}
}

func anthropicStatusKind(err error) nerrors.Kind {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.StatusCode)
	}
	return ""
}

var _ Gateway = (*Anthropic)(nil)
