package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

const (
	defaultLinkTitle   = "External Resource"
	defaultImageText   = "Image generation successful."
	speechPromptPrefix = "Say clearly: "
	speechMaxRunes     = 500
)

// contentGenerator is the part of *genai.Models the gateway uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is the Gateway backed by the Gemini API.
type Gemini struct {
	models        contentGenerator
	cfg           config.ModelsConfig
	rootThreshold genai.HarmBlockThreshold
	log           *logging.Logger
}

// NewGemini creates a Gemini gateway from cfg. The API key must be set.
func NewGemini(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Gemini, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, cfg.Models, cfg.Safety.RootThreshold, log), nil
}

func newGemini(models contentGenerator, cfg config.ModelsConfig, rootThreshold string, log *logging.Logger) *Gemini {
	if log == nil {
		log = logging.Nop()
	}
	return &Gemini{
		models:        models,
		cfg:           cfg,
		rootThreshold: genai.HarmBlockThreshold(rootThreshold),
		log:           log.WithPrefix("gemini"),
	}
}

var _ Gateway = (*Gemini)(nil)

func (g *Gemini) Name() string { return string(config.ProviderGemini) }

// SendMessage sends the conversation with Google Search grounding enabled.
func (g *Gemini) SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (reply *ChatReply, err error) {
	start := time.Now()
	reqID := g.log.NewRequestID()
	defer g.log.ClearRequestID()
	g.log.Event(logging.EventGatewayRequest, logging.Op(OpChat), logging.Root(root), logging.MessageCount(len(history)))
	defer func() { observe(g.log, g.Name(), OpChat, g.cfg.Chat, start, err) }()

	contents := chatContents(prompt, history)
	cfg := g.chatConfig(Instructions(s, root), root)
	g.log.GatewayRequest(reqID, map[string]any{"model": g.cfg.Chat, "prompt": prompt, "history": len(history), "root": root})

	resp, err := g.models.GenerateContent(ctx, g.cfg.Chat, contents, cfg)
	if err != nil {
		return nil, wrapFailure(OpChat, geminiStatusKind(err), err)
	}
	reply, err = parseChatResponse(resp)
	if err != nil {
		return nil, err
	}
	g.log.GatewayResponse(reqID, map[string]any{"text": reply.Text, "links": len(reply.Links)})
	return reply, nil
}

// GenerateImage asks the image model for a picture of prompt.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (reply *ImageReply, err error) {
	start := time.Now()
	g.log.Event(logging.EventGatewayRequest, logging.Op(OpImage), logging.Prompt(prompt))
	defer func() { observe(g.log, g.Name(), OpImage, g.cfg.Image, start, err) }()

	resp, err := g.models.GenerateContent(ctx, g.cfg.Image, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		return nil, wrapFailure(OpImage, geminiStatusKind(err), err)
	}
	if err := blocked(resp); err != nil {
		return nil, nerrors.GatewayFailed(OpImage, nerrors.KindSafety, err)
	}
	return parseImageResponse(resp), nil
}

// GenerateSpeech reads up to the first 500 characters of text aloud.
func (g *Gemini) GenerateSpeech(ctx context.Context, text string) (audio *Audio, err error) {
	start := time.Now()
	g.log.Event(logging.EventGatewayRequest, logging.Op(OpSpeech))
	defer func() { observe(g.log, g.Name(), OpSpeech, g.cfg.Speech, start, err) }()

	resp, err := g.models.GenerateContent(ctx, g.cfg.Speech, []*genai.Content{genai.NewContentFromText(speechPrompt(text), genai.RoleUser)}, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.Voice},
			},
		},
	})
	if err != nil {
		return nil, wrapFailure(OpSpeech, geminiStatusKind(err), err)
	}
	return parseSpeechResponse(resp), nil
}

func (g *Gemini) chatConfig(instruction string, root bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature:       genai.Ptr[float32](0.7),
		TopP:              genai.Ptr[float32](0.95),
		TopK:              genai.Ptr[float32](64),
	}
	if root {
		cfg.Temperature = genai.Ptr[float32](1.0)
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](2048)}
		for _, c := range []genai.HarmCategory{
			genai.HarmCategoryHarassment,
			genai.HarmCategoryHateSpeech,
			genai.HarmCategorySexuallyExplicit,
			genai.HarmCategoryDangerousContent,
			genai.HarmCategoryCivicIntegrity,
		} {
			cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{Category: c, Threshold: g.rootThreshold})
		}
	}
	return cfg
}

func chatContents(prompt string, history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

// blocked returns an error when the prompt or the first candidate was stopped by the safety filters.
func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		return fmt.Errorf("prompt blocked by safety filters: %s", pf.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return errors.New("response blocked by safety filters")
	}
	return nil
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func parseChatResponse(resp *genai.GenerateContentResponse) (*ChatReply, error) {
	if err := blocked(resp); err != nil {
		return nil, nerrors.GatewayFailed(OpChat, nerrors.KindSafety, err)
	}

	var sb strings.Builder
	for _, p := range firstParts(resp) {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}

	reply := &ChatReply{Text: sb.String()}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = defaultLinkTitle
			}
			reply.Links = append(reply.Links, chat.GroundingLink{Title: title, URI: chunk.Web.URI})
		}
	}
	return reply, nil
}

// parseImageResponse keeps the last inline image and all text parts.
func parseImageResponse(resp *genai.GenerateContentResponse) *ImageReply {
	reply := &ImageReply{}
	var sb strings.Builder
	for _, p := range firstParts(resp) {
		if p == nil {
			continue
		}
		if p.InlineData != nil {
			reply.ImageURL = "data:" + p.InlineData.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.InlineData.Data)
		} else if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	reply.Text = sb.String()
	if reply.Text == "" {
		reply.Text = defaultImageText
	}
	return reply
}

func parseSpeechResponse(resp *genai.GenerateContentResponse) *Audio {
	parts := firstParts(resp)
	if len(parts) == 0 || parts[0] == nil || parts[0].InlineData == nil || len(parts[0].InlineData.Data) == 0 {
		return nil
	}
	return &Audio{Data: parts[0].InlineData.Data, MIMEType: parts[0].InlineData.MIMEType}
}

func speechPrompt(text string) string {
	r := []rune(text)
	if len(r) > speechMaxRunes {
		r = r[:speechMaxRunes]
	}
	return speechPromptPrefix + string(r)
}

// geminiStatusKind reads the HTTP status out of a genai API error.
func geminiStatusKind(err error) nerrors.Kind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return kindForStatus(apiErrPtr.Code)
	}
	return ""
}
