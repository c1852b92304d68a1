package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	return f.resp, f.err
}

func candidate(parts ...*genai.Part) *genai.Candidate {
	return &genai.Candidate{Content: &genai.Content{Role: "model", Parts: parts}}
}

func newTestGemini(f *fakeGenerator) *Gemini {
	return newGemini(f, config.DefaultConfig().Models, "BLOCK_ONLY_HIGH", nil)
}

func TestGeminiSendMessage(t *testing.T) {
	c := candidate(&genai.Part{Text: "thinking...", Thought: true}, &genai.Part{Text: "Hello "}, &genai.Part{Text: "there"})
	c.GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
		{Web: &genai.GroundingChunkWeb{URI: "https://owasp.org", Title: "OWASP"}},
		{Web: &genai.GroundingChunkWeb{URI: "https://nvd.nist.gov"}},
		{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
		{},
	}}
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{c}}}
	g := newTestGemini(f)

	history := []Turn{{Role: RoleUser, Content: "q1"}, {Role: RoleModel, Content: "a1"}}
	reply, err := g.SendMessage(context.Background(), "q2", history, settings.Defaults(), false)
	require.NoError(t, err)

	assert.Equal(t, "Hello there", reply.Text)
	assert.Equal(t, []chat.GroundingLink{
		{Title: "OWASP", URI: "https://owasp.org"},
		{Title: "External Resource", URI: "https://nvd.nist.gov"},
	}, reply.Links)

	assert.Equal(t, "gemini-3-flash-preview", f.model)
	require.Len(t, f.contents, 3)
	assert.Equal(t, "user", f.contents[0].Role)
	assert.Equal(t, "model", f.contents[1].Role)
	assert.Equal(t, "q2", f.contents[2].Parts[0].Text)

	require.NotNil(t, f.config)
	assert.Equal(t, float32(0.7), *f.config.Temperature)
	assert.Equal(t, float32(0.95), *f.config.TopP)
	assert.Equal(t, float32(64), *f.config.TopK)
	require.Len(t, f.config.Tools, 1)
	assert.NotNil(t, f.config.Tools[0].GoogleSearch)
	assert.Nil(t, f.config.ThinkingConfig)
	assert.Empty(t, f.config.SafetySettings, "normal mode keeps provider defaults")
}

func TestGeminiSendMessageRoot(t *testing.T) {
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{candidate(&genai.Part{Text: RootPrefix + "ok"})}}}
	g := newTestGemini(f)

	_, err := g.SendMessage(context.Background(), "deep dive", nil, settings.Defaults(), true)
	require.NoError(t, err)

	assert.Equal(t, float32(1.0), *f.config.Temperature)
	require.NotNil(t, f.config.ThinkingConfig)
	assert.Equal(t, int32(2048), *f.config.ThinkingConfig.ThinkingBudget)
	require.NotEmpty(t, f.config.SafetySettings)
	for _, s := range f.config.SafetySettings {
		assert.Equal(t, genai.HarmBlockThreshold("BLOCK_ONLY_HIGH"), s.Threshold)
	}
	assert.Contains(t, f.config.SystemInstruction.Parts[0].Text, RootPrefix)
}

func TestGeminiSendMessageEmptyText(t *testing.T) {
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	reply, err := newTestGemini(f).SendMessage(context.Background(), "hi", nil, settings.Defaults(), false)
	require.NoError(t, err)
	assert.Equal(t, "", reply.Text)
	assert.Empty(t, reply.Links)
}

func TestGeminiSendMessageBlocked(t *testing.T) {
	c := candidate()
	c.FinishReason = genai.FinishReasonSafety
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{c}}}

	_, err := newTestGemini(f).SendMessage(context.Background(), "hi", nil, settings.Defaults(), false)
	assert.Equal(t, nerrors.KindSafety, nerrors.Classify(err))
}

func TestGeminiErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want nerrors.Kind
	}{
		{"429", genai.APIError{Code: http.StatusTooManyRequests, Message: "Resource exhausted"}, nerrors.KindRateLimit},
		{"403", genai.APIError{Code: http.StatusForbidden, Message: "denied"}, nerrors.KindUnknown},
		{"401", genai.APIError{Code: http.StatusUnauthorized, Message: "API key not valid"}, nerrors.KindUnknown},
		{"403 with quota text", genai.APIError{Code: http.StatusForbidden, Message: "Quota exceeded (429) for quota metric"}, nerrors.KindRateLimit},
		{"400 with quota text", genai.APIError{Code: http.StatusBadRequest, Message: "Quota exceeded"}, nerrors.KindRateLimit},
		{"plain", errors.New("boom"), nerrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGenerator{err: tt.err}
			_, err := newTestGemini(f).SendMessage(context.Background(), "hi", nil, settings.Defaults(), false)
			require.Error(t, err)
			assert.Equal(t, tt.want, nerrors.Classify(err))
			assert.Contains(t, err.Error(), tt.err.Error(), "provider error is kept as the cause")
		})
	}
}

func TestGeminiGenerateImage(t *testing.T) {
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{candidate(
		&genai.Part{Text: "Here "},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x01}}},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
		&genai.Part{Text: "you go"},
	)}}}

	reply, err := newTestGemini(f).GenerateImage(context.Background(), "a fox")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", reply.ImageURL, "the last inline image wins")
	assert.Equal(t, "Here you go", reply.Text)
	assert.Equal(t, "gemini-2.5-flash-image", f.model)
}

func TestGeminiGenerateImageNoImage(t *testing.T) {
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	reply, err := newTestGemini(f).GenerateImage(context.Background(), "a fox")
	require.NoError(t, err)
	assert.Equal(t, "", reply.ImageURL)
	assert.Equal(t, "Image generation successful.", reply.Text)
}

func TestGeminiGenerateSpeech(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{candidate(
		&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: pcm}},
	)}}}

	audio, err := newTestGemini(f).GenerateSpeech(context.Background(), strings.Repeat("é", 600))
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, pcm, audio.Data)

	prompt := f.contents[0].Parts[0].Text
	assert.True(t, strings.HasPrefix(prompt, "Say clearly: "))
	assert.Equal(t, 500, len([]rune(strings.TrimPrefix(prompt, "Say clearly: "))))
	assert.Equal(t, "Kore", f.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
}

func TestGeminiGenerateSpeechAbsent(t *testing.T) {
	f := &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{candidate(&genai.Part{Text: "no audio"})}}}
	audio, err := newTestGemini(f).GenerateSpeech(context.Background(), "hi")
	require.NoError(t, err)
	assert.Nil(t, audio)
}
