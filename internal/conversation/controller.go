// Package conversation drives a chat session: it accepts prompts, routes
// them to the AI gateway and keeps the message list and settings in sync
// with storage.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/llm"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// Outcome is the result of Submit or Retry.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeReplied
	OutcomeFailed
	OutcomeRootActivated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReplied:
		return "replied"
	case OutcomeFailed:
		return "failed"
	case OutcomeRootActivated:
		return "root_activated"
	default:
		return "rejected"
	}
}

// State is everything the presentation layer renders.
type State struct {
	Messages chat.History
	Settings settings.UserSettings
	Root     bool
	Loading  bool
}

func (s State) clone() State {
	s.Messages = s.Messages.Clone()
	return s
}

// Speaker plays synthesized audio.
type Speaker interface {
	Play(ctx context.Context, audio *llm.Audio) error
}

// Config wires a Controller.
type Config struct {
	Gateway llm.Gateway
	Store   storage.Store
	Logger  *logging.Logger
	Speaker Speaker
	// OnChange receives a copy of the state after every mutation.
	OnChange func(State)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller owns the session state. Its lock is never held across a
// gateway call; the Loading flag keeps submissions single-flight.
type Controller struct {
	mu    sync.Mutex
	state State

	gateway  llm.Gateway
	history  *chat.Repository
	prefs    *settings.Repository
	speaker  Speaker
	log      *logging.Logger
	onChange func(State)
	now      func() time.Time
}

// New loads settings and history from cfg.Store and returns a ready controller.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("conversation: gateway is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation: store is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		gateway:  cfg.Gateway,
		history:  chat.NewRepository(cfg.Store, log),
		prefs:    settings.NewRepository(cfg.Store, log),
		speaker:  cfg.Speaker,
		log:      log.WithPrefix("conversation"),
		onChange: cfg.OnChange,
		now:      now,
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) load(ctx context.Context) error {
	s, err := c.prefs.Load(ctx)
	if err != nil {
		return err
	}
	h, err := c.history.Load(ctx, s.AIName, s.PersistenceEnabled)
	if err != nil {
		return err
	}
	c.state.Settings = s
	c.state.Messages = h
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Submit handles one prompt from the user.
func (c *Controller) Submit(ctx context.Context, prompt string) Outcome {
	text := strings.TrimSpace(prompt)

	c.mu.Lock()
	if text == "" || c.state.Loading {
		loading := c.state.Loading
		c.mu.Unlock()
		c.log.Debug("submit rejected", logging.F("empty", text == ""), logging.F("loading", loading))
		c.log.Event(logging.EventSubmitReject, logging.Reason(rejectReason(text, loading)))
		c.log.Metrics().RecordRejected()
		return OutcomeRejected
	}
	return c.submitLocked(ctx, text)
}

// submitLocked runs a prompt that passed validation. c.mu must be held; it
// is released before the gateway call.
func (c *Controller) submitLocked(ctx context.Context, text string) Outcome {
	if isRootKeyword(text) {
		c.state.Root = true
		c.state.Messages = c.state.Messages.Append(chat.NewAssistantMessage(RootActivatedText, c.now()))
		snap := c.commitLocked(ctx)
		c.mu.Unlock()

		c.log.Info("root mode activated")
		c.log.Event(logging.EventRootActivated)
		c.log.Metrics().RecordRootActivated()
		c.notify(snap)
		return OutcomeRootActivated
	}

	// Context is the history before this prompt; the prompt travels separately.
	history := gatewayHistory(c.state.Messages)
	prefs := c.state.Settings
	root := c.state.Root
	c.state.Messages = c.state.Messages.Append(chat.NewUserMessage(text, c.now()))
	c.state.Loading = true
	snap := c.commitLocked(ctx)
	c.mu.Unlock()
	c.notify(snap)

	kind, request := ClassifyRequest(text)
	c.log.Event(logging.EventSubmit, logging.F("kind", kind.String()), logging.Root(root), logging.Prompt(request))
	c.log.Metrics().RecordSubmit()

	reply, err := c.call(ctx, kind, request, history, prefs, root)
	outcome := OutcomeReplied
	if err != nil {
		k := nerrors.Classify(err)
		c.log.Warn("request failed", logging.Kind(string(k)), logging.Error(err))
		reply = chat.NewErrorMessage(k, c.now())
		outcome = OutcomeFailed
	}

	c.mu.Lock()
	c.state.Messages = c.state.Messages.Append(reply)
	c.state.Loading = false
	autoPlay := AutoPlays(c.state.Settings, text)
	snap = c.commitLocked(ctx)
	c.mu.Unlock()
	c.notify(snap)

	if outcome == OutcomeReplied && autoPlay {
		c.log.Event(logging.EventAutoPlay, logging.MessageID(reply.ID))
		if err := c.play(ctx, reply.Content); err != nil {
			c.log.Warn("auto-play failed", logging.Error(err))
		}
	}
	return outcome
}

func rejectReason(text string, loading bool) string {
	if loading {
		return "loading"
	}
	return "empty"
}

// call runs the gateway operation for kind and builds the reply message.
func (c *Controller) call(ctx context.Context, kind RequestKind, prompt string, history []llm.Turn, s settings.UserSettings, root bool) (chat.Message, error) {
	if kind == KindImage {
		r, err := c.gateway.GenerateImage(ctx, prompt)
		if err != nil {
			return chat.Message{}, err
		}
		text := r.Text
		if text == "" {
			text = DefaultImageText
		}
		m := chat.NewAssistantMessage(text, c.now())
		m.ImageURL = r.ImageURL
		return m, nil
	}

	r, err := c.gateway.SendMessage(ctx, prompt, history, s, root)
	if err != nil {
		return chat.Message{}, err
	}
	text := r.Text
	if text == "" {
		text = EmptyReplyText
	}
	m := chat.NewAssistantMessage(text, c.now())
	m.GroundingLinks = r.Links
	return m, nil
}

// Retry removes the error message id and the user message before it, then
// submits that user message again. Anything else is rejected.
func (c *Controller) Retry(ctx context.Context, id string) Outcome {
	c.mu.Lock()
	msgs := c.state.Messages
	i := msgs.IndexOf(id)
	if c.state.Loading || i <= 0 || !msgs[i].IsError() || msgs[i-1].Role != chat.RoleUser {
		c.mu.Unlock()
		c.log.Debug("retry rejected", logging.MessageID(id))
		c.log.Metrics().RecordRejected()
		return OutcomeRejected
	}
	prompt := strings.TrimSpace(msgs[i-1].Content)
	c.state.Messages = msgs.Without(msgs[i-1].ID, id)
	c.commitLocked(ctx)

	c.log.Event(logging.EventRetry, logging.MessageID(id))
	c.log.Metrics().RecordRetry()

	// The lock is held into the resubmission so no other submit can slip in
	// between the removal and the new request.
	return c.submitLocked(ctx, prompt)
}

// RetryLast retries the most recent error message, if any.
func (c *Controller) RetryLast(ctx context.Context) Outcome {
	c.mu.Lock()
	id := c.state.Messages.LastError()
	c.mu.Unlock()
	if id == "" {
		return OutcomeRejected
	}
	return c.Retry(ctx, id)
}

// Clear drops every message but the first. A reply still in flight is
// appended when it arrives.
func (c *Controller) Clear(ctx context.Context) {
	c.mu.Lock()
	c.state.Messages = c.state.Messages.KeepFirst()
	if err := c.history.Save(ctx, nil, false); err != nil {
		c.log.Warn("clearing stored history failed", logging.Error(err))
	}
	snap := c.commitLocked(ctx)
	c.mu.Unlock()

	c.log.Event(logging.EventClear)
	c.log.Metrics().RecordClear()
	c.notify(snap)
}

// Send asks the gateway with the current context and mode without
// touching the message list.
func (c *Controller) Send(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	history := gatewayHistory(c.state.Messages)
	prefs := c.state.Settings
	root := c.state.Root
	c.mu.Unlock()

	r, err := c.gateway.SendMessage(ctx, prompt, history, prefs, root)
	if err != nil {
		return "", nerrors.TerminalForwardFailed(err)
	}
	return r.Text, nil
}

// GatewayHistory returns the conversation context sent with a prompt.
func (c *Controller) GatewayHistory() []llm.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gatewayHistory(c.state.Messages)
}

func gatewayHistory(h chat.History) []llm.Turn {
	turns := make([]llm.Turn, 0, len(h))
	for _, m := range h {
		if m.ID == chat.WelcomeID || m.IsError() {
			continue
		}
		role := llm.RoleUser
		if m.Role == chat.RoleAssistant {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Content})
	}
	return turns
}

// UpdateSettings applies fn to a copy of the settings, then stores the
// result and re-applies the history persistence rule.
func (c *Controller) UpdateSettings(ctx context.Context, fn func(*settings.UserSettings) error) error {
	c.mu.Lock()
	next := c.state.Settings
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.prefs.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Settings = next
	snap := c.commitLocked(ctx)
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Reload re-reads settings and history from storage, e.g. after another
// process changed them. It is skipped while a request is in flight. With
// persistence off the in-memory messages are the only copy and are kept.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return nil
	}
	s, err := c.prefs.Load(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if s.PersistenceEnabled {
		h, err := c.history.Load(ctx, s.AIName, true)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.state.Messages = h
	}
	c.state.Settings = s
	snap := c.state.clone()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Speak synthesizes the message id and plays it.
func (c *Controller) Speak(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.state.Messages.IndexOf(id)
	var content string
	if i >= 0 {
		content = c.state.Messages[i].Content
	}
	c.mu.Unlock()
	if i < 0 {
		return fmt.Errorf("message %q not found", id)
	}
	return c.play(ctx, content)
}

// SpeakLast plays the most recent successful assistant message.
func (c *Controller) SpeakLast(ctx context.Context) error {
	c.mu.Lock()
	m, ok := c.state.Messages.LastReply()
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no reply to play")
	}
	return c.play(ctx, m.Content)
}

func (c *Controller) play(ctx context.Context, text string) error {
	audio, err := c.gateway.GenerateSpeech(ctx, text)
	if err != nil {
		return err
	}
	if audio == nil || len(audio.Data) == 0 {
		c.log.Debug("no audio returned")
		return nil
	}
	if c.speaker == nil {
		c.log.Debug("no speaker configured, dropping audio")
		return nil
	}
	return c.speaker.Play(ctx, audio)
}

// commitLocked saves the history under the persistence rule and returns a
// snapshot for notification. Storage failures are logged, not returned.
func (c *Controller) commitLocked(ctx context.Context) State {
	if err := c.history.Save(ctx, c.state.Messages, c.state.Settings.PersistenceEnabled); err != nil {
		c.log.Warn("saving history failed", logging.Error(err))
	}
	return c.state.clone()
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
