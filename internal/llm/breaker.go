package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

// ErrLinkDown is the cause of calls rejected while the breaker is open.
var ErrLinkDown = errors.New("gateway link down: too many consecutive failures")

// LinkState is the position of a Breaker.
type LinkState int

const (
	LinkUp      LinkState = iota // calls pass through
	LinkDown                     // calls fail fast
	LinkProbing                  // one call at a time tests the provider
)

func (s LinkState) String() string {
	switch s {
	case LinkDown:
		return "down"
	case LinkProbing:
		return "probing"
	default:
		return "up"
	}
}

// Breaker stops calling a provider that keeps failing with transient
// errors. It never retries: a rejected call fails immediately with a
// network kind error and the user decides when to try again.
type Breaker struct {
	next Gateway
	log  *logging.Logger
	now  func() time.Time

	mu          sync.Mutex
	state       LinkState
	failures    int
	probeOK     int
	probing     bool
	lastFailure time.Time

	maxFailures int
	cooldown    time.Duration
	probesToUp  int
}

// NewBreaker wraps next. Zero values in cfg fall back to 5 failures and a 30s cooldown.
func NewBreaker(next Gateway, cfg config.BreakerConfig, log *logging.Logger) *Breaker {
	if log == nil {
		log = logging.Nop()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next:        next,
		log:         log.WithPrefix("breaker"),
		now:         time.Now,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		probesToUp:  2,
	}
}

// State returns the current link state.
func (b *Breaker) State() LinkState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case LinkUp:
		return true
	case LinkDown:
		if b.now().Sub(b.lastFailure) <= b.cooldown {
			return false
		}
		b.state = LinkProbing
		b.probeOK = 0
		b.probing = true
		return true
	default:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

// record updates the state after a call. Only transient failures count;
// a safety block or a rejected key says nothing about the link.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.state == LinkProbing
	if wasProbe {
		b.probing = false
	}

	if err != nil && nerrors.IsRetryable(err) {
		b.lastFailure = b.now()
		b.failures++
		if wasProbe || b.failures >= b.maxFailures {
			if b.state != LinkDown {
				b.log.Warn("link down", logging.F("failures", b.failures))
			}
			b.state = LinkDown
			b.probeOK = 0
		}
		return
	}

	switch b.state {
	case LinkProbing:
		// Only a clean answer counts towards bringing the link back.
		if err != nil {
			return
		}
		b.probeOK++
		if b.probeOK >= b.probesToUp {
			b.log.Info("link restored")
			b.state = LinkUp
			b.failures = 0
			b.probeOK = 0
		}
	case LinkUp:
		b.failures = 0
	}
}

func (b *Breaker) rejected(op string) error {
	b.log.Debug("call rejected", logging.Op(op))
	return nerrors.GatewayFailed(op, nerrors.KindNetwork, ErrLinkDown)
}

func (b *Breaker) SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (*ChatReply, error) {
	if !b.allow() {
		return nil, b.rejected(OpChat)
	}
	reply, err := b.next.SendMessage(ctx, prompt, history, s, root)
	b.record(err)
	return reply, err
}

func (b *Breaker) GenerateImage(ctx context.Context, prompt string) (*ImageReply, error) {
	if !b.allow() {
		return nil, b.rejected(OpImage)
	}
	reply, err := b.next.GenerateImage(ctx, prompt)
	b.record(err)
	return reply, err
}

func (b *Breaker) GenerateSpeech(ctx context.Context, text string) (*Audio, error) {
	if !b.allow() {
		return nil, b.rejected(OpSpeech)
	}
	audio, err := b.next.GenerateSpeech(ctx, text)
	b.record(err)
	return audio, err
}

func (b *Breaker) Name() string { return b.next.Name() }

var _ Gateway = (*Breaker)(nil)
