package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

// WaitInfo describes a pacing delay before a gateway call
type WaitInfo struct {
	Duration time.Duration
	Op       string
}

// WaitCallback is called when a call has to wait for the bucket.
// It should block for the duration or until ctx is cancelled.
// If nil, a plain timer is used.
type WaitCallback func(ctx context.Context, info WaitInfo) error

// Pacer is a request-per-minute token bucket
type Pacer struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	onWait  WaitCallback
}

// NewPacer creates a pacer allowing requestsPerMinute with the given burst
func NewPacer(requestsPerMinute, burst int) *Pacer {
	if burst < 1 {
		burst = 1
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// SetWaitCallback sets a callback to be invoked when waiting for a slot
func (p *Pacer) SetWaitCallback(cb WaitCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onWait = cb
}

// Wait blocks until one request may be made
func (p *Pacer) Wait(ctx context.Context, op string) error {
	p.mu.Lock()
	onWait := p.onWait
	p.mu.Unlock()

	reservation := p.limiter.Reserve()
	delay := reservation.Delay()
	if delay <= 0 {
		return nil
	}

	if onWait != nil {
		if err := onWait(ctx, WaitInfo{Duration: delay, Op: op}); err != nil {
			reservation.Cancel()
			return err
		}
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	}
}

// RateLimited paces calls to another Gateway. It never retries: a
// rate-limit error from the provider is returned as is.
type RateLimited struct {
	next  Gateway
	pacer *Pacer
	log   *logging.Logger
}

// NewRateLimited wraps next with a pacer built from cfg
func NewRateLimited(next Gateway, cfg config.RateLimitConfig, log *logging.Logger) *RateLimited {
	if log == nil {
		log = logging.Nop()
	}
	return &RateLimited{
		next:  next,
		pacer: NewPacer(cfg.RequestsPerMinute, cfg.Burst),
		log:   log.WithPrefix("pacer"),
	}
}

// SetWaitCallback lets the caller render pacing delays.
func (r *RateLimited) SetWaitCallback(cb WaitCallback) {
	r.pacer.SetWaitCallback(cb)
}

func (r *RateLimited) wait(ctx context.Context, op string) error {
	start := time.Now()
	if err := r.pacer.Wait(ctx, op); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		r.log.Debug("paced request", logging.Op(op), logging.Duration(waited))
		r.log.Event(logging.EventGatewayThrottle, logging.Op(op), logging.Duration(waited))
	}
	return nil
}

func (r *RateLimited) SendMessage(ctx context.Context, prompt string, history []Turn, s settings.UserSettings, root bool) (*ChatReply, error) {
	if err := r.wait(ctx, OpChat); err != nil {
		return nil, err
	}
	return r.next.SendMessage(ctx, prompt, history, s, root)
}

func (r *RateLimited) GenerateImage(ctx context.Context, prompt string) (*ImageReply, error) {
	if err := r.wait(ctx, OpImage); err != nil {
		return nil, err
	}
	return r.next.GenerateImage(ctx, prompt)
}

func (r *RateLimited) GenerateSpeech(ctx context.Context, text string) (*Audio, error) {
	if err := r.wait(ctx, OpSpeech); err != nil {
		return nil, err
	}
	return r.next.GenerateSpeech(ctx, text)
}

func (r *RateLimited) Name() string { return r.next.Name() }

var _ Gateway = (*RateLimited)(nil)
