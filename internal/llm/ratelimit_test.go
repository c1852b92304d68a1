package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/settings"
)

func TestPacer_WaitWithinBurst(t *testing.T) {
	pacer := NewPacer(60, 2)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := pacer.Wait(context.Background(), OpChat); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("calls within burst should not block, took %v", elapsed)
	}
}

func TestPacer_WaitContextCancelled(t *testing.T) {
	pacer := NewPacer(1, 1) // one request per minute

	_ = pacer.Wait(context.Background(), OpChat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pacer.Wait(ctx, OpChat)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestPacer_WaitCallback(t *testing.T) {
	pacer := NewPacer(1, 1)
	_ = pacer.Wait(context.Background(), OpChat)

	var got WaitInfo
	pacer.SetWaitCallback(func(ctx context.Context, info WaitInfo) error {
		got = info
		return nil
	})

	if err := pacer.Wait(context.Background(), OpImage); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got.Op != OpImage {
		t.Errorf("callback op = %q, want %q", got.Op, OpImage)
	}
	if got.Duration <= 0 || got.Duration > time.Minute {
		t.Errorf("callback duration = %v, want within (0, 1m]", got.Duration)
	}
}

func TestRateLimited_NeverRetries(t *testing.T) {
	mock := NewMockGateway()
	mock.SendMessageFunc = func(context.Context, string, []Turn, settings.UserSettings, bool) (*ChatReply, error) {
		return nil, nerrors.GatewayFailed(OpChat, nerrors.KindRateLimit, errors.New("429"))
	}

	gw := NewRateLimited(mock, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 600, Burst: 5}, nil)

	_, err := gw.SendMessage(context.Background(), "hi", nil, settings.Defaults(), false)
	if nerrors.Classify(err) != nerrors.KindRateLimit {
		t.Errorf("expected rate limit error to pass through, got %v", err)
	}
	if chats, _, _ := mock.Calls(); chats != 1 {
		t.Errorf("expected exactly 1 call, got %d", chats)
	}
}

func TestRateLimited_Delegates(t *testing.T) {
	mock := NewMockGateway()
	gw := NewRateLimited(mock, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 600, Burst: 5}, nil)
	ctx := context.Background()

	if _, err := gw.GenerateImage(ctx, "a cat"); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.GenerateSpeech(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if _, image, speech := mock.Calls(); image != 1 || speech != 1 {
		t.Errorf("expected one image and one speech call, got %d and %d", image, speech)
	}
	if gw.Name() != "mock" {
		t.Errorf("Name() = %q", gw.Name())
	}
}
