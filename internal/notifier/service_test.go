package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hwbot/internal/eventbus"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []kit.ChatTarget
	texts []string
	err   error
	block bool
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	f.calls = append(f.calls, to)
	f.texts = append(f.texts, text)
	err, block := f.err, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return kit.MessageRef{}, ctx.Err()
	}
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.calls)}, nil
}

func TestSendDelivers(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(Config{}, fs, logx.Nop(), bus)
	if err := s.Send(context.Background(), 42, "hw1 taken for review"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fs.calls) != 1 || fs.calls[0].ChatID != 42 || fs.texts[0] != "hw1 taken for review" {
		t.Fatalf("unexpected calls: %+v %v", fs.calls, fs.texts)
	}
	e := <-events
	if e.Type != eventbus.TypeNotificationSent {
		t.Fatalf("event type = %q", e.Type)
	}
	h := s.History()
	if len(h) != 1 || h[0].Err != "" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestSendWrapsTransportFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("telegram down")
	s := New(Config{}, &fakeSender{err: boom}, logx.Nop(), nil)

	err := s.Send(context.Background(), 42, "x")
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %v", err)
	}
	if de.ChatID != 42 || !errors.Is(err, boom) || !errors.Is(err, ErrDelivery) {
		t.Fatalf("unexpected error chain: %v", err)
	}
	if h := s.History(); len(h) != 1 || h[0].Err == "" {
		t.Fatalf("failed attempt should be recorded: %+v", h)
	}
}

func TestSendDoesNotRetry(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{err: errors.New("nope")}
	s := New(Config{RatePerSec: 10}, fs, logx.Nop(), nil)
	_ = s.Send(context.Background(), 1, "x")
	if len(fs.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(fs.calls))
	}
}

func TestSendTimeout(t *testing.T) {
	t.Parallel()
	s := New(Config{SendTimeout: 30 * time.Millisecond}, &fakeSender{block: true}, logx.Nop(), nil)
	err := s.Send(context.Background(), 1, "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSendWithoutTransport(t *testing.T) {
	t.Parallel()
	err := New(Config{}, nil, logx.Nop(), nil).Send(context.Background(), 1, "x")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()
	s := New(Config{RatePerSec: 100, HistorySize: 3}, &fakeSender{}, logx.Nop(), nil)
	for i := 0; i < 5; i++ {
		if err := s.Send(context.Background(), 1, string(rune('a'+i))); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	h := s.History()
	if len(h) != 3 || h[0].Text != "c" || h[2].Text != "e" {
		t.Fatalf("unexpected history: %+v", h)
	}
}
