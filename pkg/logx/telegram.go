package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sender delivers a plain-text log line to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, chatID int64, text string) error

func (f SenderFunc) SendText(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}

const (
	telegramQueueSize   = 64
	telegramSendTimeout = 10 * time.Second
	telegramMaxLen      = 3500
)

type telegramItem struct {
	chatID int64
	msg    string
}

// telegramSink is a zerolog.LevelWriter that forwards high-severity lines to
// Telegram. Writes never block: the queue drops on overflow and the limiter
// drops bursts.
type telegramSink struct {
	sender Sender

	mu       sync.Mutex
	chatID   int64
	minLevel zerolog.Level
	limiter  *rate.Limiter

	queue  chan telegramItem
	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTelegramSink(sender Sender) *telegramSink {
	return &telegramSink{
		sender:   sender,
		minLevel: zerolog.ErrorLevel,
		limiter:  rate.NewLimiter(1, 1),
		queue:    make(chan telegramItem, telegramQueueSize),
	}
}

func (t *telegramSink) apply(cfg TelegramConfig) {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	t.mu.Lock()
	t.chatID = cfg.ChatID
	t.minLevel = parseLevel(cfg.MinLevel, zerolog.ErrorLevel)
	t.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	t.mu.Unlock()

	t.once.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		t.mu.Lock()
		t.cancel = cancel
		t.mu.Unlock()
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.worker(ctx)
		}()
	})
}

func (t *telegramSink) close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
		t.wg.Wait()
	}
}

func (t *telegramSink) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-t.queue:
			if t.sender == nil {
				continue
			}
			sctx, cancel := context.WithTimeout(ctx, telegramSendTimeout)
			if err := t.sender.SendText(sctx, it.chatID, it.msg); err != nil {
				fmt.Fprintf(Stderr(), "logx: telegram sink send failed: %v\n", err)
			}
			cancel()
		}
	}
}

func (t *telegramSink) Write(p []byte) (int, error) {
	return t.WriteLevel(zerolog.InfoLevel, p)
}

func (t *telegramSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	t.mu.Lock()
	chatID := t.chatID
	minLevel := t.minLevel
	lim := t.limiter
	t.mu.Unlock()

	if t.sender == nil || chatID == 0 || level < minLevel || !lim.Allow() {
		return len(p), nil
	}
	msg := formatTelegramJSON(p)
	if msg == "" {
		return len(p), nil
	}
	select {
	case t.queue <- telegramItem{chatID: chatID, msg: msg}:
	default:
	}
	return len(p), nil
}

// formatTelegramJSON renders a zerolog JSON line as a short multi-line message.
func formatTelegramJSON(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return truncate(strings.TrimSpace(string(p)), telegramMaxLen)
	}

	lvl, _ := m["level"].(string)
	msg, _ := m["message"].(string)

	var b strings.Builder
	if lvl != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(lvl))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case "time", "level", "message", "stack":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}
	return truncate(b.String(), telegramMaxLen)
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:maxN]
	}
	return s[:maxN-3] + "..."
}
