package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hwbot/internal/config"
)

func testConfig(practicumURL, botURL string) *config.Config {
	return &config.Config{
		Practicum: config.Practicum{Endpoint: practicumURL, Token: "ptoken", FromDate: 1000, RequestTimeout: time.Second},
		Telegram:  config.Telegram{Token: "123:abc", ChatID: 5, APIURL: botURL, SendTimeout: time.Second, RatePerSec: 10},
		Poll:      config.Poll{Interval: 20 * time.Millisecond},
		Logging:   config.LoggingConfig{Level: "error"},
		Systemd:   config.Systemd{Notify: false},
	}
}

func TestNewRejectsMissingToken(t *testing.T) {
	t.Parallel()
	cfg := testConfig("http://127.0.0.1:1/", "http://127.0.0.1:1")
	cfg.Telegram.Token = ""
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for empty telegram token")
	}
}

func TestPollsAndNotifiesOnce(t *testing.T) {
	t.Parallel()

	cursors := make(chan string, 64)
	practicumSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth ptoken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		select {
		case cursors <- r.URL.Query().Get("from_date"):
		default:
		}
		_, _ = io.WriteString(w, `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":2000}`)
	}))
	defer practicumSrv.Close()

	texts := make(chan string, 16)
	botSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			text, _ := body["text"].(string)
			texts <- text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":5,"type":"private"}}}`)
	}))
	defer botSrv.Close()

	a, err := New(testConfig(practicumSrv.URL, botSrv.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case text := <-texts:
		want := `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`
		if text != want {
			t.Fatalf("text = %q, want %q", text, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message sent")
	}

	// Let a few more cycles run; the unchanged status must not be re-sent.
	for i := 0; i < 3; i++ {
		select {
		case <-cursors:
		case <-time.After(5 * time.Second):
			t.Fatal("poll loop stalled")
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case text := <-texts:
		t.Fatalf("unexpected second message %q", text)
	default:
	}
	if got := a.poll.Cursor(); got != 2000 {
		t.Fatalf("cursor = %d, want 2000", got)
	}
	if n := len(a.notif.History()); n != 1 {
		t.Fatalf("history = %d, want 1", n)
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}
}

func TestLoggingForFallsBackToNotificationChat(t *testing.T) {
	t.Parallel()
	a := &App{cfg: testConfig("", "")}
	got := a.loggingFor(&config.File{Logging: config.LoggingConfig{Level: "warn", Telegram: config.LoggingTelegram{Enabled: true}}})
	if got.Telegram.ChatID != 5 || got.Level != "warn" {
		t.Fatalf("logx config = %+v", got)
	}
}

func TestCallTimeoutStaysInsideSendTimeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		send, want time.Duration
	}{
		{send: 10 * time.Second, want: 8 * time.Second},
		{send: time.Minute, want: 58 * time.Second},
		{send: time.Second, want: 800 * time.Millisecond},
	}
	for _, tt := range tests {
		got := callTimeout(tt.send)
		if got != tt.want || got >= tt.send {
			t.Fatalf("callTimeout(%v) = %v, want %v", tt.send, got, tt.want)
		}
	}
}
