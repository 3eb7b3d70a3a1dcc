package config

import (
	"time"

	logx "hwbot/pkg/logx"
)

// File mirrors the optional config file. Every field may be omitted; Resolve
// fills the gaps with defaults. Secrets never live here, only in the
// environment (see Env).
type File struct {
	Practicum PracticumFile `json:"practicum"`
	Telegram  TelegramFile  `json:"telegram"`
	Poll      PollFile      `json:"poll"`
	Logging   LoggingConfig `json:"logging"`
	Systemd   SystemdFile   `json:"systemd"`
}

type PracticumFile struct {
	Endpoint string `json:"endpoint,omitempty"`
	// FromDate is the first cursor (unix seconds). 0 means "start now".
	FromDate int64 `json:"from_date,omitempty"`
	// RequestTimeout is a Go duration string (e.g. "15s").
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type TelegramFile struct {
	// ChatID is used when TELEGRAM_CHAT_ID is not set.
	ChatID      int64  `json:"chat_id,omitempty"`
	APIURL      string `json:"api_url,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
}

type PollFile struct {
	// Interval is the pause after every cycle (Go duration string).
	Interval string `json:"interval,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled bool `json:"enabled"`
	// ChatID defaults to the notification chat.
	ChatID     int64  `json:"chat_id,omitempty"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SystemdFile.Notify is a pointer so an explicit false can be told apart from
// an omitted key (default true).
type SystemdFile struct {
	Notify *bool `json:"notify,omitempty"`
}

// Config is the resolved, typed configuration handed to the app. Treat it as
// read-only once Resolve returns.
type Config struct {
	Practicum Practicum
	Telegram  Telegram
	Poll      Poll
	Logging   LoggingConfig
	Systemd   Systemd
}

type Practicum struct {
	Endpoint       string
	Token          string
	FromDate       int64
	RequestTimeout time.Duration
}

type Telegram struct {
	Token       string
	ChatID      int64
	APIURL      string
	SendTimeout time.Duration
	RatePerSec  int
}

type Poll struct {
	Interval time.Duration
}

type Systemd struct {
	Notify bool
}

// Logx converts the logging section into the logx service config.
func (l LoggingConfig) Logx() logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			ChatID:     l.Telegram.ChatID,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}
