// Package config loads the bot configuration from the environment and an
// optional YAML/JSON file.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"

	"hwbot/internal/practicum"
)

const (
	DefaultEndpoint       = practicum.DefaultEndpoint
	DefaultRequestTimeout = 15 * time.Second
	DefaultSendTimeout    = 10 * time.Second
	DefaultRatePerSec     = 1
	DefaultInterval       = 10 * time.Minute
)

// Env holds what must come from the environment. Nothing is marked required
// here: Validate reports every missing value at once instead of stopping at
// the first one.
type Env struct {
	PracticumToken string `envconfig:"PRACTICUM_TOKEN"`
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// ConfigurationError means the bot cannot start.
type ConfigurationError struct {
	// Missing lists the names of absent credentials.
	Missing []string
	// Err is set when a value is present but unusable.
	Err error
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, &ConfigurationError{Err: cerrors.Wrap(err, "failed to process env config")}
	}
	return env, nil
}

// ParseFile reads path strictly: unknown keys and trailing data are errors.
func ParseFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "read config %s", path)
	}
	return decodeFile(path, b)
}

func decodeFile(path string, b []byte) (*File, error) {
	jb, err := toJSON(path, b)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(jb)) == 0 {
		return &File{}, nil
	}

	var f File
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, cerrors.Wrapf(err, "decode config %s", path)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, cerrors.Newf("decode config %s: trailing data", path)
		}
		return nil, cerrors.Wrapf(err, "decode config %s", path)
	}
	return &f, nil
}

// Resolve merges env and file and applies defaults. It does not check for
// missing credentials; call Validate for that.
func Resolve(f *File, env Env) (*Config, error) {
	if f == nil {
		f = &File{}
	}
	cfg := &Config{
		Practicum: Practicum{
			Endpoint: strings.TrimSpace(f.Practicum.Endpoint),
			Token:    strings.TrimSpace(env.PracticumToken),
			FromDate: f.Practicum.FromDate,
		},
		Telegram: Telegram{
			Token:      strings.TrimSpace(env.TelegramToken),
			ChatID:     env.TelegramChatID,
			APIURL:     strings.TrimSpace(f.Telegram.APIURL),
			RatePerSec: f.Telegram.RatePerSec,
		},
		Logging: f.Logging,
		Systemd: Systemd{Notify: true},
	}
	if cfg.Practicum.Endpoint == "" {
		cfg.Practicum.Endpoint = DefaultEndpoint
	}
	if cfg.Telegram.ChatID == 0 {
		cfg.Telegram.ChatID = f.Telegram.ChatID
	}
	if cfg.Telegram.RatePerSec <= 0 {
		cfg.Telegram.RatePerSec = DefaultRatePerSec
	}
	if cfg.Logging.Telegram.ChatID == 0 {
		cfg.Logging.Telegram.ChatID = cfg.Telegram.ChatID
	}
	if f.Systemd.Notify != nil {
		cfg.Systemd.Notify = *f.Systemd.Notify
	}

	var err error
	if cfg.Practicum.RequestTimeout, err = ParseDurationOrDefault("practicum.request_timeout", f.Practicum.RequestTimeout, DefaultRequestTimeout); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if cfg.Telegram.SendTimeout, err = ParseDurationOrDefault("telegram.send_timeout", f.Telegram.SendTimeout, DefaultSendTimeout); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if cfg.Poll.Interval, err = ParseDurationOrDefault("poll.interval", f.Poll.Interval, DefaultInterval); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return cfg, nil
}

// Validate reports every missing credential in one error.
func (c *Config) Validate() error {
	var missing []string
	if c.Practicum.Token == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if c.Telegram.Token == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.Telegram.ChatID == 0 {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Load reads the environment and, when path is not empty, the config file,
// and returns a validated Config.
func Load(path string) (*Config, *File, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	f := &File{}
	if strings.TrimSpace(path) != "" {
		if f, err = ParseFile(path); err != nil {
			return nil, nil, &ConfigurationError{Err: err}
		}
	}
	cfg, err := Resolve(f, env)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, f, nil
}
