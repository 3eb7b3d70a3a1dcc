// Package adapter implements the messaging port on top of the Telegram Bot API.
package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	tele "gopkg.in/telebot.v4"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API base URL (self-hosted bot API server, tests).
	APIURL string
	// Timeout bounds a single Bot API call.
	Timeout time.Duration
}

// Adapter is send-only: the bot never polls for updates.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

var _ kit.Sender = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		URL:    strings.TrimSpace(cfg.APIURL),
		Client: &http.Client{Timeout: timeout},
		// Skip getMe at startup; a bad token surfaces as a delivery error
		// instead of killing the process on a transient network failure.
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			log.Warn("telebot error", logx.Err(err))
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	if err := ctx.Err(); err != nil {
		return kit.MessageRef{}, err
	}
	sendOpt := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
		ThreadID:              to.ThreadID,
	}

	// telebot has no context support; run the call so ctx can still bound it.
	type result struct {
		msg *tele.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := a.bot.Send(&tele.Chat{ID: to.ChatID}, text, sendOpt)
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return kit.MessageRef{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return kit.MessageRef{}, r.err
		}
		ref := kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID}
		if r.msg != nil {
			ref.MessageID = r.msg.ID
		}
		return ref, nil
	}
}

// LogSender exposes the adapter as a logx.Sender for the Telegram log sink.
func (a *Adapter) LogSender() logx.Sender {
	return logx.SenderFunc(func(ctx context.Context, chatID int64, text string) error {
		_, err := a.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true})
		return err
	})
}
