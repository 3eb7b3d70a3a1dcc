package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"hwbot/internal/eventbus"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

var ErrDelivery = errors.New("notification delivery failed")

// DeliveryError reports a message the transport did not accept.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to chat %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error        { return e.Err }
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

type Config struct {
	// RatePerSec caps outgoing messages; bursts up to the same amount pass.
	RatePerSec int
	// SendTimeout bounds one delivery attempt, including the rate limiter wait.
	SendTimeout time.Duration
	// HistorySize is the number of recent attempts kept in memory.
	HistorySize int
}

type HistoryItem struct {
	At     time.Time
	ChatID int64
	Text   string
	Err    string
}

// NotificationEvent is the payload of notification.* bus events.
type NotificationEvent struct {
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id,omitempty"`
	At        time.Time `json:"at"`
	Error     string    `json:"error,omitempty"`
}

// Service is safe for concurrent use.
type Service struct {
	sender kit.Sender
	log    logx.Logger
	bus    eventbus.Bus

	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return &Service{
		sender:  sender,
		log:     log,
		bus:     bus,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Send delivers text to chatID once. Any failure, including a rate limiter
// wait that outlives the timeout, is returned as *DeliveryError.
func (s *Service) Send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	s.log.Debug("sending notification", logx.Int64("chat_id", chatID), logx.Int("len", len(text)))

	var (
		ref kit.MessageRef
		err error
	)
	if s.sender == nil {
		err = errors.New("no transport configured")
	} else if err = s.limiter.Wait(ctx); err != nil {
		err = errors.Wrap(err, "rate limit wait")
	} else {
		ref, err = s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true})
	}

	now := time.Now()
	if err != nil {
		s.appendHistory(HistoryItem{At: now, ChatID: chatID, Text: text, Err: err.Error()})
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeNotificationFailed, Time: now, Data: NotificationEvent{ChatID: chatID, At: now, Error: err.Error()}})
		return &DeliveryError{ChatID: chatID, Err: err}
	}

	s.appendHistory(HistoryItem{At: now, ChatID: chatID, Text: text})
	s.bus.Publish(eventbus.Event{Type: eventbus.TypeNotificationSent, Time: now, Data: NotificationEvent{ChatID: chatID, MessageID: ref.MessageID, At: now}})
	return nil
}

// History returns recent delivery attempts, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(it HistoryItem) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.history = append(s.history, it)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
}
