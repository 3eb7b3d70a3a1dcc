// Package poller runs the fetch, validate, diff, notify cycle on a fixed
// cadence and owns the cursor and the last delivered notification.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	cerrors "github.com/cockroachdb/errors"

	"hwbot/internal/eventbus"
	"hwbot/internal/homework"
	"hwbot/internal/notifier"
	"hwbot/internal/practicum"
	"hwbot/internal/tracker"
	"hwbot/internal/verdict"
	logx "hwbot/pkg/logx"
)

const defaultInterval = 10 * time.Minute

// Controller is single-threaded: cursor and state are only touched by the
// goroutine running Run/RunCycle. Accessors are meant for that goroutine or
// for use after Run returns.
type Controller struct {
	cfg     Config
	fetcher Fetcher
	sender  Sender
	log     logx.Logger

	bus       eventbus.Bus
	heartbeat func()

	seq    uint64
	cursor int64
	state  tracker.State
}

type Option func(*Controller)

func WithBus(bus eventbus.Bus) Option {
	return func(c *Controller) {
		if bus != nil {
			c.bus = bus
		}
	}
}

// WithHeartbeat installs a liveness hook called at the end of every cycle.
func WithHeartbeat(fn func()) Option {
	return func(c *Controller) {
		if fn != nil {
			c.heartbeat = fn
		}
	}
}

func New(cfg Config, fetcher Fetcher, sender Sender, log logx.Logger, opts ...Option) (*Controller, error) {
	if fetcher == nil {
		return nil, cerrors.New("poller: fetcher is required")
	}
	if sender == nil {
		return nil, cerrors.New("poller: sender is required")
	}
	if cfg.ChatID == 0 {
		return nil, cerrors.New("poller: chat id is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Controller{
		cfg:       cfg,
		fetcher:   fetcher,
		sender:    sender,
		log:       log,
		bus:       eventbus.Nop(),
		heartbeat: func() {},
		cursor:    cfg.InitialCursor,
	}
	if c.cursor <= 0 {
		c.cursor = time.Now().Unix()
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Controller) Cursor() int64        { return c.cursor }
func (c *Controller) State() tracker.State { return c.state }

// Run loops until ctx is cancelled. A failing cycle never stops the loop.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("poll loop started",
		logx.Duration("interval", c.cfg.Interval),
		logx.Int64("cursor", c.cursor),
		logx.Int64("chat_id", c.cfg.ChatID))

	for {
		if ctx.Err() != nil {
			break
		}
		c.RunCycle(ctx)
		if !c.sleep(ctx) {
			break
		}
	}
	c.log.Info("poll loop stopped", logx.Int64("cursor", c.cursor), logx.Uint64("cycles", c.seq))
	return nil
}

func (c *Controller) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.cfg.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// RunCycle performs exactly one cycle and reports how it ended. It never
// panics and never returns an error: this is the single place where failures
// of every component are classified and logged.
func (c *Controller) RunCycle(ctx context.Context) (rep CycleReport) {
	c.seq++
	rep = CycleReport{Seq: c.seq, Phase: PhaseFetching, CursorBefore: c.cursor}
	log := c.log.With(logx.Uint64("cycle", c.seq))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := cerrors.Newf("panic during %s: %v", rep.Phase, r)
			rep.Outcome = OutcomePanic
			rep.Err = err
			log.Error("cycle failed", logx.String("kind", "cycle"), logx.String("phase", string(rep.Phase)), logx.Err(err), logx.Stack(fmt.Sprintf("%+v", err)))
		}
		rep.CursorAfter = c.cursor
		rep.Took = time.Since(start)
		c.bus.Publish(eventbus.Event{Type: eventbus.TypeCycleDone, Time: time.Now(), Data: rep})
		c.heartbeat()
	}()

	rec, err := c.fetcher.FetchStatuses(ctx, c.cursor)
	if err != nil {
		return c.failed(ctx, log, rep, OutcomeFetchFailed, err)
	}

	// The cursor moves before validation: a response that fails validation is
	// skipped, not re-requested.
	if ts, ok := rec.CurrentDate(); ok {
		c.cursor = ts
	} else {
		log.Warn("response has no usable current_date; cursor unchanged", logx.Int64("cursor", c.cursor))
	}

	rep.Phase = PhaseValidating
	log.Debug("validating status response")
	entries, err := homework.Validate(rec)
	if err != nil {
		return c.failed(ctx, log, rep, OutcomeInvalid, err)
	}

	rep.Phase = PhaseDiffing
	res, err := tracker.Diff(entries, c.state)
	if err != nil {
		return c.failed(ctx, log, rep, OutcomeFormatFailed, err)
	}
	switch res.Kind {
	case tracker.NoEntries:
		rep.Outcome = OutcomeNoEntries
		log.Info("no change", logx.String("reason", "no entries"), logx.Int64("cursor", c.cursor))
		return rep
	case tracker.Unchanged:
		rep.Outcome = OutcomeUnchanged
		log.Info("no change", logx.String("homework", res.Candidate.Name), logx.Int64("cursor", c.cursor))
		return rep
	}

	rep.Phase = PhaseNotifying
	if err := c.sender.Send(ctx, c.cfg.ChatID, res.Candidate.Message); err != nil {
		// Not committed: the same change is attempted again next cycle while
		// the API keeps reporting it.
		return c.failed(ctx, log, rep, OutcomeDeliveryFailed, err)
	}
	c.state = res.Candidate
	rep.Outcome = OutcomeDelivered
	log.Info("notification sent", logx.String("homework", res.Candidate.Name), logx.Int64("chat_id", c.cfg.ChatID))
	return rep
}

func (c *Controller) failed(ctx context.Context, log logx.Logger, rep CycleReport, outcome Outcome, err error) CycleReport {
	rep.Outcome = outcome
	rep.Err = err
	fields := []logx.Field{
		logx.String("kind", ErrorKind(err)),
		logx.String("phase", string(rep.Phase)),
		logx.Int64("cursor", c.cursor),
		logx.Err(err),
	}
	var te *practicum.TransportError
	if errors.As(err, &te) && te.Body != "" {
		fields = append(fields, logx.String("body", te.Body))
	}
	var me *homework.MalformedResponseError
	if errors.As(err, &me) && me.Excerpt != "" {
		fields = append(fields, logx.String("body", me.Excerpt))
	}
	if ctx.Err() != nil {
		// Shutdown in progress; the failure is a consequence, not a fault.
		log.Debug("cycle interrupted", fields...)
		return rep
	}
	log.Error(failureMessage(outcome), fields...)
	return rep
}

func failureMessage(o Outcome) string {
	switch o {
	case OutcomeFetchFailed:
		return "status request failed"
	case OutcomeInvalid:
		return "status response rejected"
	case OutcomeFormatFailed:
		return "cannot build notification"
	case OutcomeDeliveryFailed:
		return "notification delivery failed"
	default:
		return "cycle failed"
	}
}

// ErrorKind classifies err into the failure categories used in logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, practicum.ErrNetwork):
		return "network"
	case errors.Is(err, practicum.ErrTransport):
		return "transport"
	case errors.Is(err, homework.ErrMalformed):
		return "malformed_response"
	case errors.Is(err, homework.ErrSchema):
		return "schema"
	case errors.Is(err, verdict.ErrMissingField):
		return "missing_field"
	case errors.Is(err, verdict.ErrUnknownStatus):
		return "unknown_status"
	case errors.Is(err, notifier.ErrDelivery):
		return "delivery"
	default:
		return "cycle"
	}
}
