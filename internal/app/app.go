// Package app wires the poll loop to its fetcher, notifier, logging and
// process lifecycle.
package app

import (
	"context"
	"strings"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/eventbus"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/sdnotify"
	"hwbot/internal/runtime/supervisor"
	telegram "hwbot/internal/transport/telegram/adapter"
	logx "hwbot/pkg/logx"
)

type App struct {
	cfg  *config.Config
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus
	sd   *sdnotify.Notifier

	notif *notifier.Service
	poll  *poller.Controller

	sup *supervisor.Supervisor
}

// New builds every component from cfg. cfgm may be nil when the bot runs
// from environment variables only; live logging reload is then disabled.
func New(cfg *config.Config, cfgm *config.Manager) (*App, error) {
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: callTimeout(cfg.Telegram.SendTimeout),
	}, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(cfg.Logging.Logx(), ad.LogSender())
	bus := eventbus.New()
	sd := sdnotify.New(cfg.Systemd.Notify, log.With(logx.String("comp", "sdnotify")))

	notif := notifier.New(notifier.Config{
		RatePerSec:  cfg.Telegram.RatePerSec,
		SendTimeout: cfg.Telegram.SendTimeout,
	}, ad, log.With(logx.String("comp", "notifier")), bus)

	fetcher := practicum.New(practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  cfg.Practicum.RequestTimeout,
	}, log.With(logx.String("comp", "practicum")))

	poll, err := poller.New(poller.Config{
		Interval:      cfg.Poll.Interval,
		ChatID:        cfg.Telegram.ChatID,
		InitialCursor: cfg.Practicum.FromDate,
	}, fetcher, notif, log.With(logx.String("comp", "poller")),
		poller.WithBus(bus),
		poller.WithHeartbeat(sd.Heartbeat),
	)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	return &App{
		cfg:   cfg,
		cfgm:  cfgm,
		log:   log.With(logx.String("comp", "app")),
		logs:  logSvc,
		bus:   bus,
		sd:    sd,
		notif: notif,
		poll:  poll,
	}, nil
}

// callTimeout bounds one Bot API call strictly inside the notifier's send
// timeout. The HTTP request is then aborted before the notifier reports a
// failure, so a send the poller will repeat cannot still land afterwards.
func callTimeout(send time.Duration) time.Duration {
	margin := min(send/5, 2*time.Second)
	return send - margin
}

// Done is closed when the app context is cancelled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.log.Info("bot starting",
		logx.String("endpoint", a.cfg.Practicum.Endpoint),
		logx.Int64("chat_id", a.cfg.Telegram.ChatID),
		logx.Duration("interval", a.cfg.Poll.Interval),
		logx.Bool("config_watch", a.cfgm != nil))

	a.sup.Go("poller", a.poll.Run)

	events, unsub := a.bus.Subscribe(64)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.logEvent(e)
			}
		}
	})

	if a.cfgm != nil {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		a.cfgm.SetValidator(func(f *config.File) error {
			_, err := config.Resolve(f, config.Env{})
			return err
		})
		sub := a.cfgm.Subscribe(4)
		a.sup.Go("config.watch", a.cfgm.Watch)
		a.sup.Go0("config.reload", func(c context.Context) {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub)
		})
	}

	a.sd.Ready()
	return nil
}

func (a *App) logEvent(e eventbus.Event) {
	switch d := e.Data.(type) {
	case poller.CycleReport:
		a.log.Debug("cycle done",
			logx.Uint64("cycle", d.Seq),
			logx.String("outcome", string(d.Outcome)),
			logx.Int64("cursor", d.CursorAfter),
			logx.Duration("took", d.Took))
	case notifier.NotificationEvent:
		a.log.Debug("event", logx.String("type", e.Type), logx.Int64("chat_id", d.ChatID), logx.Int("message_id", d.MessageID))
	default:
		a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
	}
}

// reloadLoop applies the logging section of every new config file. Other
// sections only take effect after a restart.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.File) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-sub:
			if !ok {
				return
			}
			changed, fields := config.SummarizeChange(last, f)
			last = f
			if len(changed) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			a.log.Info("config changed", append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, fields...)...)
			if restart := config.RestartRequired(changed); len(restart) > 0 {
				a.log.Warn("config sections changed; restart required for changes to take effect",
					logx.String("sections", strings.Join(restart, ",")))
			}
			a.logs.Apply(a.loggingFor(f))
		}
	}
}

func (a *App) loggingFor(f *config.File) logx.Config {
	l := f.Logging
	if l.Telegram.ChatID == 0 {
		l.Telegram.ChatID = a.cfg.Telegram.ChatID
	}
	return l.Logx()
}

// Stop cancels every goroutine and waits for them within ctx. The logging
// service is closed last so shutdown messages still reach every sink.
func (a *App) Stop(ctx context.Context) error {
	a.sd.Stopping()
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if err == nil {
		a.log.Info("bot stopped", logx.Int64("cursor", a.poll.Cursor()), logx.Int("deliveries", len(a.notif.History())))
	} else {
		a.log.Warn("bot stopped with error", logx.Err(err))
	}
	_ = a.logs.Close()
	return err
}
