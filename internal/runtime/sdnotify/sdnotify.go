// Package sdnotify reports readiness and liveness to systemd. Outside a
// systemd unit (no NOTIFY_SOCKET) every call is a no-op.
package sdnotify

import (
	"github.com/coreos/go-systemd/v22/daemon"

	logx "hwbot/pkg/logx"
)

type Notifier struct {
	enabled bool
	log     logx.Logger
	notify  func(state string) (bool, error)
}

func New(enabled bool, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		enabled: enabled,
		log:     log,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

func (n *Notifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Heartbeat pings the systemd watchdog; called once per poll cycle.
func (n *Notifier) Heartbeat() { n.send(daemon.SdNotifyWatchdog) }

func (n *Notifier) send(state string) {
	if n == nil || !n.enabled {
		return
	}
	sent, err := n.notify(state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if sent {
		n.log.Trace("sd_notify sent", logx.String("state", state))
	}
}
