package poller

import (
	"context"
	"time"

	"hwbot/internal/homework"
)

// Fetcher returns every status change after cursor.
type Fetcher interface {
	FetchStatuses(ctx context.Context, cursor int64) (*homework.StatusRecord, error)
}

// Sender delivers one message. It must not retry internally.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Config struct {
	// Interval is the fixed pause after every cycle, whatever its outcome.
	Interval time.Duration
	// ChatID is the notification destination.
	ChatID int64
	// InitialCursor is the first from_date; <= 0 means "now".
	InitialCursor int64
}

// Phase is the controller state a cycle is in (or stopped in).
type Phase string

const (
	PhaseFetching   Phase = "fetching"
	PhaseValidating Phase = "validating"
	PhaseDiffing    Phase = "diffing"
	PhaseNotifying  Phase = "notifying"
	PhaseSleeping   Phase = "sleeping"
)

// Outcome summarizes how a cycle ended.
type Outcome string

const (
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomeInvalid        Outcome = "invalid_response"
	OutcomeFormatFailed   Outcome = "format_failed"
	OutcomeNoEntries      Outcome = "no_entries"
	OutcomeUnchanged      Outcome = "unchanged"
	OutcomeDelivered      Outcome = "delivered"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomePanic          Outcome = "panic"
)

// CycleReport describes one completed cycle. It is also the payload of the
// cycle.done bus event.
type CycleReport struct {
	Seq          uint64        `json:"seq"`
	Phase        Phase         `json:"phase"`
	Outcome      Outcome       `json:"outcome"`
	CursorBefore int64         `json:"cursor_before"`
	CursorAfter  int64         `json:"cursor_after"`
	Err          error         `json:"-"`
	Took         time.Duration `json:"took"`
}
