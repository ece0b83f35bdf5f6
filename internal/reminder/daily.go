package reminder

import (
	"context"
	"sync/atomic"
	"time"

	"bdaybot/internal/eventbus"
	"bdaybot/internal/storage"
	logx "bdaybot/pkg/logx"
)

// Settings are the hot-reloadable knobs shared by Runner and Service.
type Settings struct {
	Group    string
	Location *time.Location
	Hour     int
}

func (s Settings) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// DispatchLog receives one entry per completed or failed daily check.
type DispatchLog interface {
	AppendDispatch(ctx context.Context, e storage.DispatchEntry) error
}

// DailyResult is the outcome of one daily check.
type DailyResult struct {
	Messages []string
	Audit    AuditRecord
	Skipped  bool
}

// DailyMessages classifies events against today, tomorrow and today+7
// (month/day equality, calendar arithmetic in loc). Each event yields one
// message per matching offset, in offset order.
func DailyMessages(events []Event, today time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	d0 := today.In(loc)
	d1 := d0.AddDate(0, 0, 1)
	d7 := d0.AddDate(0, 0, 7)

	var out []string
	for _, ev := range events {
		if sameMonthDay(ev, d0) {
			out = append(out, todayMessage(ev.Name))
		}
		if sameMonthDay(ev, d1) {
			out = append(out, tomorrowMessage(ev.Name))
		}
		if sameMonthDay(ev, d7) {
			out = append(out, nextWeekMessage(ev.Name))
		}
	}
	return out
}

func sameMonthDay(ev Event, t time.Time) bool {
	return ev.Month == int(t.Month()) && ev.Day == t.Day()
}

// Runner executes the daily check. At most one check runs at a time.
type Runner struct {
	messenger Messenger
	audit     *AuditState
	history   DispatchLog
	bus       eventbus.Bus
	log       logx.Logger
	now       func() time.Time

	settings atomic.Pointer[Settings]
	running  atomic.Bool
}

type RunnerOptions struct {
	Messenger Messenger
	Audit     *AuditState
	Settings  Settings

	History DispatchLog  // optional
	Bus     eventbus.Bus // optional
	Log     logx.Logger
	Now     func() time.Time
}

func NewRunner(opt RunnerOptions) *Runner {
	r := &Runner{
		messenger: opt.Messenger,
		audit:     opt.Audit,
		history:   opt.History,
		bus:       opt.Bus,
		log:       opt.Log,
		now:       opt.Now,
	}
	if r.audit == nil {
		r.audit = NewAuditState()
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.SetSettings(opt.Settings)
	return r
}

func (r *Runner) SetSettings(s Settings) {
	r.settings.Store(&s)
}

func (r *Runner) Settings() Settings {
	if p := r.settings.Load(); p != nil {
		return *p
	}
	return Settings{}
}

func (r *Runner) Audit() *AuditState { return r.audit }

// Running reports whether a check is in flight.
func (r *Runner) Running() bool { return r.running.Load() }

// RunDailyCheck classifies events for today and sends one combined message.
//
// A not-ready messenger skips the cycle without touching the audit record.
// A failed send returns *DeliveryError and also leaves the audit record alone.
// Nothing is retried.
func (r *Runner) RunDailyCheck(ctx context.Context, events []Event, today time.Time) (DailyResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return DailyResult{}, ErrCheckInProgress
	}
	defer r.running.Store(false)

	if r.messenger == nil || !r.messenger.Ready() {
		return r.skip(), nil
	}

	set := r.Settings()
	msgs := DailyMessages(events, today, set.loc())

	summary := NothingTodaySummary
	if len(msgs) > 0 {
		text := joinMessages(msgs)
		if err := r.messenger.SendToGroup(ctx, set.Group, text); err != nil {
			derr := &DeliveryError{Group: set.Group, Err: err}
			r.log.Error("daily check delivery failed", logx.String("group", set.Group), logx.Int("messages", len(msgs)), logx.Err(err))
			r.appendHistory(ctx, storage.DispatchEntry{At: r.now(), Group: set.Group, Messages: len(msgs), Summary: Summarize(text), Error: err.Error()})
			r.publish(eventbus.ReminderFailed, map[string]any{"group": set.Group, "messages": len(msgs), "error": err.Error()})
			return DailyResult{Messages: msgs}, derr
		}
		summary = Summarize(text)
	}

	rec := AuditRecord{Timestamp: r.now(), Summary: summary}
	r.audit.Record(rec)
	r.appendHistory(ctx, storage.DispatchEntry{At: rec.Timestamp, Group: set.Group, Messages: len(msgs), Summary: summary})
	r.publish(eventbus.ReminderDispatched, map[string]any{"group": set.Group, "messages": len(msgs), "summary": summary})
	r.log.Info("daily check completed", logx.String("group", set.Group), logx.Int("messages", len(msgs)), logx.String("summary", summary))

	return DailyResult{Messages: msgs, Audit: rec}, nil
}

func (r *Runner) skip() DailyResult {
	r.log.Info("daily check skipped: messaging client not ready")
	r.publish(eventbus.ReminderSkipped, map[string]any{"reason": "not_ready"})
	return DailyResult{Skipped: true}
}

func (r *Runner) appendHistory(ctx context.Context, e storage.DispatchEntry) {
	if r.history == nil {
		return
	}
	// history must not fail the check
	if err := r.history.AppendDispatch(context.WithoutCancel(ctx), e); err != nil {
		r.log.Warn("append dispatch history failed", logx.Err(err))
	}
}

func (r *Runner) publish(typ string, data any) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(eventbus.Event{Type: typ, Time: r.now(), Data: data})
}
