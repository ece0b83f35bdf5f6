package reminder

import (
	"context"
	"encoding/json"
	"time"

	"bdaybot/internal/storage"
)

type Event = storage.Event

// LeadTime is how long before the anniversary a reminder fires.
// Declaration order is evaluation order.
type LeadTime int

const (
	LeadSameDay LeadTime = iota
	LeadOneDayBefore
	LeadOneWeekBefore
)

var leadTimes = [...]LeadTime{LeadSameDay, LeadOneDayBefore, LeadOneWeekBefore}

// Offset returns the lead time in days.
func (l LeadTime) Offset() int {
	switch l {
	case LeadOneDayBefore:
		return 1
	case LeadOneWeekBefore:
		return 7
	default:
		return 0
	}
}

func (l LeadTime) String() string {
	switch l {
	case LeadOneDayBefore:
		return "one_day_before"
	case LeadOneWeekBefore:
		return "one_week_before"
	default:
		return "same_day"
	}
}

// Label is the group-facing wording.
func (l LeadTime) Label() string {
	switch l {
	case LeadOneDayBefore:
		return "1 día antes"
	case LeadOneWeekBefore:
		return "1 semana antes"
	default:
		return "Mismo día"
	}
}

func (l LeadTime) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Occurrence is one concrete reminder instant for one event.
type Occurrence struct {
	At          time.Time
	Lead        LeadTime
	Anniversary time.Time
	Subject     string
}

// Match pairs an event with its earliest occurrence.
type Match struct {
	Event      Event
	Occurrence Occurrence
}

// AuditRecord describes the last completed daily check.
// The zero value means no check has completed yet.
type AuditRecord struct {
	Timestamp time.Time
	Summary   string
}

func (r AuditRecord) IsZero() bool { return r.Timestamp.IsZero() && r.Summary == "" }

func (r AuditRecord) MarshalJSON() ([]byte, error) {
	var out struct {
		Timestamp *time.Time `json:"timestamp"`
		Summary   *string    `json:"summary"`
	}
	if !r.Timestamp.IsZero() {
		ts := r.Timestamp.UTC()
		out.Timestamp = &ts
	}
	if r.Summary != "" {
		out.Summary = &r.Summary
	}
	return json.Marshal(out)
}

// Store is the read side of event storage.
type Store interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
}

// Messenger delivers text to a named group.
type Messenger interface {
	Ready() bool
	SendToGroup(ctx context.Context, group, text string) error
}
