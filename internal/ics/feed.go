// Package ics renders the birthday list as an iCalendar feed with yearly
// recurrence rules, and expands those rules for upcoming-date previews.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"bdaybot/internal/reminder"
)

const productID = "-//bdaybot//birthdays//ES"

// Rule returns the yearly recurrence for ev, starting at local midnight of from.
func Rule(ev reminder.Event, loc *time.Location, from time.Time) (*rrule.RRule, error) {
	if loc == nil {
		loc = time.UTC
	}
	from = from.In(loc)
	return rrule.NewRRule(rrule.ROption{
		Freq:       rrule.YEARLY,
		Bymonth:    []int{ev.Month},
		Bymonthday: []int{ev.Day},
		Dtstart:    time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc),
	})
}

// Calendar builds an all-day yearly event per birthday.
func Calendar(events []reminder.Event, loc *time.Location, now time.Time, name string) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	for _, ev := range events {
		r, err := Rule(ev, loc, now)
		if err != nil {
			return nil, fmt.Errorf("rrule %s: %w", ev.ID, err)
		}
		start := r.After(r.OrigOptions.Dtstart, true)
		if start.IsZero() {
			continue
		}
		ve := cal.AddEvent(ev.ID + "@bdaybot")
		ve.SetSummary("Cumpleaños de " + ev.Name)
		ve.SetDtStampTime(now.UTC())
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ve.AddRrule(r.OrigOptions.RRuleString())
	}
	return cal, nil
}

// Render serializes the feed.
func Render(events []reminder.Event, loc *time.Location, now time.Time, name string) (string, error) {
	cal, err := Calendar(events, loc, now, name)
	if err != nil {
		return "", err
	}
	return cal.Serialize(), nil
}
