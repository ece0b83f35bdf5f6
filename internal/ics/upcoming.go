package ics

import (
	"slices"
	"time"

	"bdaybot/internal/reminder"
)

// Anniversary is one expanded birthday date.
type Anniversary struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Expand lists anniversaries falling in [from, from+window), ordered by date
// then by input order. Feb 29 only appears in leap years.
func Expand(events []reminder.Event, loc *time.Location, from time.Time, window time.Duration) ([]Anniversary, error) {
	if loc == nil {
		loc = time.UTC
	}
	from = from.In(loc)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	until := day.Add(window)

	var out []Anniversary
	for _, ev := range events {
		r, err := Rule(ev, loc, day)
		if err != nil {
			return nil, err
		}
		for _, at := range r.Between(day, until, true) {
			out = append(out, Anniversary{ID: ev.ID, Name: ev.Name, Date: at})
		}
	}
	slices.SortStableFunc(out, func(a, b Anniversary) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// Upcoming returns the next n anniversaries on or after from's local day.
func Upcoming(events []reminder.Event, loc *time.Location, from time.Time, n int) ([]Anniversary, error) {
	if n <= 0 {
		return nil, nil
	}
	// four years always reaches the next Feb 29
	all, err := Expand(events, loc, from, 4*366*24*time.Hour)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}
