// Package seed loads birthday lists of the form
//
//	- date: "13-01"
//	  name: Cristian
//
// into a store.
package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"bdaybot/internal/reminder"
)

type Entry struct {
	Date string `yaml:"date"` // DD-MM
	Name string `yaml:"name"`
}

type Writer interface {
	CreateEvent(ctx context.Context, ev reminder.Event) (reminder.Event, error)
	DeleteAll(ctx context.Context) error
}

// Parse decodes and validates a YAML (or JSON) list of entries.
func Parse(data []byte) ([]reminder.Event, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	out := make([]reminder.Event, 0, len(entries))
	for i, e := range entries {
		ev, err := e.Event()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%q): %w", i, e.Name, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Event converts the DD-MM date into a validated event.
func (e Entry) Event() (reminder.Event, error) {
	dd, mm, ok := strings.Cut(strings.TrimSpace(e.Date), "-")
	if !ok {
		return reminder.Event{}, fmt.Errorf("date %q: want DD-MM", e.Date)
	}
	day, err := strconv.Atoi(dd)
	if err != nil {
		return reminder.Event{}, fmt.Errorf("date %q: bad day", e.Date)
	}
	month, err := strconv.Atoi(mm)
	if err != nil {
		return reminder.Event{}, fmt.Errorf("date %q: bad month", e.Date)
	}
	ev := reminder.Event{Name: strings.TrimSpace(e.Name), Day: day, Month: month}
	if err := reminder.ValidateEvent(ev); err != nil {
		return reminder.Event{}, err
	}
	return ev, nil
}

// Apply inserts events in order, clearing the store first when clear is set.
func Apply(ctx context.Context, w Writer, events []reminder.Event, clear bool) (int, error) {
	if clear {
		if err := w.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("clear: %w", err)
		}
	}
	for i, ev := range events {
		if _, err := w.CreateEvent(ctx, ev); err != nil {
			return i, fmt.Errorf("insert %q: %w", ev.Name, err)
		}
	}
	return len(events), nil
}
