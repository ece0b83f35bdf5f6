package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"bdaybot/internal/reminder"
)

func TestRender_AllDayYearlyEvents(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC)
	events := []reminder.Event{
		{ID: "a", Name: "Ana", Day: 25, Month: 12},
		{ID: "b", Name: "Beto", Day: 1, Month: 1},
	}
	out, err := Render(events, time.UTC, now, "Cumpleaños")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"X-WR-CALNAME:Cumpleaños",
		"UID:a@bdaybot",
		"SUMMARY:Cumpleaños de Ana",
		"DTSTART;VALUE=DATE:20241225",
		"DTEND;VALUE=DATE:20241226",
		"DTSTART;VALUE=DATE:20250101",
		"RRULE:FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("feed missing %q:\n%s", want, out)
		}
	}
}

func TestExpand_OrdersAndSkipsNonLeapFeb29(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/Guayaquil")
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2025, 2, 20, 12, 0, 0, 0, loc)
	events := []reminder.Event{
		{ID: "leap", Name: "Lea", Day: 29, Month: 2},
		{ID: "mar", Name: "Mar", Day: 1, Month: 3},
		{ID: "feb", Name: "Feb", Day: 20, Month: 2},
	}
	got, err := Expand(events, loc, from, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 || got[0].ID != "feb" || got[1].ID != "mar" {
		t.Fatalf("got %+v", got)
	}
	if got[1].Date.Day() != 1 || got[1].Date.Month() != time.March {
		t.Fatalf("mar date = %v", got[1].Date)
	}

	leap, err := Expand(events[:1], loc, time.Date(2028, 2, 1, 0, 0, 0, 0, loc), 30*24*time.Hour)
	if err != nil || len(leap) != 1 || leap[0].Date.Day() != 29 {
		t.Fatalf("leap = %+v err=%v", leap, err)
	}
}

func TestUpcoming_LimitsToN(t *testing.T) {
	t.Parallel()
	from := time.Date(2024, 12, 18, 0, 0, 0, 0, time.UTC)
	events := []reminder.Event{
		{ID: "a", Name: "Ana", Day: 25, Month: 12},
		{ID: "b", Name: "Beto", Day: 1, Month: 1},
	}
	got, err := Upcoming(events, time.UTC, from, 3)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "a" || got[2].Date.Year() != 2025 {
		t.Fatalf("got %+v", got)
	}
}
