package reminder

import "time"

// DefaultHour is the local hour at which anniversaries are anchored.
const DefaultHour = 9

// Calculator computes reminder occurrences. The zero value uses UTC and 09:00.
type Calculator struct {
	Location *time.Location
	// Hour in [1, 23]; anything else falls back to DefaultHour.
	Hour int
}

func (c Calculator) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Calculator) hour() int {
	if c.Hour <= 0 || c.Hour > 23 {
		return DefaultHour
	}
	return c.Hour
}

// Anniversary returns the anniversary instant of ev in year.
// Out-of-range dates roll over (29 Feb in a non-leap year is 1 Mar).
func (c Calculator) Anniversary(year int, ev Event) time.Time {
	return time.Date(year, time.Month(ev.Month), ev.Day, c.hour(), 0, 0, 0, c.loc())
}

// NextOccurrence returns the earliest reminder for ev strictly after ref.
// Candidates cover the reference year and the following one; on equal
// instants the first evaluated candidate wins.
func (c Calculator) NextOccurrence(ev Event, ref time.Time) (Occurrence, bool) {
	year := ref.In(c.loc()).Year()

	var (
		best  Occurrence
		found bool
	)
	for _, y := range [2]int{year, year + 1} {
		anniv := c.Anniversary(y, ev)
		for _, lead := range leadTimes {
			at := anniv.AddDate(0, 0, -lead.Offset())
			if !at.After(ref) {
				continue
			}
			if !found || at.Before(best.At) {
				best = Occurrence{At: at, Lead: lead, Anniversary: anniv, Subject: ev.Name}
				found = true
			}
		}
	}
	return best, found
}

// Earliest reduces events to the single earliest upcoming occurrence.
// Input order breaks ties.
func (c Calculator) Earliest(events []Event, ref time.Time) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, ev := range events {
		occ, ok := c.NextOccurrence(ev, ref)
		if !ok {
			continue
		}
		if !found || occ.At.Before(best.Occurrence.At) {
			best = Match{Event: ev, Occurrence: occ}
			found = true
		}
	}
	return best, found
}
