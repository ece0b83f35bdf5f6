package reminder

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameRunes bounds names so one reminder always fits in a chat message.
const MaxNameRunes = 100

// ValidateEvent rejects empty or overlong names and dates that do not exist in a leap year.
func ValidateEvent(ev Event) error {
	if strings.TrimSpace(ev.Name) == "" {
		return ValidationError{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(ev.Name) > MaxNameRunes {
		return ValidationError{Field: "name", Reason: "must be at most 100 characters"}
	}
	if ev.Month < 1 || ev.Month > 12 {
		return ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if ev.Day < 1 || ev.Day > 31 {
		return ValidationError{Field: "day", Reason: "must be between 1 and 31"}
	}
	// 2000 is a leap year, so 29 Feb passes.
	d := time.Date(2000, time.Month(ev.Month), ev.Day, 0, 0, 0, 0, time.UTC)
	if d.Day() != ev.Day {
		return ValidationError{Field: "day", Reason: "does not exist in " + MonthName(ev.Month)}
	}
	return nil
}
