package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses a Go duration string; empty means zero.
// path is the config key used in error messages.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// durationOr parses raw after Validate has accepted it, falling back to def
// for empty or zero values.
func durationOr(raw string, def time.Duration) time.Duration {
	d, err := ParseDurationField("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (c TelegramConfig) PollTimeoutOr(def time.Duration) time.Duration {
	return durationOr(c.PollTimeout, def)
}

func (c SchedulerConfig) TimeoutOr(def time.Duration) time.Duration {
	return durationOr(c.Timeout, def)
}

func (c StorageConfig) BusyTimeoutOr(def time.Duration) time.Duration {
	return durationOr(c.BusyTimeout, def)
}

// Timeouts returns the server timeouts. Zero write timeout keeps the ICS
// export and slow clients working.
func (c HTTPConfig) Timeouts() (read, write, idle time.Duration) {
	return durationOr(c.ReadTimeout, 10*time.Second),
		durationOr(c.WriteTimeout, 0),
		durationOr(c.IdleTimeout, 60*time.Second)
}
