package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// zones are validated on hosts without zoneinfo too
	_ "time/tzdata"
)

const (
	DefaultGroup      = "TB3-Asuntos sociales"
	DefaultTimezone   = "America/Guayaquil"
	DefaultDailyCheck = "0 13 * * *"
	DefaultHour       = 9
	DefaultHTTPAddr   = ":3000"
)

// ApplyDefaults fills omitted fields in place.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Scheduler.Timezone) == "" {
		cfg.Scheduler.Timezone = "UTC"
	}
	if strings.TrimSpace(cfg.Scheduler.DailyCheck) == "" {
		cfg.Scheduler.DailyCheck = DefaultDailyCheck
	}
	if strings.TrimSpace(cfg.Reminders.Group) == "" {
		cfg.Reminders.Group = DefaultGroup
	}
	if strings.TrimSpace(cfg.Reminders.Timezone) == "" {
		cfg.Reminders.Timezone = DefaultTimezone
	}
	if cfg.Reminders.Hour <= 0 || cfg.Reminders.Hour > 23 {
		cfg.Reminders.Hour = DefaultHour
	}
	if strings.TrimSpace(cfg.Storage.Driver) == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" && cfg.Storage.Driver != "memory" {
		cfg.Storage.Path = "./data/bdaybot.db"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
}

// Validate checks fields that cannot be defaulted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	for _, tz := range []struct{ path, name string }{
		{"scheduler.timezone", cfg.Scheduler.Timezone},
		{"reminders.timezone", cfg.Reminders.Timezone},
	} {
		if _, err := time.LoadLocation(tz.name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tz.path, err))
		}
	}
	seen := map[string]struct{}{}
	for i, g := range cfg.Reminders.Groups {
		name := strings.ToLower(strings.TrimSpace(g.Name))
		if name == "" {
			errs = append(errs, fmt.Errorf("reminders.groups[%d].name is required", i))
			continue
		}
		if g.ChatID == 0 {
			errs = append(errs, fmt.Errorf("reminders.groups[%d].chat_id is required", i))
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("reminders.groups[%d]: duplicate name %q", i, g.Name))
		}
		seen[name] = struct{}{}
	}
	for _, d := range []struct{ path, raw string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"scheduler.timeout", cfg.Scheduler.Timeout},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"http.read_timeout", cfg.HTTP.ReadTimeout},
		{"http.write_timeout", cfg.HTTP.WriteTimeout},
		{"http.idle_timeout", cfg.HTTP.IdleTimeout},
	} {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
