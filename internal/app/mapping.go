package app

import (
	"time"

	"bdaybot/internal/api"
	"bdaybot/internal/config"
	"bdaybot/internal/notifier"
	"bdaybot/internal/reminder"
	"bdaybot/internal/storage"
	"bdaybot/internal/task/scheduler"
	logx "bdaybot/pkg/logx"
)

const (
	dailyCheckName      = "daily-check"
	defaultCheckTimeout = 2 * time.Minute
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func mapStorageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeoutOr(0),
	}
}

func mapNotifierConfig(cfg *config.Config) notifier.Config {
	groups := make([]notifier.Group, 0, len(cfg.Reminders.Groups))
	for _, g := range cfg.Reminders.Groups {
		groups = append(groups, notifier.Group{Name: g.Name, ChatID: g.ChatID, ThreadID: g.ThreadID})
	}
	return notifier.Config{
		Groups:     groups,
		RatePerSec: cfg.Reminders.RatePerSec,
		ParseMode:  cfg.Reminders.ParseMode,
	}
}

func mapSchedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		Enabled:        cfg.Scheduler.Enabled,
		Timezone:       cfg.Scheduler.Timezone,
		DefaultTimeout: cfg.Scheduler.TimeoutOr(defaultCheckTimeout),
		HistorySize:    cfg.Scheduler.HistorySize,
	}
}

// mapReminderSettings falls back to UTC when the zone cannot be loaded;
// Validate rejects such configs before they get here.
func mapReminderSettings(cfg *config.Config) reminder.Settings {
	loc, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return reminder.Settings{Group: cfg.Reminders.Group, Location: loc, Hour: cfg.Reminders.Hour}
}

func mapHTTPConfig(cfg *config.Config) api.Config {
	read, write, idle := cfg.HTTP.Timeouts()
	return api.Config{
		Enabled:      cfg.HTTP.Enabled,
		Addr:         cfg.HTTP.Addr,
		Token:        cfg.HTTP.Token,
		StaticDir:    cfg.HTTP.StaticDir,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}
}
