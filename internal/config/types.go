package config

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Reminders RemindersConfig `json:"reminders"`
	Storage   StorageConfig   `json:"storage"`
	HTTP      HTTPConfig      `json:"http"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// GroupLog names a reminders group that also receives log lines.
	GroupLog string `json:"group_log,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SchedulerConfig controls when the daily check fires.
//
// DailyCheck accepts "HH:MM" or a cron expression (optionally "cron:"-prefixed).
// Timezone applies to the trigger only; reminder dates use reminders.timezone.
type SchedulerConfig struct {
	Enabled     bool   `json:"enabled"`
	Timezone    string `json:"timezone,omitempty"`
	DailyCheck  string `json:"daily_check,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
	HistorySize int    `json:"history_size,omitempty"`
}

type RemindersConfig struct {
	// Group is the logical group name reminders are delivered to.
	Group    string `json:"group"`
	Timezone string `json:"timezone,omitempty"`
	// Hour is the local hour of the anniversary instant (0 < hour <= 23).
	Hour       int           `json:"hour,omitempty"`
	Groups     []GroupTarget `json:"groups"`
	RatePerSec int           `json:"rate_per_sec,omitempty"`
	ParseMode  string        `json:"parse_mode,omitempty"`
}

// GroupTarget maps a group name to a Telegram chat (and optional forum topic).
type GroupTarget struct {
	Name     string `json:"name"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
}

// StorageConfig selects the persistence driver.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/bdaybot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// HTTPConfig controls the management API.
//
// Prefer binding to localhost or set a token when exposing it.
type HTTPConfig struct {
	Enabled      bool   `json:"enabled"`
	Addr         string `json:"addr,omitempty"`  // default: ":3000"
	Token        string `json:"token,omitempty"` // optional bearer token (do not log)
	StaticDir    string `json:"static_dir,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}
