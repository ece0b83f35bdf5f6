package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvTelegramToken = "BDAYBOT_TELEGRAM_TOKEN"
	EnvGroupName     = "BDAYBOT_GROUP_NAME"
	EnvLegacyGroup   = "WHATSAPP_GROUP_NAME"
	EnvPort          = "PORT"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvTelegramToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvGroupName)); v != "" {
		cfg.Reminders.Group = v
	} else if v := strings.TrimSpace(getenv(EnvLegacyGroup)); v != "" {
		cfg.Reminders.Group = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
}
