package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func noEnv(string) string { return "" }

func TestParse_YAMLWithDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
telegram:
  token: abc
  owner_user_ids: [42]
scheduler:
  enabled: true
reminders:
  groups:
    - name: TB3-Asuntos sociales
      chat_id: -1001
storage:
  driver: file
  path: ./data/store.json
`)
	m := NewConfigManager(path)
	m.getenv = noEnv
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.DailyCheck != DefaultDailyCheck || cfg.Scheduler.Timezone != "UTC" {
		t.Fatalf("scheduler defaults: %+v", cfg.Scheduler)
	}
	if cfg.Reminders.Group != DefaultGroup || cfg.Reminders.Timezone != DefaultTimezone || cfg.Reminders.Hour != DefaultHour {
		t.Fatalf("reminder defaults: %+v", cfg.Reminders)
	}
	if cfg.HTTP.Addr != DefaultHTTPAddr || cfg.Logging.Level != "info" {
		t.Fatalf("other defaults: http=%+v logging=%+v", cfg.HTTP, cfg.Logging)
	}
	if m.Get() != cfg {
		t.Fatal("Load must commit")
	}
}

func TestParse_RejectsUnknownAndInvalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.json":  `{"telegram":{"token":"x"},"plugins":{}}`,
		"trailing.json": `{} {}`,
		"tz.json":       `{"reminders":{"timezone":"Mars/Olympus"}}`,
		"dur.json":      `{"scheduler":{"timeout":"soon"}}`,
		"dup.json":      `{"reminders":{"groups":[{"name":"a","chat_id":1},{"name":"A","chat_id":2}]}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		writeFile(t, path, body)
		m := NewConfigManager(path)
		m.getenv = noEnv
		if _, err := m.Parse(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParse_MissingFileAndEnvOverrides(t *testing.T) {
	t.Parallel()
	m := NewConfigManager(filepath.Join(t.TempDir(), "absent.json"))
	env := map[string]string{
		EnvTelegramToken: "tok",
		EnvLegacyGroup:   "Legacy",
		EnvPort:          "8080",
	}
	m.getenv = func(k string) string { return env[k] }

	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Scheduler.Enabled || cfg.Telegram.Token != "tok" || cfg.Reminders.Group != "Legacy" || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("cfg = %+v", cfg)
	}

	env[EnvGroupName] = "Nuevo"
	cfg, _ = m.Parse()
	if cfg.Reminders.Group != "Nuevo" {
		t.Fatalf("BDAYBOT_GROUP_NAME must win, got %q", cfg.Reminders.Group)
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	a := &Config{}
	ApplyDefaults(a)
	b := *a
	b.Reminders.Hour = 10
	b.HTTP.Token = "secret"

	changed, attrs := SummarizeConfigChange(a, &b)
	if len(changed) != 2 || changed[0] != "http" || changed[1] != "reminders" {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}
	if r := RequiresRestart(a, &b); len(r) != 0 {
		t.Fatalf("restart = %v", r)
	}
	b.Storage.Driver = "file"
	b.Telegram.Token = "new"
	if r := RequiresRestart(a, &b); len(r) != 2 || r[0] != "storage" || r[1] != "telegram.token" {
		t.Fatalf("restart = %v", r)
	}
}

func TestWatch_PublishesOnChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"reminders":{"hour":9}}`)

	m := NewConfigManager(path)
	m.getenv = noEnv
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-sub:
			if cfg.Reminders.Hour != 10 {
				t.Fatalf("hour = %d", cfg.Reminders.Hour)
			}
			return
		case <-tick.C:
			// rewrite until the watcher is up and sees it
			writeFile(t, path, `{"reminders":{"hour":10}}`)
		case <-deadline:
			t.Fatal("no config published")
		}
	}
}
