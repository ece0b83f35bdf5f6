package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bdaybot/internal/config"
	"bdaybot/internal/seed"
	"bdaybot/internal/storage"
	logx "bdaybot/pkg/logx"
)

func main() {
	var (
		cfgPath  string
		dataPath string
		keep     bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config (json or yaml)")
	flag.StringVar(&dataPath, "data", "./seed.yaml", "birthday list (YAML: - {date: DD-MM, name: ...})")
	flag.BoolVar(&keep, "keep", false, "keep existing birthdays instead of clearing the store")
	flag.Parse()

	log := logx.NewConsole("INFO").With(logx.String("comp", "seed"))
	if err := run(cfgPath, dataPath, !keep, log); err != nil {
		log.Error("seed failed", logx.Err(err))
		os.Exit(1)
	}
}

func run(cfgPath, dataPath string, clear bool, log logx.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.NewConfigManager(cfgPath).Parse()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return err
	}
	events, err := seed.Parse(raw)
	if err != nil {
		return err
	}

	st, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeoutOr(0),
	}, log)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := seed.Apply(context.Background(), st, events, clear)
	if err != nil {
		return err
	}
	log.Info("database seeded", logx.Int("inserted", n), logx.Bool("cleared", clear), logx.String("driver", cfg.Storage.Driver))
	return nil
}
