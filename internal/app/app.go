package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bdaybot/internal/api"
	"bdaybot/internal/config"
	"bdaybot/internal/eventbus"
	"bdaybot/internal/notifier"
	"bdaybot/internal/reminder"
	rtsup "bdaybot/internal/runtime/supervisor"
	"bdaybot/internal/storage"
	"bdaybot/internal/task/scheduler"
	kit "bdaybot/internal/transport"
	telegram "bdaybot/internal/transport/telegram/adapter"
	"bdaybot/internal/transport/telegram/router"
	logx "bdaybot/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	// adapter is nil when no bot token is configured.
	adapter kit.Adapter

	notif     *notifier.GroupSender
	reminders *reminder.Service
	sched     *scheduler.Service
	http      *api.Server
	cmdm      *router.CommandManager

	updates chan kit.Message
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	var (
		ad     kit.Adapter
		sender logx.TextSender
	)
	if strings.TrimSpace(cfg.Telegram.Token) != "" {
		tg, err := telegram.New(telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: cfg.Telegram.PollTimeoutOr(10 * time.Second),
		}, logx.NewConsole("INFO").With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, err
		}
		ad, sender = tg, tg
	}

	// Telegram logging is enabled only after the target is resolved below.
	logCfg := mapLogConfig(cfg)
	logCfg.Telegram.Enabled = false
	logSvc, log := logx.New(logCfg, sender)
	log = log.With(logx.String("comp", "app"))
	if ad == nil {
		log.Warn("telegram token not set; reminders will be skipped until one is configured")
	}

	bus := eventbus.New()

	store, err := storage.Open(mapStorageConfig(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	log.Info("storage opened", logx.String("driver", cfg.Storage.Driver))

	notif := notifier.New(mapNotifierConfig(cfg), ad, log.With(logx.String("comp", "notifier")), bus)

	runner := reminder.NewRunner(reminder.RunnerOptions{
		Messenger: notif,
		Settings:  mapReminderSettings(cfg),
		History:   store,
		Bus:       bus,
		Log:       log.With(logx.String("comp", "reminder")),
	})
	reminders := reminder.NewService(reminder.Options{
		Store:     store,
		Messenger: notif,
		Runner:    runner,
		Log:       log.With(logx.String("comp", "reminder")),
	})

	sched := scheduler.New(mapSchedulerConfig(cfg), log.With(logx.String("comp", "scheduler")))

	a := &App{
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		bus:       bus,
		store:     store,
		adapter:   ad,
		notif:     notif,
		reminders: reminders,
		sched:     sched,
		updates:   make(chan kit.Message, 256),
	}
	if err := a.registerDailyCheck(cfg); err != nil {
		_ = store.Close()
		return nil, err
	}

	handler := api.NewHandler(store, reminders, func() (time.Time, bool) {
		return sched.NextRun(dailyCheckName)
	}, log.With(logx.String("comp", "http")))
	handler.SetDiagnostics(api.Diagnostics{Schedule: sched.Snapshot, Sends: notif.History})
	a.http = api.NewServer(mapHTTPConfig(cfg), handler, log.With(logx.String("comp", "http")))

	if ad != nil {
		a.cmdm = router.NewCommandManager(log.With(logx.String("comp", "commands")), ad, cfg.Telegram.OwnerUserIDs)
	}

	a.applyLogTarget(cfg)
	logSvc.Apply(mapLogConfig(cfg))
	return a, nil
}

func (a *App) Reminders() *reminder.Service { return a.reminders }

func (a *App) Scheduler() *scheduler.Service { return a.sched }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// registerDailyCheck upserts the cron entry that runs the daily check.
func (a *App) registerDailyCheck(cfg *config.Config) error {
	timeout := cfg.Scheduler.TimeoutOr(defaultCheckTimeout)
	err := a.sched.AddTrigger(dailyCheckName, cfg.Scheduler.DailyCheck, timeout, func(ctx context.Context) error {
		_, err := a.reminders.CheckAndSend(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("scheduler.daily_check: %w", err)
	}
	return nil
}

// applyLogTarget points the Telegram log sink at telegram.group_log, resolved
// through the reminder group table.
func (a *App) applyLogTarget(cfg *config.Config) {
	name := strings.TrimSpace(cfg.Telegram.GroupLog)
	if name == "" {
		a.logs.SetTelegramTarget(0, 0)
		return
	}
	to, ok := a.notif.Resolve(name)
	if !ok {
		a.log.Warn("telegram.group_log does not match any reminders group", logx.String("group", name))
		return
	}
	a.logs.SetTelegramTarget(to.ChatID, to.ThreadID)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := scheduler.ParseTrigger(cfg.Scheduler.DailyCheck); err != nil {
			return fmt.Errorf("scheduler.daily_check: %w", err)
		}
		return nil
	})

	if a.adapter != nil {
		if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
			return err
		}
		router.Register(a.sup.Context(), a.cmdm, a.reminders, a.store)
		a.sup.Go("commands.dispatch", func(c context.Context) error {
			return a.cmdm.DispatchLoop(c, a.updates)
		})
	}

	if a.sched.Enabled() {
		a.sched.Start(a.sup.Context())
		if next, ok := a.sched.NextRun(dailyCheckName); ok {
			a.log.Info("daily check scheduled", logx.Time("next", next))
		}
	}
	if a.http.Enabled() {
		a.http.Start(a.sup.Context())
	}

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time), logx.Any("data", e.Data))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// applyConfig pushes a reloaded config into running components.
func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, s := range config.RequiresRestart(prev, next) {
		a.log.Warn("config change requires restart", logx.String("setting", s))
	}

	a.notif.Apply(mapNotifierConfig(next))
	a.applyLogTarget(next)
	a.logs.Apply(mapLogConfig(next))

	if a.cmdm != nil {
		a.cmdm.SetOwners(next.Telegram.OwnerUserIDs)
	}
	a.reminders.Runner().SetSettings(mapReminderSettings(next))

	wasEnabled := a.sched.Enabled()
	a.sched.Apply(mapSchedulerConfig(next))
	if prev == nil || prev.Scheduler.DailyCheck != next.Scheduler.DailyCheck || prev.Scheduler.Timeout != next.Scheduler.Timeout {
		if err := a.registerDailyCheck(next); err != nil {
			a.log.Warn("daily check not updated", logx.Err(err))
		}
	}
	switch {
	case wasEnabled && !next.Scheduler.Enabled:
		a.log.Info("scheduler disabled via config")
		stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		a.sched.Stop(stopCtx)
		cancel()
	case !wasEnabled && next.Scheduler.Enabled:
		a.log.Info("scheduler enabled via config")
		a.sched.Start(ctx)
	}

	a.http.Reconfigure(ctx, mapHTTPConfig(next))

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	a.bus.Publish(eventbus.Event{Type: eventbus.ConfigReloaded, Time: time.Now(), Data: sections})
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	// step bounds fn by max (never beyond ctx's deadline) and moves on if it overruns.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("http", 2*time.Second, func(c context.Context) error { a.http.Stop(c); return nil })
	if a.adapter != nil {
		step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	}
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	return a.logs.Close()
}
