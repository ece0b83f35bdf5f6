package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	logx "bdaybot/pkg/logx"
)

func TestParseTriggerVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "cron", raw: "0 13 * * *", want: "0 13 * * *"},
		{name: "cron with seconds", raw: "0 0 13 * * *", want: "0 0 13 * * *"},
		{name: "prefixed cron", raw: "cron:0 13 * * *", want: "0 13 * * *"},
		{name: "descriptor", raw: "@daily", want: "@daily"},
		{name: "hhmm", raw: "13:00", want: "0 13 * * *"},
		{name: "hhmm single digit", raw: " 8:05 ", want: "5 8 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrigger(tt.raw)
			if err != nil {
				t.Fatalf("ParseTrigger(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTrigger(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseTriggerInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "25:00", "12:60", "cron:", "0 99 * * *"} {
		if _, err := ParseTrigger(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestAddCronRejectsInvalidSpec(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, logx.Nop())
	if err := s.AddCron("bad", "every now and then", 0, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.AddCron("", "0 13 * * *", 0, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestRunSkipsWhileInFlight(t *testing.T) {
	t.Parallel()
	s := New(Config{HistorySize: 10}, logx.Nop())

	var running atomic.Bool
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	job := func(ctx context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.run("daily", time.Second, job, &running)
		close(done)
	}()
	<-started

	s.run("daily", time.Second, job, &running)
	close(release)
	<-done

	if n := calls.Load(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
	hist := s.Snapshot().History
	if len(hist) != 2 || !hist[0].Skipped || hist[1].Skipped {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestRunRecoversPanicAndAppliesTimeout(t *testing.T) {
	t.Parallel()
	s := New(Config{DefaultTimeout: 20 * time.Millisecond}, logx.Nop())

	var running atomic.Bool
	s.run("panics", 0, func(context.Context) error { panic("boom") }, &running)
	if running.Load() {
		t.Fatal("in-flight flag must be released after a panic")
	}

	var ctxErr error
	s.run("slow", 0, func(ctx context.Context) error {
		<-ctx.Done()
		ctxErr = ctx.Err()
		return ctxErr
	}, &running)
	if !errors.Is(ctxErr, context.DeadlineExceeded) {
		t.Fatalf("expected default timeout, got %v", ctxErr)
	}

	hist := s.Snapshot().History
	if len(hist) != 2 || hist[0].Err != "panic: boom" || hist[1].Err == "" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestStartRegistersAndTimezoneRestart(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Timezone: "UTC"}, logx.Nop())
	if err := s.AddDaily("daily", "13:00", time.Minute, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddDaily: %v", err)
	}
	if _, ok := s.NextRun("daily"); ok {
		t.Fatal("no next run before Start")
	}

	s.Start(context.Background())
	defer s.Stop(context.Background())

	next, ok := s.NextRun("daily")
	if !ok {
		t.Fatal("expected next run after Start")
	}
	if next.In(time.UTC).Hour() != 13 || next.Minute() != 0 {
		t.Fatalf("next = %v, want 13:00 UTC", next)
	}

	s.Apply(Config{Enabled: true, Timezone: "America/Guayaquil"})
	next2, ok := s.NextRun("daily")
	if !ok {
		t.Fatal("schedule lost after timezone change")
	}
	if next2.In(time.UTC).Hour() != 18 {
		t.Fatalf("next after tz change = %v, want 13:00 America/Guayaquil (18:00 UTC)", next2.UTC())
	}

	// re-adding a name replaces the entry
	if err := s.AddDaily("daily", "08:30", time.Minute, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddDaily replace: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Schedules) != 1 || snap.Schedules[0].Spec != "30 8 * * *" {
		t.Fatalf("schedules = %+v", snap.Schedules)
	}
	if snap.Timezone != "America/Guayaquil" || !snap.Enabled {
		t.Fatalf("snapshot = %+v", snap)
	}
}
