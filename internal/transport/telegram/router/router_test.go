package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bdaybot/internal/reminder"
	kit "bdaybot/internal/transport"
	logx "bdaybot/pkg/logx"
)

type sent struct {
	to   kit.ChatTarget
	text string
}

type fakeAdapter struct {
	mu    sync.Mutex
	sent  []sent
	menu  []kit.BotCommand
	notif chan struct{}
}

func newFakeAdapter() *fakeAdapter { return &fakeAdapter{notif: make(chan struct{}, 16)} }

func (f *fakeAdapter) Start(context.Context, chan<- kit.Message) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                      { return nil }
func (f *fakeAdapter) Ready() bool                                     { return true }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sent{to: to, text: text})
	f.mu.Unlock()
	f.notif <- struct{}{}
	return kit.MessageRef{ChatID: to.ChatID}, nil
}

func (f *fakeAdapter) UpdateMenuCommands(_ context.Context, cmds []kit.BotCommand) error {
	f.mu.Lock()
	f.menu = cmds
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sent{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeReminders struct {
	next    *reminder.NextReminder
	nextErr error
	last    reminder.AuditRecord
	result  reminder.DailyResult
	checks  int
}

func (f *fakeReminders) NextReminderInfo(context.Context) (*reminder.NextReminder, error) {
	return f.next, f.nextErr
}
func (f *fakeReminders) LastReminder() reminder.AuditRecord { return f.last }
func (f *fakeReminders) CheckAndSend(context.Context) (reminder.DailyResult, error) {
	f.checks++
	return f.result, nil
}
func (f *fakeReminders) Settings() reminder.Settings { return reminder.Settings{Location: time.UTC} }

type fakeEvents []reminder.Event

func (f fakeEvents) ListEvents(context.Context) ([]reminder.Event, error) { return f, nil }

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		name string
		args []string
		ok   bool
	}{
		{in: "/next", name: "next", ok: true},
		{in: "  /List@bdaybot  a b ", name: "list", args: []string{"a", "b"}, ok: true},
		{in: "hola", ok: false},
		{in: "/", ok: false},
		{in: "/@bot", ok: false},
	}
	for _, tt := range tests {
		name, args, ok := parseCommand(tt.in)
		if ok != tt.ok || name != tt.name || strings.Join(args, ",") != strings.Join(tt.args, ",") {
			t.Fatalf("parseCommand(%q) = %q %v %v", tt.in, name, args, ok)
		}
	}
}

func startLoop(t *testing.T, m *CommandManager) chan<- kit.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan kit.Message)
	done := make(chan struct{})
	go func() {
		_ = m.DispatchLoop(ctx, in)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return in
}

func waitSend(t *testing.T, a *fakeAdapter) sent {
	t.Helper()
	select {
	case <-a.notif:
		return a.last()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
		return sent{}
	}
}

func TestDispatch_CommandsReply(t *testing.T) {
	t.Parallel()
	a := newFakeAdapter()
	rem := &fakeReminders{
		next: &reminder.NextReminder{
			At:          time.Date(2024, 12, 24, 9, 0, 0, 0, time.UTC),
			Anniversary: time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC),
			Name:        "Ana",
			Lead:        reminder.LeadOneDayBefore,
		},
	}
	events := fakeEvents{{ID: "1", Name: "Ana", Day: 25, Month: 12}}
	m := NewCommandManager(logx.Nop(), a, []int64{42})
	Register(context.Background(), m, rem, events)

	if len(a.menu) != 5 || a.menu[0].Command != "next" {
		t.Fatalf("menu = %+v", a.menu)
	}

	in := startLoop(t, m)
	chat := int64(-100)

	in <- kit.Message{ChatID: chat, FromID: 7, Text: "/next"}
	got := waitSend(t, a)
	if got.to.ChatID != chat || !strings.Contains(got.text, "*Ana*") || !strings.Contains(got.text, "1 día antes") ||
		!strings.Contains(got.text, "25 de diciembre de 2024") {
		t.Fatalf("next reply = %+v", got)
	}

	in <- kit.Message{ChatID: chat, FromID: 7, Text: "/lista"}
	if got := waitSend(t, a); !strings.Contains(got.text, "• 25 de diciembre: Ana") {
		t.Fatalf("list reply = %q", got.text)
	}

	in <- kit.Message{ChatID: chat, FromID: 7, Text: "/last"}
	if got := waitSend(t, a); got.text != "Aún no se ha ejecutado ninguna revisión." {
		t.Fatalf("last reply = %q", got.text)
	}

	in <- kit.Message{ChatID: chat, FromID: 7, Text: "/nope"}
	if got := waitSend(t, a); !strings.Contains(got.text, "/help") {
		t.Fatalf("unknown reply = %q", got.text)
	}

	in <- kit.Message{ChatID: chat, FromID: 7, Text: "/help"}
	if got := waitSend(t, a); !strings.Contains(got.text, "/check - Ejecutar la revisión diaria ahora (admin)") {
		t.Fatalf("help reply = %q", got.text)
	}
}

func TestDispatch_CheckIsOwnerOnly(t *testing.T) {
	t.Parallel()
	a := newFakeAdapter()
	rem := &fakeReminders{result: reminder.DailyResult{Skipped: true}}
	m := NewCommandManager(logx.Nop(), a, []int64{42})
	Register(context.Background(), m, rem, fakeEvents{})
	in := startLoop(t, m)

	in <- kit.Message{ChatID: 1, FromID: 7, Text: "/check"}
	if got := waitSend(t, a); got.text != "No autorizado." {
		t.Fatalf("reply = %q", got.text)
	}

	in <- kit.Message{ChatID: 1, FromID: 42, Text: "/check"}
	if got := waitSend(t, a); !strings.Contains(got.text, "omitida") {
		t.Fatalf("reply = %q", got.text)
	}
	if rem.checks != 1 {
		t.Fatalf("checks = %d, want 1", rem.checks)
	}
}

func TestMiddleware_PanicRecoverAndTimeout(t *testing.T) {
	t.Parallel()
	req := &Request{Logger: logx.Nop()}

	h := Chain(func(context.Context, *Request) error { panic("boom") }, MWPanicRecover())
	if err := h(context.Background(), req); err == nil || err.Error() != "panic: boom" {
		t.Fatalf("err = %v", err)
	}

	h = Chain(func(ctx context.Context, _ *Request) error {
		<-ctx.Done()
		return ctx.Err()
	}, MWTimeout(10*time.Millisecond))
	if err := h(context.Background(), req); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}
