package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bdaybot/internal/eventbus"
	kit "bdaybot/internal/transport"
	logx "bdaybot/pkg/logx"
)

type fakeAdapter struct {
	mu    sync.Mutex
	ready bool
	err   error
	// failAt makes the n-th send (1-based) fail with err; 0 fails every send.
	failAt int
	sent   []fakeSend
}

type fakeSend struct {
	to   kit.ChatTarget
	text string
	opt  kit.SendOptions
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Message) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                      { return nil }
func (f *fakeAdapter) Ready() bool                                     { return f.ready }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil && (f.failAt == 0 || len(f.sent)+1 == f.failAt) {
		return kit.MessageRef{}, f.err
	}
	f.sent = append(f.sent, fakeSend{to: to, text: text, opt: *opt})
	return kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: len(f.sent)}, nil
}

func testConfig() Config {
	return Config{
		RatePerSec: 100,
		Groups: []Group{
			{Name: "TB3-Asuntos sociales", ChatID: -100123, ThreadID: 7},
		},
	}
}

func TestGroupSender_SendsToResolvedGroup(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{ready: true}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	g := New(testConfig(), a, logx.Nop(), bus)
	if !g.Ready() {
		t.Fatal("expected ready")
	}
	if err := g.SendToGroup(context.Background(), " tb3-asuntos SOCIALES ", "hola *Ana*"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(a.sent) != 1 {
		t.Fatalf("sent=%d want 1", len(a.sent))
	}
	got := a.sent[0]
	if got.to != (kit.ChatTarget{ChatID: -100123, ThreadID: 7}) || got.text != "hola *Ana*" || got.opt.ParseMode != "Markdown" {
		t.Fatalf("unexpected send %+v", got)
	}

	select {
	case ev := <-events:
		se, ok := ev.Data.(SentEvent)
		if ev.Type != eventbus.NotifierSent || !ok || se.Error != "" || se.Chars != 10 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
	if h := g.History(); len(h) != 1 || h[0].Error != "" {
		t.Fatalf("unexpected history %+v", h)
	}
}

func TestGroupSender_Errors(t *testing.T) {
	t.Parallel()

	g := New(testConfig(), &fakeAdapter{ready: true}, logx.Nop(), nil)
	if err := g.SendToGroup(context.Background(), "otro grupo", "x"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("err=%v want ErrUnknownGroup", err)
	}

	boom := errors.New("telegram down")
	a := &fakeAdapter{ready: true, err: boom}
	g = New(testConfig(), a, logx.Nop(), nil)
	if err := g.SendToGroup(context.Background(), "TB3-Asuntos sociales", "x"); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
	if h := g.History(); len(h) != 1 || h[0].Error == "" {
		t.Fatalf("failed attempt must be recorded once, got %+v", h)
	}

	g.SetAdapter(nil)
	if g.Ready() {
		t.Fatal("detached sender must not be ready")
	}
	if err := g.SendToGroup(context.Background(), "TB3-Asuntos sociales", "x"); !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("err=%v want ErrNoAdapter", err)
	}
}

func TestPackParts(t *testing.T) {
	t.Parallel()

	short := "a\n\nb"
	if got := packParts(short, 10); len(got) != 1 || got[0] != short {
		t.Fatalf("short text = %q", got)
	}

	p := strings.Repeat("x", 4)
	got := packParts(strings.Join([]string{p, p, p}, "\n\n"), 10)
	if len(got) != 2 || got[0] != p+"\n\n"+p || got[1] != p {
		t.Fatalf("packed = %q", got)
	}

	long := strings.Repeat("y", 12)
	got = packParts(p+"\n\n"+long, 10)
	if len(got) != 2 || got[0] != p || got[1] != long {
		t.Fatalf("oversized paragraph = %q", got)
	}
}

func TestGroupSender_SplitsOnMessageBoundaries(t *testing.T) {
	t.Parallel()

	msg := "*" + strings.Repeat("n", 2500) + "*"
	text := msg + "\n\n" + msg

	a := &fakeAdapter{ready: true}
	g := New(testConfig(), a, logx.Nop(), nil)
	if err := g.SendToGroup(context.Background(), "TB3-Asuntos sociales", text); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(a.sent) != 2 || a.sent[0].text != msg || a.sent[1].text != msg {
		t.Fatalf("parts = %d", len(a.sent))
	}
	if h := g.History(); len(h) != 1 || h[0].Text != text {
		t.Fatalf("one history entry per call, got %d", len(h))
	}

	boom := errors.New("flood wait")
	a = &fakeAdapter{ready: true, err: boom, failAt: 2}
	g = New(testConfig(), a, logx.Nop(), nil)
	err := g.SendToGroup(context.Background(), "TB3-Asuntos sociales", text)
	var perr *PartialDeliveryError
	if !errors.As(err, &perr) || perr.Sent != 1 || perr.Total != 2 || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestGroupSender_ApplyReplacesGroups(t *testing.T) {
	t.Parallel()

	g := New(testConfig(), &fakeAdapter{ready: false}, logx.Nop(), nil)
	if g.Ready() {
		t.Fatal("adapter not ready")
	}
	g.Apply(Config{Groups: []Group{{Name: "nuevo", ChatID: 42}, {Name: "sin chat"}}})
	if _, ok := g.Resolve("TB3-Asuntos sociales"); ok {
		t.Fatal("old group still resolvable")
	}
	if to, ok := g.Resolve("NUEVO"); !ok || to.ChatID != 42 {
		t.Fatalf("resolve nuevo = %+v %v", to, ok)
	}
	if _, ok := g.Resolve("sin chat"); ok {
		t.Fatal("group without chat id must be ignored")
	}
}
