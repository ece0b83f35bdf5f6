package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"bdaybot/internal/eventbus"
	kit "bdaybot/internal/transport"
	logx "bdaybot/pkg/logx"
)

const (
	historySize = 50

	// maxPartRunes stays under Telegram's 4096 limit so the adapter never
	// splits a part on its own.
	maxPartRunes = 4000
	partJoiner   = "\n\n"
)

// GroupSender sends text to named groups through a transport adapter.
// It is safe for concurrent use.
type GroupSender struct {
	mu        sync.RWMutex
	adapter   kit.Adapter
	groups    map[string]kit.ChatTarget
	limiter   *rate.Limiter
	parseMode string

	log logx.Logger
	bus eventbus.Bus

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger, bus eventbus.Bus) *GroupSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	g := &GroupSender{adapter: adapter, log: log, bus: bus}
	g.Apply(cfg)
	return g
}

func (g *GroupSender) Apply(cfg Config) {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	pm := strings.TrimSpace(cfg.ParseMode)
	if pm == "" {
		pm = "Markdown"
	}
	groups := make(map[string]kit.ChatTarget, len(cfg.Groups))
	for _, gr := range cfg.Groups {
		if key := groupKey(gr.Name); key != "" && gr.ChatID != 0 {
			groups[key] = kit.ChatTarget{ChatID: gr.ChatID, ThreadID: gr.ThreadID}
		}
	}

	g.mu.Lock()
	g.groups = groups
	// burst 1: reminders are rare, spacing matters more than throughput
	g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	g.parseMode = pm
	g.mu.Unlock()
}

// SetAdapter swaps the transport (nil detaches it).
func (g *GroupSender) SetAdapter(a kit.Adapter) {
	g.mu.Lock()
	g.adapter = a
	g.mu.Unlock()
}

// Ready reports whether the adapter is connected.
func (g *GroupSender) Ready() bool {
	g.mu.RLock()
	a := g.adapter
	g.mu.RUnlock()
	return a != nil && a.Ready()
}

// Resolve returns the chat configured for group.
func (g *GroupSender) Resolve(group string) (kit.ChatTarget, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.groups[groupKey(group)]
	return t, ok
}

// SendToGroup delivers text with no retry. Text over maxPartRunes is split on
// blank lines only; a failure after the first part returns *PartialDeliveryError.
func (g *GroupSender) SendToGroup(ctx context.Context, group, text string) error {
	g.mu.RLock()
	a, lim, pm := g.adapter, g.limiter, g.parseMode
	target, ok := g.groups[groupKey(group)]
	g.mu.RUnlock()

	if a == nil {
		return ErrNoAdapter
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	parts := packParts(text, maxPartRunes)
	var err error
	for i, part := range parts {
		if err = lim.Wait(ctx); err == nil {
			_, err = a.SendText(ctx, target, part, &kit.SendOptions{ParseMode: pm, DisablePreview: true})
		}
		if err != nil {
			if i > 0 {
				err = &PartialDeliveryError{Sent: i, Total: len(parts), Err: err}
			}
			break
		}
	}
	now := time.Now()

	ev := SentEvent{Group: group, ChatID: target.ChatID, ThreadID: target.ThreadID, Chars: utf8.RuneCountInString(text), At: now}
	it := HistoryItem{At: now, Group: group, Text: text}
	if err != nil {
		ev.Error = err.Error()
		it.Error = err.Error()
		g.log.Warn("group send failed", logx.String("group", group), logx.Int64("chat_id", target.ChatID), logx.Err(err))
	} else {
		g.log.Info("group message sent", logx.String("group", group), logx.Int64("chat_id", target.ChatID), logx.Int("chars", ev.Chars), logx.Int("parts", len(parts)))
	}
	g.addHistory(it)
	if g.bus != nil {
		g.bus.Publish(eventbus.Event{Type: eventbus.NotifierSent, Time: now, Data: ev})
	}
	return err
}

// History returns recent delivery attempts, newest last.
func (g *GroupSender) History() []HistoryItem {
	g.hmu.Lock()
	defer g.hmu.Unlock()
	return append([]HistoryItem(nil), g.history...)
}

func (g *GroupSender) addHistory(it HistoryItem) {
	g.hmu.Lock()
	g.history = append(g.history, it)
	if n := len(g.history); n > historySize {
		g.history = append([]HistoryItem(nil), g.history[n-historySize:]...)
	}
	g.hmu.Unlock()
}

// packParts greedily joins blank-line separated paragraphs into parts of at
// most limit runes. A single paragraph over limit becomes its own part.
func packParts(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		out []string
		cur strings.Builder
		n   int
	)
	sep := utf8.RuneCountInString(partJoiner)
	for _, p := range strings.Split(text, partJoiner) {
		pn := utf8.RuneCountInString(p)
		if n > 0 && n+sep+pn > limit {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteString(partJoiner)
			n += sep
		}
		cur.WriteString(p)
		n += pn
	}
	if n > 0 {
		out = append(out, cur.String())
	}
	return out
}

func groupKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }
