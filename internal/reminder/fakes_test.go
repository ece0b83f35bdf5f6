package reminder

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeMessenger struct {
	mu    sync.Mutex
	ready bool
	err   error
	block chan struct{}
	sent  []sentMessage
}

type sentMessage struct {
	group string
	text  string
}

func (f *fakeMessenger) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeMessenger) SendToGroup(ctx context.Context, group, text string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{group: group, text: text})
	return nil
}

func (f *fakeMessenger) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeStore struct {
	events []Event
	err    error
}

func (s *fakeStore) ListEvents(context.Context) ([]Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]Event(nil), s.events...), nil
}

func (s *fakeStore) GetEvent(_ context.Context, id string) (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return Event{}, ErrNotFound
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
