package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	logx "bdaybot/pkg/logx"
)

// fileStore keeps events in memory and optionally mirrors them to disk.
//
// Files (when persistent):
//   - <prefix>.events.json     (snapshot, rewritten atomically on every change)
//   - <prefix>.dispatch.jsonl  (append-only JSON Lines)
type fileStore struct {
	log logx.Logger

	mu     sync.Mutex
	closed bool

	events []Event // insertion order

	snapshotPath string
	dispatchFile *os.File
	dispatches   []DispatchEntry // memory driver only
}

func newMemory(log logx.Logger) *fileStore {
	return &fileStore{log: log}
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{log: log, snapshotPath: prefix + ".events.json"}
	if err := loadSnapshot(st.snapshotPath, &st.events); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	df, err := os.OpenFile(prefix+".dispatch.jsonl", os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	st.dispatchFile = df
	return st, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.dispatchFile != nil {
		err := s.dispatchFile.Close()
		s.dispatchFile = nil
		return err
	}
	return nil
}

func (s *fileStore) ListEvents(ctx context.Context) ([]Event, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := slices.Clone(s.events)
	// stable: ties keep insertion order
	slices.SortStableFunc(out, func(a, b Event) int {
		if a.Month != b.Month {
			return a.Month - b.Month
		}
		return a.Day - b.Day
	})
	return out, nil
}

func (s *fileStore) GetEvent(ctx context.Context, id string) (Event, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrClosed
	}
	if i := s.indexLocked(strings.TrimSpace(id)); i >= 0 {
		return s.events[i], nil
	}
	return Event{}, ErrNotFound
}

func (s *fileStore) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	_ = ctx
	ev = normalizeEvent(ev)
	if ev.ID == "" {
		ev.ID = newID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrClosed
	}
	if s.indexLocked(ev.ID) >= 0 {
		return Event{}, errors.New("event id already exists: " + ev.ID)
	}
	s.events = append(s.events, ev)
	if err := s.persistLocked(); err != nil {
		s.events = s.events[:len(s.events)-1]
		return Event{}, err
	}
	return ev, nil
}

func (s *fileStore) UpdateEvent(ctx context.Context, ev Event) (Event, error) {
	_ = ctx
	ev = normalizeEvent(ev)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrClosed
	}
	i := s.indexLocked(ev.ID)
	if i < 0 {
		return Event{}, ErrNotFound
	}
	prev := s.events[i]
	s.events[i] = ev
	if err := s.persistLocked(); err != nil {
		s.events[i] = prev
		return Event{}, err
	}
	return ev, nil
}

func (s *fileStore) DeleteEvent(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := s.indexLocked(strings.TrimSpace(id))
	if i < 0 {
		return ErrNotFound
	}
	prev := s.events
	s.events = slices.Delete(slices.Clone(s.events), i, i+1)
	if err := s.persistLocked(); err != nil {
		s.events = prev
		return err
	}
	return nil
}

func (s *fileStore) DeleteAll(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	prev := s.events
	s.events = nil
	if err := s.persistLocked(); err != nil {
		s.events = prev
		return err
	}
	return nil
}

func (s *fileStore) AppendDispatch(ctx context.Context, e DispatchEntry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.dispatchFile == nil {
		s.dispatches = append(s.dispatches, e)
		return nil
	}
	return json.NewEncoder(s.dispatchFile).Encode(e)
}

func (s *fileStore) ListDispatches(ctx context.Context, limit int) ([]DispatchEntry, error) {
	_ = ctx
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	all := s.dispatches
	if s.dispatchFile != nil {
		var err error
		if all, err = readDispatches(s.dispatchFile.Name()); err != nil {
			return nil, err
		}
	}
	out := make([]DispatchEntry, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *fileStore) indexLocked(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *fileStore) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.events); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.snapshotPath)
}

func loadSnapshot(path string, out *[]Event) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(out)
}

func readDispatches(path string) ([]DispatchEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []DispatchEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e DispatchEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
