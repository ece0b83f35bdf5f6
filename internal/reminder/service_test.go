package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(st Store, m *fakeMessenger, now time.Time) *Service {
	runner := NewRunner(RunnerOptions{
		Messenger: m,
		Settings:  Settings{Group: "TB3", Location: time.UTC, Hour: 9},
		Now:       fixedClock(now),
	})
	return NewService(Options{Store: st, Messenger: m, Runner: runner, Now: fixedClock(now)})
}

func TestService_NextReminderInfo(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 30, 9, 30)
	st := &fakeStore{events: []Event{
		{ID: "a", Name: "Verano", Day: 15, Month: 7},
		{ID: "b", Name: "Año Nuevo", Day: 1, Month: 1},
	}}
	svc := newTestService(st, &fakeMessenger{ready: true}, now)

	got, err := svc.NextReminderInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != "Año Nuevo" || got.Lead != LeadOneDayBefore {
		t.Fatalf("unexpected next reminder: %+v", got)
	}
	if !got.At.Equal(utc(2024, time.December, 31, 9, 0)) || !got.Anniversary.Equal(utc(2025, time.January, 1, 9, 0)) {
		t.Fatalf("unexpected instants: %+v", got)
	}

	b, _ := json.Marshal(got)
	if !strings.Contains(string(b), `"type":"1 día antes"`) || !strings.Contains(string(b), `"date":"2024-12-31T09:00:00Z"`) {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestService_NextReminderInfoEmptyAndErrors(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 30, 9, 30)
	svc := newTestService(&fakeStore{}, &fakeMessenger{ready: true}, now)
	got, err := svc.NextReminderInfo(context.Background())
	if err != nil || got != nil {
		t.Fatalf("empty store: got %+v err %v", got, err)
	}

	svc = newTestService(&fakeStore{err: errBoom}, &fakeMessenger{ready: true}, now)
	if _, err := svc.NextReminderInfo(context.Background()); !errors.Is(err, ErrStorageUnavailable) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestService_CheckAndSend(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 18, 13, 0)
	m := &fakeMessenger{ready: true}
	svc := newTestService(&fakeStore{events: []Event{{ID: "a", Name: "Ana", Day: 25, Month: 12}}}, m, now)

	res, err := svc.CheckAndSend(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Messages) != 1 || len(m.Sent()) != 1 {
		t.Fatalf("unexpected result %+v sends %d", res, len(m.Sent()))
	}
	if svc.LastReminder().IsZero() {
		t.Fatalf("expected audit record")
	}
}

func TestService_CheckAndSendStorageFailureKeepsAudit(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 18, 13, 0)
	m := &fakeMessenger{ready: true}
	svc := newTestService(&fakeStore{err: errBoom}, m, now)
	prev := AuditRecord{Timestamp: now.AddDate(0, 0, -1), Summary: "ayer"}
	svc.Runner().Audit().Record(prev)

	if _, err := svc.CheckAndSend(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if svc.LastReminder() != prev {
		t.Fatalf("audit changed: %+v", svc.LastReminder())
	}
}

func TestService_CheckAndSendNotReadySkipsStorage(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 18, 13, 0)
	svc := newTestService(&fakeStore{err: errBoom}, &fakeMessenger{ready: false}, now)

	res, err := svc.CheckAndSend(context.Background())
	if err != nil || !res.Skipped {
		t.Fatalf("expected skip, got %+v err %v", res, err)
	}
	if !svc.LastReminder().IsZero() {
		t.Fatalf("audit must stay empty")
	}
}

func TestService_SendTest(t *testing.T) {
	t.Parallel()

	now := utc(2024, time.December, 18, 13, 0)
	st := &fakeStore{events: []Event{
		{ID: "today", Name: "Ana", Day: 18, Month: 12},
		{ID: "later", Name: "Beto", Day: 5, Month: 3},
		{ID: "under", Name: "Jose_Luis", Day: 18, Month: 12},
	}}

	cases := []struct {
		name    string
		id      string
		ready   bool
		want    string
		wantErr error
	}{
		{name: "today", id: "today", ready: true, want: "Recuerden hoy es el cumpleaños de *Ana* 🥳🎂🎉"},
		{name: "other day", id: "later", ready: true, want: "Recordemos que el cumpleaños de *Beto* es el 5 de marzo 📅"},
		{name: "escaped name", id: "under", ready: true, want: "Recuerden hoy es el cumpleaños de *Jose\\_Luis* 🥳🎂🎉"},
		{name: "missing", id: "nope", ready: true, wantErr: ErrNotFound},
		{name: "not ready", id: "today", ready: false, wantErr: ErrMessagingNotReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := &fakeMessenger{ready: tc.ready}
			svc := newTestService(st, m, now)
			got, err := svc.SendTest(context.Background(), tc.id)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v want %v", err, tc.wantErr)
				}
				if len(m.Sent()) != 0 {
					t.Fatalf("nothing must be sent on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
			if sent := m.Sent(); len(sent) != 1 || sent[0].text != tc.want || sent[0].group != "TB3" {
				t.Fatalf("unexpected sends %+v", sent)
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ev    Event
		field string
	}{
		{Event{Name: "Ana", Day: 29, Month: 2}, ""},
		{Event{Name: "Ana", Day: 31, Month: 12}, ""},
		{Event{Name: " ", Day: 1, Month: 1}, "name"},
		{Event{Name: strings.Repeat("ñ", MaxNameRunes), Day: 1, Month: 1}, ""},
		{Event{Name: strings.Repeat("ñ", MaxNameRunes+1), Day: 1, Month: 1}, "name"},
		{Event{Name: "Ana", Day: 1, Month: 13}, "month"},
		{Event{Name: "Ana", Day: 0, Month: 1}, "day"},
		{Event{Name: "Ana", Day: 30, Month: 2}, "day"},
		{Event{Name: "Ana", Day: 31, Month: 4}, "day"},
	}
	for _, tc := range cases {
		err := ValidateEvent(tc.ev)
		if tc.field == "" {
			if err != nil {
				t.Fatalf("%+v: unexpected error %v", tc.ev, err)
			}
			continue
		}
		var verr ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("%+v: err=%v want field %q", tc.ev, err, tc.field)
		}
	}
}
