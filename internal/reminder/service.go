package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	logx "bdaybot/pkg/logx"
)

// NextReminder is the display view of the earliest upcoming reminder.
type NextReminder struct {
	At          time.Time
	Anniversary time.Time
	Name        string
	Lead        LeadTime
}

func (n NextReminder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date         time.Time `json:"date"`
		BirthdayDate time.Time `json:"birthdayDate"`
		Name         string    `json:"name"`
		Type         string    `json:"type"`
		Lead         LeadTime  `json:"lead"`
	}{n.At.UTC(), n.Anniversary.UTC(), n.Name, n.Lead.Label(), n.Lead})
}

// Service is the facade used by the HTTP API, chat commands and the scheduler.
type Service struct {
	store     Store
	messenger Messenger
	runner    *Runner
	log       logx.Logger
	now       func() time.Time
}

type Options struct {
	Store     Store
	Messenger Messenger
	Runner    *Runner
	Log       logx.Logger
	Now       func() time.Time
}

func NewService(opt Options) *Service {
	s := &Service{
		store:     opt.Store,
		messenger: opt.Messenger,
		runner:    opt.Runner,
		log:       opt.Log,
		now:       opt.Now,
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.runner == nil {
		s.runner = NewRunner(RunnerOptions{Messenger: opt.Messenger, Log: s.log, Now: s.now})
	}
	return s
}

func (s *Service) Runner() *Runner { return s.runner }

func (s *Service) Settings() Settings { return s.runner.Settings() }

func (s *Service) Calculator() Calculator {
	set := s.runner.Settings()
	return Calculator{Location: set.Location, Hour: set.Hour}
}

// Ready reports whether the messaging client can deliver.
func (s *Service) Ready() bool { return s.messenger != nil && s.messenger.Ready() }

// NextReminderInfo returns the earliest upcoming reminder, or nil when there are no events.
func (s *Service) NextReminderInfo(ctx context.Context) (*NextReminder, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	m, ok := s.Calculator().Earliest(events, s.now())
	if !ok {
		return nil, nil
	}
	s.log.Debug("next reminder computed",
		logx.String("name", m.Event.Name), logx.Time("at", m.Occurrence.At), logx.String("lead", m.Occurrence.Lead.String()))
	return &NextReminder{
		At:          m.Occurrence.At,
		Anniversary: m.Occurrence.Anniversary,
		Name:        m.Event.Name,
		Lead:        m.Occurrence.Lead,
	}, nil
}

func (s *Service) LastReminder() AuditRecord { return s.runner.Audit().Last() }

// CheckAndSend is the scheduled job body.
func (s *Service) CheckAndSend(ctx context.Context) (DailyResult, error) {
	// readiness first: a skipped cycle never touches storage
	if !s.Ready() {
		return s.runner.skip(), nil
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		s.log.Error("daily check aborted: list events failed", logx.Err(err))
		return DailyResult{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return s.runner.RunDailyCheck(ctx, events, s.now())
}

// SendTest sends the on-demand reminder for one event and returns the text sent.
func (s *Service) SendTest(ctx context.Context, id string) (string, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !s.Ready() {
		return "", ErrMessagingNotReady
	}
	set := s.runner.Settings()
	text := TestMessage(ev, s.now().In(set.loc()))
	if err := s.messenger.SendToGroup(ctx, set.Group, text); err != nil {
		return "", &DeliveryError{Group: set.Group, Err: err}
	}
	s.log.Info("test reminder sent", logx.String("id", ev.ID), logx.String("name", ev.Name))
	return text, nil
}
