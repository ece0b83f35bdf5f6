package notifier

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownGroup = errors.New("unknown group")
	ErrNoAdapter    = errors.New("no messaging adapter")
)

// PartialDeliveryError reports a multi-part send that failed after Sent of
// Total parts reached the group.
type PartialDeliveryError struct {
	Sent  int
	Total int
	Err   error
}

func (e *PartialDeliveryError) Error() string {
	return fmt.Sprintf("partial delivery (%d/%d parts sent): %v", e.Sent, e.Total, e.Err)
}

func (e *PartialDeliveryError) Unwrap() error { return e.Err }

// Config controls group delivery.
type Config struct {
	Groups     []Group
	RatePerSec int
	ParseMode  string // default "Markdown"
}

// Group maps a group name to a chat.
type Group struct {
	Name     string
	ChatID   int64
	ThreadID int
}

type HistoryItem struct {
	At    time.Time `json:"at"`
	Group string    `json:"group"`
	Text  string    `json:"text"`
	Error string    `json:"error,omitempty"`
}

// SentEvent is published on the event bus after every delivery attempt.
type SentEvent struct {
	Group    string    `json:"group"`
	ChatID   int64     `json:"chat_id"`
	ThreadID int       `json:"thread_id,omitempty"`
	Chars    int       `json:"chars"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}
