package storage

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("event not found")
	ErrClosed   = errors.New("storage closed")
)

// Config configures storage.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Event is a yearly anniversary identified by month and day.
type Event struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Day   int    `json:"day"`
	Month int    `json:"month"`
}

// DispatchEntry is one completed (or failed) daily check.
// Keep it compact and schema-stable.
type DispatchEntry struct {
	At       time.Time `json:"at"`
	Group    string    `json:"group"`
	Messages int       `json:"messages"`
	Summary  string    `json:"summary"`
	Error    string    `json:"error,omitempty"`
}
