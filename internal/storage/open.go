package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	logx "bdaybot/pkg/logx"
)

// Store is the persistence API used by the reminder service and the HTTP API.
type Store interface {
	// ListEvents returns every event ordered by month, day, then insertion.
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	// CreateEvent assigns a fresh ID when ev.ID is empty.
	CreateEvent(ctx context.Context, ev Event) (Event, error)
	UpdateEvent(ctx context.Context, ev Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// DeleteAll removes every event. Used by the seeder.
	DeleteAll(ctx context.Context) error

	AppendDispatch(ctx context.Context, e DispatchEntry) error
	ListDispatches(ctx context.Context, limit int) ([]DispatchEntry, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "memory", "mem":
		return newMemory(log), nil
	case "file":
		return openFile(cfg, log)
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

func newID() string { return uuid.NewString() }

func normalizeEvent(ev Event) Event {
	ev.ID = strings.TrimSpace(ev.ID)
	ev.Name = strings.TrimSpace(ev.Name)
	return ev
}
