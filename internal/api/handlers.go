// Package api serves the management HTTP API: birthday CRUD, bot status,
// on-demand test reminders and an iCalendar export.
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bdaybot/internal/ics"
	"bdaybot/internal/notifier"
	"bdaybot/internal/reminder"
	"bdaybot/internal/storage"
	"bdaybot/internal/task/scheduler"
	logx "bdaybot/pkg/logx"
)

// EventStore is the persistence surface the API needs.
type EventStore interface {
	ListEvents(ctx context.Context) ([]reminder.Event, error)
	GetEvent(ctx context.Context, id string) (reminder.Event, error)
	CreateEvent(ctx context.Context, ev reminder.Event) (reminder.Event, error)
	UpdateEvent(ctx context.Context, ev reminder.Event) (reminder.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListDispatches(ctx context.Context, limit int) ([]storage.DispatchEntry, error)
}

type Reminders interface {
	Ready() bool
	Settings() reminder.Settings
	NextReminderInfo(ctx context.Context) (*reminder.NextReminder, error)
	LastReminder() reminder.AuditRecord
	SendTest(ctx context.Context, id string) (string, error)
}

// NextCheckFunc reports the next scheduled daily check, if any.
type NextCheckFunc func() (time.Time, bool)

// Diagnostics feeds GET /api/bot/history. Nil funcs are left out of the reply.
type Diagnostics struct {
	Schedule func() scheduler.Snapshot
	Sends    func() []notifier.HistoryItem
}

type Handler struct {
	store     EventStore
	reminders Reminders
	nextCheck NextCheckFunc
	diag      Diagnostics
	log       logx.Logger
	now       func() time.Time
}

func NewHandler(store EventStore, reminders Reminders, nextCheck NextCheckFunc, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{store: store, reminders: reminders, nextCheck: nextCheck, log: log, now: time.Now}
}

func (h *Handler) SetDiagnostics(d Diagnostics) { h.diag = d }

type birthdayRequest struct {
	Name  string `json:"name"`
	Day   int    `json:"day"`
	Month int    `json:"month"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (h *Handler) storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, reminder.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	}
	h.log.Error("storage error", logx.String("path", c.Path()), logx.Err(err))
	return errorJSON(c, fiber.StatusInternalServerError, err.Error())
}

func (h *Handler) parseBirthday(c *fiber.Ctx) (reminder.Event, error) {
	var req birthdayRequest
	if err := c.BodyParser(&req); err != nil {
		return reminder.Event{}, errors.New("Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Day == 0 || req.Month == 0 {
		return reminder.Event{}, errors.New("Missing required fields")
	}
	ev := reminder.Event{Name: req.Name, Day: req.Day, Month: req.Month}
	if err := reminder.ValidateEvent(ev); err != nil {
		return reminder.Event{}, err
	}
	return ev, nil
}

func (h *Handler) ListBirthdays(c *fiber.Ctx) error {
	list, err := h.store.ListEvents(c.UserContext())
	if err != nil {
		return h.storeError(c, err)
	}
	if list == nil {
		list = []reminder.Event{}
	}
	return c.JSON(list)
}

func (h *Handler) GetBirthday(c *fiber.Ctx) error {
	ev, err := h.store.GetEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(ev)
}

func (h *Handler) CreateBirthday(c *fiber.Ctx) error {
	ev, err := h.parseBirthday(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	created, err := h.store.CreateEvent(c.UserContext(), ev)
	if err != nil {
		return h.storeError(c, err)
	}
	h.log.Info("birthday created", logx.String("id", created.ID), logx.String("name", created.Name))
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) UpdateBirthday(c *fiber.Ctx) error {
	ev, err := h.parseBirthday(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	ev.ID = c.Params("id")
	updated, err := h.store.UpdateEvent(c.UserContext(), ev)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) DeleteBirthday(c *fiber.Ctx) error {
	if err := h.store.DeleteEvent(c.UserContext(), c.Params("id")); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func (h *Handler) Status(c *fiber.Ctx) error {
	set := h.reminders.Settings()
	ready := h.reminders.Ready()
	body := fiber.Map{
		// isReady and qr are what the web UI reads; no QR pairing exists here.
		"isReady":      ready,
		"ready":        ready,
		"qr":           nil,
		"group":        set.Group,
		"lastReminder": h.reminders.LastReminder(),
		"nextReminder": nil,
		"nextCheck":    nil,
	}
	next, err := h.reminders.NextReminderInfo(c.UserContext())
	if err != nil {
		h.log.Warn("next reminder unavailable", logx.Err(err))
		body["nextReminderError"] = err.Error()
	} else if next != nil {
		body["nextReminder"] = next
	}
	if h.nextCheck != nil {
		if at, ok := h.nextCheck(); ok {
			body["nextCheck"] = at.UTC()
		}
	}
	return c.JSON(body)
}

func (h *Handler) SendTest(c *fiber.Ctx) error {
	text, err := h.reminders.SendTest(c.UserContext(), c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"success": true, "message": "Message sent successfully", "text": text})
	case errors.Is(err, reminder.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Birthday not found")
	case errors.Is(err, reminder.ErrMessagingNotReady):
		return errorJSON(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		h.log.Warn("send test failed", logx.String("id", c.Params("id")), logx.Err(err))
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Calendar(c *fiber.Ctx) error {
	list, err := h.store.ListEvents(c.UserContext())
	if err != nil {
		return h.storeError(c, err)
	}
	body, err := ics.Render(list, h.reminders.Settings().Location, h.now(), "Cumpleaños")
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="birthdays.ics"`)
	return c.SendString(body)
}

func (h *Handler) Upcoming(c *fiber.Ctx) error {
	n := c.QueryInt("n", 10)
	if n <= 0 || n > 100 {
		return errorJSON(c, fiber.StatusBadRequest, "n must be between 1 and 100")
	}
	list, err := h.store.ListEvents(c.UserContext())
	if err != nil {
		return h.storeError(c, err)
	}
	out, err := ics.Upcoming(list, h.reminders.Settings().Location, h.now(), n)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []ics.Anniversary{}
	}
	return c.JSON(out)
}

// History returns the persisted dispatch log (newest first) plus in-memory
// send and trigger history.
func (h *Handler) History(c *fiber.Ctx) error {
	n := c.QueryInt("n", 20)
	if n <= 0 || n > 100 {
		return errorJSON(c, fiber.StatusBadRequest, "n must be between 1 and 100")
	}
	dispatches, err := h.store.ListDispatches(c.UserContext(), n)
	if err != nil {
		return h.storeError(c, err)
	}
	if dispatches == nil {
		dispatches = []storage.DispatchEntry{}
	}
	body := fiber.Map{"dispatches": dispatches}
	if h.diag.Sends != nil {
		sends := h.diag.Sends()
		if sends == nil {
			sends = []notifier.HistoryItem{}
		}
		body["sends"] = sends
	}
	if h.diag.Schedule != nil {
		body["scheduler"] = h.diag.Schedule()
	}
	return c.JSON(body)
}

func Health(c *fiber.Ctx) error { return c.SendString("ok") }
