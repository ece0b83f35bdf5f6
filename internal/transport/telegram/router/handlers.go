package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bdaybot/internal/reminder"
	kit "bdaybot/internal/transport"
	"bdaybot/pkg/tgui"
)

// ReminderPort is the slice of the reminder service chat commands need.
type ReminderPort interface {
	NextReminderInfo(ctx context.Context) (*reminder.NextReminder, error)
	LastReminder() reminder.AuditRecord
	CheckAndSend(ctx context.Context) (reminder.DailyResult, error)
	Settings() reminder.Settings
}

type EventLister interface {
	ListEvents(ctx context.Context) ([]reminder.Event, error)
}

// Register installs the bdaybot command set on m.
func Register(ctx context.Context, m *CommandManager, rem ReminderPort, events EventLister) {
	cmds := []Command{
		{
			Name:        "next",
			Aliases:     []string{"proximo"},
			Description: "Próximo recordatorio programado",
			Timeout:     5 * time.Second,
			Handle:      nextHandler(rem),
		},
		{
			Name:        "last",
			Aliases:     []string{"ultimo"},
			Description: "Resultado de la última revisión diaria",
			Timeout:     5 * time.Second,
			Handle:      lastHandler(rem),
		},
		{
			Name:        "list",
			Aliases:     []string{"lista"},
			Description: "Cumpleaños registrados",
			Timeout:     5 * time.Second,
			Handle:      listHandler(events),
		},
		{
			Name:        "check",
			Description: "Ejecutar la revisión diaria ahora",
			Access:      AccessOwnerOnly,
			Timeout:     time.Minute,
			Handle:      checkHandler(rem),
		},
		{
			Name:        "help",
			Aliases:     []string{"start", "ayuda"},
			Description: "Lista de comandos",
			Timeout:     5 * time.Second,
			Handle:      helpHandler(m),
		},
	}
	m.SetCommands(ctx, cmds)
}

func nextHandler(rem ReminderPort) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		next, err := rem.NextReminderInfo(ctx)
		if err != nil {
			_ = req.Reply(ctx, "No se pudo calcular el próximo recordatorio.", nil)
			return err
		}
		if next == nil {
			return req.Reply(ctx, "No hay cumpleaños registrados.", nil)
		}
		loc := rem.Settings().Location
		text := tgui.Lines(
			fmt.Sprintf("Próximo recordatorio: %s (%s)", tgui.Bold(next.Name), next.Lead.Label()),
			"Aviso: "+formatStamp(next.At, loc),
			"Cumpleaños: "+formatDay(next.Anniversary, loc),
		)
		return req.Reply(ctx, text, &kit.SendOptions{ParseMode: "Markdown"})
	}
}

func lastHandler(rem ReminderPort) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		last := rem.LastReminder()
		if last.IsZero() {
			return req.Reply(ctx, "Aún no se ha ejecutado ninguna revisión.", nil)
		}
		text := tgui.Lines("Última revisión: "+formatStamp(last.Timestamp, rem.Settings().Location), last.Summary)
		return req.Reply(ctx, text, nil)
	}
}

func listHandler(events EventLister) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		list, err := events.ListEvents(ctx)
		if err != nil {
			_ = req.Reply(ctx, "No se pudo leer la lista de cumpleaños.", nil)
			return err
		}
		if len(list) == 0 {
			return req.Reply(ctx, "No hay cumpleaños registrados.", nil)
		}
		var b strings.Builder
		b.WriteString("Cumpleaños registrados:\n")
		for _, ev := range list {
			fmt.Fprintf(&b, "• %d de %s: %s\n", ev.Day, reminder.MonthName(ev.Month), ev.Name)
		}
		return req.Reply(ctx, strings.TrimRight(b.String(), "\n"), nil)
	}
}

func checkHandler(rem ReminderPort) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		res, err := rem.CheckAndSend(ctx)
		switch {
		case err != nil:
			_ = req.Reply(ctx, "La revisión falló: "+err.Error(), nil)
			return err
		case res.Skipped:
			return req.Reply(ctx, "Cliente de mensajería no listo; revisión omitida.", nil)
		case len(res.Messages) == 0:
			return req.Reply(ctx, "Revisión completada: "+res.Audit.Summary, nil)
		default:
			return req.Reply(ctx, fmt.Sprintf("Revisión completada: %d recordatorio(s) enviado(s).", len(res.Messages)), nil)
		}
	}
}

func helpHandler(m *CommandManager) HandlerFunc {
	return func(ctx context.Context, req *Request) error {
		var b strings.Builder
		b.WriteString("Comandos disponibles:\n")
		for _, c := range m.Commands() {
			fmt.Fprintf(&b, "/%s - %s", c.Name, c.Description)
			if c.Access == AccessOwnerOnly {
				b.WriteString(" (admin)")
			}
			b.WriteByte('\n')
		}
		return req.Reply(ctx, strings.TrimRight(b.String(), "\n"), nil)
	}
}

func formatDay(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), reminder.MonthName(int(t.Month())), t.Year())
}

func formatStamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return formatDay(t, nil) + t.Format(" 15:04 MST")
}
