package reminder

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bdaybot/pkg/tgui"
)

const (
	NothingTodaySummary = "No hubo cumpleaños hoy."

	summaryMaxRunes = 50
	messageJoiner   = "\n\n"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the Spanish month name for m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return spanishMonths[m-1]
}

// Names are escaped: messages go out with ParseMode "Markdown".

func todayMessage(name string) string {
	return fmt.Sprintf("¡Hoy es el cumpleaños de %s! 🥳🎂🎉 ¡Felicidades!", tgui.Bold(name))
}

func tomorrowMessage(name string) string {
	return fmt.Sprintf("Recordatorio: Mañana es el cumpleaños de %s. 🎂", tgui.Bold(name))
}

func nextWeekMessage(name string) string {
	return fmt.Sprintf("Aviso: En exactamente una semana es el cumpleaños de %s. 📅", tgui.Bold(name))
}

// TestMessage is the on-demand message for one event relative to today.
func TestMessage(ev Event, today time.Time) string {
	if int(today.Month()) == ev.Month && today.Day() == ev.Day {
		return fmt.Sprintf("Recuerden hoy es el cumpleaños de %s 🥳🎂🎉", tgui.Bold(ev.Name))
	}
	return fmt.Sprintf("Recordemos que el cumpleaños de %s es el %d de %s 📅", tgui.Bold(ev.Name), ev.Day, MonthName(ev.Month))
}

// Summarize caps text at 50 runes, ending truncated text with "...".
func Summarize(text string) string {
	if utf8.RuneCountInString(text) <= summaryMaxRunes {
		return text
	}
	rs := []rune(text)
	return string(rs[:summaryMaxRunes-3]) + "..."
}

func joinMessages(msgs []string) string { return strings.Join(msgs, messageJoiner) }
