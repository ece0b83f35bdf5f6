// Package tgui holds small helpers for composing Telegram message text.
package tgui

import "strings"

// mdEscaper escapes the characters that are special in Telegram's legacy
// Markdown parse mode.
var mdEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// EscMD escapes s for ParseMode "Markdown".
func EscMD(s string) string { return mdEscaper.Replace(s) }

// Bold wraps escaped s in *...*.
func Bold(s string) string { return "*" + EscMD(s) + "*" }

// Lines joins non-empty lines with "\n".
func Lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
