package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTrigger normalizes a daily trigger into a cron expression.
//
// Accepted forms:
//   - "HH:MM" (daily, scheduler time zone)
//   - cron: "0 13 * * *", "0 0 13 * * *" (with seconds), "@daily"
//   - "cron:" prefix forces cron parsing
func ParseTrigger(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("schedule required")
	}
	if strings.HasPrefix(strings.ToLower(s), "cron:") {
		expr := strings.TrimSpace(s[len("cron:"):])
		if expr == "" {
			return "", fmt.Errorf("cron schedule required after 'cron:'")
		}
		return expr, validateCron(expr)
	}
	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		return s, validateCron(s)
	}
	h, m, err := parseHHMM(s)
	if err != nil {
		return "", fmt.Errorf("invalid schedule %q (use HH:MM like '13:00' or cron like '0 13 * * *')", raw)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

func validateCron(expr string) error {
	if _, err := newParser().Parse(expr); err != nil {
		return fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	return nil
}

func parseHHMM(s string) (hour int, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
