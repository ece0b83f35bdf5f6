// Package notifier delivers reminder text to configured chat groups.
//
// Groups are addressed by name; the configured group list maps each name to a
// chat (and optional forum topic). Sends are rate limited and never retried.
package notifier
