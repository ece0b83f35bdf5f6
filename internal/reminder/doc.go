// Package reminder decides which birthdays need a notification.
//
// Calculator is pure: it turns (event, reference instant) into the next
// reminder occurrence across three lead times. Runner performs the daily
// check: it classifies every event against today, tomorrow and one week
// ahead, sends one combined message and records the last dispatch.
package reminder
