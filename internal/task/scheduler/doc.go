// Package scheduler triggers named jobs on cron schedules.
//
// Each schedule runs at most once at a time: a trigger that fires while the
// previous run is still in flight is skipped. Runs get a timeout and panics
// are recovered, so one bad cycle never stops later ones.
package scheduler
