// Package booking runs booking attempts against the appointment calendar and the
// polling loop that repeats them.
//
// An Attempt opens a fresh browser session, scans the calendar, and announces the
// first slot inside the configured window. A Poller repeats attempts with a fixed
// delay until one succeeds, then writes the completion marker.
package booking
