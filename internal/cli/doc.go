// Package cli implements the command-line interface for termin-watch.
//
// The root command runs the polling loop until an appointment in the configured
// window is found and the completion marker is written. The check command runs a
// single attempt and reports the candidates as text or JSON without touching the
// marker, and the status command reports whether the marker exists.
package cli
