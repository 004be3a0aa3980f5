// Package storage provides JSON-based persistence for the completion marker.
//
// The marker is a small JSON file written once an appointment has been found.
// Its existence alone tells termin-watch that no further attempts are needed;
// the content only records when it was written. termin-watch never removes it.
package storage
