// Package slot provides types and functions for appointment slots offered on the
// booking calendar.
//
// A slot is a bookable calendar cell whose link encodes the offered day as a Unix
// timestamp. The package extracts that timestamp from the link and decides whether
// the day falls inside the configured date window.
package slot
