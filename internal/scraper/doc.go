// Package scraper reads the appointment calendar of the booking site.
//
// The calendar page shows one month at a time. Bookable days are table cells with
// the "buchbar" class whose link encodes the day as a Unix timestamp. Scan loads
// the entry page in a browser, collects those cells and, when the current month
// has none, advances exactly one month and collects again.
package scraper
