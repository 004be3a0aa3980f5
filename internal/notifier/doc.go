// Package notifier provides notification interfaces and implementations for found
// appointments.
//
// The notifier package supports desktop notifications, Telegram messages and
// Twitter status updates. Multi fans a notification out to several channels.
package notifier
