// Package notifications is the HTTP module for notification history and
// delivery preferences: listing, unread counts, read-state changes, and
// per-user preference reads and partial updates.
//
// Live delivery is not served here; see pkg/ws for the websocket
// channel. Both surfaces share the same storage, so a notification
// marked read over either one is read everywhere.
package notifications
