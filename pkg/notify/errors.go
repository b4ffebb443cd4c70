package notify

import "errors"

var (
	// ErrUnknownType is returned when a collaborator supplies an event
	// type outside the closed enum. This is a programming error on the
	// caller's side, never silently dropped.
	ErrUnknownType = errors.New("notify: unknown notification type")

	// ErrNotificationNotFound is returned by storage lookups for
	// missing or foreign-owned notifications.
	ErrNotificationNotFound = errors.New("notify: notification not found")

	// ErrMissingUserID is returned when an event or storage call lacks
	// a user identifier.
	ErrMissingUserID = errors.New("notify: user id is required")

	// ErrMissingID is returned when a notification record lacks an ID.
	ErrMissingID = errors.New("notify: notification id is required")

	// ErrInvalidMuteWindow is returned when a quiet-hours bound is not
	// a valid "HH:mm" value.
	ErrInvalidMuteWindow = errors.New("notify: mute window bounds must be HH:mm")
)
