package notify

import "context"

// ListOptions paginates notification history reads.
type ListOptions struct {
	Limit  int // maximum records to return (0 = no limit)
	Offset int // records to skip
}

// Storage persists notification records and per-user delivery
// preferences.
type Storage interface {
	// CreateNotification stores a new notification record.
	CreateNotification(ctx context.Context, n Notification) error

	// ListNotifications returns the user's notifications newest-first.
	ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// CountUnread returns the number of unread notifications for the user.
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead stamps the given notifications of the user as read.
	// Unknown ids are ignored; re-marking rewrites the timestamp.
	MarkRead(ctx context.Context, userID string, ids ...string) error

	// MarkAllRead marks every unread notification of the user as read.
	MarkAllRead(ctx context.Context, userID string) error

	// DeleteNotifications removes the given notifications of the user.
	// Ids owned by other users are ignored.
	DeleteNotifications(ctx context.Context, userID string, ids ...string) error

	// GetPreference returns the user's delivery preference,
	// default-filled when the user never saved one. A missing row is
	// not an error.
	GetPreference(ctx context.Context, userID string) (Preference, error)

	// UpsertPreference applies a partial update and returns the fully
	// resolved record that was written back.
	UpsertPreference(ctx context.Context, userID string, update PreferenceUpdate) (Preference, error)
}
