package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStorage is the PostgreSQL-backed Storage implementation. Schema is
// managed by the goose migrations under migrations/.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres storage on top of an existing pool.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) CreateNotification(ctx context.Context, n Notification) error {
	if n.ID == "" {
		return ErrMissingID
	}
	if n.UserID == "" {
		return ErrMissingUserID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, entity_type, entity_id, channel, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Body, n.EntityType, n.EntityID, string(n.Channel), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PGStorage) ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, COALESCE(entity_type, ''), COALESCE(entity_id, ''), channel, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2`
	args := []any{userID, opts.Offset}
	if opts.Limit > 0 {
		query += " LIMIT $3"
		args = append(args, opts.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		var typ, channel string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &n.EntityType, &n.EntityID, &channel, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = Type(typ)
		n.Channel = Channel(channel)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PGStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *PGStorage) MarkRead(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *PGStorage) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (s *PGStorage) DeleteNotifications(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND id = ANY($2)`,
		userID, ids,
	)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (s *PGStorage) GetPreference(ctx context.Context, userID string) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrMissingUserID
	}

	pref, err := s.getPreference(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultPreference(userID), nil
	}
	if err != nil {
		return Preference{}, fmt.Errorf("get preference: %w", err)
	}
	return pref, nil
}

func (s *PGStorage) UpsertPreference(ctx context.Context, userID string, update PreferenceUpdate) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrMissingUserID
	}
	if err := update.Validate(); err != nil {
		return Preference{}, err
	}

	stored, err := s.getPreference(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		stored = DefaultPreference(userID)
	} else if err != nil {
		return Preference{}, fmt.Errorf("load stored preference: %w", err)
	}

	resolved := resolvePreference(stored, update)

	channels := make([]string, len(resolved.Channels))
	for i, c := range resolved.Channels {
		channels[i] = string(c)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO notification_preferences
			(user_id, enable_sound, mute_from, mute_to, whatsapp_message, kanban_move, contact_update, channels)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			enable_sound = EXCLUDED.enable_sound,
			mute_from = EXCLUDED.mute_from,
			mute_to = EXCLUDED.mute_to,
			whatsapp_message = EXCLUDED.whatsapp_message,
			kanban_move = EXCLUDED.kanban_move,
			contact_update = EXCLUDED.contact_update,
			channels = EXCLUDED.channels,
			updated_at = now()`,
		userID, resolved.EnableSound, resolved.MuteFrom, resolved.MuteTo,
		resolved.WhatsappMessage, resolved.KanbanMove, resolved.ContactUpdate, channels,
	)
	if err != nil {
		return Preference{}, fmt.Errorf("upsert preference: %w", err)
	}
	return resolved, nil
}

func (s *PGStorage) getPreference(ctx context.Context, userID string) (Preference, error) {
	var pref Preference
	var channels []string
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, enable_sound, COALESCE(mute_from, ''), COALESCE(mute_to, ''),
		       whatsapp_message, kanban_move, contact_update, channels
		FROM notification_preferences
		WHERE user_id = $1`,
		userID,
	).Scan(&pref.UserID, &pref.EnableSound, &pref.MuteFrom, &pref.MuteTo,
		&pref.WhatsappMessage, &pref.KanbanMove, &pref.ContactUpdate, &channels)
	if err != nil {
		return Preference{}, err
	}

	pref.Channels = make([]Channel, len(channels))
	for i, c := range channels {
		pref.Channels[i] = Channel(c)
	}
	return pref, nil
}
