package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, suitable for
// development and tests.
type MemoryStorage struct {
	notifications map[string][]Notification // userID -> notifications
	preferences   map[string]Preference     // userID -> stored preference
	mu            sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
		preferences:   make(map[string]Preference),
	}
}

func (s *MemoryStorage) CreateNotification(ctx context.Context, n Notification) error {
	if n.ID == "" {
		return ErrMissingID
	}
	if n.UserID == "" {
		return ErrMissingUserID
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.UserID] = append(s.notifications[n.UserID], n)
	return nil
}

func (s *MemoryStorage) ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.notifications[userID]
	out := make([]Notification, len(stored))
	copy(out, stored)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(out) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	stored := s.notifications[userID]
	for i := range stored {
		if _, ok := idSet[stored[i].ID]; ok {
			stored[i].MarkAsRead()
		}
	}
	return nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.notifications[userID]
	for i := range stored {
		if !stored[i].Read() {
			stored[i].MarkAsRead()
		}
	}
	return nil
}

func (s *MemoryStorage) DeleteNotifications(ctx context.Context, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	stored := s.notifications[userID]
	kept := stored[:0]
	for _, n := range stored {
		if _, ok := idSet[n.ID]; !ok {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		delete(s.notifications, userID)
		return nil
	}
	s.notifications[userID] = kept
	return nil
}

func (s *MemoryStorage) GetPreference(ctx context.Context, userID string) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrMissingUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if pref, ok := s.preferences[userID]; ok {
		return pref, nil
	}
	return DefaultPreference(userID), nil
}

func (s *MemoryStorage) UpsertPreference(ctx context.Context, userID string, update PreferenceUpdate) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrMissingUserID
	}
	if err := update.Validate(); err != nil {
		return Preference{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.preferences[userID]
	if !ok {
		stored = DefaultPreference(userID)
	}
	resolved := resolvePreference(stored, update)
	s.preferences[userID] = resolved
	return resolved, nil
}
