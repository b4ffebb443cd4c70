package notify

import (
	"slices"
	"time"
)

// Preference is the per-user delivery configuration, one row per user.
// The row is created lazily on the first update; until then, readers see
// DefaultPreference values.
type Preference struct {
	UserID          string    `json:"userId"`
	EnableSound     bool      `json:"enableSound"`
	MuteFrom        string    `json:"muteFrom,omitempty"` // "HH:mm", empty = unset
	MuteTo          string    `json:"muteTo,omitempty"`   // "HH:mm", empty = unset
	WhatsappMessage bool      `json:"whatsappMessage"`
	KanbanMove      bool      `json:"kanbanMove"`
	ContactUpdate   bool      `json:"contactUpdate"`
	Channels        []Channel `json:"channels"`
}

// DefaultPreference returns the configuration assumed for users who
// never saved one.
func DefaultPreference(userID string) Preference {
	return Preference{
		UserID:          userID,
		EnableSound:     true,
		WhatsappMessage: true,
		KanbanMove:      true,
		ContactUpdate:   false,
		Channels:        []Channel{ChannelInApp},
	}
}

// Allows reports whether notifications of the given type are enabled.
// Types without an explicit toggle are always allowed.
func (p Preference) Allows(t Type) bool {
	switch t {
	case TypeWhatsappMessage:
		return p.WhatsappMessage
	case TypeKanbanMove:
		return p.KanbanMove
	case TypeContactCreated, TypeContactUpdated:
		return p.ContactUpdate
	default:
		return true
	}
}

// MutedAt reports whether t falls inside the user's quiet-hours window.
// The window wraps midnight when MuteFrom is later than MuteTo, so
// "22:00"-"08:00" covers late evening and early morning. With either
// bound unset there is no window. The start bound is inclusive, the end
// bound exclusive.
func (p Preference) MutedAt(t time.Time) bool {
	if p.MuteFrom == "" || p.MuteTo == "" {
		return false
	}
	from, err := minuteOfDay(p.MuteFrom)
	if err != nil {
		return false
	}
	to, err := minuteOfDay(p.MuteTo)
	if err != nil {
		return false
	}

	now := t.Hour()*60 + t.Minute()
	if from <= to {
		return now >= from && now < to
	}
	return now >= from || now < to
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// PreferenceUpdate is a partial preference change. Nil fields keep their
// previously stored value; users with no stored row fall back to
// DefaultPreference before the update is applied.
type PreferenceUpdate struct {
	EnableSound     *bool     `json:"enableSound,omitempty"`
	MuteFrom        *string   `json:"muteFrom,omitempty"`
	MuteTo          *string   `json:"muteTo,omitempty"`
	WhatsappMessage *bool     `json:"whatsappMessage,omitempty"`
	KanbanMove      *bool     `json:"kanbanMove,omitempty"`
	ContactUpdate   *bool     `json:"contactUpdate,omitempty"`
	Channels        []Channel `json:"channels,omitempty"`
}

// Validate rejects malformed quiet-hours bounds before they reach
// storage. An explicit empty string clears a bound and is valid.
func (u PreferenceUpdate) Validate() error {
	for _, bound := range []*string{u.MuteFrom, u.MuteTo} {
		if bound == nil || *bound == "" {
			continue
		}
		if _, err := minuteOfDay(*bound); err != nil {
			return ErrInvalidMuteWindow
		}
	}
	return nil
}

// resolvePreference applies a partial update on top of the stored record
// with a single precedence: incoming field, then stored value, then the
// hardcoded default already baked into stored. The fully resolved record
// is what storage writes back, so subsequent reads are self-consistent.
func resolvePreference(stored Preference, u PreferenceUpdate) Preference {
	out := stored
	if u.EnableSound != nil {
		out.EnableSound = *u.EnableSound
	}
	if u.MuteFrom != nil {
		out.MuteFrom = *u.MuteFrom
	}
	if u.MuteTo != nil {
		out.MuteTo = *u.MuteTo
	}
	if u.WhatsappMessage != nil {
		out.WhatsappMessage = *u.WhatsappMessage
	}
	if u.KanbanMove != nil {
		out.KanbanMove = *u.KanbanMove
	}
	if u.ContactUpdate != nil {
		out.ContactUpdate = *u.ContactUpdate
	}
	if u.Channels != nil {
		out.Channels = slices.Clone(u.Channels)
	}
	return out
}
