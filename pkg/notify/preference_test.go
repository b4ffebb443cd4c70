package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, 3, 14, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func TestPreference_MutedAt(t *testing.T) {
	tests := []struct {
		name     string
		muteFrom string
		muteTo   string
		at       string
		want     bool
	}{
		{"wrapping window, late evening", "22:00", "08:00", "23:30", true},
		{"wrapping window, early morning", "22:00", "08:00", "07:59", true},
		{"wrapping window, after end", "22:00", "08:00", "09:00", false},
		{"wrapping window, midday", "22:00", "08:00", "12:00", false},
		{"plain window, inside", "08:00", "22:00", "12:00", true},
		{"plain window, late night", "08:00", "22:00", "23:30", false},
		{"plain window, start is inclusive", "08:00", "22:00", "08:00", true},
		{"plain window, end is exclusive", "08:00", "22:00", "22:00", false},
		{"missing from bound", "", "08:00", "03:00", false},
		{"missing to bound", "22:00", "", "23:00", false},
		{"unparseable bound", "25:99", "08:00", "03:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pref := Preference{MuteFrom: tt.muteFrom, MuteTo: tt.muteTo}
			assert.Equal(t, tt.want, pref.MutedAt(clock(tt.at)))
		})
	}
}

func TestPreference_Allows(t *testing.T) {
	pref := Preference{
		WhatsappMessage: false,
		KanbanMove:      true,
		ContactUpdate:   false,
	}

	assert.False(t, pref.Allows(TypeWhatsappMessage))
	assert.True(t, pref.Allows(TypeKanbanMove))
	assert.False(t, pref.Allows(TypeContactCreated))
	assert.False(t, pref.Allows(TypeContactUpdated))
	// Deal types carry no toggle and are always allowed.
	assert.True(t, pref.Allows(TypeDealCreated))
	assert.True(t, pref.Allows(TypeDealUpdated))
}

func TestDefaultPreference(t *testing.T) {
	pref := DefaultPreference("user-1")

	assert.Equal(t, "user-1", pref.UserID)
	assert.True(t, pref.EnableSound)
	assert.True(t, pref.WhatsappMessage)
	assert.True(t, pref.KanbanMove)
	assert.False(t, pref.ContactUpdate)
	assert.Empty(t, pref.MuteFrom)
	assert.Empty(t, pref.MuteTo)
	assert.Equal(t, []Channel{ChannelInApp}, pref.Channels)
}

func TestResolvePreference_Precedence(t *testing.T) {
	stored := Preference{
		UserID:          "user-1",
		EnableSound:     true,
		MuteFrom:        "22:00",
		MuteTo:          "08:00",
		WhatsappMessage: true,
		KanbanMove:      false,
		ContactUpdate:   true,
		Channels:        []Channel{ChannelInApp},
	}

	f := false
	cleared := ""
	resolved := resolvePreference(stored, PreferenceUpdate{
		WhatsappMessage: &f,
		MuteFrom:        &cleared,
	})

	// Set fields win over stored values.
	assert.False(t, resolved.WhatsappMessage)
	assert.Empty(t, resolved.MuteFrom)
	// Everything omitted keeps its stored value.
	assert.True(t, resolved.EnableSound)
	assert.Equal(t, "08:00", resolved.MuteTo)
	assert.False(t, resolved.KanbanMove)
	assert.True(t, resolved.ContactUpdate)
	assert.Equal(t, []Channel{ChannelInApp}, resolved.Channels)
}

func TestPreferenceUpdate_Validate(t *testing.T) {
	good := "07:30"
	bad := "7:3pm"
	empty := ""

	require.NoError(t, PreferenceUpdate{}.Validate())
	require.NoError(t, PreferenceUpdate{MuteFrom: &good, MuteTo: &good}.Validate())
	require.NoError(t, PreferenceUpdate{MuteFrom: &empty}.Validate())
	assert.ErrorIs(t, PreferenceUpdate{MuteFrom: &bad}.Validate(), ErrInvalidMuteWindow)
	assert.ErrorIs(t, PreferenceUpdate{MuteTo: &bad}.Validate(), ErrInvalidMuteWindow)
}
