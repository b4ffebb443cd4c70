package notify

import (
	"time"
)

// Type identifies the kind of domain event a notification describes.
// The set is closed: the dispatcher rejects events carrying any other value.
type Type string

const (
	TypeWhatsappMessage Type = "WHATSAPP_MESSAGE"
	TypeKanbanMove      Type = "KANBAN_MOVE"
	TypeContactCreated  Type = "CONTACT_CREATED"
	TypeContactUpdated  Type = "CONTACT_UPDATED"
	TypeDealCreated     Type = "DEAL_CREATED"
	TypeDealUpdated     Type = "DEAL_UPDATED"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeWhatsappMessage, TypeKanbanMove, TypeContactCreated,
		TypeContactUpdated, TypeDealCreated, TypeDealUpdated:
		return true
	}
	return false
}

// Channel identifies a delivery channel.
type Channel string

const (
	// ChannelInApp is the live in-app channel and the only one with a
	// working transport. Other channels may appear in preferences but
	// are inert until a deliverer exists for them.
	ChannelInApp Channel = "IN_APP"
	ChannelEmail Channel = "EMAIL"
)

// Event is the domain event contract consumed from business-logic
// collaborators: a message arrived, a kanban card moved, a contact or
// deal changed.
type Event struct {
	UserID     string `json:"userId"`
	Type       Type   `json:"type"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
}

// Notification is a persisted notification record. Rows are created by
// the Dispatcher on accepted events and mutated only by mark-read
// operations.
type Notification struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Type       Type       `json:"type"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	EntityType string     `json:"entityType,omitempty"`
	EntityID   string     `json:"entityId,omitempty"`
	Channel    Channel    `json:"channel"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Read reports whether the notification has been marked read.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}

// MarkAsRead stamps the notification with the current time. Re-marking
// an already-read notification simply rewrites the timestamp.
func (n *Notification) MarkAsRead() {
	now := time.Now()
	n.ReadAt = &now
}
