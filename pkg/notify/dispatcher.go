package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chatlead/notify/pkg/bus"
	"github.com/chatlead/notify/pkg/logger"
)

// Envelope is the payload published to the event bus for every accepted
// event and pushed verbatim to the user's live connections. IsMuted is a
// hint for the client to suppress sound during quiet hours; it never
// gates persistence or delivery.
type Envelope struct {
	UserID         string    `json:"userId"`
	NotificationID string    `json:"id"`
	Type           Type      `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	EntityType     string    `json:"entityType,omitempty"`
	EntityID       string    `json:"entityId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	EnableSound    bool      `json:"enableSound"`
	IsMuted        bool      `json:"isMuted"`
}

// ErrorPolicy names how Dispatch treats storage failures.
type ErrorPolicy int

const (
	// ErrorPolicyLog logs and swallows storage failures so the business
	// operation that raised the event is never blocked by this
	// subsystem. This is the default.
	ErrorPolicyLog ErrorPolicy = iota
	// ErrorPolicyPropagate returns storage failures to the caller.
	ErrorPolicyPropagate
)

// Dispatcher decides whether a domain event becomes a persisted and
// delivered notification, consulting the user's preference toggles and
// quiet hours.
type Dispatcher struct {
	storage Storage
	bus     bus.Bus[Envelope]
	logger  *slog.Logger
	policy  ErrorPolicy
	now     func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger for the Dispatcher.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithErrorPolicy sets how storage failures are treated.
func WithErrorPolicy(p ErrorPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithClock overrides the wall clock, used by quiet-hours tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher writing accepted events to storage
// and publishing their envelopes to b.
func NewDispatcher(storage Storage, b bus.Bus[Envelope], opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		storage: storage,
		bus:     b,
		logger:  slog.Default(),
		policy:  ErrorPolicyLog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the eligibility check for the event. Suppressed events
// have no side effects at all and return (nil, nil). Accepted events are
// persisted first and then published; quiet hours only set the IsMuted
// hint on the envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*Notification, error) {
	if ev.UserID == "" {
		return nil, ErrMissingUserID
	}
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, ev.Type)
	}

	pref, err := d.storage.GetPreference(ctx, ev.UserID)
	if err != nil {
		// Missing rows are default-filled by storage; anything
		// surfacing here is a real storage failure.
		return d.fail(ctx, ev, "load preference", err)
	}

	if !pref.Allows(ev.Type) {
		return nil, nil
	}

	n := Notification{
		ID:         uuid.New().String(),
		UserID:     ev.UserID,
		Type:       ev.Type,
		Title:      ev.Title,
		Body:       ev.Body,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		Channel:    ChannelInApp,
		CreatedAt:  d.now(),
	}
	if err := d.storage.CreateNotification(ctx, n); err != nil {
		return d.fail(ctx, ev, "persist notification", err)
	}

	env := Envelope{
		UserID:         n.UserID,
		NotificationID: n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		EntityType:     n.EntityType,
		EntityID:       n.EntityID,
		CreatedAt:      n.CreatedAt,
		EnableSound:    pref.EnableSound,
		IsMuted:        pref.MutedAt(d.now()),
	}
	if err := d.bus.Publish(ctx, env); err != nil {
		// The row is already durable; live delivery is best effort.
		d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to publish notification envelope",
			logger.NotificationID(n.ID),
			logger.UserID(n.UserID),
			logger.Error(err),
		)
	}

	return &n, nil
}

func (d *Dispatcher) fail(ctx context.Context, ev Event, op string, err error) (*Notification, error) {
	if d.policy == ErrorPolicyPropagate {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.logger.LogAttrs(ctx, slog.LevelError, "Notification dropped",
		slog.String("op", op),
		logger.UserID(ev.UserID),
		logger.EventType(string(ev.Type)),
		logger.Error(err),
	)
	return nil, nil
}
