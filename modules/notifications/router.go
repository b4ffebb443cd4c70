package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatlead/notify/pkg/notify"
)

// Service exposes the notification history and preference API consumed
// by the CRM web UI.
type Service struct {
	storage notify.Storage
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the API service on top of a notification storage.
func NewService(storage notify.Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns the module router. The host app mounts it behind
// jwt.Middleware; handlers read the authenticated user from the request
// context.
//
//	r.Route("/api/notifications", func(r chi.Router) {
//		r.Use(jwt.Middleware(tokens, nil))
//		r.Mount("/", svc.Handle())
//	})
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/unread-count", s.unreadCount)
	r.Post("/read", s.markManyRead)
	r.Post("/read-all", s.markAllRead)
	r.Post("/{id}/read", s.markRead)
	r.Delete("/{id}", s.deleteNotification)
	r.Get("/preferences", s.getPreferences)
	r.Put("/preferences", s.updatePreferences)

	return r
}
