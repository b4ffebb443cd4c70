package notifications

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chatlead/notify/pkg/jwt"
	"github.com/chatlead/notify/pkg/logger"
	"github.com/chatlead/notify/pkg/notify"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := s.storage.ListNotifications(r.Context(), userID, notify.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, "list notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	count, err := s.storage.CountUnread(r.Context(), userID)
	if err != nil {
		s.fail(w, r, "count unread", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (s *Service) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "notification id is required")
		return
	}

	if err := s.storage.MarkRead(r.Context(), userID, id); err != nil {
		s.fail(w, r, "mark read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) markManyRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids are required")
		return
	}

	if err := s.storage.MarkRead(r.Context(), userID, body.IDs...); err != nil {
		s.fail(w, r, "mark many read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := s.storage.MarkAllRead(r.Context(), userID); err != nil {
		s.fail(w, r, "mark all read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) deleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "notification id is required")
		return
	}

	if err := s.storage.DeleteNotifications(r.Context(), userID, id); err != nil {
		s.fail(w, r, "delete notification", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	pref, err := s.storage.GetPreference(r.Context(), userID)
	if err != nil {
		s.fail(w, r, "get preferences", err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

func (s *Service) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var update notify.PreferenceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, err := s.storage.UpsertPreference(r.Context(), userID, update)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidMuteWindow) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, r, "update preferences", err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.LogAttrs(r.Context(), slog.LevelError, "Notification API request failed",
		slog.String("op", op),
		logger.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// authenticatedUser resolves the caller from the jwt claims injected by
// the middleware the host mounts this module behind.
func authenticatedUser(r *http.Request) (string, bool) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
