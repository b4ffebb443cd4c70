package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlead/notify/pkg/jwt"
	"github.com/chatlead/notify/pkg/notify"
)

type apiFixture struct {
	server  *httptest.Server
	storage *notify.MemoryStorage
	tokens  *jwt.Service
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	tokens, err := jwt.New([]byte("api-test-signing-key-32-bytes-long!"))
	require.NoError(t, err)

	storage := notify.NewMemoryStorage()
	svc := NewService(storage)

	// Mounted the same way the host app does it.
	r := chi.NewRouter()
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(jwt.Middleware(tokens, nil))
		r.Mount("/", svc.Handle())
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, storage: storage, tokens: tokens}
}

func (f *apiFixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.tokens.Generate(jwt.StandardClaims{
		Subject:   userID,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) request(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.server.URL+"/api/notifications"+path, reader)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+f.token(t, userID))
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *apiFixture) seed(t *testing.T, userID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n-%d", i+1)
		require.NoError(t, f.storage.CreateNotification(context.Background(), notify.Notification{
			ID:        id,
			UserID:    userID,
			Type:      notify.TypeWhatsappMessage,
			Title:     fmt.Sprintf("Message %d", i+1),
			Body:      "hello",
			Channel:   notify.ChannelInApp,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		ids = append(ids, id)
	}
	return ids
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/", "/unread-count", "/preferences"} {
		resp := f.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestRouter_ListNewestFirstWithPagination(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t, "u1", 5)
	f.seed(t, "u2", 1)

	t.Run("default page", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		items := decode[[]notify.Notification](t, resp)
		require.Len(t, items, 5, "only the caller's rows")
		assert.Equal(t, "n-5", items[0].ID, "newest first")
		assert.Equal(t, "n-1", items[4].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/?limit=2&offset=2", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		items := decode[[]notify.Notification](t, resp)
		require.Len(t, items, 2)
		assert.Equal(t, "n-3", items[0].ID)
		assert.Equal(t, "n-2", items[1].ID)
	})

	t.Run("bogus limit falls back to default", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/?limit=-3", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		items := decode[[]notify.Notification](t, resp)
		assert.Len(t, items, 5)
	})
}

func TestRouter_UnreadCountAndMarkRead(t *testing.T) {
	f := newAPIFixture(t)
	ids := f.seed(t, "u1", 3)

	unread := func() int {
		resp := f.request(t, http.MethodGet, "/unread-count", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[map[string]int](t, resp)["unreadCount"]
	}
	require.Equal(t, 3, unread())

	resp := f.request(t, http.MethodPost, "/"+ids[0]+"/read", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, unread())

	// Marking read is idempotent.
	resp = f.request(t, http.MethodPost, "/"+ids[0]+"/read", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, unread())
}

func TestRouter_MarkManyRead(t *testing.T) {
	f := newAPIFixture(t)
	ids := f.seed(t, "u1", 3)

	resp := f.request(t, http.MethodPost, "/read", "u1", map[string][]string{"ids": ids[:2]})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := f.storage.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("empty ids rejected", func(t *testing.T) {
		resp := f.request(t, http.MethodPost, "/read", "u1", map[string][]string{"ids": {}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouter_MarkAllRead(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(t, "u1", 4)
	f.seed(t, "u2", 2)

	resp := f.request(t, http.MethodPost, "/read-all", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := f.storage.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Other users are untouched.
	count, err = f.storage.CountUnread(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRouter_DeleteScopedToOwner(t *testing.T) {
	f := newAPIFixture(t)
	ids := f.seed(t, "u1", 2)

	// Another user cannot delete u1's row; the delete is a silent no-op
	// for ids outside the caller's scope.
	resp := f.request(t, http.MethodDelete, "/"+ids[0], "u2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items, err := f.storage.ListNotifications(context.Background(), "u1", notify.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	resp = f.request(t, http.MethodDelete, "/"+ids[0], "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items, err = f.storage.ListNotifications(context.Background(), "u1", notify.ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ids[1], items[0].ID)
}

func TestRouter_PreferencesDefaultsAndPartialUpdate(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("defaults before first save", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/preferences", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		pref := decode[notify.Preference](t, resp)
		assert.Equal(t, notify.DefaultPreference("u1"), pref)
	})

	t.Run("partial update changes exactly one field", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/preferences", "u1", map[string]any{
			"enableSound": false,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		pref := decode[notify.Preference](t, resp)
		want := notify.DefaultPreference("u1")
		want.EnableSound = false
		assert.Equal(t, want, pref)
	})

	t.Run("quiet hours persist across reads", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/preferences", "u1", map[string]any{
			"muteFrom": "22:00",
			"muteTo":   "08:00",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = f.request(t, http.MethodGet, "/preferences", "u1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		pref := decode[notify.Preference](t, resp)
		assert.Equal(t, "22:00", pref.MuteFrom)
		assert.Equal(t, "08:00", pref.MuteTo)
		assert.False(t, pref.EnableSound, "earlier update still applies")
	})

	t.Run("malformed mute bound rejected", func(t *testing.T) {
		resp := f.request(t, http.MethodPut, "/preferences", "u1", map[string]any{
			"muteFrom": "25:99",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decode[map[string]string](t, resp)
		assert.Contains(t, body["error"], "mute window")
	})
}
