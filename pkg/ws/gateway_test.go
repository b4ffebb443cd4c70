package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"net/http/httptest"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlead/notify/pkg/bus"
	"github.com/chatlead/notify/pkg/jwt"
	"github.com/chatlead/notify/pkg/notify"
	"github.com/chatlead/notify/pkg/presence"
)

type gatewayFixture struct {
	server   *httptest.Server
	registry *presence.Registry
	bus      *bus.MemoryBus[notify.Envelope]
	storage  *notify.MemoryStorage
	tokens   *jwt.Service
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	tokens, err := jwt.New([]byte("gateway-test-signing-key-32-bytes!!"))
	require.NoError(t, err)

	f := &gatewayFixture{
		registry: presence.NewRegistry(),
		bus:      bus.NewMemoryBus[notify.Envelope](16),
		storage:  notify.NewMemoryStorage(),
		tokens:   tokens,
	}

	g := NewGateway(f.registry, f.bus, f.storage, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = g.Run(ctx) }()

	f.server = httptest.NewServer(g)
	t.Cleanup(func() {
		f.server.Close()
		cancel()
		_ = f.bus.Close()
	})
	return f
}

func (f *gatewayFixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.tokens.Generate(jwt.StandardClaims{
		Subject:   userID,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (f *gatewayFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(f.server.URL, "http", "ws", 1) + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(payload, &f))
	return f.Event, f.Data
}

func TestGateway_RejectsInvalidHandshake(t *testing.T) {
	f := newGatewayFixture(t)
	url := strings.Replace(f.server.URL, "http", "ws", 1)

	tests := []struct {
		name string
		url  string
	}{
		{"missing token", url},
		{"garbage token", url + "?token=garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.Error(t, err)
			require.Nil(t, conn)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	// Fail-closed: nothing was registered.
	assert.Equal(t, 0, f.registry.ConnectedUserCount())
}

func TestGateway_RejectsExpiredToken(t *testing.T) {
	f := newGatewayFixture(t)

	expired, err := f.tokens.Generate(jwt.StandardClaims{
		Subject:   "u1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	url := strings.Replace(f.server.URL, "http", "ws", 1) + "?token=" + expired
	_, resp, dialErr := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, dialErr)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, f.registry.IsConnected("u1"))
}

func TestGateway_HandshakeAckAndPresence(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, f.token(t, "u1"))

	event, data := readFrame(t, conn)
	require.Equal(t, eventConnected, event)

	var ack connectedPayload
	require.NoError(t, json.Unmarshal(data, &ack))
	assert.Equal(t, "u1", ack.UserID)
	assert.NotEmpty(t, ack.ConnectionID)
	assert.False(t, ack.Timestamp.IsZero())

	assert.True(t, f.registry.IsConnected("u1"))
	assert.Equal(t, 1, f.registry.ConnectionCount("u1"))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return !f.registry.IsConnected("u1")
	}, 2*time.Second, 10*time.Millisecond, "disconnect should clear presence")
}

func TestGateway_FanOutReachesEveryConnectionOfUser(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	// Two connections for u1, one for a bystander.
	conn1 := f.dial(t, f.token(t, "u1"))
	conn2 := f.dial(t, f.token(t, "u1"))
	other := f.dial(t, f.token(t, "u2"))
	for _, c := range []*websocket.Conn{conn1, conn2, other} {
		event, _ := readFrame(t, c)
		require.Equal(t, eventConnected, event)
	}
	require.Equal(t, 2, f.registry.ConnectionCount("u1"))

	env := notify.Envelope{
		UserID:         "u1",
		NotificationID: "n-1",
		Type:           notify.TypeWhatsappMessage,
		Title:          "New message",
		Body:           "hello",
		CreatedAt:      time.Now(),
		EnableSound:    true,
	}
	require.NoError(t, f.bus.Publish(ctx, env))

	// Each of the user's connections gets its own push, no dedup.
	for _, c := range []*websocket.Conn{conn1, conn2} {
		event, data := readFrame(t, c)
		assert.Equal(t, eventNotificationNew, event)

		var got notify.Envelope
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "n-1", got.NotificationID)
		assert.True(t, got.EnableSound)
	}

	// The bystander stays silent.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "no frame expected for another user")
}

func TestGateway_ZeroConnectionsIsANoop(t *testing.T) {
	f := newGatewayFixture(t)

	// Nobody connected: publishing must not panic or leak.
	require.NoError(t, f.bus.Publish(context.Background(), notify.Envelope{
		UserID:         "nobody",
		NotificationID: "n-1",
	}))
}

func TestGateway_ReadSignalSharesMarkReadPath(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storage.CreateNotification(ctx, notify.Notification{
		ID:        "n-1",
		UserID:    "u1",
		Type:      notify.TypeWhatsappMessage,
		Title:     "New message",
		Body:      "hello",
		Channel:   notify.ChannelInApp,
		CreatedAt: time.Now(),
	}))

	conn := f.dial(t, f.token(t, "u1"))
	event, _ := readFrame(t, conn)
	require.Equal(t, eventConnected, event)

	readSignal, err := json.Marshal(map[string]any{
		"event": eventNotificationRead,
		"data":  map[string]string{"notificationId": "n-1"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, readSignal))

	require.Eventually(t, func() bool {
		count, err := f.storage.CountUnread(ctx, "u1")
		return err == nil && count == 0
	}, 2*time.Second, 10*time.Millisecond, "read signal should mark the row read")
}

func TestGateway_IgnoresUnknownFrames(t *testing.T) {
	f := newGatewayFixture(t)

	conn := f.dial(t, f.token(t, "u1"))
	event, _ := readFrame(t, conn)
	require.Equal(t, eventConnected, event)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	// The connection survives junk input.
	require.Eventually(t, func() bool {
		return f.registry.IsConnected("u1")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, f.registry.IsConnected("u1"))
}
