package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chatlead/notify/pkg/bus"
	"github.com/chatlead/notify/pkg/jwt"
	"github.com/chatlead/notify/pkg/logger"
	"github.com/chatlead/notify/pkg/notify"
	"github.com/chatlead/notify/pkg/presence"
)

// Gateway is the live delivery channel. It authenticates websocket
// handshakes, tracks presence in the registry, and fans accepted
// notification envelopes out to every live connection of the target
// user. One Gateway serves one process; cross-process fan-out would
// need a brokered bus implementation.
type Gateway struct {
	registry   *presence.Registry
	bus        bus.Bus[notify.Envelope]
	storage    notify.Storage
	tokens     *jwt.Service
	logger     *slog.Logger
	sendBuffer int
	extractor  jwt.TokenExtractorFunc
	upgrader   websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*connection // connection id -> connection
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets the logger for the Gateway.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithSendBuffer sets the per-connection outbound buffer size.
func WithSendBuffer(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.sendBuffer = n
		}
	}
}

// WithCheckOrigin overrides the upgrader's origin check. The default
// accepts any origin; the host app is expected to front the gateway
// with its own CORS policy.
func WithCheckOrigin(f func(r *http.Request) bool) GatewayOption {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = f
	}
}

// NewGateway creates a gateway. The registry, bus, storage, and token
// service are injected so the gateway carries no package state.
func NewGateway(registry *presence.Registry, b bus.Bus[notify.Envelope], storage notify.Storage, tokens *jwt.Service, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		registry:   registry,
		bus:        b,
		storage:    storage,
		tokens:     tokens,
		logger:     slog.Default(),
		sendBuffer: 32,
		extractor: jwt.FirstTokenExtractor(
			jwt.BearerTokenExtractor,
			jwt.QueryTokenExtractor("token"),
		),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ServeHTTP performs the handshake. The bearer credential is verified
// before the upgrade: a bad or expired token is answered with 401 and
// nothing is registered (fail-closed, no partial state).
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := g.extractor(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var claims jwt.StandardClaims
	if err := g.tokens.Parse(token, &claims); err != nil || claims.Subject == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		g.logger.LogAttrs(r.Context(), slog.LevelDebug, "Websocket upgrade failed",
			logger.UserID(claims.Subject),
			logger.Error(err),
		)
		return
	}

	conn := newConnection(uuid.New().String(), claims.Subject, wsConn, g.sendBuffer)
	conn.setState(stateAuthenticated)

	g.register(conn)
	// The deferred unregister is the single teardown path, covering
	// client disconnects and transport failures alike.
	defer g.unregister(conn)

	ack, err := marshalFrame(eventConnected, connectedPayload{
		UserID:       conn.userID,
		ConnectionID: conn.id,
		Timestamp:    time.Now(),
	})
	if err == nil {
		conn.enqueue(ack)
	}
	conn.setState(stateActive)

	go conn.writeLoop()
	g.readLoop(r.Context(), conn)
}

func (g *Gateway) register(c *connection) {
	g.mu.Lock()
	g.conns[c.id] = c
	g.mu.Unlock()
	// Registry entry goes in last so every id it yields resolves to a
	// registered connection during fan-out.
	g.registry.Add(c.userID, c.id)

	g.logger.LogAttrs(context.Background(), slog.LevelDebug, "Websocket connected",
		logger.UserID(c.userID),
		logger.ConnectionID(c.id),
	)
}

func (g *Gateway) unregister(c *connection) {
	g.registry.Remove(c.userID, c.id)
	g.mu.Lock()
	delete(g.conns, c.id)
	g.mu.Unlock()
	c.close()

	g.logger.LogAttrs(context.Background(), slog.LevelDebug, "Websocket disconnected",
		logger.UserID(c.userID),
		logger.ConnectionID(c.id),
	)
}

// readLoop consumes inbound frames until the transport errors or the
// client closes. The read signal shares the mark-read path of the REST
// API so both surfaces stay consistent.
func (g *Gateway) readLoop(ctx context.Context, conn *connection) {
	for {
		_, payload, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			g.logger.LogAttrs(ctx, slog.LevelDebug, "Dropping malformed frame",
				logger.ConnectionID(conn.id),
				logger.Error(err),
			)
			continue
		}

		switch f.Event {
		case eventNotificationRead:
			var p readPayload
			if err := json.Unmarshal(f.Data, &p); err != nil || p.NotificationID == "" {
				g.logger.LogAttrs(ctx, slog.LevelDebug, "Dropping malformed read signal",
					logger.ConnectionID(conn.id),
				)
				continue
			}
			if err := g.storage.MarkRead(ctx, conn.userID, p.NotificationID); err != nil {
				g.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to mark notification read from live signal",
					logger.UserID(conn.userID),
					logger.NotificationID(p.NotificationID),
					logger.Error(err),
				)
			}
		default:
			g.logger.LogAttrs(ctx, slog.LevelDebug, "Ignoring unknown frame",
				logger.ConnectionID(conn.id),
				slog.String("event", f.Event),
			)
		}
	}
}

// Run subscribes to the bus and fans envelopes out until ctx ends or
// the bus closes. It is the bus's single subscriber.
func (g *Gateway) Run(ctx context.Context) error {
	sub := g.bus.Subscribe(ctx)
	defer sub.Close()

	for {
		select {
		case env, ok := <-sub.Receive(ctx):
			if !ok {
				return nil
			}
			g.fanOut(ctx, env)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fanOut pushes one envelope to every live connection of its user. Zero
// connections is a no-op; the row is already persisted for catch-up
// reads. Delivery per connection is at-most-once with no dedup across a
// user's connections.
func (g *Gateway) fanOut(ctx context.Context, env notify.Envelope) {
	ids := g.registry.Connections(env.UserID)
	if len(ids) == 0 {
		return
	}

	payload, err := marshalFrame(eventNotificationNew, env)
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelError, "Failed to encode notification frame",
			logger.NotificationID(env.NotificationID),
			logger.Error(err),
		)
		return
	}

	for _, id := range ids {
		g.mu.RLock()
		conn := g.conns[id]
		g.mu.RUnlock()
		if conn == nil {
			continue
		}
		if !conn.enqueue(payload) {
			g.logger.LogAttrs(ctx, slog.LevelDebug, "Dropped push for slow connection",
				logger.ConnectionID(id),
				logger.NotificationID(env.NotificationID),
			)
		}
	}
}

// ConnectionCount reports the number of live connections across users.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}
