package chatws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/connection"
	"github.com/dmitrymomot/chatroom/core/hub"
	"github.com/dmitrymomot/chatroom/core/room"
	"github.com/dmitrymomot/chatroom/core/session"
)

// IdentityVerifier validates the user_id claimed on the upgrade request.
// Returning an error rejects the handshake with 401 before the upgrade.
type IdentityVerifier func(ctx context.Context, userID string) error

type config struct {
	upgrader *websocket.Upgrader
	logger   *slog.Logger
	verify   IdentityVerifier
}

// Option configures the websocket handler.
type Option func(*config)

// WithReadBuffer sets the upgrader's read buffer size.
func WithReadBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the upgrader's write buffer size.
func WithWriteBuffer(size int) Option {
	return func(c *config) {
		c.upgrader.WriteBufferSize = size
	}
}

// WithHandshakeTimeout bounds the upgrade handshake.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.upgrader.HandshakeTimeout = timeout
	}
}

// WithOriginCheck sets a custom origin check on the upgrader.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables the origin check entirely.
func WithAllowAnyOrigin() Option {
	return func(c *config) {
		c.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithIdentityVerifier installs a verifier for the claimed user_id.
// The default accepts every identity.
func WithIdentityVerifier(fn IdentityVerifier) Option {
	return func(c *config) {
		if fn != nil {
			c.verify = fn
		}
	}
}

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Handler upgrades GET /ws?user_id=<identity> requests and runs a
// connection actor for the identity until the connection ends.
func Handler(registry *room.Registry, sessions *session.Table, events *hub.Hub[chat.ServerMessage], opts ...Option) http.HandlerFunc {
	cfg := &config{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		verify: func(context.Context, string) error { return nil },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
			return
		}
		if err := cfg.verify(r.Context(), userID); err != nil {
			cfg.logger.InfoContext(r.Context(), "identity rejected",
				slog.String("user_id", userID), slog.Any("error", err))
			http.Error(w, "unknown user identity", http.StatusUnauthorized)
			return
		}

		ws, err := cfg.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			cfg.logger.DebugContext(r.Context(), "websocket upgrade failed",
				slog.String("user_id", userID), slog.Any("error", err))
			return
		}

		actor := connection.New(userID, NewConn(ws), registry, sessions, events,
			connection.WithLogger(cfg.logger))
		if err := actor.Run(r.Context()); err != nil {
			cfg.logger.InfoContext(r.Context(), "connection ended with error",
				slog.String("user_id", userID), slog.Any("error", err))
		}
	}
}
