package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/health"
	"github.com/dmitrymomot/chatroom/core/room"
)

// IdentityVerifier checks that a user_id arriving in a request payload is an
// identity this deployment accepts. The default accepts any non-empty id.
type IdentityVerifier func(ctx context.Context, userID string) error

// API holds the REST handlers for room management.
type API struct {
	registry *room.Registry
	ws       http.Handler
	verify   IdentityVerifier
	checks   []health.Check
	logger   *slog.Logger
}

// Option configures the API.
type Option func(*API)

// WithIdentityVerifier replaces the default identity check.
func WithIdentityVerifier(fn IdentityVerifier) Option {
	return func(a *API) {
		if fn != nil {
			a.verify = fn
		}
	}
}

// WithReadinessChecks adds dependency checks behind GET /health/ready.
func WithReadinessChecks(checks ...health.Check) Option {
	return func(a *API) {
		a.checks = append(a.checks, checks...)
	}
}

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates the API. ws is mounted at GET /ws and may be nil when the
// websocket surface is served elsewhere.
func New(registry *room.Registry, ws http.Handler, opts ...Option) *API {
	a := &API{
		registry: registry,
		ws:       ws,
		verify:   func(context.Context, string) error { return nil },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes returns the full route table.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms", a.createRoom)
	mux.HandleFunc("POST /rooms/join", a.joinRoom)
	mux.HandleFunc("DELETE /rooms/{room_id}", a.deleteRoom)
	mux.HandleFunc("GET /rooms", a.listRooms)
	mux.HandleFunc("GET /rooms/{room_id}/users", a.listRoomUsers)
	mux.HandleFunc("GET /health/live", health.Liveness())
	mux.HandleFunc("GET /health/ready", health.Readiness(a.logger, a.checks...))
	if a.ws != nil {
		mux.Handle("GET /ws", a.ws)
	}
	return mux
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	var req chat.CreateRoomRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.RoomID == "" || req.UserID == "" || req.RoomPassword == "" {
		badRequest(w, "room_id, room_password and user_id are required")
		return
	}
	if !a.verifyIdentity(w, r, req.UserID) {
		return
	}

	createdAt, err := a.registry.Create(r.Context(), req.RoomID, req.UserID, req.RoomPassword)
	if err != nil {
		writeError(w, err, req.RoomID, req.UserID)
		return
	}

	a.logger.InfoContext(r.Context(), "room created",
		slog.String("room_id", req.RoomID), slog.String("user_id", req.UserID))
	writeJSON(w, http.StatusCreated, chat.CreateRoomResponse{
		RoomID:    req.RoomID,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req chat.JoinRoomRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.RoomID == "" || req.UserID == "" {
		badRequest(w, "room_id and user_id are required")
		return
	}
	if !a.verifyIdentity(w, r, req.UserID) {
		return
	}

	members, messages, err := a.registry.Authorize(r.Context(), req.RoomID, req.UserID, req.RoomPassword)
	if err != nil {
		writeError(w, err, req.RoomID, req.UserID)
		return
	}
	if members == nil {
		members = []string{}
	}
	if messages == nil {
		messages = []chat.ChatMessage{}
	}

	a.logger.InfoContext(r.Context(), "join authorized",
		slog.String("room_id", req.RoomID), slog.String("user_id", req.UserID))
	writeJSON(w, http.StatusOK, chat.JoinRoomResponse{
		RoomID:      req.RoomID,
		ChatHistory: messages,
		ActiveUsers: members,
	})
}

func (a *API) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")

	var req chat.DeleteRoomRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if !a.verifyIdentity(w, r, req.UserID) {
		return
	}

	if err := a.registry.Delete(r.Context(), roomID, req.UserID); err != nil {
		writeError(w, err, roomID, req.UserID)
		return
	}

	a.logger.InfoContext(r.Context(), "room deleted",
		slog.String("room_id", roomID), slog.String("user_id", req.UserID))
	writeJSON(w, http.StatusOK, chat.SuccessResponse{
		Message: "room " + roomID + " deleted",
	})
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	onlyActive := false
	if raw := r.URL.Query().Get("only_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "only_active must be a boolean")
			return
		}
		onlyActive = parsed
	}

	rooms := a.registry.List(onlyActive)
	if rooms == nil {
		rooms = []chat.RoomInfo{}
	}
	writeJSON(w, http.StatusOK, chat.ListRoomsResponse{Rooms: rooms})
}

func (a *API) listRoomUsers(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")

	members, err := a.registry.Members(roomID)
	if err != nil {
		writeError(w, err, roomID, "")
		return
	}
	if members == nil {
		members = []string{}
	}
	writeJSON(w, http.StatusOK, chat.ListRoomUsersResponse{
		RoomID:      roomID,
		ActiveUsers: members,
	})
}

func (a *API) verifyIdentity(w http.ResponseWriter, r *http.Request, userID string) bool {
	if err := a.verify(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusUnauthorized, chat.ErrorResponse{
			ErrorType: chat.ErrorTypeUserNotFound,
			Message:   err.Error(),
			UserID:    userID,
		})
		return false
	}
	return true
}
