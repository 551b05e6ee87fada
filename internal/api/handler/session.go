package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hideseekgame/hideseekgame-go/internal/api/middleware"
	"github.com/hideseekgame/hideseekgame-go/internal/api/request"
	"github.com/hideseekgame/hideseekgame-go/internal/api/response"
	"github.com/hideseekgame/hideseekgame-go/internal/api/sse"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/services/session"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	controller *session.Controller
	registry   *registry.Service
	hubManager *sse.HubManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, registry *registry.Service, hubManager *sse.HubManager) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		registry:   registry,
		hubManager: hubManager,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	sess, conn, err := h.controller.CreateSession(r.Context(), *player)
	if err != nil {
		WriteError(w, err)
		return
	}

	// The hub exists from creation so no early event is missed
	if h.hubManager != nil {
		h.hubManager.GetOrCreateHub(sess.Code)
	}

	response.JSON(w, http.StatusCreated, response.JoinResponse{
		Session:      response.SessionFromModel(sess),
		ConnectionID: int64(conn),
	})
}

// Get handles GET /api/v1/sessions/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.SessionCode(mux.Vars(r)["code"])

	sess, err := h.controller.GetSession(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}

// Join handles POST /api/v1/sessions/{code}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	var req request.JoinSessionRequest
	_ = decodeOptionalBody(r, &req)
	if req.DisplayName != "" {
		player.DisplayName = req.DisplayName
	}

	conn, err := h.controller.JoinSession(r.Context(), code, *player)
	if err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.controller.GetSession(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Session:      response.SessionFromModel(sess),
		ConnectionID: int64(conn),
	})
}

// Leave handles POST /api/v1/sessions/{code}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	conn, err := h.connectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.controller.LeaveSession(r.Context(), code, conn); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Start handles POST /api/v1/sessions/{code}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	conn, err := h.connectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	report, err := h.controller.StartGame(r.Context(), code, conn)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StartResponseFromReport(report))
}

// Events handles GET /api/v1/sessions/{code}/events (SSE stream)
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	conn, err := h.connectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	hub := h.hubManager.GetOrCreateHub(code)
	sse.ServeSSE(w, r, hub, conn)
}

// connectionFor resolves the caller's connection id within a session. The
// id is server-assigned on join; clients never supply their own.
func (h *SessionHandler) connectionFor(ctx context.Context, code model.SessionCode, playerID model.PlayerID) (model.ConnectionID, error) {
	sess, err := h.controller.GetSession(ctx, code)
	if err != nil {
		return 0, err
	}

	for _, rec := range sess.LobbyRecords {
		if rec.PlayerID == playerID {
			return rec.ConnectionID, nil
		}
	}

	records, err := h.registry.All(ctx, code)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		if rec.PlayerID == playerID {
			return rec.ConnectionID, nil
		}
	}

	return 0, model.ErrNotInSession
}
