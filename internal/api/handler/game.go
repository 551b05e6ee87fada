package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hideseekgame/hideseekgame-go/internal/api/middleware"
	"github.com/hideseekgame/hideseekgame-go/internal/api/request"
	"github.com/hideseekgame/hideseekgame-go/internal/api/response"
	"github.com/hideseekgame/hideseekgame-go/internal/api/sse"
	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/interaction"
	"github.com/hideseekgame/hideseekgame-go/internal/services/inventory"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/services/session"
)

// GameHandler handles in-game endpoints: world state, inventory,
// interactions, and catch attempts
type GameHandler struct {
	sessions    *session.Controller
	resolver    *interaction.Resolver
	registry    *registry.Service
	inventory   *inventory.Service
	broadcaster *sse.Broadcaster
	clock       clock.Clock
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	sessions *session.Controller,
	resolver *interaction.Resolver,
	registry *registry.Service,
	inventory *inventory.Service,
	broadcaster *sse.Broadcaster,
	clock clock.Clock,
) *GameHandler {
	return &GameHandler{
		sessions:    sessions,
		resolver:    resolver,
		registry:    registry,
		inventory:   inventory,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

// GetState handles GET /api/v1/sessions/{code}/game
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	code := model.SessionCode(mux.Vars(r)["code"])

	sess, err := h.sessions.GetSession(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !sess.GameStarted {
		WriteError(w, model.ErrNoGameInProgress)
		return
	}

	records, err := h.registry.All(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}
	entities, err := h.resolver.Entities(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	state := response.GameState{Session: response.SessionFromModel(sess)}
	for _, rec := range records {
		state.Players = append(state.Players, response.PlayerRecordFromModel(rec))
	}
	for _, e := range entities {
		state.Entities = append(state.Entities, response.EntityFromModel(e))
	}

	response.JSON(w, http.StatusOK, state)
}

// GetInventory handles GET /api/v1/sessions/{code}/game/inventory
func (h *GameHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	conn, err := h.gameConnectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	keys, err := h.inventory.Keys(r.Context(), code, conn)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.InventoryResponse{Keys: make([]int, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, int(k))
	}
	response.JSON(w, http.StatusOK, resp)
}

// Interact handles POST /api/v1/sessions/{code}/game/interact.
// Successful outcomes broadcast to the session; denials surface only as the
// requester's error response.
func (h *GameHandler) Interact(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	var req request.InteractRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.EntityID == "" {
		WriteError(w, NewInvalidRequestError("entity_id is required"))
		return
	}

	conn, err := h.gameConnectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	entityID := model.EntityID(req.EntityID)
	var (
		eventType model.EventType
		payload   any
		actErr    error
	)

	switch req.Action {
	case request.ActionCollect:
		eventType, payload, actErr = h.collect(r.Context(), code, conn, entityID)
	case request.ActionOpenDoor:
		eventType = model.EventDoorOpened
		payload, actErr = h.resolver.OpenDoor(r.Context(), code, conn, entityID)
	case request.ActionCloseDoor:
		eventType = model.EventDoorClosed
		payload, actErr = h.resolver.CloseDoor(r.Context(), code, conn, entityID)
	case request.ActionEnterSafeZone:
		eventType = model.EventSafeZoneBlocked
		payload, actErr = h.resolver.EnterSafeZone(r.Context(), code, conn, entityID)
	case request.ActionExitSafeZone:
		eventType = model.EventSafeZoneUnblocked
		payload, actErr = h.resolver.ExitSafeZone(r.Context(), code, conn, entityID)
	case request.ActionReachExit:
		eventType = model.EventPlayerWon
		payload, actErr = h.resolver.ReachExit(r.Context(), code, conn, entityID)
	default:
		WriteError(w, NewInvalidRequestError("unknown action"))
		return
	}

	if actErr != nil {
		WriteError(w, actErr)
		return
	}

	// Safe zone interactions with no block-state change broadcast nothing
	if !isNilPayload(payload) {
		h.publish(code, eventType, conn, payload)
	}

	if req.Action == request.ActionReachExit {
		if _, err := h.sessions.CheckGameEnd(r.Context(), code); err != nil {
			WriteError(w, err)
			return
		}
	}

	response.JSON(w, http.StatusOK, response.InteractResponse{
		Outcome: "ok",
		Payload: payload,
	})
}

// Catch handles POST /api/v1/sessions/{code}/game/catch
func (h *GameHandler) Catch(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code := model.SessionCode(mux.Vars(r)["code"])

	var req request.CatchRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	conn, err := h.gameConnectionFor(r.Context(), code, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	payload, err := h.resolver.ResolveCatch(
		r.Context(), code, conn,
		model.ConnectionID(req.TargetConnectionID),
		model.Vec2{X: req.FacingX, Y: req.FacingY},
		model.Vec2{X: req.ToTargetX, Y: req.ToTargetY},
	)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.publish(code, model.EventPlayerEliminated, payload.ConnectionID, payload)

	if _, err := h.sessions.CheckGameEnd(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.InteractResponse{
		Outcome: "ok",
		Payload: payload,
	})
}

// collect dispatches on the entity kind, since keys and cheese share the
// same generic collect action
func (h *GameHandler) collect(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (model.EventType, any, error) {
	entities, err := h.resolver.Entities(ctx, code)
	if err != nil {
		return "", nil, err
	}

	for _, e := range entities {
		if e.ID != entityID {
			continue
		}
		switch e.Kind {
		case model.EntityKindKey:
			p, err := h.resolver.CollectKey(ctx, code, conn, entityID)
			return model.EventKeyCollected, p, err
		case model.EntityKindCheese:
			p, err := h.resolver.CollectCheese(ctx, code, conn, entityID)
			return model.EventCheeseCollected, p, err
		default:
			return "", nil, NewInvalidRequestError("entity is not collectable")
		}
	}

	return "", nil, model.ErrEntityNotFound
}

func (h *GameHandler) publish(code model.SessionCode, typ model.EventType, conn model.ConnectionID, payload any) {
	if h.broadcaster == nil {
		return
	}
	h.broadcaster.Publish(model.Event{
		Type:         typ,
		Timestamp:    h.clock.Now(),
		SessionCode:  code,
		ConnectionID: conn,
		Payload:      payload,
	})
}

// gameConnectionFor resolves the caller's in-game connection id
func (h *GameHandler) gameConnectionFor(ctx context.Context, code model.SessionCode, playerID model.PlayerID) (model.ConnectionID, error) {
	records, err := h.registry.All(ctx, code)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		if rec.PlayerID == playerID {
			return rec.ConnectionID, nil
		}
	}
	return 0, model.ErrRecordNotFound
}

// isNilPayload reports whether a typed-nil payload pointer was returned
func isNilPayload(p any) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *model.SafeZonePayload:
		return v == nil
	case *model.KeyCollectedPayload:
		return v == nil
	case *model.CheeseCollectedPayload:
		return v == nil
	case *model.DoorOpenedPayload:
		return v == nil
	case *model.DoorClosedPayload:
		return v == nil
	case *model.PlayerWonPayload:
		return v == nil
	default:
		return false
	}
}
