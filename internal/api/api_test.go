package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hideseekgame/hideseekgame-go/internal/api"
	"github.com/hideseekgame/hideseekgame-go/internal/api/response"
	"github.com/hideseekgame/hideseekgame-go/internal/factory"
	"github.com/hideseekgame/hideseekgame-go/internal/services/auth"
	"github.com/hideseekgame/hideseekgame-go/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock.
	// The default hunter policy picks the lowest connection id, so the session
	// creator becomes the hunter deterministically.
	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		SessionController: app.SessionController,
		Registry:          app.Registry,
		Inventory:         app.Inventory,
		Resolver:          app.Resolver,
		HubManager:        app.HubManager,
		Broadcaster:       app.Broadcaster,
		Clock:             app.Clock,
	})

	return &testServer{
		handler: router,
		storage: app.Storage.(*memory.Storage),
		auth:    app.AuthService,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuestPlayer(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Alice"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.Player.DisplayName)
	assert.True(t, resp.Player.IsGuest)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestCreateGuestPlayerWithoutName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players/guest", nil, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Player.DisplayName)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"display_name": "Alice",
	}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &registerResp)
	require.NoError(t, err)
	assert.False(t, registerResp.Player.IsGuest)

	// Login
	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	err = json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, registerResp.Player.ID, loginResp.Player.ID)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Bob"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var authResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &authResp)
	require.NoError(t, err)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, authResp.SessionToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	var meResp response.Player
	err = json.Unmarshal(rr.Body.Bytes(), &meResp)
	require.NoError(t, err)
	assert.Equal(t, "Bob", meResp.DisplayName)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateAndJoinSession(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuestPlayer(t, ts, "Alice")
	token2 := createGuestPlayer(t, ts, "Bob")

	// Alice creates a session
	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var createResp response.JoinResponse
	err := json.Unmarshal(rr.Body.Bytes(), &createResp)
	require.NoError(t, err)

	assert.Equal(t, "lobby", createResp.Session.State)
	assert.Equal(t, int64(1), createResp.ConnectionID)
	require.Len(t, createResp.Session.Members, 1)
	assert.True(t, createResp.Session.Members[0].IsHost)

	// Bob joins
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+createResp.Session.Code+"/join", nil, token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	var joinResp response.JoinResponse
	err = json.Unmarshal(rr.Body.Bytes(), &joinResp)
	require.NoError(t, err)
	assert.Equal(t, int64(2), joinResp.ConnectionID)
	assert.Len(t, joinResp.Session.Members, 2)
}

func TestJoinWithDisplayNameOverride(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuestPlayer(t, ts, "Alice")
	token2 := createGuestPlayer(t, ts, "Bob")
	code := createSession(t, ts, token1)

	body := map[string]string{"display_name": "Sneaky Bob"}
	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", body, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	var joinResp response.JoinResponse
	err := json.Unmarshal(rr.Body.Bytes(), &joinResp)
	require.NoError(t, err)
	require.Len(t, joinResp.Session.Members, 2)
	assert.Equal(t, "Sneaky Bob", joinResp.Session.Members[1].DisplayName)
}

func TestNonHostCannotStart(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuestPlayer(t, ts, "Alice")
	token2 := createGuestPlayer(t, ts, "Bob")
	code := createSession(t, ts, token1)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/start", nil, token2)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLeaveSession(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuestPlayer(t, ts, "Alice")
	token2 := createGuestPlayer(t, ts, "Bob")
	code := createSession(t, ts, token1)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	// Bob leaves
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/leave", nil, token2)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code, nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)

	var sessResp response.Session
	err := json.Unmarshal(rr.Body.Bytes(), &sessResp)
	require.NoError(t, err)
	assert.Len(t, sessResp.Members, 1)
}

func TestGameStateRequiresStartedGame(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuestPlayer(t, ts, "Alice")
	code := createSession(t, ts, token1)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/"+code+"/game", nil, token1)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFullGameFlow(t *testing.T) {
	ts := newTestServer(t)

	// Alice hosts; with the default policy her connection (the lowest)
	// becomes the hunter. Bob and Carol are runners.
	hunterToken := createGuestPlayer(t, ts, "Alice")
	runnerToken := createGuestPlayer(t, ts, "Bob")
	otherToken := createGuestPlayer(t, ts, "Carol")

	code := createSession(t, ts, hunterToken)
	for _, token := range []string{runnerToken, otherToken} {
		rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	// Start the game
	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/start", nil, hunterToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var startResp response.StartResponse
	err := json.Unmarshal(rr.Body.Bytes(), &startResp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), startResp.Hunter)
	assert.Len(t, startResp.Spawned, 3)
	assert.Empty(t, startResp.Failed)

	// Joining after start is rejected
	lateToken := createGuestPlayer(t, ts, "Dave")
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", nil, lateToken)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Game state has all players and the level's entities
	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code+"/game", nil, runnerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var state response.GameState
	err = json.Unmarshal(rr.Body.Bytes(), &state)
	require.NoError(t, err)
	assert.Equal(t, "in_game", state.Session.State)
	assert.Len(t, state.Players, 3)
	assert.Len(t, state.Entities, 8)

	// Hunter cannot collect
	collectBody := map[string]string{"entity_id": "key-1", "action": "collect"}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", collectBody, hunterToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Runner collects the key
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", collectBody, runnerToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Second collect of the same key is denied
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", collectBody, otherToken)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// The key shows up in the runner's inventory
	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code+"/game/inventory", nil, runnerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var inv response.InventoryResponse
	err = json.Unmarshal(rr.Body.Bytes(), &inv)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, inv.Keys)

	// Opening door-1 consumes the key
	openBody := map[string]string{"entity_id": "door-1", "action": "open_door"}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", openBody, runnerToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code+"/game/inventory", nil, runnerToken)
	require.Equal(t, http.StatusOK, rr.Code)
	err = json.Unmarshal(rr.Body.Bytes(), &inv)
	require.NoError(t, err)
	assert.Empty(t, inv.Keys)

	// Runner without the key cannot open door-2
	openBody2 := map[string]string{"entity_id": "door-2", "action": "open_door"}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", openBody2, otherToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// The hunter can force door-2 without any key
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", openBody2, hunterToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// A sideways collision report does not eliminate anyone
	missBody := map[string]any{
		"target_connection_id": 2,
		"facing_x":             1.0,
		"facing_y":             0.0,
		"to_target_x":          0.0,
		"to_target_y":          1.0,
	}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/catch", missBody, hunterToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A head-on collision eliminates the runner
	catchBody := map[string]any{
		"target_connection_id": 2,
		"facing_x":             1.0,
		"facing_y":             0.0,
		"to_target_x":          1.0,
		"to_target_y":          0.1,
	}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/catch", catchBody, hunterToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// The eliminated runner despawned
	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code+"/game", nil, otherToken)
	require.Equal(t, http.StatusOK, rr.Code)
	err = json.Unmarshal(rr.Body.Bytes(), &state)
	require.NoError(t, err)
	assert.Len(t, state.Players, 2)

	// Carol escapes through the exit and the game ends
	exitBody := map[string]string{"entity_id": "exit-1", "action": "reach_exit"}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/interact", exitBody, otherToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+code, nil, hunterToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var sessResp response.Session
	err = json.Unmarshal(rr.Body.Bytes(), &sessResp)
	require.NoError(t, err)
	assert.Equal(t, "ended", sessResp.State)
}

func TestCatchByRunnerForbidden(t *testing.T) {
	ts := newTestServer(t)

	hunterToken := createGuestPlayer(t, ts, "Alice")
	runnerToken := createGuestPlayer(t, ts, "Bob")

	code := createSession(t, ts, hunterToken)
	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/join", nil, runnerToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/start", nil, hunterToken)
	require.Equal(t, http.StatusOK, rr.Code)

	catchBody := map[string]any{
		"target_connection_id": 1,
		"facing_x":             1.0,
		"facing_y":             0.0,
		"to_target_x":          1.0,
		"to_target_y":          0.0,
	}
	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+code+"/game/catch", catchBody, runnerToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSSEEndpointStreamsEvents(t *testing.T) {
	ts := newTestServer(t)

	token := createGuestPlayer(t, ts, "Alice")
	code := createSession(t, ts, token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+code+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	ctx, cancel := context.WithTimeout(req.Context(), 100*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "event: connected")
}

// Helper functions

func createGuestPlayer(t *testing.T, ts *testServer, displayName string) string {
	t.Helper()

	body := map[string]string{"display_name": displayName}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.SessionToken
}

func createSession(t *testing.T, ts *testServer, token string) string {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.JoinResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.Session.Code
}
