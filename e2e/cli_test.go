package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hideseekgame/hideseekgame-go/internal/api"
	"github.com/hideseekgame/hideseekgame-go/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
	prefsFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "hsctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/hsctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token and preferences files
	dir := t.TempDir()

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(dir, "token"),
		prefsFile:  filepath.Join(dir, "config.json"),
	}
}

// withTokenFile returns a runner sharing the built binary but with its own
// token and preferences files
func (r *cliRunner) withTokenFile(t *testing.T) *cliRunner {
	t.Helper()

	dir := t.TempDir()
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		tokenFile:  filepath.Join(dir, "token"),
		prefsFile:  filepath.Join(dir, "config.json"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--config", r.prefsFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--config", r.prefsFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Production wiring: memory storage, real random and clock. The default
	// hunter policy picks the lowest connection id, so the session creator
	// becomes the hunter.
	app, err := factory.New(factory.Config{Logger: logger})
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

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Player struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		IsGuest     bool   `json:"is_guest"`
	} `json:"player"`
	SessionToken string `json:"session_token"`
}

type sessionResponse struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	MaxPlayers  int    `json:"max_players"`
	GameStarted bool   `json:"game_started"`
	LevelName   string `json:"level_name"`
	Members     []struct {
		ConnectionID int64  `json:"connection_id"`
		DisplayName  string `json:"display_name"`
		IsHost       bool   `json:"is_host"`
	} `json:"members"`
}

type joinResponse struct {
	Session      sessionResponse `json:"session"`
	ConnectionID int64           `json:"connection_id"`
}

type startResponse struct {
	Hunter  int64   `json:"hunter_connection_id"`
	Spawned []int64 `json:"spawned"`
}

type gameStateResponse struct {
	Session sessionResponse `json:"session"`
	Players []struct {
		ConnectionID int64  `json:"connection_id"`
		DisplayName  string `json:"display_name"`
		IsHunter     bool   `json:"is_hunter"`
		Eliminated   bool   `json:"eliminated"`
		Won          bool   `json:"won"`
	} `json:"players"`
	Entities []struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		Collected bool   `json:"collected"`
		Open      bool   `json:"open"`
	} `json:"entities"`
}

type inventoryResponse struct {
	Keys []int `json:"keys"`
}

type interactResponse struct {
	Outcome string          `json:"outcome"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Create guest
	output, err := cli.run("player", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "Alice", authResp.Player.DisplayName)
	assert.True(t, authResp.Player.IsGuest)
	assert.NotEmpty(t, authResp.SessionToken)

	// Get me (token should be saved in token file)
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)

	var player struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		IsGuest     bool   `json:"is_guest"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, "Alice", player.DisplayName)
	assert.Equal(t, authResp.Player.ID, player.ID)

	// The display name was remembered; a nameless guest reuses it
	output, err = cli.run("player", "guest")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "Alice", authResp.Player.DisplayName)
}

func TestCLI_RegisterAndLogin(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Register
	output, err := cli.run("player", "register", "--name", "Alice", "--user", "alice", "--pass", "hunter2!")
	require.NoError(t, err, "output: %s", output)

	var regResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &regResp))
	assert.Equal(t, "Alice", regResp.Player.DisplayName)
	assert.False(t, regResp.Player.IsGuest)

	// Login with a fresh token file
	cli2 := cli.withTokenFile(t)
	output, err = cli2.run("player", "login", "--user", "alice", "--pass", "hunter2!")
	require.NoError(t, err, "output: %s", output)

	var loginResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &loginResp))
	assert.Equal(t, regResp.Player.ID, loginResp.Player.ID)
	assert.NotEmpty(t, loginResp.SessionToken)
}

func TestCLI_SessionCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli1 := newCLIRunner(t, ts.addr)
	cli2 := cli1.withTokenFile(t)

	// Create two players
	output, err := cli1.run("player", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)
	var auth1 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth1))
	token1 := auth1.SessionToken

	output, err = cli2.run("player", "guest", "--name", "Bob")
	require.NoError(t, err, "output: %s", output)
	var auth2 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth2))
	token2 := auth2.SessionToken

	// Alice creates a session
	output, err = cli1.runWithToken(token1, "session", "create")
	require.NoError(t, err, "output: %s", output)

	var created joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.Equal(t, "lobby", created.Session.State)
	assert.Equal(t, int64(1), created.ConnectionID)
	require.Len(t, created.Session.Members, 1)
	assert.True(t, created.Session.Members[0].IsHost)
	code := created.Session.Code

	// Bob joins with a display name override
	output, err = cli2.runWithToken(token2, "session", "join", code, "--name", "Sneaky Bob")
	require.NoError(t, err, "output: %s", output)

	var joined joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &joined))
	assert.Equal(t, int64(2), joined.ConnectionID)
	require.Len(t, joined.Session.Members, 2)
	assert.Equal(t, "Sneaky Bob", joined.Session.Members[1].DisplayName)

	// Get session
	output, err = cli1.runWithToken(token1, "session", "get", code)
	require.NoError(t, err, "output: %s", output)

	var got sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, code, got.Code)
	assert.False(t, got.GameStarted)

	// Bob leaves
	output, err = cli2.runWithToken(token2, "session", "leave", code)
	require.NoError(t, err, "output: %s", output)

	var msgResp messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msgResp))
	assert.Contains(t, msgResp.Message, "Left session")

	output, err = cli1.runWithToken(token1, "session", "get", code)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Len(t, got.Members, 1)
}

func TestCLI_FullGameFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli1 := newCLIRunner(t, ts.addr)
	cli2 := cli1.withTokenFile(t)
	cli3 := cli1.withTokenFile(t)

	// Create three players
	output, err := cli1.run("player", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)
	var auth1 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth1))
	token1 := auth1.SessionToken

	output, err = cli2.run("player", "guest", "--name", "Bob")
	require.NoError(t, err, "output: %s", output)
	var auth2 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth2))
	token2 := auth2.SessionToken

	output, err = cli3.run("player", "guest", "--name", "Carol")
	require.NoError(t, err, "output: %s", output)
	var auth3 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth3))
	token3 := auth3.SessionToken

	// Alice creates a session; she will be the hunter
	output, err = cli1.runWithToken(token1, "session", "create")
	require.NoError(t, err, "output: %s", output)
	var created joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	code := created.Session.Code
	t.Logf("Created session: %s", code)

	output, err = cli2.runWithToken(token2, "session", "join", code)
	require.NoError(t, err, "output: %s", output)
	var bobJoin joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &bobJoin))

	output, err = cli3.runWithToken(token3, "session", "join", code)
	require.NoError(t, err, "output: %s", output)
	var carolJoin joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &carolJoin))

	// Alice starts the game
	output, err = cli1.runWithToken(token1, "session", "start", code)
	require.NoError(t, err, "output: %s", output)
	var started startResponse
	require.NoError(t, json.Unmarshal([]byte(output), &started))
	assert.Equal(t, created.ConnectionID, started.Hunter)
	assert.Len(t, started.Spawned, 3)
	t.Logf("Game started, hunter: #%d", started.Hunter)

	// Game state shows all players and the level entities
	output, err = cli1.runWithToken(token1, "game", "state", code)
	require.NoError(t, err, "output: %s", output)
	var state gameStateResponse
	require.NoError(t, json.Unmarshal([]byte(output), &state))
	assert.Equal(t, "in_game", state.Session.State)
	assert.Len(t, state.Players, 3)
	assert.Len(t, state.Entities, 8)

	// Bob collects the brass key
	output, err = cli2.runWithToken(token2, "game", "interact", code, "collect", "key-1")
	require.NoError(t, err, "output: %s", output)
	var interact interactResponse
	require.NoError(t, json.Unmarshal([]byte(output), &interact))
	assert.Equal(t, "ok", interact.Outcome)

	output, err = cli2.runWithToken(token2, "game", "inventory", code)
	require.NoError(t, err, "output: %s", output)
	var inv inventoryResponse
	require.NoError(t, json.Unmarshal([]byte(output), &inv))
	assert.Equal(t, []int{1}, inv.Keys)

	// The brass key door consumes the key on open
	output, err = cli2.runWithToken(token2, "game", "interact", code, "open_door", "door-1")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &interact))
	assert.Equal(t, "ok", interact.Outcome)

	output, err = cli2.runWithToken(token2, "game", "inventory", code)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &inv))
	assert.Empty(t, inv.Keys)

	// Hunter may not collect
	output, err = cli1.runWithToken(token1, "game", "interact", code, "collect", "cheese-1")
	assert.Error(t, err, "hunter should not collect: %s", output)
	assert.Contains(t, strings.ToLower(output), "role")

	// Alice catches Bob head-on
	output, err = cli1.runWithToken(token1, "game", "catch", code,
		"--facing-x=1", "--to-x=1",
		joinConnArg(bobJoin))
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &interact))
	assert.Equal(t, "ok", interact.Outcome)

	// Bob is despawned
	output, err = cli1.runWithToken(token1, "game", "state", code)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &state))
	assert.Len(t, state.Players, 2)

	// Carol escapes through the exit, ending the game
	output, err = cli3.runWithToken(token3, "game", "interact", code, "reach_exit", "exit-1")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &interact))
	assert.Equal(t, "ok", interact.Outcome)

	output, err = cli1.runWithToken(token1, "session", "get", code)
	require.NoError(t, err, "output: %s", output)
	var final sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &final))
	assert.Equal(t, "ended", final.State)
	t.Logf("Game over, session state: %s", final.State)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Get player without auth
	output, err := cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "authentication required")

	// Get non-existent session
	output, err = cli.run("player", "guest", "--name", "Alice")
	require.NoError(t, err)
	var auth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth))
	token := auth.SessionToken

	output, err = cli.runWithToken(token, "session", "get", "NOSUCH")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Non-host cannot start
	output, err = cli.runWithToken(token, "session", "create")
	require.NoError(t, err, "output: %s", output)
	var created joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))

	cli2 := cli.withTokenFile(t)
	output, err = cli2.run("player", "guest", "--name", "Bob")
	require.NoError(t, err)
	var auth2 authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth2))

	_, err = cli2.runWithToken(auth2.SessionToken, "session", "join", created.Session.Code)
	require.NoError(t, err)

	output, err = cli2.runWithToken(auth2.SessionToken, "session", "start", created.Session.Code)
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "host")
}

// joinConnArg formats a join response's connection id as a CLI argument
func joinConnArg(j joinResponse) string {
	return strconv.FormatInt(j.ConnectionID, 10)
}
