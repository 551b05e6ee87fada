// Package session owns the lobby -> game state machine for each game
// session: membership during the lobby phase, the host-gated start
// transition, and game-end detection.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/random"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/interaction"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/services/roles"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

const (
	// SessionCodeLength is the length of generated session codes
	SessionCodeLength = 6
	// SessionCodeAlphabet is the characters used in session codes (avoid confusing chars)
	SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Notifier delivers broadcast notifications to a session's clients.
// The SSE layer implements it; tests substitute a recorder.
type Notifier interface {
	Publish(event model.Event)
}

// TransitionReport surfaces the per-player outcome of a game-start
// transition. Partial spawn failure is a reportable degraded state, not a
// silent success.
type TransitionReport struct {
	Hunter  model.ConnectionID
	Spawned []model.ConnectionID
	Failed  map[model.ConnectionID]error
}

// Degraded reports whether any participant failed to spawn
func (r *TransitionReport) Degraded() bool {
	return len(r.Failed) > 0
}

// Controller manages session lifecycle and the lobby -> game transition
type Controller struct {
	storage  storage.Storage
	registry *registry.Service
	roles    *roles.Service
	resolver *interaction.Resolver
	notifier Notifier
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	// One mutex per session: session get-modify-save runs under it, the
	// same single-writer guard the resolver holds for world entities
	locks sync.Map // model.SessionCode -> *sync.Mutex
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	registry *registry.Service,
	roles *roles.Service,
	resolver *interaction.Resolver,
	notifier Notifier,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		registry: registry,
		roles:    roles,
		resolver: resolver,
		notifier: notifier,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "session")),
	}
}

func (c *Controller) lockSession(code model.SessionCode) func() {
	mu, _ := c.locks.LoadOrStore(code, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// CreateSession creates a new session hosted by the given player and
// returns it with the host's connection id
func (c *Controller) CreateSession(ctx context.Context, host model.Player) (*model.Session, model.ConnectionID, error) {
	now := c.clock.Now()
	hostConn := model.ConnectionID(1)

	// Generate a unique session code; the exists-check and save for each
	// candidate run under that code's lock so a colliding create retries
	// instead of overwriting
	var session *model.Session
	for session == nil {
		code := model.SessionCode(c.random.String(SessionCodeLength, SessionCodeAlphabet))
		if err := func() error {
			defer c.lockSession(code)()

			exists, err := c.storage.SessionExists(ctx, code)
			if err != nil {
				return err
			}
			if exists {
				return nil // collision, retry with a fresh code
			}

			session = &model.Session{
				Code:           code,
				State:          model.SessionStateLobby,
				Config:         model.DefaultSessionConfig(),
				HostConnection: hostConn,
				LobbyRecords: []model.LobbyRecord{
					{
						ConnectionID: hostConn,
						PlayerID:     host.ID,
						DisplayName:  model.NormalizeDisplayName(host.DisplayName, hostConn),
						IsHost:       true,
						JoinedAt:     now,
					},
				},
				NextConnectionID: hostConn + 1,
				Level:            model.DefaultLevel(),
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			return c.storage.SaveSession(ctx, session)
		}(); err != nil {
			return nil, 0, err
		}
	}
	code := session.Code

	c.logger.Info("session created",
		slog.String("session", string(code)),
		slog.String("host", string(host.ID)))

	return session, hostConn, nil
}

// GetSession retrieves a session by code
func (c *Controller) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	return c.storage.GetSession(ctx, code)
}

// JoinSession adds a player to a session's lobby and returns their
// connection id. Joining is lobby-phase only.
func (c *Controller) JoinSession(ctx context.Context, code model.SessionCode, player model.Player) (model.ConnectionID, error) {
	defer c.lockSession(code)()

	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return 0, err
	}

	if session.State != model.SessionStateLobby {
		return 0, model.ErrGameInProgress
	}
	if session.PlayerCount() >= session.Config.MaxPlayers {
		return 0, model.ErrLobbyFull
	}
	for _, r := range session.LobbyRecords {
		if r.PlayerID == player.ID {
			return 0, model.ErrAlreadyInSession
		}
	}

	conn := session.NextConnectionID
	session.NextConnectionID++

	record := model.LobbyRecord{
		ConnectionID: conn,
		PlayerID:     player.ID,
		DisplayName:  model.NormalizeDisplayName(player.DisplayName, conn),
		JoinedAt:     c.clock.Now(),
	}
	session.LobbyRecords = append(session.LobbyRecords, record)
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return 0, err
	}

	c.publish(code, model.EventPlayerJoined, conn, model.PlayerJoinedPayload{
		ConnectionID: conn,
		DisplayName:  record.DisplayName,
	})
	c.publish(code, model.EventLobbyPlayerCount, 0, model.LobbyPlayerCountPayload{
		Count: session.PlayerCount(),
	})

	return conn, nil
}

// LeaveSession removes a connection from a session. In the lobby phase the
// lobby record goes away (host reassigned if needed, session deleted when
// empty); in the game phase the gameplay record despawns.
func (c *Controller) LeaveSession(ctx context.Context, code model.SessionCode, conn model.ConnectionID) error {
	defer c.lockSession(code)()

	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return err
	}

	if session.State != model.SessionStateLobby {
		return c.leaveDuringGame(ctx, session, conn)
	}

	record := session.GetLobbyRecord(conn)
	if record == nil {
		return model.ErrNotInSession
	}
	wasHost := record.IsHost
	name := record.DisplayName

	for i := range session.LobbyRecords {
		if session.LobbyRecords[i].ConnectionID == conn {
			session.LobbyRecords = append(session.LobbyRecords[:i], session.LobbyRecords[i+1:]...)
			break
		}
	}

	if len(session.LobbyRecords) == 0 {
		if err := c.storage.DeleteSession(ctx, code); err != nil {
			return err
		}
		c.logger.Info("session deleted, lobby empty", slog.String("session", string(code)))
		return nil
	}

	if wasHost {
		oldHost := conn
		session.LobbyRecords[0].IsHost = true
		session.HostConnection = session.LobbyRecords[0].ConnectionID
		c.publish(code, model.EventHostChanged, session.HostConnection, model.HostChangedPayload{
			OldHost: oldHost,
			NewHost: session.HostConnection,
		})
	}

	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return err
	}

	c.publish(code, model.EventPlayerLeft, conn, model.PlayerLeftPayload{
		ConnectionID: conn,
		DisplayName:  name,
	})
	c.publish(code, model.EventLobbyPlayerCount, 0, model.LobbyPlayerCountPayload{
		Count: session.PlayerCount(),
	})

	return nil
}

func (c *Controller) leaveDuringGame(ctx context.Context, session *model.Session, conn model.ConnectionID) error {
	record, err := c.registry.Unregister(ctx, session.Code, conn)
	if err != nil {
		// Despawn already happened; disconnect raced it
		return nil
	}

	c.publish(session.Code, model.EventPlayerLeft, conn, model.PlayerLeftPayload{
		ConnectionID: conn,
		DisplayName:  record.DisplayName,
	})

	_, err = c.checkGameEnd(ctx, session.Code)
	return err
}

// StartGame drives the lobby -> game transition. Only the host may start,
// only from the lobby state, and only with at least one player present.
// The sequence is: set the game-started flag and broadcast immediately,
// tear down lobby records, assign the hunter, spawn gameplay records at
// role-dependent spawn points, then announce the level transition. Hunter
// assignment and spawning complete (or are abandoned with a logged failure)
// before the final announcement.
func (c *Controller) StartGame(ctx context.Context, code model.SessionCode, requester model.ConnectionID) (*TransitionReport, error) {
	defer c.lockSession(code)()

	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}

	host := session.GetHost()
	if host == nil || host.ConnectionID != requester {
		c.logger.Warn("start rejected: not host",
			slog.String("session", string(code)),
			slog.Int64("requester", int64(requester)))
		return nil, model.ErrNotHost
	}
	if session.State != model.SessionStateLobby || session.GameStarted {
		c.logger.Warn("start rejected: not in lobby state",
			slog.String("session", string(code)),
			slog.String("state", string(session.State)))
		return nil, model.ErrGameAlreadyStarted
	}
	if session.PlayerCount() < 1 {
		return nil, model.ErrInsufficientPlayers
	}

	participants := make([]model.LobbyRecord, len(session.LobbyRecords))
	copy(participants, session.LobbyRecords)

	// (a) game-started flag first, so clients can show a starting
	// indication before the heavier work completes
	session.State = model.SessionStateTransitioning
	session.GameStarted = true
	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	c.publish(code, model.EventGameStarted, 0, model.GameStartedPayload{
		LevelName:   session.Level.Name,
		PlayerCount: len(participants),
	})

	// (b) lobby teardown
	session.LobbyRecords = nil
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	c.publish(code, model.EventLobbyPlayerCount, 0, model.LobbyPlayerCountPayload{Count: 0})

	if err := c.resolver.SpawnWorld(ctx, code, session.Level); err != nil {
		return nil, c.abandonTransition(ctx, session, err)
	}

	// (c) hunter assignment starts before the spawns land; it waits on the
	// chosen candidate's record-added event rather than polling
	candidates := make([]model.ConnectionID, len(participants))
	for i, p := range participants {
		candidates[i] = p.ConnectionID
	}
	assignDone := make(chan assignResult, 1)
	go func() {
		hunter, err := c.roles.AssignHunter(ctx, code, candidates)
		assignDone <- assignResult{hunter: hunter, err: err}
	}()

	// (d) spawn one gameplay record per participant
	report := &TransitionReport{Failed: make(map[model.ConnectionID]error)}
	runnerSpawnIdx := 0
	for _, p := range participants {
		spawn, err := c.nextSpawnPoint(session.Level, &runnerSpawnIdx)
		if err != nil {
			report.Failed[p.ConnectionID] = err
			continue
		}
		record := &model.PlayerRecord{
			ConnectionID: p.ConnectionID,
			PlayerID:     p.PlayerID,
			DisplayName:  p.DisplayName,
			SpawnPoint:   spawn,
			SpawnedAt:    c.clock.Now(),
		}
		if err := c.registry.Register(ctx, code, record); err != nil {
			report.Failed[p.ConnectionID] = err
			continue
		}
		report.Spawned = append(report.Spawned, p.ConnectionID)
	}

	assigned := <-assignDone
	if assigned.err != nil {
		return report, c.abandonTransition(ctx, session, assigned.err)
	}
	report.Hunter = assigned.hunter
	c.publish(code, model.EventHunterAssigned, assigned.hunter, model.HunterAssignedPayload{
		ConnectionID: assigned.hunter,
	})

	// Hunter spawns at the hunter spawn point
	if hunterRecord, err := c.registry.Lookup(ctx, code, assigned.hunter); err == nil {
		hunterRecord.SpawnPoint = session.Level.HunterSpawn
		if err := c.registry.Update(ctx, code, hunterRecord); err != nil {
			report.Failed[assigned.hunter] = err
		}
	}

	if report.Degraded() {
		for conn, ferr := range report.Failed {
			c.logger.Error("spawn failed during transition",
				slog.String("session", string(code)),
				slog.Int64("connection_id", int64(conn)),
				slog.Any("error", ferr))
		}
	}

	// (e) level transition, after (b)-(d) have settled
	session.State = model.SessionStateInGame
	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return report, err
	}
	c.publish(code, model.EventSessionStateChanged, 0, model.SessionStateChangedPayload{
		State: model.SessionStateInGame,
	})

	c.logger.Info("game started",
		slog.String("session", string(code)),
		slog.Int("players", len(report.Spawned)),
		slog.Int("spawn_failures", len(report.Failed)),
		slog.Int64("hunter", int64(report.Hunter)))

	return report, nil
}

type assignResult struct {
	hunter model.ConnectionID
	err    error
}

// abandonTransition ends the session after an unrecoverable transition
// failure. The game-started flag is one-way, so the session does not return
// to the lobby; it ends with a distinct degraded-state signal.
func (c *Controller) abandonTransition(ctx context.Context, session *model.Session, cause error) error {
	c.logger.Error("transition abandoned",
		slog.String("session", string(session.Code)),
		slog.Any("error", cause))

	session.State = model.SessionStateEnded
	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return err
	}

	c.publish(session.Code, model.EventGameEnded, 0, model.GameEndedPayload{
		Reason: "transition failed",
	})

	return cause
}

func (c *Controller) nextSpawnPoint(level model.Level, runnerIdx *int) (model.Vec2, error) {
	if len(level.RunnerSpawns) == 0 {
		return model.Vec2{}, model.ErrNoSpawnPoint
	}
	spawn := level.RunnerSpawns[*runnerIdx%len(level.RunnerSpawns)]
	*runnerIdx++
	return spawn, nil
}

// CheckGameEnd ends the game when no active runners remain. Returns whether
// the game ended as a result of this call.
func (c *Controller) CheckGameEnd(ctx context.Context, code model.SessionCode) (bool, error) {
	defer c.lockSession(code)()
	return c.checkGameEnd(ctx, code)
}

// checkGameEnd is CheckGameEnd without the session lock, for callers that
// already hold it
func (c *Controller) checkGameEnd(ctx context.Context, code model.SessionCode) (bool, error) {
	session, err := c.storage.GetSession(ctx, code)
	if err != nil {
		return false, err
	}
	if session.State != model.SessionStateInGame {
		return false, nil
	}

	records, err := c.registry.All(ctx, code)
	if err != nil {
		return false, err
	}

	activeRunners := 0
	for _, record := range records {
		if !record.IsHunter && record.Active() {
			activeRunners++
		}
	}
	if activeRunners > 0 {
		return false, nil
	}

	session.State = model.SessionStateEnded
	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return false, err
	}

	c.publish(code, model.EventGameEnded, 0, model.GameEndedPayload{
		Reason: "no runners remaining",
	})
	c.logger.Info("game ended", slog.String("session", string(code)))

	return true, nil
}

func (c *Controller) publish(code model.SessionCode, typ model.EventType, conn model.ConnectionID, payload any) {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(model.Event{
		Type:         typ,
		Timestamp:    c.clock.Now(),
		SessionCode:  code,
		ConnectionID: conn,
		Payload:      payload,
	})
}
