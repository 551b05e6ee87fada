package response

import (
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/auth"
	"github.com/hideseekgame/hideseekgame-go/internal/services/session"
)

// Player represents a player identity in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from an auth session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Vec2 is a 2D position in API responses
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec2FromModel converts model.Vec2
func Vec2FromModel(v model.Vec2) Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// LobbyMember represents a lobby member
type LobbyMember struct {
	ConnectionID int64  `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	IsHost       bool   `json:"is_host"`
}

// LobbyMemberFromModel converts model.LobbyRecord
func LobbyMemberFromModel(r model.LobbyRecord) LobbyMember {
	return LobbyMember{
		ConnectionID: int64(r.ConnectionID),
		DisplayName:  r.DisplayName,
		IsHost:       r.IsHost,
	}
}

// Session represents a game session in API responses
type Session struct {
	Code        string        `json:"code"`
	State       string        `json:"state"`
	MaxPlayers  int           `json:"max_players"`
	GameStarted bool          `json:"game_started"`
	LevelName   string        `json:"level_name"`
	Members     []LobbyMember `json:"members"`
}

// SessionFromModel converts model.Session
func SessionFromModel(s *model.Session) Session {
	members := make([]LobbyMember, len(s.LobbyRecords))
	for i, r := range s.LobbyRecords {
		members[i] = LobbyMemberFromModel(r)
	}
	return Session{
		Code:        string(s.Code),
		State:       string(s.State),
		MaxPlayers:  s.Config.MaxPlayers,
		GameStarted: s.GameStarted,
		LevelName:   s.Level.Name,
		Members:     members,
	}
}

// JoinResponse is the response after creating or joining a session
type JoinResponse struct {
	Session      Session `json:"session"`
	ConnectionID int64   `json:"connection_id"`
}

// Entity represents an interactive world entity in API responses.
// Kind-specific fields are omitted for other kinds.
type Entity struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Position Vec2   `json:"position"`

	KeyID     int    `json:"key_id,omitempty"`
	KeyName   string `json:"key_name,omitempty"`
	Collected bool   `json:"collected,omitempty"`

	Value int `json:"value,omitempty"`

	RequiredKeyID  int  `json:"required_key_id,omitempty"`
	ConsumesKey    bool `json:"consumes_key,omitempty"`
	HunterCanForce bool `json:"hunter_can_force,omitempty"`
	Open           bool `json:"open,omitempty"`

	Blocked   bool    `json:"blocked,omitempty"`
	Occupants []int64 `json:"occupants,omitempty"`
}

// EntityFromModel converts model.Entity
func EntityFromModel(e *model.Entity) Entity {
	var occupants []int64
	for _, o := range e.Occupants {
		occupants = append(occupants, int64(o))
	}
	return Entity{
		ID:             string(e.ID),
		Kind:           string(e.Kind),
		Position:       Vec2FromModel(e.Position),
		KeyID:          int(e.KeyID),
		KeyName:        e.KeyName,
		Collected:      e.Collected,
		Value:          e.Value,
		RequiredKeyID:  int(e.RequiredKeyID),
		ConsumesKey:    e.ConsumesKey,
		HunterCanForce: e.HunterCanForce,
		Open:           e.Open,
		Blocked:        e.Blocked,
		Occupants:      occupants,
	}
}

// PlayerRecord represents a spawned gameplay record
type PlayerRecord struct {
	ConnectionID int64  `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	IsHunter     bool   `json:"is_hunter"`
	SpawnPoint   Vec2   `json:"spawn_point"`
	Eliminated   bool   `json:"eliminated,omitempty"`
	Won          bool   `json:"won,omitempty"`
}

// PlayerRecordFromModel converts model.PlayerRecord
func PlayerRecordFromModel(r *model.PlayerRecord) PlayerRecord {
	return PlayerRecord{
		ConnectionID: int64(r.ConnectionID),
		DisplayName:  r.DisplayName,
		IsHunter:     r.IsHunter,
		SpawnPoint:   Vec2FromModel(r.SpawnPoint),
		Eliminated:   r.Eliminated,
		Won:          r.Won,
	}
}

// GameState is the full game view for a session in progress
type GameState struct {
	Session  Session        `json:"session"`
	Players  []PlayerRecord `json:"players"`
	Entities []Entity       `json:"entities"`
}

// StartResponse is the response after starting a game
type StartResponse struct {
	Hunter  int64           `json:"hunter_connection_id"`
	Spawned []int64         `json:"spawned"`
	Failed  map[int64]string `json:"failed,omitempty"`
}

// StartResponseFromReport converts a session.TransitionReport
func StartResponseFromReport(r *session.TransitionReport) StartResponse {
	resp := StartResponse{Hunter: int64(r.Hunter)}
	for _, conn := range r.Spawned {
		resp.Spawned = append(resp.Spawned, int64(conn))
	}
	if len(r.Failed) > 0 {
		resp.Failed = make(map[int64]string, len(r.Failed))
		for conn, err := range r.Failed {
			resp.Failed[int64(conn)] = err.Error()
		}
	}
	return resp
}

// InventoryResponse lists the keys a player currently holds
type InventoryResponse struct {
	Keys []int `json:"keys"`
}

// InteractResponse reports the outcome of an interaction. The payload is
// the same event payload broadcast to the session.
type InteractResponse struct {
	Outcome string `json:"outcome"`
	Payload any    `json:"payload,omitempty"`
}
