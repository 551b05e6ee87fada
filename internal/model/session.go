package model

import "time"

// SessionCode is a human-readable identifier for joining game sessions
type SessionCode string

// SessionState represents the current phase of a game session
type SessionState string

const (
	SessionStateLobby         SessionState = "lobby"          // Waiting for players
	SessionStateTransitioning SessionState = "transitioning"  // Lobby teardown / game spawn in progress
	SessionStateInGame        SessionState = "in_game"        // Game currently active
	SessionStateEnded         SessionState = "ended"          // Game over
)

// SessionConfig holds configurable settings for a session
type SessionConfig struct {
	MaxPlayers int
}

// DefaultSessionConfig returns the default session configuration
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxPlayers: 8,
	}
}

// Session is the server-context object for one game: it owns the lobby
// membership, the game-started flag, and the connection id counter. The
// server process is the sole writer.
type Session struct {
	Code           SessionCode
	State          SessionState
	Config         SessionConfig
	HostConnection ConnectionID
	LobbyRecords   []LobbyRecord

	// NextConnectionID is the next id handed out on join; ids are never reused
	NextConnectionID ConnectionID

	// GameStarted transitions false->true exactly once per session
	GameStarted bool

	Level Level

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetLobbyRecord returns the lobby record for a connection, or nil if absent
func (s *Session) GetLobbyRecord(id ConnectionID) *LobbyRecord {
	for i := range s.LobbyRecords {
		if s.LobbyRecords[i].ConnectionID == id {
			return &s.LobbyRecords[i]
		}
	}
	return nil
}

// GetHost returns the host's lobby record, or nil if none
func (s *Session) GetHost() *LobbyRecord {
	for i := range s.LobbyRecords {
		if s.LobbyRecords[i].IsHost {
			return &s.LobbyRecords[i]
		}
	}
	return nil
}

// PlayerCount returns the number of lobby members
func (s *Session) PlayerCount() int {
	return len(s.LobbyRecords)
}
