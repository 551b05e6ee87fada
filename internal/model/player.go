package model

import (
	"fmt"
	"time"
)

// PlayerID uniquely identifies a player identity across the system
type PlayerID string

// ConnectionID identifies a network connection within a session.
// Assigned monotonically on join and stable for the connection's lifetime;
// all per-player lookups are keyed on it.
type ConnectionID int64

// MaxDisplayNameLength is the longest display name accepted on connect
const MaxDisplayNameLength = 32

// Player represents a connected identity (pre-lobby)
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredPlayer extends Player with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlayerRecord is the server-owned gameplay record for a spawned player.
// Created when the player's gameplay entity spawns, destroyed when it
// despawns. At most one record per session has IsHunter set.
type PlayerRecord struct {
	ConnectionID ConnectionID
	PlayerID     PlayerID
	DisplayName  string
	IsHunter     bool
	SpawnPoint   Vec2
	Eliminated   bool
	Won          bool
	SpawnedAt    time.Time
}

// Active reports whether the record still represents a live runner or hunter
func (r *PlayerRecord) Active() bool {
	return !r.Eliminated && !r.Won
}

// LobbyRecord is the lightweight lobby-phase record for a connection.
// Created on join while the session is in the lobby phase, destroyed on
// leave or bulk-deleted when the game starts.
type LobbyRecord struct {
	ConnectionID ConnectionID
	PlayerID     PlayerID
	DisplayName  string
	IsHost       bool
	JoinedAt     time.Time
}

// DefaultDisplayName fills in the name used when a player connects without one
func DefaultDisplayName(id ConnectionID) string {
	return fmt.Sprintf("Player %d", id)
}

// NormalizeDisplayName applies the empty-name default and length cap
func NormalizeDisplayName(name string, id ConnectionID) string {
	if name == "" {
		return DefaultDisplayName(id)
	}
	if len(name) > MaxDisplayNameLength {
		return name[:MaxDisplayNameLength]
	}
	return name
}
