package model

import "time"

// EventType identifies the type of a server->client notification
type EventType string

const (
	// Lobby events
	EventPlayerJoined        EventType = "player_joined"
	EventPlayerLeft          EventType = "player_left"
	EventHostChanged         EventType = "host_changed"
	EventLobbyPlayerCount    EventType = "lobby_player_count"
	EventGameStarted         EventType = "game_started"
	EventSessionStateChanged EventType = "session_state_changed"

	// Game events
	EventHunterAssigned    EventType = "hunter_assigned"
	EventKeyCollected      EventType = "key_collected"
	EventDoorOpened        EventType = "door_opened"
	EventDoorClosed        EventType = "door_closed"
	EventCheeseCollected   EventType = "cheese_collected"
	EventSafeZoneBlocked   EventType = "safe_zone_blocked"
	EventSafeZoneUnblocked EventType = "safe_zone_unblocked"
	EventPlayerEliminated  EventType = "player_eliminated"
	EventPlayerWon         EventType = "player_won"
	EventGameEnded         EventType = "game_ended"
)

// Event is the base structure for all broadcast notifications. Seq orders
// events within one session's stream; private (requester-only) deliveries
// carry no seq.
type Event struct {
	Seq          uint64       `json:"seq,omitempty"`
	Type         EventType    `json:"type"`
	Timestamp    time.Time    `json:"timestamp"`
	SessionCode  SessionCode  `json:"session_code"`
	ConnectionID ConnectionID `json:"connection_id,omitempty"` // triggering or affected player
	Payload      any          `json:"payload,omitempty"`
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DisplayName  string       `json:"display_name"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DisplayName  string       `json:"display_name"`
}

// HostChangedPayload contains data for host changed events
type HostChangedPayload struct {
	OldHost ConnectionID `json:"old_host"`
	NewHost ConnectionID `json:"new_host"`
}

// LobbyPlayerCountPayload contains data for lobby count events
type LobbyPlayerCountPayload struct {
	Count int `json:"count"`
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	LevelName   string `json:"level_name"`
	PlayerCount int    `json:"player_count"`
}

// SessionStateChangedPayload contains data for session state transitions
type SessionStateChangedPayload struct {
	State SessionState `json:"state"`
}

// HunterAssignedPayload contains data for hunter assignment events
type HunterAssignedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
}

// KeyCollectedPayload contains data for key collection events
type KeyCollectedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	KeyID        KeyID        `json:"key_id"`
	KeyName      string       `json:"key_name"`
}

// DoorOpenedPayload contains data for door open events
type DoorOpenedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DoorID       EntityID     `json:"door_id"`
	KeyConsumed  bool         `json:"key_consumed"`
}

// DoorClosedPayload contains data for door close events
type DoorClosedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DoorID       EntityID     `json:"door_id"`
}

// CheeseCollectedPayload contains data for cheese collection events
type CheeseCollectedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	Value        int          `json:"value"`
}

// SafeZonePayload contains data for safe zone block state events
type SafeZonePayload struct {
	ZoneID  EntityID `json:"zone_id"`
	Blocked bool     `json:"blocked"`
}

// PlayerEliminatedPayload contains data for elimination events
type PlayerEliminatedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DisplayName  string       `json:"display_name"`
}

// PlayerWonPayload contains data for runner win events
type PlayerWonPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
	DisplayName  string       `json:"display_name"`
}

// GameEndedPayload contains data for game end events
type GameEndedPayload struct {
	Reason string `json:"reason"`
}
