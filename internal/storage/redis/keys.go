package redis

import (
	"fmt"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "hsgame"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// sessionKey returns the Redis key for a Session
func sessionKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, code)
}

// recordKey returns the Redis key for a PlayerRecord
func recordKey(code model.SessionCode, id model.ConnectionID) string {
	return fmt.Sprintf("%s:record:%s:%d", keyPrefix, code, id)
}

// recordsForSessionIndexKey returns the Redis key for the SET of records in a session
func recordsForSessionIndexKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:idx:records_for_session:%s", keyPrefix, code)
}

// inventoryKey returns the Redis key for a player's collected-key SET
func inventoryKey(code model.SessionCode, id model.ConnectionID) string {
	return fmt.Sprintf("%s:inventory:%s:%d", keyPrefix, code, id)
}

// entityKey returns the Redis key for an Entity
func entityKey(code model.SessionCode, id model.EntityID) string {
	return fmt.Sprintf("%s:entity:%s:%s", keyPrefix, code, id)
}

// entitiesForSessionIndexKey returns the Redis key for the SET of entities in a session
func entitiesForSessionIndexKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:idx:entities_for_session:%s", keyPrefix, code)
}
