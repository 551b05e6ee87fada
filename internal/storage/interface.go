package storage

import (
	"context"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player identity operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error)
	DeleteSession(ctx context.Context, code model.SessionCode) error
	SessionExists(ctx context.Context, code model.SessionCode) (bool, error)

	// Player record operations (gameplay-phase records)
	SavePlayerRecord(ctx context.Context, code model.SessionCode, record *model.PlayerRecord) error
	GetPlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) (*model.PlayerRecord, error)
	DeletePlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) error
	PlayerRecordsForSession(ctx context.Context, code model.SessionCode) ([]*model.PlayerRecord, error)
	DeletePlayerRecordsForSession(ctx context.Context, code model.SessionCode) error

	// Inventory operations (per-player collected-key sets).
	// AddInventoryKey reports whether the key was newly added; duplicate adds
	// return false with no error. RemoveInventoryKey reports whether the key
	// was held.
	AddInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error)
	RemoveInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error)
	HasInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error)
	InventoryKeys(ctx context.Context, code model.SessionCode, id model.ConnectionID) ([]model.KeyID, error)
	DeleteInventory(ctx context.Context, code model.SessionCode, id model.ConnectionID) error

	// Entity operations (interactive world entities)
	SaveEntity(ctx context.Context, code model.SessionCode, entity *model.Entity) error
	GetEntity(ctx context.Context, code model.SessionCode, id model.EntityID) (*model.Entity, error)
	EntitiesForSession(ctx context.Context, code model.SessionCode) ([]*model.Entity, error)
	DeleteEntitiesForSession(ctx context.Context, code model.SessionCode) error
}
