// Package inventory is the per-player collected-key ledger. The key set is
// private inventory: it is replicated to the owning client only, never
// broadcast.
package inventory

import (
	"context"
	"log/slog"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

// AddResult is the outcome of an AddKey call
type AddResult int

const (
	Added AddResult = iota
	AlreadyHeld
)

// RemoveResult is the outcome of a RemoveKey call
type RemoveResult int

const (
	Removed RemoveResult = iota
	NotHeld
)

// Service manages collected-key sets per (session, connection)
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new inventory Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "inventory")),
	}
}

// AddKey adds a key to a player's inventory. Duplicate adds are a no-op
// signalled as AlreadyHeld, not an error.
func (s *Service) AddKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (AddResult, error) {
	added, err := s.storage.AddInventoryKey(ctx, code, id, key)
	if err != nil {
		return AlreadyHeld, err
	}
	if !added {
		return AlreadyHeld, nil
	}
	return Added, nil
}

// RemoveKey removes a key from a player's inventory. Removing a key that is
// not held is a no-op signalled as NotHeld.
func (s *Service) RemoveKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (RemoveResult, error) {
	removed, err := s.storage.RemoveInventoryKey(ctx, code, id, key)
	if err != nil {
		return NotHeld, err
	}
	if !removed {
		return NotHeld, nil
	}
	return Removed, nil
}

// HasKey reports whether the player holds the given key
func (s *Service) HasKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	return s.storage.HasInventoryKey(ctx, code, id, key)
}

// Keys returns the player's full key set (owner-only projection)
func (s *Service) Keys(ctx context.Context, code model.SessionCode, id model.ConnectionID) ([]model.KeyID, error) {
	return s.storage.InventoryKeys(ctx, code, id)
}
