package memory

import (
	"context"
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	sessions          map[model.SessionCode]*model.Session
	records           map[recordKey]*model.PlayerRecord
	inventories       map[recordKey]map[model.KeyID]struct{}
	entities          map[entityKey]*model.Entity
}

type recordKey struct {
	code model.SessionCode
	conn model.ConnectionID
}

type entityKey struct {
	code model.SessionCode
	id   model.EntityID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		sessions:          make(map[model.SessionCode]*model.Session),
		records:           make(map[recordKey]*model.PlayerRecord),
		inventories:       make(map[recordKey]map[model.KeyID]struct{}),
		entities:          make(map[entityKey]*model.Entity),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Code] = session
	return nil
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[code]
	return ok, nil
}

// Player record operations

func (s *Storage) SavePlayerRecord(ctx context.Context, code model.SessionCode, record *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{code: code, conn: record.ConnectionID}] = record
	return nil
}

func (s *Storage) GetPlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{code: code, conn: id}]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return record, nil
}

func (s *Storage) DeletePlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordKey{code: code, conn: id})
	return nil
}

func (s *Storage) PlayerRecordsForSession(ctx context.Context, code model.SessionCode) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []*model.PlayerRecord
	for key, record := range s.records {
		if key.code == code {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *Storage) DeletePlayerRecordsForSession(ctx context.Context, code model.SessionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if key.code == code {
			delete(s.records, key)
		}
	}
	return nil
}

// Inventory operations

func (s *Storage) AddInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rk := recordKey{code: code, conn: id}
	inv, ok := s.inventories[rk]
	if !ok {
		inv = make(map[model.KeyID]struct{})
		s.inventories[rk] = inv
	}
	if _, held := inv[key]; held {
		return false, nil
	}
	inv[key] = struct{}{}
	return true, nil
}

func (s *Storage) RemoveInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.inventories[recordKey{code: code, conn: id}]
	if !ok {
		return false, nil
	}
	if _, held := inv[key]; !held {
		return false, nil
	}
	delete(inv, key)
	return true, nil
}

func (s *Storage) HasInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.inventories[recordKey{code: code, conn: id}]
	if !ok {
		return false, nil
	}
	_, held := inv[key]
	return held, nil
}

func (s *Storage) InventoryKeys(ctx context.Context, code model.SessionCode, id model.ConnectionID) ([]model.KeyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv := s.inventories[recordKey{code: code, conn: id}]
	keys := make([]model.KeyID, 0, len(inv))
	for key := range inv {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Storage) DeleteInventory(ctx context.Context, code model.SessionCode, id model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inventories, recordKey{code: code, conn: id})
	return nil
}

// Entity operations

func (s *Storage) SaveEntity(ctx context.Context, code model.SessionCode, entity *model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entityKey{code: code, id: entity.ID}] = entity
	return nil
}

func (s *Storage) GetEntity(ctx context.Context, code model.SessionCode, id model.EntityID) (*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entities[entityKey{code: code, id: id}]
	if !ok {
		return nil, model.ErrEntityNotFound
	}
	return entity, nil
}

func (s *Storage) EntitiesForSession(ctx context.Context, code model.SessionCode) ([]*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entities []*model.Entity
	for key, entity := range s.entities {
		if key.code == code {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}

func (s *Storage) DeleteEntitiesForSession(ctx context.Context, code model.SessionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entities {
		if key.code == code {
			delete(s.entities, key)
		}
	}
	return nil
}
