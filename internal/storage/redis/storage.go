package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ID)

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}

	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	data, err := s.client.Get(ctx, registeredPlayerKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var rp model.RegisteredPlayer
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, sessionKey(session.Code), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	return s.client.Del(ctx, sessionKey(code)).Err()
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Player record operations

func (s *Storage) SavePlayerRecord(ctx context.Context, code model.SessionCode, record *model.PlayerRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	rKey := recordKey(code, record.ConnectionID)
	indexKey := recordsForSessionIndexKey(code)

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, rKey, data, s.cfg.RecordTTL)
	pipe.SAdd(ctx, indexKey, rKey)
	pipe.Expire(ctx, indexKey, s.cfg.RecordTTL) // Keep index TTL in sync
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, recordKey(code, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRecordNotFound
		}
		return nil, err
	}

	var record model.PlayerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) DeletePlayerRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID) error {
	rKey := recordKey(code, id)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, rKey)
	pipe.SRem(ctx, recordsForSessionIndexKey(code), rKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) PlayerRecordsForSession(ctx context.Context, code model.SessionCode) ([]*model.PlayerRecord, error) {
	keys, err := s.client.SMembers(ctx, recordsForSessionIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var records []*model.PlayerRecord
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Record expired out from under the index
			continue
		}
		var record model.PlayerRecord
		if err := json.Unmarshal([]byte(str), &record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, nil
}

func (s *Storage) DeletePlayerRecordsForSession(ctx context.Context, code model.SessionCode) error {
	indexKey := recordsForSessionIndexKey(code)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

// Inventory operations

func (s *Storage) AddInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	invKey := inventoryKey(code, id)

	added, err := s.client.SAdd(ctx, invKey, int(key)).Result()
	if err != nil {
		return false, err
	}
	if err := s.client.Expire(ctx, invKey, s.cfg.RecordTTL).Err(); err != nil {
		return false, err
	}
	return added > 0, nil
}

func (s *Storage) RemoveInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	removed, err := s.client.SRem(ctx, inventoryKey(code, id), int(key)).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (s *Storage) HasInventoryKey(ctx context.Context, code model.SessionCode, id model.ConnectionID, key model.KeyID) (bool, error) {
	return s.client.SIsMember(ctx, inventoryKey(code, id), int(key)).Result()
}

func (s *Storage) InventoryKeys(ctx context.Context, code model.SessionCode, id model.ConnectionID) ([]model.KeyID, error) {
	members, err := s.client.SMembers(ctx, inventoryKey(code, id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	keys := make([]model.KeyID, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			return nil, err
		}
		keys = append(keys, model.KeyID(n))
	}
	return keys, nil
}

func (s *Storage) DeleteInventory(ctx context.Context, code model.SessionCode, id model.ConnectionID) error {
	return s.client.Del(ctx, inventoryKey(code, id)).Err()
}

// Entity operations

func (s *Storage) SaveEntity(ctx context.Context, code model.SessionCode, entity *model.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	eKey := entityKey(code, entity.ID)
	indexKey := entitiesForSessionIndexKey(code)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, eKey, data, s.cfg.EntityTTL)
	pipe.SAdd(ctx, indexKey, eKey)
	pipe.Expire(ctx, indexKey, s.cfg.EntityTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetEntity(ctx context.Context, code model.SessionCode, id model.EntityID) (*model.Entity, error) {
	data, err := s.client.Get(ctx, entityKey(code, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrEntityNotFound
		}
		return nil, err
	}

	var entity model.Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *Storage) EntitiesForSession(ctx context.Context, code model.SessionCode) ([]*model.Entity, error) {
	keys, err := s.client.SMembers(ctx, entitiesForSessionIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var entities []*model.Entity
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var entity model.Entity
		if err := json.Unmarshal([]byte(str), &entity); err != nil {
			return nil, err
		}
		entities = append(entities, &entity)
	}
	return entities, nil
}

func (s *Storage) DeleteEntitiesForSession(ctx context.Context, code model.SessionCode) error {
	indexKey := entitiesForSessionIndexKey(code)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}
