// Package registry is the server-side authoritative directory of spawned
// players. Clients never read it directly; they learn of peers through the
// join/leave broadcasts.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

// Service manages gameplay-phase player records for all sessions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	waiters map[waiterKey][]chan *model.PlayerRecord
}

type waiterKey struct {
	code model.SessionCode
	conn model.ConnectionID
}

// New creates a new registry Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "registry")),
		waiters: make(map[waiterKey][]chan *model.PlayerRecord),
	}
}

// Register adds a player record for a spawned gameplay entity. Spawn signals
// can race with connection callbacks and be resent, so a duplicate register
// for an already-registered connection replaces the record and warns instead
// of creating a second entry.
func (s *Service) Register(ctx context.Context, code model.SessionCode, record *model.PlayerRecord) error {
	existing, err := s.storage.GetPlayerRecord(ctx, code, record.ConnectionID)
	if err == nil && existing != nil {
		s.logger.Warn("duplicate register, replacing record",
			slog.String("session", string(code)),
			slog.Int64("connection_id", int64(record.ConnectionID)))
	}

	if record.SpawnedAt.IsZero() {
		record.SpawnedAt = s.clock.Now()
	}

	if err := s.storage.SavePlayerRecord(ctx, code, record); err != nil {
		return err
	}

	s.notifyWaiters(code, record)

	s.logger.Info("player record registered",
		slog.String("session", string(code)),
		slog.Int64("connection_id", int64(record.ConnectionID)),
		slog.String("display_name", record.DisplayName))

	return nil
}

// Unregister removes a player record. Removing an absent record is a logged
// no-op (despawn can race with disconnect); the removed record is returned so
// callers can broadcast the departure.
func (s *Service) Unregister(ctx context.Context, code model.SessionCode, id model.ConnectionID) (*model.PlayerRecord, error) {
	record, err := s.storage.GetPlayerRecord(ctx, code, id)
	if err != nil {
		s.logger.Info("unregister for unknown record",
			slog.String("session", string(code)),
			slog.Int64("connection_id", int64(id)))
		return nil, model.ErrRecordNotFound
	}

	if err := s.storage.DeletePlayerRecord(ctx, code, id); err != nil {
		return nil, err
	}
	if err := s.storage.DeleteInventory(ctx, code, id); err != nil {
		return nil, err
	}

	s.logger.Info("player record unregistered",
		slog.String("session", string(code)),
		slog.Int64("connection_id", int64(id)))

	return record, nil
}

// Lookup returns the record for a connection, or model.ErrRecordNotFound
func (s *Service) Lookup(ctx context.Context, code model.SessionCode, id model.ConnectionID) (*model.PlayerRecord, error) {
	return s.storage.GetPlayerRecord(ctx, code, id)
}

// All returns every record in a session; order is not stable across
// registrations and unregistrations
func (s *Service) All(ctx context.Context, code model.SessionCode) ([]*model.PlayerRecord, error) {
	return s.storage.PlayerRecordsForSession(ctx, code)
}

// Update persists a mutation to an existing record
func (s *Service) Update(ctx context.Context, code model.SessionCode, record *model.PlayerRecord) error {
	return s.storage.SavePlayerRecord(ctx, code, record)
}

// Clear removes all records for a session (game end / session teardown)
func (s *Service) Clear(ctx context.Context, code model.SessionCode) error {
	records, err := s.storage.PlayerRecordsForSession(ctx, code)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := s.storage.DeleteInventory(ctx, code, record.ConnectionID); err != nil {
			return err
		}
	}
	return s.storage.DeletePlayerRecordsForSession(ctx, code)
}

// WaitForRecord blocks until the record for the given connection registers,
// the timeout elapses, or ctx is cancelled. It is a continuation registered
// against the record-added event rather than a poll loop; role assignment
// uses it to tolerate the chosen candidate's record not existing yet.
func (s *Service) WaitForRecord(ctx context.Context, code model.SessionCode, id model.ConnectionID, timeout time.Duration) (*model.PlayerRecord, error) {
	// Register the waiter before checking storage so a concurrent Register
	// between the check and the wait cannot be missed.
	ch := make(chan *model.PlayerRecord, 1)
	key := waiterKey{code: code, conn: id}

	s.mu.Lock()
	s.waiters[key] = append(s.waiters[key], ch)
	s.mu.Unlock()

	defer s.removeWaiter(key, ch)

	if record, err := s.storage.GetPlayerRecord(ctx, code, id); err == nil {
		return record, nil
	}

	select {
	case record := <-ch:
		return record, nil
	case <-s.clock.After(timeout):
		return nil, model.ErrAssignmentTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) notifyWaiters(code model.SessionCode, record *model.PlayerRecord) {
	key := waiterKey{code: code, conn: record.ConnectionID}

	s.mu.Lock()
	waiters := s.waiters[key]
	delete(s.waiters, key)
	s.mu.Unlock()

	for _, ch := range waiters {
		select {
		case ch <- record:
		default:
		}
	}
}

func (s *Service) removeWaiter(key waiterKey, ch chan *model.PlayerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.waiters[key]
	for i, w := range waiters {
		if w == ch {
			s.waiters[key] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(s.waiters[key]) == 0 {
		delete(s.waiters, key)
	}
}
