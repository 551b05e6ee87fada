// Package interaction resolves role-gated interactions against world
// entities under server authority. All mutations for a session are
// serialized, so each entity's terminal-state check doubles as the
// concurrency guard: contended collections resolve to exactly one winner.
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/clock"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/inventory"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
	"github.com/hideseekgame/hideseekgame-go/internal/storage"
)

// CatchConeDegrees is the tolerance between the hunter's facing direction
// and the vector to the runner for a collision to count as a catch
const CatchConeDegrees = 45.0

// Resolver applies interaction requests to session world state
type Resolver struct {
	storage   storage.Storage
	registry  *registry.Service
	inventory *inventory.Service
	clock     clock.Clock
	logger    *slog.Logger

	// One mutex per session: the single-writer guard of the authority
	locks sync.Map // model.SessionCode -> *sync.Mutex
}

// NewResolver creates a new interaction Resolver
func NewResolver(
	storage storage.Storage,
	registry *registry.Service,
	inventory *inventory.Service,
	clock clock.Clock,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		storage:   storage,
		registry:  registry,
		inventory: inventory,
		clock:     clock,
		logger:    logger.With(slog.String("component", "interaction")),
	}
}

func (r *Resolver) lockSession(code model.SessionCode) func() {
	mu, _ := r.locks.LoadOrStore(code, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// SpawnWorld instantiates a session's interactive entities from its level
func (r *Resolver) SpawnWorld(ctx context.Context, code model.SessionCode, level model.Level) error {
	defer r.lockSession(code)()

	for i, spec := range level.Keys {
		entity := &model.Entity{
			ID:       model.EntityID(fmt.Sprintf("key-%d", i+1)),
			Kind:     model.EntityKindKey,
			Position: spec.Position,
			KeyID:    spec.KeyID,
			KeyName:  spec.Name,
		}
		if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
			return err
		}
	}
	for i, spec := range level.Doors {
		entity := &model.Entity{
			ID:             model.EntityID(fmt.Sprintf("door-%d", i+1)),
			Kind:           model.EntityKindDoor,
			Position:       spec.Position,
			RequiredKeyID:  spec.RequiredKeyID,
			ConsumesKey:    spec.ConsumesKey,
			HunterCanForce: spec.HunterCanForce,
		}
		if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
			return err
		}
	}
	for i, spec := range level.Cheese {
		entity := &model.Entity{
			ID:       model.EntityID(fmt.Sprintf("cheese-%d", i+1)),
			Kind:     model.EntityKindCheese,
			Position: spec.Position,
			Value:    spec.Value,
		}
		if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
			return err
		}
	}
	for i, spec := range level.SafeZones {
		entity := &model.Entity{
			ID:       model.EntityID(fmt.Sprintf("safezone-%d", i+1)),
			Kind:     model.EntityKindSafeZone,
			Position: spec.Position,
		}
		if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
			return err
		}
	}
	for i, spec := range level.Exits {
		entity := &model.Entity{
			ID:       model.EntityID(fmt.Sprintf("exit-%d", i+1)),
			Kind:     model.EntityKindExit,
			Position: spec.Position,
		}
		if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
			return err
		}
	}

	r.logger.Info("world spawned",
		slog.String("session", string(code)),
		slog.String("level", level.Name))

	return nil
}

// Entities returns the session's world entities
func (r *Resolver) Entities(ctx context.Context, code model.SessionCode) ([]*model.Entity, error) {
	return r.storage.EntitiesForSession(ctx, code)
}

// CollectKey resolves a key pickup. Hunters are blocked unconditionally;
// the collected flag transitions false->true exactly once.
func (r *Resolver) CollectKey(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.KeyCollectedPayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindKey {
		return nil, model.ErrEntityNotFound
	}
	if entity.Collected {
		return nil, model.ErrAlreadyCollected
	}

	record, err := r.registry.Lookup(ctx, code, conn)
	if err != nil {
		// Despawn raced the request; nothing to do
		return nil, model.ErrRecordNotFound
	}
	if record.IsHunter {
		return nil, model.ErrWrongRole
	}

	// Ledger first, entity write as the commit point: a denial must leave
	// the world unchanged, so a failed commit rolls the ledger back
	if _, err := r.inventory.AddKey(ctx, code, conn, entity.KeyID); err != nil {
		return nil, err
	}
	entity.Collected = true
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		entity.Collected = false
		if _, rerr := r.inventory.RemoveKey(ctx, code, conn, entity.KeyID); rerr != nil {
			r.logger.Error("key collect rollback failed",
				slog.String("session", string(code)),
				slog.Int64("connection_id", int64(conn)),
				slog.Any("error", rerr))
		}
		return nil, err
	}

	return &model.KeyCollectedPayload{
		ConnectionID: conn,
		KeyID:        entity.KeyID,
		KeyName:      entity.KeyName,
	}, nil
}

// OpenDoor resolves an open request. Runners must hold the required key;
// hunters may only force doors flagged HunterCanForce and never spend keys.
func (r *Resolver) OpenDoor(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.DoorOpenedPayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindDoor {
		return nil, model.ErrEntityNotFound
	}
	if entity.Open {
		return nil, model.ErrDoorAlreadyOpen
	}

	record, err := r.registry.Lookup(ctx, code, conn)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}

	consumed := false
	if record.IsHunter {
		if !entity.HunterCanForce {
			return nil, model.ErrWrongRole
		}
	} else {
		held, err := r.inventory.HasKey(ctx, code, conn, entity.RequiredKeyID)
		if err != nil {
			return nil, err
		}
		if !held {
			return nil, model.ErrMissingKey
		}
		if entity.ConsumesKey {
			if _, err := r.inventory.RemoveKey(ctx, code, conn, entity.RequiredKeyID); err != nil {
				return nil, err
			}
			consumed = true
		}
	}

	entity.Open = true
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		entity.Open = false
		if consumed {
			// Commit failed after the key was spent; hand it back
			if _, rerr := r.inventory.AddKey(ctx, code, conn, entity.RequiredKeyID); rerr != nil {
				r.logger.Error("door open rollback failed",
					slog.String("session", string(code)),
					slog.Int64("connection_id", int64(conn)),
					slog.Any("error", rerr))
			}
		}
		return nil, err
	}

	return &model.DoorOpenedPayload{
		ConnectionID: conn,
		DoorID:       entity.ID,
		KeyConsumed:  consumed,
	}, nil
}

// CloseDoor explicitly recloses an open door
func (r *Resolver) CloseDoor(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.DoorClosedPayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindDoor {
		return nil, model.ErrEntityNotFound
	}
	if !entity.Open {
		return nil, model.ErrDoorAlreadyClosed
	}

	if _, err := r.registry.Lookup(ctx, code, conn); err != nil {
		return nil, model.ErrRecordNotFound
	}

	entity.Open = false
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		return nil, err
	}

	return &model.DoorClosedPayload{
		ConnectionID: conn,
		DoorID:       entity.ID,
	}, nil
}

// CollectCheese resolves a cheese pickup; terminal like keys, hunters blocked
func (r *Resolver) CollectCheese(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.CheeseCollectedPayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindCheese {
		return nil, model.ErrEntityNotFound
	}
	if entity.Collected {
		return nil, model.ErrAlreadyCollected
	}

	record, err := r.registry.Lookup(ctx, code, conn)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}
	if record.IsHunter {
		return nil, model.ErrWrongRole
	}

	entity.Collected = true
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		return nil, err
	}

	return &model.CheeseCollectedPayload{
		ConnectionID: conn,
		Value:        entity.Value,
	}, nil
}

// EnterSafeZone records a runner entering a zone. The first runner inside
// raises the zone's blocking state; the returned payload is non-nil only
// when the blocked state actually changed. Hunter entry is denied (the
// blocking collider keeps them out on the physics side).
func (r *Resolver) EnterSafeZone(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.SafeZonePayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindSafeZone {
		return nil, model.ErrEntityNotFound
	}

	record, err := r.registry.Lookup(ctx, code, conn)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}
	if record.IsHunter {
		return nil, model.ErrWrongRole
	}
	if entity.Occupied(conn) {
		return nil, nil
	}

	entity.Occupants = append(entity.Occupants, conn)
	changed := !entity.Blocked
	entity.Blocked = true
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		return nil, err
	}

	if !changed {
		return nil, nil
	}
	return &model.SafeZonePayload{ZoneID: entity.ID, Blocked: true}, nil
}

// ExitSafeZone records a runner leaving a zone; the last runner out lowers
// the blocking state
func (r *Resolver) ExitSafeZone(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.SafeZonePayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindSafeZone {
		return nil, model.ErrEntityNotFound
	}
	if !entity.Occupied(conn) {
		return nil, nil
	}

	for i, o := range entity.Occupants {
		if o == conn {
			entity.Occupants = append(entity.Occupants[:i], entity.Occupants[i+1:]...)
			break
		}
	}

	changed := entity.Blocked && len(entity.Occupants) == 0
	if changed {
		entity.Blocked = false
	}
	if err := r.storage.SaveEntity(ctx, code, entity); err != nil {
		return nil, err
	}

	if !changed {
		return nil, nil
	}
	return &model.SafeZonePayload{ZoneID: entity.ID, Blocked: false}, nil
}

// ReachExit resolves a runner touching an exit: the runner wins and their
// gameplay entity despawns
func (r *Resolver) ReachExit(ctx context.Context, code model.SessionCode, conn model.ConnectionID, entityID model.EntityID) (*model.PlayerWonPayload, error) {
	defer r.lockSession(code)()

	entity, err := r.storage.GetEntity(ctx, code, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != model.EntityKindExit {
		return nil, model.ErrEntityNotFound
	}

	record, err := r.registry.Lookup(ctx, code, conn)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}
	if record.IsHunter || !record.Active() {
		return nil, model.ErrWrongRole
	}

	record.Won = true
	if err := r.registry.Update(ctx, code, record); err != nil {
		return nil, err
	}

	return &model.PlayerWonPayload{
		ConnectionID: conn,
		DisplayName:  record.DisplayName,
	}, nil
}

// ResolveCatch validates a hunter-runner collision reported by the external
// physics layer. The hunter's facing direction must be within the catch cone
// of the vector to the runner; collisions outside the cone are ignored, not
// errors surfaced to the world. A valid catch despawns the runner and is
// terminal for them.
func (r *Resolver) ResolveCatch(ctx context.Context, code model.SessionCode, hunter, runner model.ConnectionID, facing, toRunner model.Vec2) (*model.PlayerEliminatedPayload, error) {
	defer r.lockSession(code)()

	hunterRecord, err := r.registry.Lookup(ctx, code, hunter)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}
	if !hunterRecord.IsHunter {
		return nil, model.ErrWrongRole
	}

	runnerRecord, err := r.registry.Lookup(ctx, code, runner)
	if err != nil {
		return nil, model.ErrRecordNotFound
	}
	if runnerRecord.IsHunter || !runnerRecord.Active() {
		return nil, model.ErrTargetNotCatchable
	}

	if !withinCone(facing, toRunner, CatchConeDegrees) {
		return nil, model.ErrOutsideCatchCone
	}

	runnerRecord.Eliminated = true
	if err := r.registry.Update(ctx, code, runnerRecord); err != nil {
		return nil, err
	}

	// Despawn: once committed this is not cancellable
	if _, err := r.registry.Unregister(ctx, code, runner); err != nil {
		return nil, err
	}

	r.logger.Info("runner caught",
		slog.String("session", string(code)),
		slog.Int64("hunter", int64(hunter)),
		slog.Int64("runner", int64(runner)))

	return &model.PlayerEliminatedPayload{
		ConnectionID: runner,
		DisplayName:  runnerRecord.DisplayName,
	}, nil
}

// withinCone reports whether the angle between two vectors is at most
// tolerance degrees. Degenerate (zero-length) vectors never qualify.
func withinCone(facing, toTarget model.Vec2, toleranceDegrees float64) bool {
	fLen := math.Hypot(facing.X, facing.Y)
	tLen := math.Hypot(toTarget.X, toTarget.Y)
	if fLen == 0 || tLen == 0 {
		return false
	}

	cos := (facing.X*toTarget.X + facing.Y*toTarget.Y) / (fLen * tLen)
	limit := math.Cos(toleranceDegrees * math.Pi / 180)
	return cos >= limit
}
