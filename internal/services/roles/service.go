// Package roles selects and tracks the hunter role for a game session.
package roles

import (
	"context"
	"log/slog"
	"time"

	"github.com/hideseekgame/hideseekgame-go/internal/dependencies/random"
	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/registry"
)

// Policy selects which candidate becomes the hunter at game start.
// Both observed behaviors exist in the wild; the policy is explicit and
// configurable rather than implicit.
type Policy string

const (
	// PolicyFirstConnection picks the lowest connection id (the default)
	PolicyFirstConnection Policy = "first_connection"
	// PolicyRandom picks uniformly at random
	PolicyRandom Policy = "random"
)

// Config holds role assignment settings
type Config struct {
	Policy Policy
	// AssignTimeout bounds how long assignment waits for the chosen
	// candidate's record to register before abandoning
	AssignTimeout time.Duration
}

// DefaultConfig returns default role assignment configuration
func DefaultConfig() Config {
	return Config{
		Policy:        PolicyFirstConnection,
		AssignTimeout: 5 * time.Second,
	}
}

// Service assigns and queries the hunter role
type Service struct {
	registry *registry.Service
	random   random.Random
	logger   *slog.Logger
	cfg      Config
}

// New creates a new roles Service
func New(registry *registry.Service, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.Policy == "" {
		cfg.Policy = DefaultConfig().Policy
	}
	if cfg.AssignTimeout == 0 {
		cfg.AssignTimeout = DefaultConfig().AssignTimeout
	}
	return &Service{
		registry: registry,
		random:   random,
		logger:   logger.With(slog.String("component", "roles")),
		cfg:      cfg,
	}
}

// AssignHunter selects one candidate as hunter, called once per game start.
// The chosen candidate's record may not have registered yet (spawn races the
// start sequence); assignment waits for it with a bounded timeout and is
// abandoned with a logged failure if it never arrives. Exactly one record
// ends up with IsHunter set.
func (s *Service) AssignHunter(ctx context.Context, code model.SessionCode, candidates []model.ConnectionID) (model.ConnectionID, error) {
	if len(candidates) == 0 {
		return 0, model.ErrNoCandidates
	}

	if hunter, err := s.CurrentHunter(ctx, code); err == nil && hunter != nil {
		return 0, model.ErrHunterAlreadySet
	}

	chosen := s.choose(candidates)

	record, err := s.registry.WaitForRecord(ctx, code, chosen, s.cfg.AssignTimeout)
	if err != nil {
		s.logger.Error("hunter assignment abandoned",
			slog.String("session", string(code)),
			slog.Int64("connection_id", int64(chosen)),
			slog.Any("error", err))
		return 0, err
	}

	record.IsHunter = true
	if err := s.registry.Update(ctx, code, record); err != nil {
		return 0, err
	}

	s.logger.Info("hunter assigned",
		slog.String("session", string(code)),
		slog.String("policy", string(s.cfg.Policy)),
		slog.Int64("connection_id", int64(chosen)))

	return chosen, nil
}

// CurrentHunter returns the hunter's record, or nil if none is assigned
func (s *Service) CurrentHunter(ctx context.Context, code model.SessionCode) (*model.PlayerRecord, error) {
	records, err := s.registry.All(ctx, code)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.IsHunter {
			return record, nil
		}
	}
	return nil, nil
}

// IsHunter reports whether the given connection holds the hunter role
func (s *Service) IsHunter(ctx context.Context, code model.SessionCode, id model.ConnectionID) (bool, error) {
	record, err := s.registry.Lookup(ctx, code, id)
	if err != nil {
		return false, err
	}
	return record.IsHunter, nil
}

func (s *Service) choose(candidates []model.ConnectionID) model.ConnectionID {
	switch s.cfg.Policy {
	case PolicyRandom:
		return candidates[s.random.Intn(len(candidates))]
	default:
		lowest := candidates[0]
		for _, c := range candidates[1:] {
			if c < lowest {
				lowest = c
			}
		}
		return lowest
	}
}
