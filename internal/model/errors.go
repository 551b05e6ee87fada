package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Authority errors
	ErrNotAuthority = errors.New("write rejected: not the authority")

	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrLobbyFull           = errors.New("lobby is full")
	ErrAlreadyInSession    = errors.New("player is already in session")
	ErrNotInSession        = errors.New("player is not in session")
	ErrNotHost             = errors.New("player is not the host")
	ErrGameInProgress      = errors.New("game is in progress")
	ErrNoGameInProgress    = errors.New("no game in progress")
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
	ErrGameAlreadyStarted  = errors.New("game already started")

	// Registry errors (disconnect/despawn races; callers treat as no-op)
	ErrRecordNotFound      = errors.New("player record not found")
	ErrLobbyRecordNotFound = errors.New("lobby record not found")

	// Role assignment errors
	ErrNoCandidates       = errors.New("no candidates for role assignment")
	ErrAssignmentTimeout  = errors.New("hunter assignment timed out waiting for record")
	ErrHunterAlreadySet   = errors.New("a hunter is already assigned")

	// Interaction errors
	ErrEntityNotFound     = errors.New("entity not found")
	ErrAlreadyCollected   = errors.New("entity already collected")
	ErrDoorAlreadyOpen    = errors.New("door is already open")
	ErrDoorAlreadyClosed  = errors.New("door is already closed")
	ErrWrongRole          = errors.New("interaction not permitted for this role")
	ErrMissingKey         = errors.New("required key not held")
	ErrOutsideCatchCone   = errors.New("collision outside catch cone")
	ErrTargetNotCatchable = errors.New("target is not a catchable runner")

	// Transition errors
	ErrNoSpawnPoint = errors.New("no spawn point available")
)
