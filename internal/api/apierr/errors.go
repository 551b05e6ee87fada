package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hideseekgame/hideseekgame-go/internal/model"
	"github.com/hideseekgame/hideseekgame-go/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotHost             = "NOT_HOST"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeLobbyFull           = "LOBBY_FULL"
	CodeAlreadyInSession    = "ALREADY_IN_SESSION"
	CodeNotInSession        = "NOT_IN_SESSION"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeNoGameInProgress    = "NO_GAME_IN_PROGRESS"
	CodeGameAlreadyStarted  = "GAME_ALREADY_STARTED"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeEntityNotFound      = "ENTITY_NOT_FOUND"
	CodeAlreadyCollected    = "ALREADY_COLLECTED"
	CodeDoorAlreadyOpen     = "DOOR_ALREADY_OPEN"
	CodeDoorAlreadyClosed   = "DOOR_ALREADY_CLOSED"
	CodeWrongRole           = "WRONG_ROLE"
	CodeMissingKey          = "MISSING_KEY"
	CodeOutsideCatchCone    = "OUTSIDE_CATCH_CONE"
	CodeTargetNotCatchable  = "TARGET_NOT_CATCHABLE"
	CodeUsernameExists      = "USERNAME_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRecordNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player is not in the game"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrLobbyFull):
		return &httpError{http.StatusConflict, APIError{CodeLobbyFull, "Session lobby is full"}}
	case errors.Is(err, model.ErrAlreadyInSession):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInSession, "Already in this session"}}
	case errors.Is(err, model.ErrNotInSession):
		return &httpError{http.StatusNotFound, APIError{CodeNotInSession, "Not in this session"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameInProgress, "Game is in progress"}}
	case errors.Is(err, model.ErrNoGameInProgress):
		return &httpError{http.StatusNotFound, APIError{CodeNoGameInProgress, "No game in progress"}}
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameAlreadyStarted, "Game has already been started"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to start"}}

	// Interaction denials. These go back to the requester only; they are
	// never broadcast to the session.
	case errors.Is(err, model.ErrEntityNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeEntityNotFound, "Entity not found"}}
	case errors.Is(err, model.ErrAlreadyCollected):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyCollected, "Already collected"}}
	case errors.Is(err, model.ErrDoorAlreadyOpen):
		return &httpError{http.StatusConflict, APIError{CodeDoorAlreadyOpen, "Door is already open"}}
	case errors.Is(err, model.ErrDoorAlreadyClosed):
		return &httpError{http.StatusConflict, APIError{CodeDoorAlreadyClosed, "Door is already closed"}}
	case errors.Is(err, model.ErrWrongRole):
		return &httpError{http.StatusForbidden, APIError{CodeWrongRole, "Your role cannot perform this interaction"}}
	case errors.Is(err, model.ErrMissingKey):
		return &httpError{http.StatusForbidden, APIError{CodeMissingKey, "Required key not held"}}
	case errors.Is(err, model.ErrOutsideCatchCone):
		return &httpError{http.StatusForbidden, APIError{CodeOutsideCatchCone, "Collision outside catch cone"}}
	case errors.Is(err, model.ErrTargetNotCatchable):
		return &httpError{http.StatusConflict, APIError{CodeTargetNotCatchable, "Target is not a catchable runner"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
