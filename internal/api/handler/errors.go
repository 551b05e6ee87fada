package handler

import (
	"net/http"

	"github.com/hideseekgame/hideseekgame-go/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest      = apierr.CodeInvalidRequest
	CodeUnauthorized        = apierr.CodeUnauthorized
	CodeNotHost             = apierr.CodeNotHost
	CodePlayerNotFound      = apierr.CodePlayerNotFound
	CodeSessionNotFound     = apierr.CodeSessionNotFound
	CodeLobbyFull           = apierr.CodeLobbyFull
	CodeAlreadyInSession    = apierr.CodeAlreadyInSession
	CodeNotInSession        = apierr.CodeNotInSession
	CodeGameInProgress      = apierr.CodeGameInProgress
	CodeNoGameInProgress    = apierr.CodeNoGameInProgress
	CodeGameAlreadyStarted  = apierr.CodeGameAlreadyStarted
	CodeInsufficientPlayers = apierr.CodeInsufficientPlayers
	CodeEntityNotFound      = apierr.CodeEntityNotFound
	CodeAlreadyCollected    = apierr.CodeAlreadyCollected
	CodeDoorAlreadyOpen     = apierr.CodeDoorAlreadyOpen
	CodeDoorAlreadyClosed   = apierr.CodeDoorAlreadyClosed
	CodeWrongRole           = apierr.CodeWrongRole
	CodeMissingKey          = apierr.CodeMissingKey
	CodeOutsideCatchCone    = apierr.CodeOutsideCatchCone
	CodeTargetNotCatchable  = apierr.CodeTargetNotCatchable
	CodeUsernameExists      = apierr.CodeUsernameExists
	CodeInvalidCredentials  = apierr.CodeInvalidCredentials
	CodeInternalError       = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
