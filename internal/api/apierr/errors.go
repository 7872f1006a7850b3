package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/roster/internal/blob"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/services/auth"
)

// APIError is the error envelope written for every failed request
type APIError struct {
	Error   bool     `json:"error"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`

	// Conflict carries the offending values for conflict codes
	Conflict *Conflict `json:"conflict,omitempty"`
}

// Conflict describes which record a conflict code refers to
type Conflict struct {
	TeamID string `json:"teamId,omitempty"`
	Number int    `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// Error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeDuplicateNumber  = string(model.ConflictDuplicateNumber)
	CodeDuplicateName    = string(model.ConflictDuplicateName)
	CodeTeamHasPlayers   = string(model.ConflictTeamHasPlayers)
	CodeTeamNotFound     = "TEAM_NOT_FOUND"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInternalError    = "INTERNAL_ERROR"
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

func newHTTPError(status int, code, message string) *httpError {
	return &httpError{status, APIError{Error: true, Code: code, Message: message}}
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.apiError)
}

// Status returns the HTTP status err would be written with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		he := newHTTPError(http.StatusBadRequest, CodeValidation, "Validation failed")
		he.apiError.Errors = append([]string(nil), ve.Errors...)
		return he
	}

	var ce *model.ConflictError
	if errors.As(err, &ce) {
		he := newHTTPError(http.StatusBadRequest, string(ce.Kind), ce.Error())
		he.apiError.Errors = []string{ce.Error()}
		he.apiError.Conflict = &Conflict{
			TeamID: string(ce.TeamID),
			Number: ce.Number,
			Name:   ce.Name,
			Count:  ce.Count,
		}
		return he
	}

	switch {
	case errors.Is(err, model.ErrTeamNotFound):
		return newHTTPError(http.StatusNotFound, CodeTeamNotFound, "Team not found")
	case errors.Is(err, model.ErrPlayerNotFound):
		return newHTTPError(http.StatusNotFound, CodePlayerNotFound, "Player not found")
	case errors.Is(err, blob.ErrNotFound):
		return newHTTPError(http.StatusNotFound, CodeNotFound, "Not found")

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "Invalid password")
	case errors.Is(err, auth.ErrMissingToken):
		return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	case errors.Is(err, auth.ErrExpiredToken):
		return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "Session expired")
	case errors.Is(err, auth.ErrInvalidToken):
		return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "Invalid session")

	default:
		return newHTTPError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return newHTTPError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewNotFoundError creates a generic not found error
func NewNotFoundError() error {
	return newHTTPError(http.StatusNotFound, CodeNotFound, "Not found")
}

// NewMethodNotAllowedError creates an error for a known path called with the wrong method
func NewMethodNotAllowedError() error {
	return newHTTPError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return newHTTPError(http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return newHTTPError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
