package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mcoot/roster/internal/model"
)

// ErrUnauthorized is matched by APIErrors carrying the UNAUTHORIZED code
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-transient error response from the server
type APIError struct {
	Status   int
	Code     string
	Message  string
	Errors   []string
	Conflict *ConflictDetails
}

// ConflictDetails are the values a conflict response names
type ConflictDetails struct {
	TeamID string `json:"teamId"`
	Number int    `json:"number"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 && e.Code == "VALIDATION_ERROR" {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Errors, "; "))
	}
	return e.Message
}

// String formats the error the way the CLI shows it
func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Error(), e.Code)
}

// Unwrap maps the wire code back onto the model taxonomy so errors.Is and errors.As
// behave the same as they do against the server's own errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "VALIDATION_ERROR":
		return model.NewValidationError(e.Errors...)
	case string(model.ConflictDuplicateNumber), string(model.ConflictDuplicateName), string(model.ConflictTeamHasPlayers):
		ce := model.ConflictError{Kind: model.ConflictKind(e.Code)}
		if d := e.Conflict; d != nil {
			ce.TeamID = model.TeamID(d.TeamID)
			ce.Number = d.Number
			ce.Name = d.Name
			ce.Count = d.Count
		}
		return &conflict{ConflictError: ce, message: e.Message}
	case "TEAM_NOT_FOUND":
		return model.ErrTeamNotFound
	case "PLAYER_NOT_FOUND":
		return model.ErrPlayerNotFound
	case "UNAUTHORIZED":
		return ErrUnauthorized
	default:
		return nil
	}
}

// conflict keeps the server's message while matching model.ConflictError kinds
type conflict struct {
	model.ConflictError
	message string
}

func (c *conflict) Error() string { return c.message }

func (c *conflict) Unwrap() error { return &c.ConflictError }

// TransientError is a failure worth retrying: the request never got a definitive answer
type TransientError struct {
	Op     string
	Status int // zero for network failures
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a TransientError
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyTransport wraps an http.Client error. Cancellation by the caller is not transient.
func classifyTransport(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	// Timeouts, dial failures and resets
	return &TransientError{Op: op, Err: err}
}

func transientStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}
