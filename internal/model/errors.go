package model

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used across the application
var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")

	// Conflict kinds, for use with errors.Is
	ErrDuplicateNumber = &ConflictError{Kind: ConflictDuplicateNumber}
	ErrDuplicateName   = &ConflictError{Kind: ConflictDuplicateName}
	ErrTeamHasPlayers  = &ConflictError{Kind: ConflictTeamHasPlayers}
)

// ValidationError lists every rule a record failed
type ValidationError struct {
	Errors []string
}

// NewValidationError creates a ValidationError from messages
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// NewUnknownTeamError reports a player referencing a team that does not exist
func NewUnknownTeamError(id TeamID) *ValidationError {
	return NewValidationError(fmt.Sprintf("Team %q does not exist", id))
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ConflictKind identifies which uniqueness or reference rule was broken
type ConflictKind string

const (
	ConflictDuplicateNumber ConflictKind = "DUPLICATE_NUMBER"
	ConflictDuplicateName   ConflictKind = "DUPLICATE_NAME"
	ConflictTeamHasPlayers  ConflictKind = "TEAM_HAS_PLAYERS"
)

// ConflictError is returned when a write would break a cross-record invariant
type ConflictError struct {
	Kind   ConflictKind
	TeamID TeamID
	Number int    // DuplicateNumber
	Name   string // DuplicateName
	Count  int    // TeamHasPlayers
}

// NewDuplicateNumberError reports a jersey number already used within a team
func NewDuplicateNumberError(teamID TeamID, number int) *ConflictError {
	return &ConflictError{Kind: ConflictDuplicateNumber, TeamID: teamID, Number: number}
}

// NewDuplicateNameError reports a team name already in use
func NewDuplicateNameError(name string) *ConflictError {
	return &ConflictError{Kind: ConflictDuplicateName, Name: name}
}

// NewTeamHasPlayersError reports a team that cannot be deleted
func NewTeamHasPlayersError(teamID TeamID, count int) *ConflictError {
	return &ConflictError{Kind: ConflictTeamHasPlayers, TeamID: teamID, Count: count}
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictDuplicateNumber:
		return fmt.Sprintf("Player number %d already exists in this team", e.Number)
	case ConflictDuplicateName:
		return fmt.Sprintf("A team named %q already exists", e.Name)
	case ConflictTeamHasPlayers:
		noun := "players"
		if e.Count == 1 {
			noun = "player"
		}
		return fmt.Sprintf("Cannot delete team with %d %s", e.Count, noun)
	default:
		return "conflict"
	}
}

// Is matches any ConflictError of the same kind
func (e *ConflictError) Is(target error) bool {
	t, ok := target.(*ConflictError)
	return ok && t.Kind == e.Kind
}
