package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mcoot/roster/internal/model"
)

// MaxBodyBytes bounds JSON request bodies
const MaxBodyBytes = 1 << 20

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Password string `json:"password"`
}

// CreateTeamRequest is the request body for creating a team
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Team converts the request into a team without an ID
func (r CreateTeamRequest) Team() model.Team {
	return model.Team{Name: r.Name, Color: r.Color, Description: r.Description}
}

// UpdateTeamRequest is the request body for updating a team
type UpdateTeamRequest = model.TeamPatch

// CreatePlayerRequest is the request body for creating a player
type CreatePlayerRequest struct {
	Name     string            `json:"name"`
	Number   int               `json:"number"`
	TeamID   model.TeamID      `json:"teamId"`
	Position string            `json:"position"`
	Image    string            `json:"image"`
	Bio      string            `json:"bio"`
	Stats    model.PlayerStats `json:"stats"`
}

// Player converts the request into a player without an ID
func (r CreatePlayerRequest) Player() model.Player {
	return model.Player{
		Name:     r.Name,
		Number:   r.Number,
		TeamID:   r.TeamID,
		Position: r.Position,
		Image:    r.Image,
		Bio:      r.Bio,
		Stats:    r.Stats,
	}
}

// UpdatePlayerRequest is the request body for updating a player
type UpdatePlayerRequest = model.PlayerPatch

// UpdateConfigRequest is the request body for updating the site configuration
type UpdateConfigRequest = model.SiteConfigPatch

// Decode reads a single JSON object from r into dst.
// Unknown fields and trailing data are rejected.
func Decode(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return fmt.Errorf("field %q has the wrong type", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxErr):
			return errors.New("request body too large")
		default:
			return errors.New("invalid request body")
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
