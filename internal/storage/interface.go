package storage

import (
	"context"
	"errors"

	"github.com/mcoot/roster/internal/model"
)

// ErrDuplicateID is returned when creating a record whose ID is already taken
var ErrDuplicateID = errors.New("storage: record id already exists")

// Storage is the authoritative record store.
//
// Implementations enforce the cross-record invariants regardless of caller:
// a player's team must exist (*model.ValidationError otherwise), jersey numbers
// are unique within a team, team names are unique by model.NameKey, and a team
// cannot be deleted while players reference it (*model.ConflictError for each).
// Player timestamps and the config UpdatedAt are assigned from the store's clock.
type Storage interface {
	// Team operations
	ListTeams(ctx context.Context) ([]model.Team, error)
	GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error)
	CreateTeam(ctx context.Context, team *model.Team) error
	UpdateTeam(ctx context.Context, team *model.Team) error
	DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error)

	// Player operations
	ListPlayers(ctx context.Context) ([]model.Player, error)
	ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error)
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	CreatePlayer(ctx context.Context, player *model.Player) error
	UpdatePlayer(ctx context.Context, player *model.Player) error
	DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Site configuration. GetSiteConfig returns the default until one is saved.
	GetSiteConfig(ctx context.Context) (*model.SiteConfig, error)
	SaveSiteConfig(ctx context.Context, cfg *model.SiteConfig) error

	Close() error
}
