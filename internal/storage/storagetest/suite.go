// Package storagetest provides a conformance suite run against every storage backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/dependencies/mocks"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
)

// Suite exercises the storage.Storage contract.
// Embed it in a backend test and set NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store using the given clock
	NewStorage func(clk *mocks.MockClock) storage.Storage

	Store storage.Storage
	Clock *mocks.MockClock
	Ctx   context.Context
}

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Clock = mocks.NewMockClock(epoch)
	s.Store = s.NewStorage(s.Clock)
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) createTeam(id model.TeamID, name string) model.Team {
	team := model.Team{ID: id, Name: name, Color: "#123456", Description: name + " team"}
	s.Require().NoError(s.Store.CreateTeam(s.Ctx, &team))
	return team
}

func (s *Suite) createPlayer(id model.PlayerID, name string, teamID model.TeamID, number int) model.Player {
	p := model.Player{
		ID:       id,
		Name:     name,
		Number:   number,
		TeamID:   teamID,
		Position: "Outfield",
		Stats:    model.PlayerStats{BattingAverage: 0.25, HomeRuns: 1, RBI: 3, GamesPlayed: 10},
	}
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, &p))
	return p
}

// Team tests

func (s *Suite) TestCreateAndGetTeam() {
	team := s.createTeam("tigers", "Tigers")

	got, err := s.Store.GetTeam(s.Ctx, "tigers")
	s.Require().NoError(err)
	s.Equal(team, *got)
}

func (s *Suite) TestGetTeamNotFound() {
	_, err := s.Store.GetTeam(s.Ctx, "nope")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *Suite) TestListTeamsOrderedByName() {
	s.createTeam("zebras", "zebras")
	s.createTeam("aardvarks", "Aardvarks")
	s.createTeam("moles", "Moles")

	teams, err := s.Store.ListTeams(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(teams, 3)
	s.Equal(model.TeamID("aardvarks"), teams[0].ID)
	s.Equal(model.TeamID("moles"), teams[1].ID)
	s.Equal(model.TeamID("zebras"), teams[2].ID)
}

func (s *Suite) TestListTeamsEmpty() {
	teams, err := s.Store.ListTeams(s.Ctx)
	s.Require().NoError(err)
	s.Empty(teams)
}

func (s *Suite) TestCreateTeamDuplicateNameIgnoresCase() {
	s.createTeam("tigers", "Tigers")

	dup := model.Team{ID: "tigers-2", Name: "TIGERS", Color: "#000"}
	err := s.Store.CreateTeam(s.Ctx, &dup)
	s.ErrorIs(err, model.ErrDuplicateName)

	teams, _ := s.Store.ListTeams(s.Ctx)
	s.Len(teams, 1)
}

func (s *Suite) TestCreateTeamDuplicateID() {
	s.createTeam("tigers", "Tigers")

	dup := model.Team{ID: "tigers", Name: "Other", Color: "#000"}
	s.ErrorIs(s.Store.CreateTeam(s.Ctx, &dup), storage.ErrDuplicateID)
}

func (s *Suite) TestUpdateTeam() {
	team := s.createTeam("tigers", "Tigers")
	team.Color = "#abc"
	team.Name = "Tigers FC"

	s.Require().NoError(s.Store.UpdateTeam(s.Ctx, &team))

	got, err := s.Store.GetTeam(s.Ctx, "tigers")
	s.Require().NoError(err)
	s.Equal("Tigers FC", got.Name)
	s.Equal("#abc", got.Color)

	// old name is free again
	s.createTeam("tigers-2", "Tigers")
}

func (s *Suite) TestUpdateTeamKeepsOwnNameWithNewCase() {
	team := s.createTeam("tigers", "Tigers")
	team.Name = "TIGERS"

	s.NoError(s.Store.UpdateTeam(s.Ctx, &team))
}

func (s *Suite) TestUpdateTeamToTakenName() {
	s.createTeam("tigers", "Tigers")
	eagles := s.createTeam("eagles", "Eagles")
	eagles.Name = "tigers"

	s.ErrorIs(s.Store.UpdateTeam(s.Ctx, &eagles), model.ErrDuplicateName)
}

func (s *Suite) TestUpdateTeamNotFound() {
	team := model.Team{ID: "ghost", Name: "Ghosts", Color: "#000"}
	s.ErrorIs(s.Store.UpdateTeam(s.Ctx, &team), model.ErrTeamNotFound)
}

func (s *Suite) TestDeleteEmptyTeam() {
	team := s.createTeam("tigers", "Tigers")

	deleted, err := s.Store.DeleteTeam(s.Ctx, "tigers")
	s.Require().NoError(err)
	s.Equal(team, *deleted)

	_, err = s.Store.GetTeam(s.Ctx, "tigers")
	s.ErrorIs(err, model.ErrTeamNotFound)

	// name is released
	s.createTeam("tigers-2", "Tigers")
}

func (s *Suite) TestDeleteTeamWithPlayersRefused() {
	s.createTeam("tigers", "Tigers")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)
	s.createPlayer("p2", "Ann Lee", "tigers", 7)

	_, err := s.Store.DeleteTeam(s.Ctx, "tigers")
	s.Require().ErrorIs(err, model.ErrTeamHasPlayers)

	var ce *model.ConflictError
	s.Require().ErrorAs(err, &ce)
	s.Equal(2, ce.Count)

	// nothing cascaded
	_, err = s.Store.GetTeam(s.Ctx, "tigers")
	s.NoError(err)
	players, _ := s.Store.ListPlayers(s.Ctx)
	s.Len(players, 2)
}

func (s *Suite) TestDeleteTeamNotFound() {
	_, err := s.Store.DeleteTeam(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	s.createTeam("tigers", "Tigers")
	created := s.createPlayer("p1", "Jason Miller", "tigers", 12)

	s.True(epoch.Equal(created.CreatedAt))
	s.True(epoch.Equal(created.UpdatedAt))

	got, err := s.Store.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal(created.Name, got.Name)
	s.Equal(created.Number, got.Number)
	s.Equal(created.Stats, got.Stats)
	s.True(created.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestCreatePlayerIgnoresClientTimestamps() {
	s.createTeam("tigers", "Tigers")
	p := model.Player{
		ID: "p1", Name: "Jason Miller", Number: 12, TeamID: "tigers", Position: "Pitcher",
		CreatedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, &p))

	got, err := s.Store.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.True(epoch.Equal(got.CreatedAt))
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nope")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestCreatePlayerUnknownTeam() {
	p := model.Player{ID: "p1", Name: "Jason Miller", Number: 12, TeamID: "ghosts", Position: "Pitcher"}

	err := s.Store.CreatePlayer(s.Ctx, &p)
	var ve *model.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Errors[0], "ghosts")
}

func (s *Suite) TestCreatePlayerDuplicateNumberInTeam() {
	s.createTeam("tigers", "Tigers")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)

	dup := model.Player{ID: "p2", Name: "Other Player", Number: 12, TeamID: "tigers", Position: "Catcher"}
	err := s.Store.CreatePlayer(s.Ctx, &dup)
	s.Require().ErrorIs(err, model.ErrDuplicateNumber)

	players, _ := s.Store.ListPlayers(s.Ctx)
	s.Len(players, 1)
}

func (s *Suite) TestSameNumberAcrossTeams() {
	s.createTeam("tigers", "Tigers")
	s.createTeam("eagles", "Eagles")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)
	s.createPlayer("p2", "Other Player", "eagles", 12)
}

func (s *Suite) TestListPlayersOrderedByName() {
	s.createTeam("tigers", "Tigers")
	s.createPlayer("p1", "zed", "tigers", 1)
	s.createPlayer("p2", "Amy", "tigers", 2)
	s.createPlayer("p3", "bob", "tigers", 3)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal([]model.PlayerID{"p2", "p3", "p1"}, []model.PlayerID{players[0].ID, players[1].ID, players[2].ID})
}

func (s *Suite) TestListPlayersByTeam() {
	s.createTeam("tigers", "Tigers")
	s.createTeam("eagles", "Eagles")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)
	s.createPlayer("p2", "Ann Lee", "eagles", 7)
	s.createPlayer("p3", "Bo Diaz", "tigers", 3)

	players, err := s.Store.ListPlayersByTeam(s.Ctx, "tigers")
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal(model.PlayerID("p3"), players[0].ID)
	s.Equal(model.PlayerID("p1"), players[1].ID)

	none, err := s.Store.ListPlayersByTeam(s.Ctx, "ghosts")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestUpdatePlayerPreservesCreatedAt() {
	s.createTeam("tigers", "Tigers")
	p := s.createPlayer("p1", "Jason Miller", "tigers", 12)

	s.Clock.Advance(time.Hour)
	p.Bio = "Left-handed"
	p.CreatedAt = time.Time{}
	s.Require().NoError(s.Store.UpdatePlayer(s.Ctx, &p))

	got, err := s.Store.GetPlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Left-handed", got.Bio)
	s.True(epoch.Equal(got.CreatedAt))
	s.True(epoch.Add(time.Hour).Equal(got.UpdatedAt))
}

func (s *Suite) TestUpdatePlayerNumberFreesOldNumber() {
	s.createTeam("tigers", "Tigers")
	p := s.createPlayer("p1", "Jason Miller", "tigers", 12)

	p.Number = 13
	s.Require().NoError(s.Store.UpdatePlayer(s.Ctx, &p))

	s.createPlayer("p2", "Other Player", "tigers", 12)
}

func (s *Suite) TestUpdatePlayerToTakenNumber() {
	s.createTeam("tigers", "Tigers")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)
	p2 := s.createPlayer("p2", "Ann Lee", "tigers", 7)

	p2.Number = 12
	s.ErrorIs(s.Store.UpdatePlayer(s.Ctx, &p2), model.ErrDuplicateNumber)

	got, _ := s.Store.GetPlayer(s.Ctx, "p2")
	s.Equal(7, got.Number)
}

func (s *Suite) TestUpdatePlayerMovesTeam() {
	s.createTeam("tigers", "Tigers")
	s.createTeam("eagles", "Eagles")
	p := s.createPlayer("p1", "Jason Miller", "tigers", 12)

	p.TeamID = "eagles"
	s.Require().NoError(s.Store.UpdatePlayer(s.Ctx, &p))

	tigers, _ := s.Store.ListPlayersByTeam(s.Ctx, "tigers")
	eagles, _ := s.Store.ListPlayersByTeam(s.Ctx, "eagles")
	s.Empty(tigers)
	s.Len(eagles, 1)

	// tigers can now be deleted and its number reused elsewhere
	_, err := s.Store.DeleteTeam(s.Ctx, "tigers")
	s.NoError(err)
}

func (s *Suite) TestUpdatePlayerUnknownTeam() {
	s.createTeam("tigers", "Tigers")
	p := s.createPlayer("p1", "Jason Miller", "tigers", 12)

	p.TeamID = "ghosts"
	var ve *model.ValidationError
	s.ErrorAs(s.Store.UpdatePlayer(s.Ctx, &p), &ve)
}

func (s *Suite) TestUpdatePlayerNotFound() {
	s.createTeam("tigers", "Tigers")
	p := model.Player{ID: "ghost", Name: "Ghost", Number: 1, TeamID: "tigers", Position: "P"}
	s.ErrorIs(s.Store.UpdatePlayer(s.Ctx, &p), model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	s.createTeam("tigers", "Tigers")
	s.createPlayer("p1", "Jason Miller", "tigers", 12)

	deleted, err := s.Store.DeletePlayer(s.Ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Jason Miller", deleted.Name)

	_, err = s.Store.GetPlayer(s.Ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	// number and team are released
	s.createPlayer("p2", "Other Player", "tigers", 12)
	_, err = s.Store.DeletePlayer(s.Ctx, "p2")
	s.Require().NoError(err)
	_, err = s.Store.DeleteTeam(s.Ctx, "tigers")
	s.NoError(err)
}

func (s *Suite) TestDeletePlayerNotFound() {
	_, err := s.Store.DeletePlayer(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Site configuration tests

func (s *Suite) TestSiteConfigDefaultsBeforeSave() {
	cfg, err := s.Store.GetSiteConfig(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.DefaultSiteConfig(), *cfg)
}

func (s *Suite) TestSaveAndGetSiteConfig() {
	cfg := model.DefaultSiteConfig()
	cfg.Title = "Spring League"
	cfg.FeaturedDate = "2026-06-01"

	s.Require().NoError(s.Store.SaveSiteConfig(s.Ctx, &cfg))
	s.True(epoch.Equal(cfg.UpdatedAt))

	got, err := s.Store.GetSiteConfig(s.Ctx)
	s.Require().NoError(err)
	s.Equal("Spring League", got.Title)
	s.Equal("2026-06-01", got.FeaturedDate)
	s.Equal(cfg.Season, got.Season)
	s.True(epoch.Equal(got.UpdatedAt))
}

// Returned records must not alias stored state

func (s *Suite) TestReturnedTeamIsACopy() {
	s.createTeam("tigers", "Tigers")

	got, _ := s.Store.GetTeam(s.Ctx, "tigers")
	got.Name = "Mutated"

	again, _ := s.Store.GetTeam(s.Ctx, "tigers")
	s.Equal("Tigers", again.Name)
}

func (s *Suite) TestReturnedPlayerIsACopy() {
	s.createTeam("tigers", "Tigers")
	p := s.createPlayer("p1", "Jason Miller", "tigers", 12)
	p.Name = "Mutated after create"

	players, _ := s.Store.ListPlayers(s.Ctx)
	players[0].Stats.HomeRuns = 99

	again, _ := s.Store.GetPlayer(s.Ctx, "p1")
	s.Equal("Jason Miller", again.Name)
	s.Equal(1, again.Stats.HomeRuns)
}
