package roster

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/blob"
	"github.com/mcoot/roster/internal/dependencies/mocks"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage/memory"
	"github.com/mcoot/roster/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

type failingBlobs struct {
	blob.Store
}

func (failingBlobs) List(context.Context, string) ([]blob.Info, error) {
	return nil, errors.New("blob store offline")
}

// hookedBlobs runs afterPut once a Put has succeeded
type hookedBlobs struct {
	blob.Store
	afterPut func()
}

func (h hookedBlobs) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	info, err := h.Store.Put(ctx, key, r, opts)
	if err == nil {
		h.afterPut()
	}
	return info, err
}

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	blobs     *blob.MemoryStore
	publisher *recordingPublisher
	ids       *mocks.MockIDs
	clock     *mocks.MockClock
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New(s.clock)
	s.blobs = blob.NewMemory(s.clock)
	s.publisher = &recordingPublisher{}
	s.ids = mocks.NewMockIDs()
	s.service = New(s.storage, s.blobs, s.publisher, s.ids, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) createTeam(name string) *model.Team {
	team, err := s.service.CreateTeam(s.ctx, model.Team{Name: name, Color: "#f80", Description: name + " team"})
	s.Require().NoError(err)
	return team
}

func (s *ServiceSuite) createPlayer(name string, teamID model.TeamID, number int) *model.Player {
	player, err := s.service.CreatePlayer(s.ctx, model.Player{
		Name:     name,
		Number:   number,
		TeamID:   teamID,
		Position: "Shortstop",
		Stats:    model.PlayerStats{BattingAverage: 0.3, HomeRuns: 4, RBI: 11, GamesPlayed: 20},
	})
	s.Require().NoError(err)
	return player
}

// Team tests

func (s *ServiceSuite) TestCreateTeamDerivesIDFromName() {
	team := s.createTeam("  Águilas de Mexicali ")

	s.Equal(model.TeamID("aguilas-de-mexicali"), team.ID)
	s.Equal("Águilas de Mexicali", team.Name)
	s.Equal([]model.EventType{model.EventTeamCreated}, s.publisher.types())
}

func (s *ServiceSuite) TestCreateTeamSlugCollisionGetsSuffix() {
	s.createTeam("Red Sox")
	s.ids.Queue("abcd1234-0000-0000-0000-000000000000")

	team := s.createTeam("Red-Sox!")
	s.Equal(model.TeamID("red-sox-abcd1234"), team.ID)
}

func (s *ServiceSuite) TestCreateTeamSymbolsOnlyName() {
	s.ids.Queue("ffff0000")
	team := s.createTeam("!!")
	s.Equal(model.TeamID("team-ffff0000"), team.ID)
}

func (s *ServiceSuite) TestCreateTeamDuplicateNameDifferentCase() {
	s.createTeam("Tigers")

	_, err := s.service.CreateTeam(s.ctx, model.Team{Name: "TIGERS", Color: "#000"})
	s.ErrorIs(err, model.ErrDuplicateName)
}

func (s *ServiceSuite) TestCreateTeamInvalid() {
	_, err := s.service.CreateTeam(s.ctx, model.Team{Name: "T", Color: "orange"})

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Len(verr.Errors, 2)
	s.Empty(s.publisher.types())
}

func (s *ServiceSuite) TestUpdateTeamMergesPatch() {
	team := s.createTeam("Tigers")
	color := "#123"

	updated, err := s.service.UpdateTeam(s.ctx, team.ID, model.TeamPatch{Color: &color})
	s.Require().NoError(err)
	s.Equal("Tigers", updated.Name)
	s.Equal("#123", updated.Color)
	s.Equal(team.Description, updated.Description)
}

func (s *ServiceSuite) TestUpdateTeamKeepsID() {
	team := s.createTeam("Tigers")
	name := "Bengal Tigers"

	updated, err := s.service.UpdateTeam(s.ctx, team.ID, model.TeamPatch{Name: &name})
	s.Require().NoError(err)
	s.Equal(team.ID, updated.ID)
}

func (s *ServiceSuite) TestUpdateTeamNotFound() {
	_, err := s.service.UpdateTeam(s.ctx, "nope", model.TeamPatch{})
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *ServiceSuite) TestDeleteTeamWithPlayersRefused() {
	team := s.createTeam("Tigers")
	s.createPlayer("Jason Miller", team.ID, 12)
	s.createPlayer("Ana Ruiz", team.ID, 7)

	_, err := s.service.DeleteTeam(s.ctx, team.ID)
	s.ErrorIs(err, model.ErrTeamHasPlayers)

	var conflict *model.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(2, conflict.Count)

	_, err = s.service.GetTeam(s.ctx, team.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestDeleteEmptyTeam() {
	team := s.createTeam("Tigers")

	deleted, err := s.service.DeleteTeam(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(*team, *deleted)

	_, err = s.service.GetTeam(s.ctx, team.ID)
	s.ErrorIs(err, model.ErrTeamNotFound)
	s.Equal([]model.EventType{model.EventTeamCreated, model.EventTeamDeleted}, s.publisher.types())
}

// Player tests

func (s *ServiceSuite) TestCreateThenGetPlayer() {
	team := s.createTeam("Tigers")
	s.ids.Queue("p-1")

	created := s.createPlayer("Jason Miller", team.ID, 12)
	s.Equal(model.PlayerID("p-1"), created.ID)
	s.Equal(s.clock.Now(), created.CreatedAt)

	got, err := s.service.GetPlayer(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(*created, *got)
}

func (s *ServiceSuite) TestCreatePlayerIgnoresClientID() {
	team := s.createTeam("Tigers")
	s.ids.Queue("server-id")

	created, err := s.service.CreatePlayer(s.ctx, model.Player{
		ID: "client-id", Name: "Jason Miller", Number: 12, TeamID: team.ID, Position: "Pitcher",
	})
	s.Require().NoError(err)
	s.Equal(model.PlayerID("server-id"), created.ID)
}

func (s *ServiceSuite) TestCreatePlayerDuplicateNumber() {
	team := s.createTeam("Tigers")
	s.createPlayer("Jason Miller", team.ID, 12)

	_, err := s.service.CreatePlayer(s.ctx, model.Player{Name: "Other", Number: 12, TeamID: team.ID, Position: "Catcher"})
	s.ErrorIs(err, model.ErrDuplicateNumber)
}

func (s *ServiceSuite) TestCreatePlayerUnknownTeam() {
	_, err := s.service.CreatePlayer(s.ctx, model.Player{Name: "Jason", Number: 12, TeamID: "ghosts", Position: "Pitcher"})

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Errors, `Team "ghosts" does not exist`)
}

func (s *ServiceSuite) TestUpdateBioOnlyPreservesOtherFields() {
	team := s.createTeam("Tigers")
	created := s.createPlayer("Jason Miller", team.ID, 12)
	s.clock.Advance(time.Minute)

	bio := "Joined mid-season."
	updated, err := s.service.UpdatePlayer(s.ctx, created.ID, model.PlayerPatch{Bio: &bio})
	s.Require().NoError(err)

	expected := *created
	expected.Bio = bio
	expected.UpdatedAt = s.clock.Now()
	s.Equal(expected, *updated)
}

func (s *ServiceSuite) TestUpdatePlayerKeepsOwnNumber() {
	team := s.createTeam("Tigers")
	created := s.createPlayer("Jason Miller", team.ID, 12)
	number := 12

	_, err := s.service.UpdatePlayer(s.ctx, created.ID, model.PlayerPatch{Number: &number})
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePlayerMoveToTeamWithNumberTaken() {
	tigers := s.createTeam("Tigers")
	eagles := s.createTeam("Eagles")
	s.createPlayer("Eagle Twelve", eagles.ID, 12)
	mover := s.createPlayer("Jason Miller", tigers.ID, 12)

	_, err := s.service.UpdatePlayer(s.ctx, mover.ID, model.PlayerPatch{TeamID: &eagles.ID})
	s.ErrorIs(err, model.ErrDuplicateNumber)
}

func (s *ServiceSuite) TestListPlayersByUnknownTeam() {
	_, err := s.service.ListPlayersByTeam(s.ctx, "nope")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *ServiceSuite) TestDeletePlayerRemovesImages() {
	team := s.createTeam("Tigers")
	player := s.createPlayer("Jason Miller", team.ID, 12)
	_, err := s.service.UploadPlayerImage(s.ctx, player.ID, "headshot.png", "image/png", strings.NewReader("png"))
	s.Require().NoError(err)

	deleted, err := s.service.DeletePlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(player.ID, deleted.ID)

	left, err := s.blobs.List(s.ctx, "images/")
	s.Require().NoError(err)
	s.Empty(left)
}

func (s *ServiceSuite) TestDeletePlayerSucceedsWhenImageCleanupFails() {
	service := New(s.storage, failingBlobs{Store: s.blobs}, s.publisher, s.ids, s.clock, testutil.NopLogger())
	team := s.createTeam("Tigers")
	player := s.createPlayer("Jason Miller", team.ID, 12)

	_, err := service.DeletePlayer(s.ctx, player.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestDeletePlayerNotFound() {
	_, err := s.service.DeletePlayer(s.ctx, "nope")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Image tests

func (s *ServiceSuite) TestUploadPlayerImage() {
	team := s.createTeam("Tigers")
	s.ids.Queue("p-1")
	player := s.createPlayer("Jason Miller", team.ID, 12)

	updated, err := s.service.UploadPlayerImage(s.ctx, player.ID, "My Headshot.JPG", "image/jpeg", strings.NewReader("jpeg"))
	s.Require().NoError(err)
	s.Equal("images/p-1/my-headshot.jpg", updated.Image)

	info, body, err := s.service.OpenImage(s.ctx, updated.Image)
	s.Require().NoError(err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	s.Equal("jpeg", string(data))
	s.Equal("image/jpeg", info.ContentType)
}

func (s *ServiceSuite) TestUploadReplacesPreviousImage() {
	team := s.createTeam("Tigers")
	s.ids.Queue("p-1")
	player := s.createPlayer("Jason Miller", team.ID, 12)

	_, err := s.service.UploadPlayerImage(s.ctx, player.ID, "a.png", "image/png", strings.NewReader("a"))
	s.Require().NoError(err)
	_, err = s.service.UploadPlayerImage(s.ctx, player.ID, "b.png", "image/png", strings.NewReader("b"))
	s.Require().NoError(err)

	left, err := s.blobs.List(s.ctx, "images/p-1/")
	s.Require().NoError(err)
	s.Require().Len(left, 1)
	s.Equal("images/p-1/b.png", left[0].Key)
}

func (s *ServiceSuite) TestUploadForVanishedPlayerLeavesNoImage() {
	team := s.createTeam("Tigers")
	s.ids.Queue("p-1")
	player := s.createPlayer("Jason Miller", team.ID, 12)

	blobs := hookedBlobs{Store: s.blobs, afterPut: func() {
		_, err := s.storage.DeletePlayer(s.ctx, player.ID)
		s.Require().NoError(err)
	}}
	service := New(s.storage, blobs, s.publisher, s.ids, s.clock, testutil.NopLogger())

	_, err := service.UploadPlayerImage(s.ctx, player.ID, "a.png", "image/png", strings.NewReader("a"))
	s.ErrorIs(err, model.ErrPlayerNotFound)

	left, err := s.blobs.List(s.ctx, "images/p-1/")
	s.Require().NoError(err)
	s.Empty(left)
}

func (s *ServiceSuite) TestUploadRejectsNonImage() {
	team := s.createTeam("Tigers")
	player := s.createPlayer("Jason Miller", team.ID, 12)

	_, err := s.service.UploadPlayerImage(s.ctx, player.ID, "notes.txt", "text/plain", strings.NewReader("hi"))
	var verr *model.ValidationError
	s.ErrorAs(err, &verr)
}

func (s *ServiceSuite) TestOpenImageOutsidePrefix() {
	_, _, err := s.service.OpenImage(s.ctx, "secrets/key")
	s.ErrorIs(err, blob.ErrNotFound)
}

// Site config tests

func (s *ServiceSuite) TestSiteConfigDefault() {
	cfg, err := s.service.GetSiteConfig(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.DefaultSiteConfig().Title, cfg.Title)
}

func (s *ServiceSuite) TestUpdateSiteConfigMergesPatch() {
	title := "Riverside League"
	updated, err := s.service.UpdateSiteConfig(s.ctx, model.SiteConfigPatch{Title: &title})
	s.Require().NoError(err)
	s.Equal(title, updated.Title)
	s.Equal(model.DefaultSiteConfig().Theme, updated.Theme)
	s.Equal([]model.EventType{model.EventConfigUpdated}, s.publisher.types())
}

func (s *ServiceSuite) TestUpdateSiteConfigDateOrder() {
	start, end := "2026-09-01", "2026-04-01"
	_, err := s.service.UpdateSiteConfig(s.ctx, model.SiteConfigPatch{
		Season: &model.SeasonPatch{StartDate: &start, EndDate: &end},
	})

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Errors, "Season start date must be before end date")
}

// Seed tests

func (s *ServiceSuite) TestSeedPopulatesEmptyStore() {
	seeded, err := s.service.Seed(s.ctx)
	s.Require().NoError(err)
	s.True(seeded)

	teams, _ := s.service.ListTeams(s.ctx)
	s.Len(teams, 2)

	players, err := s.service.ListPlayersByTeam(s.ctx, "tigers")
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("Jason Miller", players[0].Name)
	s.Equal(12, players[0].Number)
}

func (s *ServiceSuite) TestSeedSkipsPopulatedStore() {
	s.createTeam("Existing")

	seeded, err := s.service.Seed(s.ctx)
	s.Require().NoError(err)
	s.False(seeded)
}
