package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/factory"
	"github.com/mcoot/roster/internal/model"
)

type ClientSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	client *Client
	ctx    context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.app = factory.NewTestApp()
	_, err := s.app.RosterService.Seed(s.ctx)
	s.Require().NoError(err)
	s.server = httptest.NewServer(s.app.Handler(nil))
	s.client = New(s.server.URL)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
	_ = s.app.Close()
}

func (s *ClientSuite) login() {
	_, err := s.client.Login(s.ctx, factory.TestPassword)
	s.Require().NoError(err)
}

func (s *ClientSuite) TestLoginStoresToken() {
	result, err := s.client.Login(s.ctx, factory.TestPassword)
	s.Require().NoError(err)
	s.Equal(result.Token, s.client.Token())

	session, err := s.client.Session(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(24*time.Hour/time.Millisecond), session.ExpiresInMs)

	s.Require().NoError(s.client.Logout(s.ctx))
	s.Empty(s.client.Token())
}

func (s *ClientSuite) TestWrongPasswordIsUnauthorized() {
	_, err := s.client.Login(s.ctx, "nope")
	s.ErrorIs(err, ErrUnauthorized)
	s.False(IsTransient(err))

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusUnauthorized, apiErr.Status)
}

func (s *ClientSuite) TestWriteWithoutTokenIsUnauthorized() {
	_, err := s.client.CreateTeam(s.ctx, model.Team{Name: "Hawks", Color: "#000"})
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ClientSuite) TestTeamAndPlayerRoundTrip() {
	s.login()

	team, err := s.client.CreateTeam(s.ctx, model.Team{Name: "Hawks", Color: "#0a0"})
	s.Require().NoError(err)
	s.Equal(model.TeamID("hawks"), team.ID)

	player, err := s.client.CreatePlayer(s.ctx, model.Player{
		Name: "Ana Ruiz", Number: 7, TeamID: team.ID, Position: "Catcher",
		Stats: model.PlayerStats{BattingAverage: 0.301, GamesPlayed: 20},
	})
	s.Require().NoError(err)

	got, err := s.client.GetPlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(*player, *got)

	bio := "Team captain"
	updated, err := s.client.UpdatePlayer(s.ctx, player.ID, model.PlayerPatch{Bio: &bio})
	s.Require().NoError(err)
	s.Equal(bio, updated.Bio)
	s.Equal(player.Stats, updated.Stats)

	byTeam, err := s.client.ListPlayersByTeam(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Len(byTeam, 1)

	deleted, err := s.client.DeletePlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(player.ID, deleted.ID)

	_, err = s.client.DeleteTeam(s.ctx, team.ID)
	s.NoError(err)
}

func (s *ClientSuite) TestErrorsMapOntoModel() {
	s.login()

	_, err := s.client.CreatePlayer(s.ctx, model.Player{
		Name: "Sam Carter", Number: 12, TeamID: "tigers", Position: "Shortstop",
	})
	s.ErrorIs(err, model.ErrDuplicateNumber)
	s.NotErrorIs(err, model.ErrDuplicateName)
	var conflict *model.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(model.ConflictDuplicateNumber, conflict.Kind)
	s.Equal(12, conflict.Number)
	s.Equal(model.TeamID("tigers"), conflict.TeamID)
	s.Equal("Player number 12 already exists in this team", err.Error())

	_, err = s.client.CreatePlayer(s.ctx, model.Player{Name: "S", Number: 12, TeamID: "tigers", Position: "SS"})
	var ve *model.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Errors, "Player name must be between 2 and 50 characters")

	_, err = s.client.GetTeam(s.ctx, "lions")
	s.ErrorIs(err, model.ErrTeamNotFound)

	_, err = s.client.DeleteTeam(s.ctx, "tigers")
	s.ErrorIs(err, model.ErrTeamHasPlayers)
	s.Require().ErrorAs(err, &conflict)
	s.Equal(1, conflict.Count)
}

func (s *ClientSuite) TestUploadPlayerImage() {
	s.login()

	players, err := s.client.ListPlayers(s.ctx)
	s.Require().NoError(err)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 32)...)

	updated, err := s.client.UploadPlayerImage(s.ctx, players[0].ID, "jason.png", bytes.NewReader(png))
	s.Require().NoError(err)
	s.Equal("images/"+string(players[0].ID)+"/jason.png", updated.Image)
}

func (s *ClientSuite) TestSiteConfig() {
	s.login()

	title := "Autumn League"
	cfg, err := s.client.UpdateSiteConfig(s.ctx, model.SiteConfigPatch{Title: &title})
	s.Require().NoError(err)
	s.Equal(title, cfg.Title)

	got, err := s.client.GetSiteConfig(s.ctx)
	s.Require().NoError(err)
	s.Equal(title, got.Title)
}

func (s *ClientSuite) TestStreamEvents() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	received := make(chan StreamEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.client.StreamEvents(ctx, func(ev StreamEvent) error {
			received <- ev
			if ev.Name == string(model.EventTeamCreated) {
				return errStop
			}
			return nil
		})
	}()

	s.Equal("connected", (<-received).Name)

	s.login()
	_, err := s.client.CreateTeam(s.ctx, model.Team{Name: "Hawks", Color: "#0a0"})
	s.Require().NoError(err)

	ev := <-received
	s.Equal(string(model.EventTeamCreated), ev.Name)
	s.Contains(ev.Data, `"id":"hawks"`)
	s.ErrorIs(<-done, errStop)
}

var errStop = errors.New("stop")

func TestServerErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":true,"code":"INTERNAL_ERROR","message":"upstream down"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListTeams(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListPlayers(context.Background())
	assert.True(t, IsTransient(err))
}

func TestTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).GetSiteConfig(context.Background())
	assert.True(t, IsTransient(err))
}

func TestCallerCancellationIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := New(srv.URL).ListTeams(ctx)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}
