package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/config"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/testutil"
)

func testSettings() *config.Config {
	cfg := config.Default()
	cfg.Blobs.Driver = "memory"
	cfg.Server.Metrics = false
	cfg.Auth.Password = TestPassword
	return &cfg
}

func TestNewSeedsMemoryStore(t *testing.T) {
	app, err := New(t.Context(), Config{Settings: testSettings(), Logger: testutil.NopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	teams, err := app.RosterService.ListTeams(t.Context())
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Equal(t, config.StorageMemory, app.StorageDriver)
	assert.Nil(t, app.Metrics)
}

func TestNewSQLite(t *testing.T) {
	settings := testSettings()
	settings.Storage.Driver = config.StorageSQLite
	settings.Storage.DSN = ":memory:"
	settings.Server.Metrics = true

	app, err := New(t.Context(), Config{Settings: settings})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	players, err := app.RosterService.ListPlayers(t.Context())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Jason Miller", players[0].Name)
	assert.NotNil(t, app.Metrics)
}

func TestNewRedisStorageAndSessions(t *testing.T) {
	mini := miniredis.RunT(t)

	settings := testSettings()
	settings.Storage.Driver = config.StorageRedis
	settings.Storage.RedisURL = "redis://" + mini.Addr()
	settings.Sessions.Registry = config.RegistryRedis

	app, err := New(t.Context(), Config{Settings: settings})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	session, err := app.AuthService.Authenticate(t.Context(), TestPassword)
	require.NoError(t, err)
	assert.True(t, mini.Exists("roster:session:"+session.Token))
	assert.True(t, mini.Exists("roster:team:tigers"))
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	settings := testSettings()
	settings.Storage.Driver = "cassandra"

	_, err := New(t.Context(), Config{Settings: settings})
	assert.Error(t, err)
}

func TestNewFailsWhenNATSUnreachable(t *testing.T) {
	settings := testSettings()
	settings.Events.NATSURL = "nats://127.0.0.1:1"

	_, err := New(t.Context(), Config{Settings: settings})
	assert.ErrorContains(t, err, "connect nats")
}

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	_, err := s.app.RosterService.Seed(s.ctx)
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) TestLoginCreateAndDeleteFlow() {
	_, err := s.app.AuthService.Authenticate(s.ctx, "wrong")
	s.Error(err)

	session, err := s.app.AuthService.Authenticate(s.ctx, TestPassword)
	s.Require().NoError(err)
	_, err = s.app.AuthService.Verify(s.ctx, session.Token)
	s.Require().NoError(err)

	team, err := s.app.RosterService.CreateTeam(s.ctx, model.Team{Name: "Hawks", Color: "#0f0"})
	s.Require().NoError(err)
	s.Equal(model.TeamID("hawks"), team.ID)

	s.app.MockIDs.Queue("player-hawk-1")
	player, err := s.app.RosterService.CreatePlayer(s.ctx, model.Player{
		Name: "Ana Ruiz", Number: 7, TeamID: team.ID, Position: "Catcher",
	})
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-hawk-1"), player.ID)
	s.Equal(s.app.MockClock.Now().UTC(), player.CreatedAt)

	_, err = s.app.RosterService.DeleteTeam(s.ctx, team.ID)
	s.ErrorIs(err, model.ErrTeamHasPlayers)

	_, err = s.app.RosterService.DeletePlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	_, err = s.app.RosterService.DeleteTeam(s.ctx, team.ID)
	s.NoError(err)
}

func (s *IntegrationSuite) TestSessionExpiresWithClock() {
	session, err := s.app.AuthService.Authenticate(s.ctx, TestPassword)
	s.Require().NoError(err)

	s.app.MockClock.Advance(s.app.AuthService.SessionDuration() + 1)

	_, err = s.app.AuthService.Verify(s.ctx, session.Token)
	s.Error(err)
}
