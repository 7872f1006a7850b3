package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/factory"
	"github.com/mcoot/roster/internal/model"
)

type CommandSuite struct {
	suite.Suite
	app       *factory.TestApp
	server    *httptest.Server
	tokenFile string
	ctx       context.Context
	cancel    context.CancelFunc
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandSuite))
}

func (s *CommandSuite) SetupTest() {
	s.T().Setenv("ROSTER_TOKEN", "")
	s.T().Setenv("ROSTER_PASSWORD", "")
	s.T().Setenv("ROSTER_OUTPUT", "")

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
	s.app = factory.NewTestApp()
	_, err := s.app.RosterService.Seed(s.ctx)
	s.Require().NoError(err)
	s.server = httptest.NewServer(s.app.Handler(nil))
	s.tokenFile = filepath.Join(s.T().TempDir(), "token")
}

func (s *CommandSuite) TearDownTest() {
	s.server.Close()
	_ = s.app.Close()
	s.cancel()
}

// run executes rosterctl in-process and returns its stdout
func (s *CommandSuite) run(format string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--server", s.server.URL,
		"--token-file", s.tokenFile,
		"--output", format,
	}, args...))
	err := cmd.ExecuteContext(s.ctx)
	return out.String(), err
}

func (s *CommandSuite) runJSON(result any, args ...string) {
	out, err := s.run("json", args...)
	s.Require().NoError(err, "output: %s", out)
	s.Require().NoError(json.Unmarshal([]byte(out), result), "output: %s", out)
}

func (s *CommandSuite) login() {
	_, err := s.run("json", "login", "--password", factory.TestPassword)
	s.Require().NoError(err)
}

func (s *CommandSuite) TestHealth() {
	var health struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	s.runJSON(&health, "health")
	s.Equal("ok", health.Status)
}

func (s *CommandSuite) TestLoginSessionLogout() {
	var login struct {
		Token       string `json:"token"`
		ExpiresInMs int64  `json:"expiresInMs"`
	}
	s.runJSON(&login, "login", "--password", factory.TestPassword)
	s.NotEmpty(login.Token)

	saved, err := os.ReadFile(s.tokenFile)
	s.Require().NoError(err)
	s.Equal(login.Token, string(saved))

	var session struct {
		ExpiresInMs int64 `json:"expiresInMs"`
	}
	s.runJSON(&session, "session")
	s.Equal((24 * time.Hour).Milliseconds(), session.ExpiresInMs)

	out, err := s.run("text", "logout")
	s.Require().NoError(err)
	s.Equal("Logged out\n", out)
	s.NoFileExists(s.tokenFile)

	_, err = s.run("json", "session")
	s.ErrorIs(err, client.ErrUnauthorized)
}

func (s *CommandSuite) TestLoginWithWrongPassword() {
	_, err := s.run("json", "login", "--password", "nope")
	s.ErrorIs(err, client.ErrUnauthorized)
	s.NoFileExists(s.tokenFile)
}

func (s *CommandSuite) TestLoginPasswordFromEnv() {
	s.T().Setenv("ROSTER_PASSWORD", factory.TestPassword)
	_, err := s.run("json", "login")
	s.Require().NoError(err)
	s.FileExists(s.tokenFile)
}

func (s *CommandSuite) TestWritesRequireLogin() {
	_, err := s.run("json", "team", "create", "--name", "Hawks", "--color", "#0a0")
	s.ErrorIs(err, client.ErrUnauthorized)
}

func (s *CommandSuite) TestTeamLifecycle() {
	s.login()

	var team model.Team
	s.runJSON(&team, "team", "create", "--name", "Hawks", "--color", "#0a0", "--description", "New this season")
	s.Equal(model.TeamID("hawks"), team.ID)

	_, err := s.run("json", "team", "create", "--name", "hawks", "--color", "#fff")
	s.ErrorIs(err, model.ErrDuplicateName)

	var updated model.Team
	s.runJSON(&updated, "team", "update", "hawks", "--color", "#00aa00")
	s.Equal("#00aa00", updated.Color)
	s.Equal("Hawks", updated.Name)
	s.Equal("New this season", updated.Description)

	_, err = s.run("json", "team", "update", "hawks")
	s.ErrorContains(err, "nothing to update")

	out, err := s.run("text", "team", "delete", "hawks")
	s.Require().NoError(err)
	s.Equal("Deleted team Hawks (hawks)\n", out)

	_, err = s.run("json", "team", "get", "hawks")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *CommandSuite) TestDeleteTeamWithPlayersRefused() {
	s.login()

	_, err := s.run("json", "team", "delete", "tigers")
	s.ErrorIs(err, model.ErrTeamHasPlayers)
}

func (s *CommandSuite) TestPlayerLifecycle() {
	s.login()

	_, err := s.run("json", "player", "create",
		"--name", "Sam Carter", "--number", "12", "--team", "tigers", "--position", "Shortstop")
	s.ErrorIs(err, model.ErrDuplicateNumber)

	var created model.Player
	s.runJSON(&created, "player", "create",
		"--name", "Sam Carter", "--number", "4", "--team", "tigers", "--position", "Shortstop",
		"--avg", "0.301", "--games", "10")
	s.Equal(0.301, created.Stats.BattingAverage)

	var updated model.Player
	s.runJSON(&updated, "player", "update", string(created.ID), "--bio", "Fast on the bases")
	s.Equal("Fast on the bases", updated.Bio)
	s.Equal(4, updated.Number)
	s.Equal(created.Stats, updated.Stats)

	out, err := s.run("text", "player", "list", "--team", "tigers")
	s.Require().NoError(err)
	s.Contains(out, "Jason Miller")
	s.Contains(out, "Sam Carter")

	out, err = s.run("text", "player", "delete", string(created.ID))
	s.Require().NoError(err)
	s.Contains(out, "Deleted player Sam Carter")
}

func (s *CommandSuite) TestPlayerValidationListsEveryError() {
	s.login()

	_, err := s.run("json", "player", "create",
		"--name", "X", "--number", "120", "--team", "tigers", "--position", "Pitcher")
	var ve *model.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Len(ve.Errors, 2)
}

func (s *CommandSuite) TestPlayerImageUpload() {
	s.login()

	players, err := s.app.RosterService.ListPlayers(s.ctx)
	s.Require().NoError(err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(s.T().TempDir(), "headshot.png")
	s.Require().NoError(os.WriteFile(path, png, 0o600))

	var player model.Player
	s.runJSON(&player, "player", "image", string(players[0].ID), path)
	s.Contains(player.Image, "headshot.png")
}

func (s *CommandSuite) TestConfigUpdate() {
	s.login()

	_, err := s.run("json", "config", "update", "--start", "2026-11-01")
	var ve *model.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Errors, "Season start date must be before end date")

	var siteCfg model.SiteConfig
	s.runJSON(&siteCfg, "config", "update", "--title", "Spring League", "--accent", "#123")
	s.Equal("Spring League", siteCfg.Title)
	s.Equal("#123", siteCfg.Theme.Accent)
	s.Equal(model.DefaultSiteConfig().Theme.Primary, siteCfg.Theme.Primary)

	out, err := s.run("text", "config", "get")
	s.Require().NoError(err)
	s.Contains(out, "Title: Spring League")
}

func (s *CommandSuite) TestWatchPrintsChanges() {
	var out bytes.Buffer
	done := make(chan error, 1)

	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", s.server.URL, "--token-file", s.tokenFile, "--output", "json", "watch", "--limit", "1"})
	go func() { done <- cmd.ExecuteContext(s.ctx) }()

	s.Require().Eventually(func() bool {
		return s.app.Hub.ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, err := s.app.RosterService.CreateTeam(s.ctx, model.Team{Name: "Hawks", Color: "#0a0"})
	s.Require().NoError(err)

	select {
	case err := <-done:
		s.Require().NoError(err)
	case <-s.ctx.Done():
		s.FailNow("watch did not stop after the first change")
	}

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	s.Require().Len(lines, 2)

	var change struct {
		Message string          `json:"message"`
		Payload json.RawMessage `json:"payload"`
	}
	s.Require().NoError(json.Unmarshal(lines[1], &change))
	s.Equal(string(model.EventTeamCreated), change.Message)
	s.Contains(string(change.Payload), `"hawks"`)
}

func (s *CommandSuite) TestRejectsUnknownOutputFormat() {
	_, err := s.run("yaml", "health")
	s.ErrorContains(err, `unknown output format "yaml"`)
}

func (s *CommandSuite) TestHealthWaitGivesUpOnDeadServer() {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", dead.URL, "--token-file", s.tokenFile, "health", "--wait", "300ms"})

	err := cmd.ExecuteContext(s.ctx)
	s.ErrorContains(err, "server not healthy after 300ms")
	s.True(client.IsTransient(err))
}
