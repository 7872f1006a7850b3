package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roster/internal/api"
	"github.com/mcoot/roster/internal/cli"
	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/config"
	"github.com/mcoot/roster/internal/factory"
	"github.com/mcoot/roster/internal/model"
)

const adminPassword = "e2e-password"

// cliRunner runs rosterctl in-process against a server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	t.Setenv("ROSTER_TOKEN", "")
	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.runWithToken("", args...)
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := []string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}
	if token != "" {
		fullArgs = append(fullArgs, "--token", token)
	}

	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(fullArgs, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testServer is the real server stack listening on a local port
type testServer struct {
	url      string
	shutdown func()
}

// startTestServer boots the server from environment-style settings, the way cmd/server does
func startTestServer(t *testing.T, dataDir string) *testServer {
	t.Helper()

	env := map[string]string{
		"ROSTER_HOST":           "127.0.0.1",
		"ROSTER_PORT":           "0",
		"ROSTER_STORAGE_DRIVER": config.StorageSQLite,
		"ROSTER_DATABASE_URL":   filepath.Join(dataDir, "roster.db"),
		"ROSTER_BLOB_DRIVER":    "fs",
		"ROSTER_BLOB_ROOT":      filepath.Join(dataDir, "uploads"),
		"ROSTER_ADMIN_PASSWORD": adminPassword,
		"ROSTER_LOG_LEVEL":      "error",
	}
	settings, err := config.Load("", func(key string) string { return env[key] })
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())

	app, err := factory.New(ctx, factory.Config{Logger: logger, Settings: settings})
	require.NoError(t, err)
	app.RunBackground(ctx, settings.Sessions.SweepInterval)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = settings.Server.Host
	serverConfig.Port = settings.Server.Port
	serverConfig.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(app.Handler(nil), serverConfig, logger)

	require.NoError(t, server.Listen())
	go func() {
		if err := server.Serve(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/health")

	return &testServer{
		url: serverURL,
		shutdown: func() {
			app.Hub.Close()
			_ = server.Shutdown(context.Background())
			cancel()
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	httpClient := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := httpClient.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t, t.TempDir())
	defer ts.shutdown()

	runner := newCLIRunner(t, ts.url)

	output, err := runner.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.StorageSQLite, resp.Storage)
}

func TestCLI_LoginAndCreatePlayer(t *testing.T) {
	ts := startTestServer(t, t.TempDir())
	defer ts.shutdown()

	runner := newCLIRunner(t, ts.url)

	_, err := runner.run("login", "--password", "wrong")
	require.ErrorIs(t, err, client.ErrUnauthorized)

	output, err := runner.run("login", "--password", adminPassword)
	require.NoError(t, err, "output: %s", output)

	var login struct {
		Token       string `json:"token"`
		ExpiresInMs int64  `json:"expiresInMs"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &login))
	assert.Equal(t, (24 * time.Hour).Milliseconds(), login.ExpiresInMs)

	_, err = runner.runWithToken("not-a-session", "player", "create",
		"--name", "Sam Carter", "--number", "4", "--team", "tigers", "--position", "Shortstop")
	require.ErrorIs(t, err, client.ErrUnauthorized)

	// Rejected locally before any request is sent
	_, err = runner.run("player", "create",
		"--name", "Sam Carter", "--number", "12", "--team", "tigers", "--position", "Shortstop")
	require.ErrorIs(t, err, model.ErrDuplicateNumber)

	output, err = runner.run("player", "create",
		"--name", "Sam Carter", "--number", "4", "--team", "tigers", "--position", "Shortstop")
	require.NoError(t, err, "output: %s", output)

	var created model.Player
	require.NoError(t, json.Unmarshal([]byte(output), &created))

	output, err = runner.run("player", "get", string(created.ID))
	require.NoError(t, err, "output: %s", output)

	var fetched model.Player
	require.NoError(t, json.Unmarshal([]byte(output), &fetched))
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Number, fetched.Number)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
}

func TestCLI_DataSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()

	ts := startTestServer(t, dataDir)
	runner := newCLIRunner(t, ts.url)

	_, err := runner.run("login", "--password", adminPassword)
	require.NoError(t, err)

	output, err := runner.run("team", "create", "--name", "Hawks", "--color", "#0a0")
	require.NoError(t, err, "output: %s", output)

	output, err = runner.run("config", "update", "--title", "Summer League")
	require.NoError(t, err, "output: %s", output)
	ts.shutdown()

	ts = startTestServer(t, dataDir)
	defer ts.shutdown()
	runner.serverURL = ts.url

	output, err = runner.run("team", "list")
	require.NoError(t, err, "output: %s", output)

	var teams []model.Team
	require.NoError(t, json.Unmarshal([]byte(output), &teams))
	names := make([]string, len(teams))
	for i, team := range teams {
		names[i] = team.Name
	}
	assert.Equal(t, []string{"Eagles", "Hawks", "Tigers"}, names, "seed runs only once")

	output, err = runner.run("config", "get")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "Summer League")

	// Sessions live in memory and do not survive a restart
	_, err = runner.run("session")
	require.ErrorIs(t, err, client.ErrUnauthorized)
}
