package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, RegistryMemory, cfg.Sessions.Registry)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.True(t, cfg.Seed)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load("testdata/roster.yaml", env(nil))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout, "unset keys keep their defaults")
	assert.Equal(t, []string{"https://roster.example.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "file:roster.db", cfg.Storage.DSN)
	assert.Equal(t, 12*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "roster-images", cfg.Blobs.S3.Bucket)
	assert.False(t, cfg.Seed)
	assert.True(t, cfg.UsesRedis())
}

func TestEnvOverridesFile(t *testing.T) {
	cfg, err := Load("testdata/roster.yaml", env(map[string]string{
		"ROSTER_PORT":           "7000",
		"ROSTER_STORAGE_DRIVER": "postgres",
		"ROSTER_DATABASE_URL":   "postgres://roster@localhost/roster",
		"ROSTER_CORS_ORIGINS":   "https://a.example, https://b.example",
		"ROSTER_SESSION_TTL":    "1h",
		"ROSTER_SEED":           "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://roster@localhost/roster", cfg.Storage.DSN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Sessions.TTL)
	assert.True(t, cfg.Seed)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load("", env(map[string]string{
		"ROSTER_PORT":        "eighty",
		"ROSTER_SESSION_TTL": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROSTER_PORT")
	assert.Contains(t, err.Error(), "ROSTER_SESSION_TTL")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = StorageSQLite
	cfg.Sessions.Registry = "etcd"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a dsn")
	assert.Contains(t, err.Error(), `unknown session registry "etcd"`)
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdminPasswordHash(t *testing.T) {
	t.Run("none configured", func(t *testing.T) {
		cfg := Default()
		hash, err := cfg.AdminPasswordHash()
		require.NoError(t, err)
		assert.Empty(t, hash)
	})

	t.Run("plain password is hashed", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.Password = "letmein"
		hash, err := cfg.AdminPasswordHash()
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("letmein")))
	})

	t.Run("hash wins over password", func(t *testing.T) {
		want, err := bcrypt.GenerateFromPassword([]byte("other"), bcrypt.MinCost)
		require.NoError(t, err)

		cfg := Default()
		cfg.Auth.Password = "letmein"
		cfg.Auth.PasswordHash = string(want)
		hash, err := cfg.AdminPasswordHash()
		require.NoError(t, err)
		assert.Equal(t, string(want), hash)
	})

	t.Run("malformed hash", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.PasswordHash = "not-a-hash"
		_, err := cfg.AdminPasswordHash()
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
