package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/dependencies/mocks"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
	"github.com/mcoot/roster/internal/storage/storagetest"
)

type SQLiteSuite struct {
	storagetest.Suite
}

func TestSQLiteSuite(t *testing.T) {
	s := &SQLiteSuite{}
	s.NewStorage = func(clk *mocks.MockClock) storage.Storage {
		store, err := Open(context.Background(), Config{Dialect: SQLite, DSN: ":memory:"}, clk)
		require.NoError(s.T(), err)
		return store
	}
	suite.Run(t, s)
}

func (s *SQLiteSuite) TestForeignKeyBackstop() {
	store := s.Store.(*Store)
	_, err := store.DB().ExecContext(s.Ctx,
		`INSERT INTO players (`+playerColumns+`) VALUES ('p1', 'Ghost', 1, 'nope', 'Pitcher', '', '', 0, 0, 0, 0, 'x', 'x')`)
	s.Require().Error(err)
	s.Equal(constraintTeamRef, classify(err))
}

func (s *SQLiteSuite) TestSiteConfigSaveTwiceUpserts() {
	cfg := model.DefaultSiteConfig()
	s.Require().NoError(s.Store.SaveSiteConfig(s.Ctx, &cfg))

	cfg.Title = "Second"
	s.Require().NoError(s.Store.SaveSiteConfig(s.Ctx, &cfg))

	var rows int
	s.Require().NoError(s.Store.(*Store).DB().QueryRowContext(s.Ctx, `SELECT COUNT(*) FROM site_config`).Scan(&rows))
	s.Equal(1, rows)

	got, err := s.Store.GetSiteConfig(s.Ctx)
	s.Require().NoError(err)
	s.Equal("Second", got.Title)
}

func TestPostgresSuite(t *testing.T) {
	dsn := os.Getenv("ROSTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ROSTER_TEST_POSTGRES_DSN not set")
	}

	s := &storagetest.Suite{}
	s.NewStorage = func(clk *mocks.MockClock) storage.Storage {
		ctx := context.Background()
		store, err := Open(ctx, Config{Dialect: Postgres, DSN: dsn}, clk)
		require.NoError(s.T(), err)
		for _, table := range []string{"players", "teams", "site_config"} {
			_, err := store.DB().ExecContext(ctx, "DELETE FROM "+table)
			require.NoError(s.T(), err)
		}
		return store
	}
	suite.Run(t, s)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	assert.Equal(t, "SELECT 1 FROM players WHERE team_id = $1 AND number = $2",
		pg.rebind("SELECT 1 FROM players WHERE team_id = ? AND number = ?"))

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestClassifyPostgresErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want constraint
	}{
		{"team name", &pgconn.PgError{Code: "23505", ConstraintName: "teams_name_key_key"}, constraintTeamName},
		{"team number", &pgconn.PgError{Code: "23505", ConstraintName: "players_team_id_number_key"}, constraintTeamNumber},
		{"primary key", &pgconn.PgError{Code: "23505", ConstraintName: "players_pkey"}, constraintID},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "players_team_id_fkey"}, constraintTeamRef},
		{"other", &pgconn.PgError{Code: "42P01"}, constraintNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN(":memory:"))
	assert.Equal(t, "roster.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("roster.db?mode=rwc"))
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Dialect: SQLite, DSN: filepath.Join(t.TempDir(), "roster.db")}, mocks.NewMockClock(time.Now()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// No idle connections, so every query runs on a freshly opened one
	store.DB().SetMaxIdleConns(0)
	for range 3 {
		var enabled int
		require.NoError(t, store.DB().QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}
}

func TestOpenUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: "oracle"}, nil)
	assert.Error(t, err)
}
