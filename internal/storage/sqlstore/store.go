// Package sqlstore persists the roster in a SQL database.
// SQLite (via modernc.org/sqlite) and Postgres (via pgx) share one schema and query set.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register sqlite as a database/sql driver

	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
)

// Dialect selects the SQL database
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Config holds SQL connection settings
type Config struct {
	Dialect Dialect
	// DSN is a file path or ":memory:" for SQLite, a connection URL for Postgres
	DSN          string
	MaxOpenConns int
}

func (d Dialect) driver() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unknown sql dialect: %q", d)
	}
}

const timeLayout = time.RFC3339Nano

const (
	teamColumns   = "id, name, color, description"
	playerColumns = "id, name, number, team_id, position, image, bio, batting_average, home_runs, rbi, games_played, created_at, updated_at"
)

// Store is a database/sql implementation of the storage interface
type Store struct {
	db      *sql.DB
	dialect Dialect
	clock   clock.Clock
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// Open connects to the database and applies the schema
func Open(ctx context.Context, cfg Config, clk clock.Clock) (*Store, error) {
	driver, err := cfg.Dialect.driver()
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if cfg.Dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}

	if cfg.Dialect == SQLite {
		// One connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect, err)
	}

	s := &Store{db: db, dialect: cfg.Dialect, clock: clk}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// sqlitePragmas are applied by the driver to every connection it opens
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// sqliteDSN appends the connection pragmas to a SQLite DSN
func sqliteDSN(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying sql.DB for test hooks
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanTeam(row scanner) (model.Team, error) {
	var t model.Team
	var id string
	err := row.Scan(&id, &t.Name, &t.Color, &t.Description)
	t.ID = model.TeamID(id)
	return t, err
}

func scanPlayer(row scanner) (model.Player, error) {
	var (
		p                    model.Player
		id, teamID           string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &p.Name, &p.Number, &teamID, &p.Position, &p.Image, &p.Bio,
		&p.Stats.BattingAverage, &p.Stats.HomeRuns, &p.Stats.RBI, &p.Stats.GamesPlayed,
		&createdAt, &updatedAt)
	if err != nil {
		return p, err
	}
	p.ID = model.PlayerID(id)
	p.TeamID = model.TeamID(teamID)
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) getTeam(ctx context.Context, q queryer, id model.TeamID) (*model.Team, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+teamColumns+` FROM teams WHERE id = ?`), string(id))
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *Store) getPlayer(ctx context.Context, q queryer, id model.PlayerID) (*model.Player, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+playerColumns+` FROM players WHERE id = ?`), string(id))
	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Team operations

func (s *Store) ListTeams(ctx context.Context) ([]model.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	teams := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortTeams(teams)
	return teams, nil
}

func (s *Store) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	return s.getTeam(ctx, s.db, id)
}

func (s *Store) CreateTeam(ctx context.Context, team *model.Team) error {
	nameKey := model.NameKey(team.Name)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := exists(ctx, tx, s.rebind(`SELECT 1 FROM teams WHERE id = ?`), string(team.ID))
		if err != nil {
			return err
		}
		if taken {
			return storage.ErrDuplicateID
		}
		taken, err = exists(ctx, tx, s.rebind(`SELECT 1 FROM teams WHERE name_key = ?`), nameKey)
		if err != nil {
			return err
		}
		if taken {
			return model.NewDuplicateNameError(team.Name)
		}

		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO teams (id, name, name_key, color, description) VALUES (?, ?, ?, ?, ?)`),
			string(team.ID), team.Name, nameKey, team.Color, team.Description)
		return err
	})
	return s.translateTeam(err, team)
}

func (s *Store) UpdateTeam(ctx context.Context, team *model.Team) error {
	nameKey := model.NameKey(team.Name)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getTeam(ctx, tx, team.ID); err != nil {
			return err
		}
		taken, err := exists(ctx, tx, s.rebind(`SELECT 1 FROM teams WHERE name_key = ? AND id <> ?`), nameKey, string(team.ID))
		if err != nil {
			return err
		}
		if taken {
			return model.NewDuplicateNameError(team.Name)
		}

		_, err = tx.ExecContext(ctx,
			s.rebind(`UPDATE teams SET name = ?, name_key = ?, color = ?, description = ? WHERE id = ?`),
			team.Name, nameKey, team.Color, team.Description, string(team.ID))
		return err
	})
	return s.translateTeam(err, team)
}

func (s *Store) DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	var deleted *model.Team
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		team, err := s.getTeam(ctx, tx, id)
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM players WHERE team_id = ?`), string(id)).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return model.NewTeamHasPlayersError(id, count)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM teams WHERE id = ?`), string(id)); err != nil {
			return err
		}
		deleted = team
		return nil
	})
	if err != nil {
		if classify(err) == constraintTeamRef {
			return nil, model.NewTeamHasPlayersError(id, 1)
		}
		return nil, err
	}
	return deleted, nil
}

func (s *Store) translateTeam(err error, team *model.Team) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case constraintTeamName:
		return model.NewDuplicateNameError(team.Name)
	case constraintID:
		return storage.ErrDuplicateID
	}
	return err
}

// Player operations

func (s *Store) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.listPlayers(ctx, `SELECT `+playerColumns+` FROM players`)
}

func (s *Store) ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error) {
	return s.listPlayers(ctx, s.rebind(`SELECT `+playerColumns+` FROM players WHERE team_id = ?`), string(teamID))
}

func (s *Store) listPlayers(ctx context.Context, query string, args ...any) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortPlayers(players)
	return players, nil
}

func (s *Store) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.getPlayer(ctx, s.db, id)
}

func (s *Store) CreatePlayer(ctx context.Context, player *model.Player) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := exists(ctx, tx, s.rebind(`SELECT 1 FROM players WHERE id = ?`), string(player.ID))
		if err != nil {
			return err
		}
		if taken {
			return storage.ErrDuplicateID
		}
		if err := s.checkPlayer(ctx, tx, player); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		player.CreatedAt = now
		player.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			string(player.ID), player.Name, player.Number, string(player.TeamID), player.Position,
			player.Image, player.Bio, player.Stats.BattingAverage, player.Stats.HomeRuns,
			player.Stats.RBI, player.Stats.GamesPlayed,
			player.CreatedAt.Format(timeLayout), player.UpdatedAt.Format(timeLayout))
		return err
	})
	return s.translatePlayer(err, player)
}

func (s *Store) UpdatePlayer(ctx context.Context, player *model.Player) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.getPlayer(ctx, tx, player.ID)
		if err != nil {
			return err
		}
		if err := s.checkPlayer(ctx, tx, player); err != nil {
			return err
		}

		player.CreatedAt = existing.CreatedAt
		player.UpdatedAt = s.clock.Now().UTC()

		_, err = tx.ExecContext(ctx,
			s.rebind(`UPDATE players SET name = ?, number = ?, team_id = ?, position = ?, image = ?, bio = ?,
				batting_average = ?, home_runs = ?, rbi = ?, games_played = ?, updated_at = ?
				WHERE id = ?`),
			player.Name, player.Number, string(player.TeamID), player.Position, player.Image, player.Bio,
			player.Stats.BattingAverage, player.Stats.HomeRuns, player.Stats.RBI, player.Stats.GamesPlayed,
			player.UpdatedAt.Format(timeLayout), string(player.ID))
		return err
	})
	return s.translatePlayer(err, player)
}

func (s *Store) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var deleted *model.Player
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		player, err := s.getPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM players WHERE id = ?`), string(id)); err != nil {
			return err
		}
		deleted = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *Store) checkPlayer(ctx context.Context, tx *sql.Tx, player *model.Player) error {
	ok, err := exists(ctx, tx, s.rebind(`SELECT 1 FROM teams WHERE id = ?`), string(player.TeamID))
	if err != nil {
		return err
	}
	if !ok {
		return model.NewUnknownTeamError(player.TeamID)
	}

	taken, err := exists(ctx, tx,
		s.rebind(`SELECT 1 FROM players WHERE team_id = ? AND number = ? AND id <> ?`),
		string(player.TeamID), player.Number, string(player.ID))
	if err != nil {
		return err
	}
	if taken {
		return model.NewDuplicateNumberError(player.TeamID, player.Number)
	}
	return nil
}

func (s *Store) translatePlayer(err error, player *model.Player) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case constraintTeamNumber:
		return model.NewDuplicateNumberError(player.TeamID, player.Number)
	case constraintTeamRef:
		return model.NewUnknownTeamError(player.TeamID)
	case constraintID:
		return storage.ErrDuplicateID
	}
	return err
}

// Site configuration

const siteConfigRow = 1

func (s *Store) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM site_config WHERE id = ?`), siteConfigRow).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		def := model.DefaultSiteConfig()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg model.SiteConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) SaveSiteConfig(ctx context.Context, cfg *model.SiteConfig) error {
	cfg.UpdatedAt = s.clock.Now().UTC()
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO site_config (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`),
		siteConfigRow, string(data), cfg.UpdatedAt.Format(timeLayout))
	return err
}
