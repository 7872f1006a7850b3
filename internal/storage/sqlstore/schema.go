package sqlstore

// schema is applied on open. Statements are portable between SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		name_key    TEXT NOT NULL UNIQUE,
		color       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		number          INTEGER NOT NULL,
		team_id         TEXT NOT NULL REFERENCES teams(id) ON DELETE RESTRICT,
		position        TEXT NOT NULL,
		image           TEXT NOT NULL DEFAULT '',
		bio             TEXT NOT NULL DEFAULT '',
		batting_average DOUBLE PRECISION NOT NULL DEFAULT 0,
		home_runs       INTEGER NOT NULL DEFAULT 0,
		rbi             INTEGER NOT NULL DEFAULT 0,
		games_played    INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE (team_id, number)
	)`,
	`CREATE INDEX IF NOT EXISTS players_team_id_idx ON players (team_id)`,
	`CREATE TABLE IF NOT EXISTS site_config (
		id         INTEGER PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}
