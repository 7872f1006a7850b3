package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type constraint int

const (
	constraintNone constraint = iota
	constraintID
	constraintTeamName
	constraintTeamNumber
	constraintTeamRef
)

// classify identifies which constraint a failed statement tripped.
// The checks in each transaction catch these first; this covers writers racing past them.
func classify(err error) constraint {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			switch {
			case strings.Contains(pgErr.ConstraintName, "name_key"):
				return constraintTeamName
			case strings.Contains(pgErr.ConstraintName, "number"):
				return constraintTeamNumber
			case strings.HasSuffix(pgErr.ConstraintName, "_pkey"):
				return constraintID
			}
		case "23503":
			return constraintTeamRef
		}
		return constraintNone
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: teams.name_key"):
		return constraintTeamName
	case strings.Contains(msg, "UNIQUE constraint failed: players.team_id, players.number"):
		return constraintTeamNumber
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, ".id"):
		return constraintID
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return constraintTeamRef
	}
	return constraintNone
}
