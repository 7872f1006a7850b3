package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/roster/internal/model"
)

var seedTeams = []model.Team{
	{Name: "Tigers", Color: "#f97316", Description: "Founded in 1998, the Tigers play their home games at Riverside Park."},
	{Name: "Eagles", Color: "#1d4ed8", Description: "The Eagles joined the league in 2004 and won the 2019 championship."},
}

var seedPlayers = []struct {
	team   string
	player model.Player
}{
	{
		team: "Tigers",
		player: model.Player{
			Name:     "Jason Miller",
			Number:   12,
			Position: "Pitcher",
			Bio:      "Left-handed starter known for his curveball.",
			Stats:    model.PlayerStats{BattingAverage: 0.215, HomeRuns: 2, RBI: 9, GamesPlayed: 24},
		},
	},
}

// Seed loads sample teams and players when the store has no teams.
// It reports whether anything was written.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	existing, err := s.storage.ListTeams(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	ids := make(map[string]model.TeamID, len(seedTeams))
	for _, t := range seedTeams {
		created, err := s.CreateTeam(ctx, t)
		if err != nil {
			return false, fmt.Errorf("seed team %s: %w", t.Name, err)
		}
		ids[t.Name] = created.ID
	}

	for _, sp := range seedPlayers {
		p := sp.player
		p.TeamID = ids[sp.team]
		if _, err := s.CreatePlayer(ctx, p); err != nil {
			return false, fmt.Errorf("seed player %s: %w", p.Name, err)
		}
	}

	s.logger.Info("seed data loaded",
		slog.Int("teams", len(seedTeams)),
		slog.Int("players", len(seedPlayers)))
	return true, nil
}
