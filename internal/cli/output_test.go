package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/model"
)

var (
	tigers = model.Team{ID: "tigers", Name: "Tigers", Color: "#f97316", Description: "Orange and black"}
	eagles = model.Team{ID: "eagles", Name: "Eagles", Color: "#1d4ed8"}

	jason = model.Player{
		ID: "p-1", Name: "Jason Miller", Number: 12, TeamID: "tigers", Position: "Pitcher",
		Image: "images/p-1/photo.png",
		Bio:   "Left-handed starter known for his curveball.",
		Stats: model.PlayerStats{BattingAverage: 0.215, HomeRuns: 2, RBI: 9, GamesPlayed: 24},
	}
	aaron = model.Player{ID: "p-2", Name: "Aaron Diaz", Number: 7, TeamID: "eagles", Position: "Catcher"}
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestOutputGolden(t *testing.T) {
	siteCfg := model.DefaultSiteConfig()
	siteCfg.FeaturedDate = "2026-07-04"

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		format string
		data   any
	}{
		{name: "teams_text", format: "text", data: []model.Team{eagles, tigers}},
		{name: "teams_empty_text", format: "text", data: []model.Team{}},
		{name: "team_text", format: "text", data: &tigers},
		{name: "team_json", format: "json", data: tigers},
		{name: "players_text", format: "text", data: []model.Player{aaron, jason}},
		{name: "player_text", format: "text", data: jason},
		{name: "siteconfig_text", format: "text", data: &siteCfg},
		{name: "session_text", format: "text", data: &response.Session{
			CreatedAt:   created,
			ExpiresAt:   created.Add(24 * time.Hour),
			ExpiresInMs: (23 * time.Hour).Milliseconds(),
		}},
		{name: "health_text", format: "text", data: &response.Health{Status: "ok", Storage: "memory", Subscribers: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewOutput(tt.format, &out, &bytes.Buffer{}).Print(tt.data)
			newGoldie(t).Assert(t, tt.name, out.Bytes())
		})
	}
}

func TestPrintErrorGolden(t *testing.T) {
	validation := &client.APIError{
		Status:  400,
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Errors:  []string{"Player name is required", "Position is required"},
	}
	conflict := &client.APIError{
		Status:  400,
		Code:    "DUPLICATE_NUMBER",
		Message: "Player number 12 already exists in this team",
		Errors:  []string{"Player number 12 already exists in this team"},
	}

	tests := []struct {
		name   string
		format string
		err    error
	}{
		{name: "validation_error_text", format: "text", err: validation},
		{name: "validation_error_json", format: "json", err: validation},
		{name: "conflict_error_text", format: "text", err: conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errOut bytes.Buffer
			NewOutput(tt.format, &bytes.Buffer{}, &errOut).PrintError(tt.err)
			newGoldie(t).Assert(t, tt.name, errOut.Bytes())
		})
	}
}

func TestBattingAverage(t *testing.T) {
	cases := map[float64]string{
		0:     ".000",
		0.3:   ".300",
		0.215: ".215",
		1:     "1.000",
	}
	for avg, want := range cases {
		assert.Equal(t, want, battingAverage(avg), "average %v", avg)
	}
}
