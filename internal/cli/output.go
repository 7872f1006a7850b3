package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	var apiErr *client.APIError
	isAPIErr := errors.As(err, &apiErr)

	if o.format == OutputJSON {
		body := map[string]any{"message": err.Error()}
		if isAPIErr {
			body["code"] = apiErr.Code
			if len(apiErr.Errors) > 0 {
				body["errors"] = apiErr.Errors
			}
		}
		data, _ := json.Marshal(map[string]any{"error": body})
		fmt.Fprintln(o.errOut, string(data))
		return
	}

	if isAPIErr {
		fmt.Fprintf(o.errOut, "Error: %s\n", apiErr.String())
		return
	}
	fmt.Fprintf(o.errOut, "Error: %s\n", err)
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.out, string(data))
	} else {
		fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case []model.Team:
		o.printTeams(v)
	case *model.Team:
		o.printTeam(*v)
	case model.Team:
		o.printTeam(v)
	case []model.Player:
		o.printPlayers(v)
	case *model.Player:
		o.printPlayer(*v)
	case model.Player:
		o.printPlayer(v)
	case *model.SiteConfig:
		o.printSiteConfig(*v)
	case model.SiteConfig:
		o.printSiteConfig(v)
	case *response.Login:
		o.printLogin(*v)
	case *response.Session:
		o.printSession(*v)
	case *response.Health:
		o.printHealth(*v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printTeams(teams []model.Team) {
	if len(teams) == 0 {
		fmt.Fprintln(o.out, "No teams")
		return
	}
	tw := tabwriter.NewWriter(o.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range teams {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	_ = tw.Flush()
}

func (o *Output) printTeam(t model.Team) {
	fmt.Fprintf(o.out, "Team: %s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(o.out, "Color: %s\n", t.Color)
	if t.Description != "" {
		fmt.Fprintf(o.out, "Description: %s\n", t.Description)
	}
}

func (o *Output) printPlayers(players []model.Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.out, "No players")
		return
	}
	tw := tabwriter.NewWriter(o.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t#\tNAME\tTEAM\tPOSITION")
	for _, p := range players {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", p.ID, p.Number, p.Name, p.TeamID, p.Position)
	}
	_ = tw.Flush()
}

func (o *Output) printPlayer(p model.Player) {
	fmt.Fprintf(o.out, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.out, "Number: %d\n", p.Number)
	fmt.Fprintf(o.out, "Team: %s\n", p.TeamID)
	fmt.Fprintf(o.out, "Position: %s\n", p.Position)
	fmt.Fprintf(o.out, "Stats: %s AVG, %d HR, %d RBI, %d G\n",
		battingAverage(p.Stats.BattingAverage), p.Stats.HomeRuns, p.Stats.RBI, p.Stats.GamesPlayed)
	if p.Image != "" {
		fmt.Fprintf(o.out, "Image: %s\n", p.Image)
	}
	if p.Bio != "" {
		fmt.Fprintf(o.out, "Bio: %s\n", p.Bio)
	}
}

// battingAverage formats an average the way a scoreboard does, e.g. .215
func battingAverage(avg float64) string {
	return strings.TrimPrefix(fmt.Sprintf("%.3f", avg), "0")
}

func (o *Output) printSiteConfig(c model.SiteConfig) {
	fmt.Fprintf(o.out, "Title: %s\n", c.Title)
	if c.Description != "" {
		fmt.Fprintf(o.out, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(o.out, "Theme: primary %s, secondary %s, accent %s\n",
		c.Theme.Primary, c.Theme.Secondary, c.Theme.Accent)
	fmt.Fprintf(o.out, "Season: %d (%s to %s)\n", c.Season.Year, c.Season.StartDate, c.Season.EndDate)
	if c.FeaturedDate != "" {
		fmt.Fprintf(o.out, "Featured: %s\n", c.FeaturedDate)
	}
}

func (o *Output) printLogin(l response.Login) {
	fmt.Fprintln(o.out, "Logged in")
	fmt.Fprintf(o.out, "Token: %s\n", l.Token)
	fmt.Fprintf(o.out, "Expires: %s\n", l.ExpiresAt.UTC().Format(time.RFC3339))
}

func (o *Output) printSession(s response.Session) {
	remaining := time.Duration(s.ExpiresInMs) * time.Millisecond
	fmt.Fprintf(o.out, "Created: %s\n", s.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(o.out, "Expires: %s (in %s)\n", s.ExpiresAt.UTC().Format(time.RFC3339), remaining)
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.out, "Status: %s\n", h.Status)
	fmt.Fprintf(o.out, "Storage: %s\n", h.Storage)
	fmt.Fprintf(o.out, "Subscribers: %d\n", h.Subscribers)
}
