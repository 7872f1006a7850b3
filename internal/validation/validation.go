// Package validation holds the rule set shared by the server and the client cache.
// Every function is pure: invalid input is reported in the Result, never as a Go error or panic.
package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/roster/internal/model"
)

// Field limits
const (
	TeamNameMin        = 2
	TeamNameMax        = 30
	TeamDescriptionMax = 500

	PlayerNameMin = 2
	PlayerNameMax = 50
	NumberMin     = 1
	NumberMax     = 99
	PositionMax   = 100
	BioMax        = 2000

	TitleMax             = 100
	SiteDescriptionMax   = 500
	MinSeasonYear        = 2020
	ImagePathPrefix      = "images/"
	imagePathSlashPrefix = "/images/"
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Result is the outcome of validating one candidate record
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	conflict *model.ConflictError
}

// Conflict returns the uniqueness or reference conflict found, if any
func (r Result) Conflict() *model.ConflictError {
	return r.conflict
}

// Err converts the result into the error taxonomy.
// A result whose only error is a conflict returns the *model.ConflictError;
// anything else invalid returns a *model.ValidationError with every message.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	if r.conflict != nil && len(r.Errors) == 1 {
		return r.conflict
	}
	return model.NewValidationError(append([]string(nil), r.Errors...)...)
}

type builder struct {
	errors   []string
	warnings []string
	conflict *model.ConflictError
}

func (b *builder) fail(format string, args ...any) {
	b.errors = append(b.errors, fmt.Sprintf(format, args...))
}

func (b *builder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *builder) conflicts(c *model.ConflictError) {
	b.conflict = c
	b.errors = append(b.errors, c.Error())
}

func (b *builder) result() Result {
	return Result{
		Valid:    len(b.errors) == 0,
		Errors:   b.errors,
		Warnings: b.warnings,
		conflict: b.conflict,
	}
}

// nameLength counts characters the way a reader would, after trimming and NFC normalisation
func nameLength(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(strings.TrimSpace(s)))
}

func (b *builder) checkLength(field, value string, min, max int) {
	n := nameLength(value)
	switch {
	case n == 0 && min > 0:
		b.fail("%s is required", field)
	case n < min || n > max:
		b.fail("%s must be between %d and %d characters", field, min, max)
	}
}

func (b *builder) checkMax(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		b.fail("%s must be at most %d characters", field, max)
	}
}

func (b *builder) checkColor(field, value string) {
	if strings.TrimSpace(value) == "" {
		b.fail("%s is required", field)
		return
	}
	if !colorPattern.MatchString(value) {
		b.fail("%s must be a hex color like #RGB or #RRGGBB", field)
	}
}

// Team validates a team against its peers.
// Peers may include the candidate itself; records sharing its ID are skipped.
func Team(candidate model.Team, peers []model.Team) Result {
	var b builder

	b.checkLength("Team name", candidate.Name, TeamNameMin, TeamNameMax)
	b.checkColor("Team color", candidate.Color)
	b.checkMax("Team description", candidate.Description, TeamDescriptionMax)
	if strings.TrimSpace(candidate.Description) == "" {
		b.warn("Team has no description")
	}

	if key := model.NameKey(candidate.Name); key != "" {
		for _, p := range peers {
			if p.ID != candidate.ID && model.NameKey(p.Name) == key {
				b.conflicts(model.NewDuplicateNameError(strings.TrimSpace(candidate.Name)))
				break
			}
		}
	}

	return b.result()
}

// PlayerPeers is the context a player is validated against
type PlayerPeers struct {
	// Players is searched for jersey number clashes
	Players []model.Player
	// Teams, when non-nil, must contain the player's team
	Teams []model.Team
}

// Player validates a player against its peers.
// Peers may include the candidate itself; records sharing its ID are skipped.
func Player(candidate model.Player, peers PlayerPeers) Result {
	var b builder

	b.checkLength("Player name", candidate.Name, PlayerNameMin, PlayerNameMax)

	if candidate.Number < NumberMin || candidate.Number > NumberMax {
		b.fail("Player number must be between %d and %d", NumberMin, NumberMax)
	}

	if strings.TrimSpace(string(candidate.TeamID)) == "" {
		b.fail("Team is required")
	} else if peers.Teams != nil && !hasTeam(peers.Teams, candidate.TeamID) {
		b.fail("Team %q does not exist", candidate.TeamID)
	}

	if strings.TrimSpace(candidate.Position) == "" {
		b.fail("Position is required")
	} else {
		b.checkMax("Position", candidate.Position, PositionMax)
	}

	checkStats(&b, candidate.Stats)
	b.checkMax("Bio", candidate.Bio, BioMax)

	if candidate.Image == "" {
		b.warn("Player has no image")
	} else if !validImageRef(candidate.Image) {
		b.fail("Image must be an http(s) URL or an uploaded image path")
	}

	if candidate.Number >= NumberMin && candidate.Number <= NumberMax {
		for _, p := range peers.Players {
			if p.ID != candidate.ID && p.TeamID == candidate.TeamID && p.Number == candidate.Number {
				b.conflicts(model.NewDuplicateNumberError(candidate.TeamID, candidate.Number))
				break
			}
		}
	}

	return b.result()
}

func checkStats(b *builder, s model.PlayerStats) {
	if math.IsNaN(s.BattingAverage) || s.BattingAverage < 0 || s.BattingAverage > 1 {
		b.fail("Batting average must be between 0 and 1")
	}
	if s.HomeRuns < 0 {
		b.fail("Home runs cannot be negative")
	}
	if s.RBI < 0 {
		b.fail("RBI cannot be negative")
	}
	if s.GamesPlayed < 0 {
		b.fail("Games played cannot be negative")
	}
	if s.GamesPlayed == 0 && (s.HomeRuns > 0 || s.RBI > 0) {
		b.warn("Player has counting stats but no games played")
	}
}

func hasTeam(teams []model.Team, id model.TeamID) bool {
	for _, t := range teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

func validImageRef(ref string) bool {
	if strings.HasPrefix(ref, ImagePathPrefix) || strings.HasPrefix(ref, imagePathSlashPrefix) {
		return !strings.Contains(ref, "..")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SiteConfig validates the site configuration
func SiteConfig(candidate model.SiteConfig) Result {
	var b builder

	b.checkLength("Title", candidate.Title, 1, TitleMax)
	b.checkMax("Description", candidate.Description, SiteDescriptionMax)

	b.checkColor("Primary color", candidate.Theme.Primary)
	b.checkColor("Secondary color", candidate.Theme.Secondary)
	b.checkColor("Accent color", candidate.Theme.Accent)

	season := candidate.Season
	if season.Year < MinSeasonYear {
		b.fail("Season year must be %d or later", MinSeasonYear)
	}

	start, startOK := parseDate(&b, "Season start date", season.StartDate)
	end, endOK := parseDate(&b, "Season end date", season.EndDate)
	if startOK && endOK {
		if !start.Before(end) {
			b.fail("Season start date must be before end date")
		} else if season.Year >= MinSeasonYear && start.Year() != season.Year {
			b.warn("Season year %d does not match start date %s", season.Year, season.StartDate)
		}
	}

	if candidate.FeaturedDate != "" {
		featured, err := time.Parse(model.DateLayout, candidate.FeaturedDate)
		if err != nil {
			b.fail("Featured date must be a date in YYYY-MM-DD format")
		} else if startOK && endOK && (featured.Before(start) || featured.After(end)) {
			b.warn("Featured date %s is outside the season", candidate.FeaturedDate)
		}
	}

	return b.result()
}

func parseDate(b *builder, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		b.fail("%s is required", field)
		return time.Time{}, false
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		b.fail("%s must be a date in YYYY-MM-DD format", field)
		return time.Time{}, false
	}
	return t, true
}

// TeamDeletion checks that no player still references the team
func TeamDeletion(teamID model.TeamID, players []model.Player) Result {
	var b builder

	count := 0
	for _, p := range players {
		if p.TeamID == teamID {
			count++
		}
	}
	if count > 0 {
		b.conflicts(model.NewTeamHasPlayersError(teamID, count))
	}

	return b.result()
}
