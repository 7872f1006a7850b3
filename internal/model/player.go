package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// PlayerStats holds the season statistics shown on the roster
type PlayerStats struct {
	BattingAverage float64 `json:"battingAverage"`
	HomeRuns       int     `json:"homeRuns"`
	RBI            int     `json:"rbi"`
	GamesPlayed    int     `json:"gamesPlayed"`
}

// Player represents a rostered player
// All fields are values, so copying a Player copies everything
type Player struct {
	ID        PlayerID    `json:"id"`
	Name      string      `json:"name"`
	Number    int         `json:"number"`
	TeamID    TeamID      `json:"teamId"`
	Position  string      `json:"position"`
	Image     string      `json:"image,omitempty"`
	Bio       string      `json:"bio,omitempty"`
	Stats     PlayerStats `json:"stats"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// StatsPatch holds optional stat updates
type StatsPatch struct {
	BattingAverage *float64 `json:"battingAverage,omitempty"`
	HomeRuns       *int     `json:"homeRuns,omitempty"`
	RBI            *int     `json:"rbi,omitempty"`
	GamesPlayed    *int     `json:"gamesPlayed,omitempty"`
}

// PlayerPatch holds optional player updates. Nil fields are left unchanged.
type PlayerPatch struct {
	Name     *string     `json:"name,omitempty"`
	Number   *int        `json:"number,omitempty"`
	TeamID   *TeamID     `json:"teamId,omitempty"`
	Position *string     `json:"position,omitempty"`
	Image    *string     `json:"image,omitempty"`
	Bio      *string     `json:"bio,omitempty"`
	Stats    *StatsPatch `json:"stats,omitempty"`
}

// Apply returns p with the patch merged over it
func (pp PlayerPatch) Apply(p Player) Player {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Number != nil {
		p.Number = *pp.Number
	}
	if pp.TeamID != nil {
		p.TeamID = *pp.TeamID
	}
	if pp.Position != nil {
		p.Position = *pp.Position
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Bio != nil {
		p.Bio = *pp.Bio
	}
	if pp.Stats != nil {
		p.Stats = pp.Stats.Apply(p.Stats)
	}
	return p
}

// Apply returns s with the patch merged over it
func (sp StatsPatch) Apply(s PlayerStats) PlayerStats {
	if sp.BattingAverage != nil {
		s.BattingAverage = *sp.BattingAverage
	}
	if sp.HomeRuns != nil {
		s.HomeRuns = *sp.HomeRuns
	}
	if sp.RBI != nil {
		s.RBI = *sp.RBI
	}
	if sp.GamesPlayed != nil {
		s.GamesPlayed = *sp.GamesPlayed
	}
	return s
}

// IsEmpty reports whether the patch changes nothing
func (pp PlayerPatch) IsEmpty() bool {
	return pp.Name == nil && pp.Number == nil && pp.TeamID == nil && pp.Position == nil &&
		pp.Image == nil && pp.Bio == nil && pp.Stats == nil
}
