package model

import "time"

// DateLayout is the layout for season and featured dates
const DateLayout = "2006-01-02"

// Theme holds the site colors
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// Season describes the current season window
type Season struct {
	Year      int    `json:"year"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SiteConfig is the singleton site configuration
type SiteConfig struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Theme        Theme     `json:"theme"`
	Season       Season    `json:"season"`
	FeaturedDate string    `json:"featuredDate,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultSiteConfig returns the configuration served before the first update
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Title:       "Team Roster",
		Description: "Players and teams for the current season",
		Theme: Theme{
			Primary:   "#1e3a8a",
			Secondary: "#f59e0b",
			Accent:    "#10b981",
		},
		Season: Season{
			Year:      2026,
			StartDate: "2026-03-01",
			EndDate:   "2026-10-31",
		},
	}
}

// ThemePatch holds optional theme updates
type ThemePatch struct {
	Primary   *string `json:"primary,omitempty"`
	Secondary *string `json:"secondary,omitempty"`
	Accent    *string `json:"accent,omitempty"`
}

// SeasonPatch holds optional season updates
type SeasonPatch struct {
	Year      *int    `json:"year,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

// SiteConfigPatch holds optional configuration updates. Nil fields are left unchanged.
type SiteConfigPatch struct {
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Theme        *ThemePatch  `json:"theme,omitempty"`
	Season       *SeasonPatch `json:"season,omitempty"`
	FeaturedDate *string      `json:"featuredDate,omitempty"`
}

// Apply returns c with the patch merged over it
func (cp SiteConfigPatch) Apply(c SiteConfig) SiteConfig {
	if cp.Title != nil {
		c.Title = *cp.Title
	}
	if cp.Description != nil {
		c.Description = *cp.Description
	}
	if cp.Theme != nil {
		if cp.Theme.Primary != nil {
			c.Theme.Primary = *cp.Theme.Primary
		}
		if cp.Theme.Secondary != nil {
			c.Theme.Secondary = *cp.Theme.Secondary
		}
		if cp.Theme.Accent != nil {
			c.Theme.Accent = *cp.Theme.Accent
		}
	}
	if cp.Season != nil {
		if cp.Season.Year != nil {
			c.Season.Year = *cp.Season.Year
		}
		if cp.Season.StartDate != nil {
			c.Season.StartDate = *cp.Season.StartDate
		}
		if cp.Season.EndDate != nil {
			c.Season.EndDate = *cp.Season.EndDate
		}
	}
	if cp.FeaturedDate != nil {
		c.FeaturedDate = *cp.FeaturedDate
	}
	return c
}
