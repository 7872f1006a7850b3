package redis

import (
	"fmt"

	"github.com/mcoot/roster/internal/model"
)

// Key prefix for all roster data
const keyPrefix = "roster"

// Key generation functions for each entity type

// teamKey returns the Redis key for a Team
func teamKey(id model.TeamID) string {
	return fmt.Sprintf("%s:team:%s", keyPrefix, id)
}

// teamsIndexKey returns the Redis key for the SET of all team IDs
func teamsIndexKey() string {
	return fmt.Sprintf("%s:idx:teams", keyPrefix)
}

// teamNameIndexKey returns the Redis key for the HASH of name key -> team ID
func teamNameIndexKey() string {
	return fmt.Sprintf("%s:idx:team_name", keyPrefix)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersIndexKey returns the Redis key for the SET of all player IDs
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// teamPlayersIndexKey returns the Redis key for the SET of player IDs on a team
func teamPlayersIndexKey(teamID model.TeamID) string {
	return fmt.Sprintf("%s:idx:team_players:%s", keyPrefix, teamID)
}

// teamNumbersIndexKey returns the Redis key for the HASH of jersey number -> player ID on a team
func teamNumbersIndexKey(teamID model.TeamID) string {
	return fmt.Sprintf("%s:idx:team_numbers:%s", keyPrefix, teamID)
}

// siteConfigKey returns the Redis key for the site configuration
func siteConfigKey() string {
	return fmt.Sprintf("%s:site_config", keyPrefix)
}
