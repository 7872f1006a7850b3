package model

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey returns the comparison key for a display name.
// Two names with the same key are considered the same name.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// TeamLess orders teams by name key, then id
func TeamLess(a, b Team) bool {
	ka, kb := NameKey(a.Name), NameKey(b.Name)
	if ka != kb {
		return ka < kb
	}
	return a.ID < b.ID
}

// PlayerLess orders players by name key, then id
func PlayerLess(a, b Player) bool {
	ka, kb := NameKey(a.Name), NameKey(b.Name)
	if ka != kb {
		return ka < kb
	}
	return a.ID < b.ID
}

// SortTeams orders teams by TeamLess
func SortTeams(teams []Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		return TeamLess(teams[i], teams[j])
	})
}

// SortPlayers orders players by PlayerLess
func SortPlayers(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		return PlayerLess(players[i], players[j])
	})
}
