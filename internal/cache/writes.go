package cache

import (
	"context"

	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/validation"
)

// Writes validate locally first, then call the API with no lock held.
// Only a successful response touches the mirror; errors are returned as the API gave them.

// AddTeam creates a team and inserts the server's echo
func (m *Manager) AddTeam(ctx context.Context, team model.Team) (model.Team, error) {
	if err := validation.Team(team, m.GetTeams()).Err(); err != nil {
		return model.Team{}, err
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	created, err := m.api.CreateTeam(ctx, team)
	if err != nil {
		return model.Team{}, err
	}

	team = *created
	m.mu.Lock()
	m.applyWriteLocked(func() { m.upsertTeamLocked(team) })
	m.mu.Unlock()

	m.emit(model.EventTeamCreated, team)
	return team, nil
}

// UpdateTeam merges patch over the mirrored team, validates, and replaces it with the server's echo
func (m *Manager) UpdateTeam(ctx context.Context, id model.TeamID, patch model.TeamPatch) (model.Team, error) {
	if current, ok := m.GetTeam(id); ok {
		if err := validation.Team(patch.Apply(current), m.GetTeams()).Err(); err != nil {
			return model.Team{}, err
		}
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	updated, err := m.api.UpdateTeam(ctx, id, patch)
	if err != nil {
		return model.Team{}, err
	}

	team := *updated
	m.mu.Lock()
	m.applyWriteLocked(func() { m.upsertTeamLocked(team) })
	m.mu.Unlock()

	m.emit(model.EventTeamUpdated, team)
	return team, nil
}

// DeleteTeam removes a team. A team the mirror knows still has players is rejected locally.
func (m *Manager) DeleteTeam(ctx context.Context, id model.TeamID) (model.Team, error) {
	if err := validation.TeamDeletion(id, m.GetPlayers()).Err(); err != nil {
		return model.Team{}, err
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	deleted, err := m.api.DeleteTeam(ctx, id)
	if err != nil {
		return model.Team{}, err
	}

	m.mu.Lock()
	m.applyWriteLocked(func() { m.removeTeamLocked(deleted.ID) })
	m.mu.Unlock()

	m.emit(model.EventTeamDeleted, *deleted)
	return *deleted, nil
}

// playerPeers snapshots what a player is validated against.
// Team membership is only checked once teams have been mirrored.
func (m *Manager) playerPeers() validation.PlayerPeers {
	m.mu.RLock()
	defer m.mu.RUnlock()

	peers := validation.PlayerPeers{Players: append([]model.Player{}, m.players...)}
	if len(m.teams) > 0 {
		peers.Teams = append([]model.Team{}, m.teams...)
	}
	return peers
}

// AddPlayer creates a player and inserts the server's echo
func (m *Manager) AddPlayer(ctx context.Context, player model.Player) (model.Player, error) {
	if err := validation.Player(player, m.playerPeers()).Err(); err != nil {
		return model.Player{}, err
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	created, err := m.api.CreatePlayer(ctx, player)
	if err != nil {
		return model.Player{}, err
	}

	player = *created
	m.mu.Lock()
	m.applyWriteLocked(func() { m.upsertPlayerLocked(player) })
	m.mu.Unlock()

	m.emit(model.EventPlayerCreated, player)
	return player, nil
}

// UpdatePlayer merges patch over the mirrored player, validates, and replaces it with the server's echo
func (m *Manager) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (model.Player, error) {
	if current, ok := m.GetPlayer(id); ok {
		if err := validation.Player(patch.Apply(current), m.playerPeers()).Err(); err != nil {
			return model.Player{}, err
		}
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	updated, err := m.api.UpdatePlayer(ctx, id, patch)
	if err != nil {
		return model.Player{}, err
	}

	player := *updated
	m.mu.Lock()
	m.applyWriteLocked(func() { m.upsertPlayerLocked(player) })
	m.mu.Unlock()

	m.emit(model.EventPlayerUpdated, player)
	return player, nil
}

// DeletePlayer removes a player
func (m *Manager) DeletePlayer(ctx context.Context, id model.PlayerID) (model.Player, error) {
	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	deleted, err := m.api.DeletePlayer(ctx, id)
	if err != nil {
		return model.Player{}, err
	}

	m.mu.Lock()
	m.applyWriteLocked(func() { m.removePlayerLocked(deleted.ID) })
	m.mu.Unlock()

	m.emit(model.EventPlayerDeleted, *deleted)
	return *deleted, nil
}

// UpdateSiteConfig merges patch over the mirrored configuration, validates, and stores the server's echo
func (m *Manager) UpdateSiteConfig(ctx context.Context, patch model.SiteConfigPatch) (model.SiteConfig, error) {
	if err := validation.SiteConfig(patch.Apply(m.GetSiteConfig())).Err(); err != nil {
		return model.SiteConfig{}, err
	}

	ctx, cancel := m.requestContext(ctx)
	defer cancel()
	updated, err := m.api.UpdateSiteConfig(ctx, patch)
	if err != nil {
		return model.SiteConfig{}, err
	}

	config := *updated
	m.mu.Lock()
	m.applyWriteLocked(func() { m.config = config })
	m.mu.Unlock()

	m.emit(model.EventConfigUpdated, config)
	return config, nil
}
