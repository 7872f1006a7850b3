package memory

import (
	"context"
	"sync"

	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are stored and returned by value so callers never share state with the store.
type Storage struct {
	clock clock.Clock

	mu sync.RWMutex

	teams       map[model.TeamID]model.Team
	players     map[model.PlayerID]model.Player
	nameIndex   map[string]model.TeamID
	numberIndex map[numberKey]model.PlayerID
	config      *model.SiteConfig
}

type numberKey struct {
	teamID model.TeamID
	number int
}

// New creates a new in-memory storage instance
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:       clk,
		teams:       make(map[model.TeamID]model.Team),
		players:     make(map[model.PlayerID]model.Player),
		nameIndex:   make(map[string]model.TeamID),
		numberIndex: make(map[numberKey]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}

// Team operations

func (s *Storage) ListTeams(ctx context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	teams := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	model.SortTeams(teams)
	return teams, nil
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	team, ok := s.teams[id]
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	return &team, nil
}

func (s *Storage) CreateTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.teams[team.ID]; exists {
		return storage.ErrDuplicateID
	}
	key := model.NameKey(team.Name)
	if _, taken := s.nameIndex[key]; taken {
		return model.NewDuplicateNameError(team.Name)
	}

	s.teams[team.ID] = *team
	s.nameIndex[key] = team.ID
	return nil
}

func (s *Storage) UpdateTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.teams[team.ID]
	if !ok {
		return model.ErrTeamNotFound
	}
	oldKey, newKey := model.NameKey(existing.Name), model.NameKey(team.Name)
	if owner, taken := s.nameIndex[newKey]; taken && owner != team.ID {
		return model.NewDuplicateNameError(team.Name)
	}

	delete(s.nameIndex, oldKey)
	s.nameIndex[newKey] = team.ID
	s.teams[team.ID] = *team
	return nil
}

func (s *Storage) DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[id]
	if !ok {
		return nil, model.ErrTeamNotFound
	}
	count := 0
	for _, p := range s.players {
		if p.TeamID == id {
			count++
		}
	}
	if count > 0 {
		return nil, model.NewTeamHasPlayersError(id, count)
	}

	delete(s.teams, id)
	delete(s.nameIndex, model.NameKey(team.Name))
	return &team, nil
}

// Player operations

func (s *Storage) ListPlayers(ctx context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	model.SortPlayers(players)
	return players, nil
}

func (s *Storage) ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := []model.Player{}
	for _, p := range s.players {
		if p.TeamID == teamID {
			players = append(players, p)
		}
	}
	model.SortPlayers(players)
	return players, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &player, nil
}

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[player.ID]; exists {
		return storage.ErrDuplicateID
	}
	if err := s.checkPlayerLocked(player); err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now

	s.players[player.ID] = *player
	s.numberIndex[numberKey{player.TeamID, player.Number}] = player.ID
	return nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.players[player.ID]
	if !ok {
		return model.ErrPlayerNotFound
	}
	if err := s.checkPlayerLocked(player); err != nil {
		return err
	}

	player.CreatedAt = existing.CreatedAt
	player.UpdatedAt = s.clock.Now().UTC()

	delete(s.numberIndex, numberKey{existing.TeamID, existing.Number})
	s.numberIndex[numberKey{player.TeamID, player.Number}] = player.ID
	s.players[player.ID] = *player
	return nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}

	delete(s.players, id)
	delete(s.numberIndex, numberKey{player.TeamID, player.Number})
	return &player, nil
}

// checkPlayerLocked enforces the team reference and number uniqueness. Caller holds mu.
func (s *Storage) checkPlayerLocked(player *model.Player) error {
	if _, ok := s.teams[player.TeamID]; !ok {
		return model.NewUnknownTeamError(player.TeamID)
	}
	if owner, taken := s.numberIndex[numberKey{player.TeamID, player.Number}]; taken && owner != player.ID {
		return model.NewDuplicateNumberError(player.TeamID, player.Number)
	}
	return nil
}

// Site configuration

func (s *Storage) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		cfg := model.DefaultSiteConfig()
		return &cfg, nil
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *Storage) SaveSiteConfig(ctx context.Context, cfg *model.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.UpdatedAt = s.clock.Now().UTC()
	stored := *cfg
	s.config = &stored
	return nil
}
