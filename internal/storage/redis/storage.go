package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
)

// ErrContention is returned when an optimistic transaction keeps losing to concurrent writers
var ErrContention = errors.New("redis: too much write contention, try again")

// Storage is a Redis-backed implementation of the storage interface.
// Uniqueness is kept in index hashes that are checked and updated under WATCH.
type Storage struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis storage instance
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		clock:  clk,
	}
}

// Client exposes the underlying connection so other components can share it
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watch runs fn as an optimistic transaction over keys, retrying when a watched key changes
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	attempts := max(s.cfg.MaxTxRetries, 1)
	for i := 0; i < attempts; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrContention
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, c getter, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// mgetJSON fetches every key in one round trip, skipping keys that vanished since the index was read
func mgetJSON[T any](ctx context.Context, c *redis.Client, keys []string) ([]T, error) {
	out := make([]T, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Team operations

func (s *Storage) ListTeams(ctx context.Context) ([]model.Team, error) {
	ids, err := s.client.SMembers(ctx, teamsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = teamKey(model.TeamID(id))
	}

	teams, err := mgetJSON[model.Team](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	model.SortTeams(teams)
	return teams, nil
}

func (s *Storage) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	return getJSON[model.Team](ctx, s.client, teamKey(id), model.ErrTeamNotFound)
}

func (s *Storage) CreateTeam(ctx context.Context, team *model.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}
	key := teamKey(team.ID)
	nameKey := model.NameKey(team.Name)

	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return storage.ErrDuplicateID
		}

		taken, err := tx.HExists(ctx, teamNameIndexKey(), nameKey).Result()
		if err != nil {
			return err
		}
		if taken {
			return model.NewDuplicateNameError(team.Name)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, teamsIndexKey(), string(team.ID))
			pipe.HSet(ctx, teamNameIndexKey(), nameKey, string(team.ID))
			return nil
		})
		return err
	}, key, teamNameIndexKey())
}

func (s *Storage) UpdateTeam(ctx context.Context, team *model.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}
	key := teamKey(team.ID)
	newNameKey := model.NameKey(team.Name)

	return s.watch(ctx, func(tx *redis.Tx) error {
		existing, err := getJSON[model.Team](ctx, tx, key, model.ErrTeamNotFound)
		if err != nil {
			return err
		}

		owner, err := tx.HGet(ctx, teamNameIndexKey(), newNameKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && owner != string(team.ID) {
			return model.NewDuplicateNameError(team.Name)
		}

		oldNameKey := model.NameKey(existing.Name)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if oldNameKey != newNameKey {
				pipe.HDel(ctx, teamNameIndexKey(), oldNameKey)
			}
			pipe.HSet(ctx, teamNameIndexKey(), newNameKey, string(team.ID))
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key, teamNameIndexKey())
}

func (s *Storage) DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	key := teamKey(id)
	membersKey := teamPlayersIndexKey(id)

	var deleted *model.Team
	err := s.watch(ctx, func(tx *redis.Tx) error {
		existing, err := getJSON[model.Team](ctx, tx, key, model.ErrTeamNotFound)
		if err != nil {
			return err
		}

		count, err := tx.SCard(ctx, membersKey).Result()
		if err != nil {
			return err
		}
		if count > 0 {
			return model.NewTeamHasPlayersError(id, int(count))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key, membersKey, teamNumbersIndexKey(id))
			pipe.SRem(ctx, teamsIndexKey(), string(id))
			pipe.HDel(ctx, teamNameIndexKey(), model.NameKey(existing.Name))
			return nil
		})
		deleted = existing
		return err
	}, key, membersKey)
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Player operations

func (s *Storage) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.listPlayersIn(ctx, playersIndexKey())
}

func (s *Storage) ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error) {
	return s.listPlayersIn(ctx, teamPlayersIndexKey(teamID))
}

func (s *Storage) listPlayersIn(ctx context.Context, indexKey string) ([]model.Player, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(model.PlayerID(id))
	}

	players, err := mgetJSON[model.Player](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	model.SortPlayers(players)
	return players, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getJSON[model.Player](ctx, s.client, playerKey(id), model.ErrPlayerNotFound)
}

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	key := playerKey(player.ID)
	numbersKey := teamNumbersIndexKey(player.TeamID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return storage.ErrDuplicateID
		}
		if err := checkPlayer(ctx, tx, player); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		player.CreatedAt = now
		player.UpdatedAt = now
		data, err := json.Marshal(player)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, playersIndexKey(), string(player.ID))
			pipe.SAdd(ctx, teamPlayersIndexKey(player.TeamID), string(player.ID))
			pipe.HSet(ctx, numbersKey, strconv.Itoa(player.Number), string(player.ID))
			return nil
		})
		return err
	}, key, teamKey(player.TeamID), numbersKey)
}

func (s *Storage) UpdatePlayer(ctx context.Context, player *model.Player) error {
	key := playerKey(player.ID)
	numbersKey := teamNumbersIndexKey(player.TeamID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		existing, err := getJSON[model.Player](ctx, tx, key, model.ErrPlayerNotFound)
		if err != nil {
			return err
		}
		if err := checkPlayer(ctx, tx, player); err != nil {
			return err
		}

		player.CreatedAt = existing.CreatedAt
		player.UpdatedAt = s.clock.Now().UTC()
		data, err := json.Marshal(player)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if existing.TeamID != player.TeamID || existing.Number != player.Number {
				pipe.HDel(ctx, teamNumbersIndexKey(existing.TeamID), strconv.Itoa(existing.Number))
				pipe.HSet(ctx, numbersKey, strconv.Itoa(player.Number), string(player.ID))
			}
			if existing.TeamID != player.TeamID {
				pipe.SRem(ctx, teamPlayersIndexKey(existing.TeamID), string(player.ID))
				pipe.SAdd(ctx, teamPlayersIndexKey(player.TeamID), string(player.ID))
			}
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key, teamKey(player.TeamID), numbersKey)
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	key := playerKey(id)

	var deleted *model.Player
	err := s.watch(ctx, func(tx *redis.Tx) error {
		existing, err := getJSON[model.Player](ctx, tx, key, model.ErrPlayerNotFound)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, playersIndexKey(), string(id))
			pipe.SRem(ctx, teamPlayersIndexKey(existing.TeamID), string(id))
			pipe.HDel(ctx, teamNumbersIndexKey(existing.TeamID), strconv.Itoa(existing.Number))
			return nil
		})
		deleted = existing
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// checkPlayer enforces the team reference and number uniqueness inside a watched transaction
func checkPlayer(ctx context.Context, tx *redis.Tx, player *model.Player) error {
	teamExists, err := tx.Exists(ctx, teamKey(player.TeamID)).Result()
	if err != nil {
		return err
	}
	if teamExists == 0 {
		return model.NewUnknownTeamError(player.TeamID)
	}

	owner, err := tx.HGet(ctx, teamNumbersIndexKey(player.TeamID), strconv.Itoa(player.Number)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil && owner != string(player.ID) {
		return model.NewDuplicateNumberError(player.TeamID, player.Number)
	}
	return nil
}

// Site configuration

func (s *Storage) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	cfg, err := getJSON[model.SiteConfig](ctx, s.client, siteConfigKey(), redis.Nil)
	if errors.Is(err, redis.Nil) {
		def := model.DefaultSiteConfig()
		return &def, nil
	}
	return cfg, err
}

func (s *Storage) SaveSiteConfig(ctx context.Context, cfg *model.SiteConfig) error {
	cfg.UpdatedAt = s.clock.Now().UTC()
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, siteConfigKey(), data, 0).Err()
}
