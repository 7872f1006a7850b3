// Package roster implements the validated mutation operations behind the HTTP API.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/mcoot/roster/internal/blob"
	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/dependencies/idgen"
	"github.com/mcoot/roster/internal/events"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
	"github.com/mcoot/roster/internal/validation"
)

// Supported upload types and the extension each is stored under
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service validates and applies roster mutations, then publishes a change event for each
type Service struct {
	storage   storage.Storage
	blobs     blob.Store
	publisher events.Publisher
	ids       idgen.Generator
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new roster Service
func New(
	storage storage.Storage,
	blobs blob.Store,
	publisher events.Publisher,
	ids idgen.Generator,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:   storage,
		blobs:     blobs,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		logger:    logger.With(slog.String("component", "roster")),
	}
}

func (s *Service) publish(ctx context.Context, eventType model.EventType, payload any) {
	event := model.Event{Type: eventType, Timestamp: s.clock.Now().UTC(), Payload: payload}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish change event",
			slog.String("type", string(eventType)),
			slog.Any("error", err))
	}
}

// Teams

func (s *Service) ListTeams(ctx context.Context) ([]model.Team, error) {
	return s.storage.ListTeams(ctx)
}

func (s *Service) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	return s.storage.GetTeam(ctx, id)
}

// CreateTeam validates and stores a new team. The ID is derived from the name.
func (s *Service) CreateTeam(ctx context.Context, team model.Team) (*model.Team, error) {
	team.Name = strings.TrimSpace(team.Name)

	peers, err := s.storage.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	team.ID = ""
	if err := validation.Team(team, peers).Err(); err != nil {
		return nil, err
	}

	team.ID = s.teamID(team.Name, peers)
	err = s.storage.CreateTeam(ctx, &team)
	if errors.Is(err, storage.ErrDuplicateID) {
		// Lost a race for the slug
		team.ID = s.suffixedTeamID(team.Name)
		err = s.storage.CreateTeam(ctx, &team)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventTeamCreated, team)
	return &team, nil
}

func (s *Service) teamID(name string, peers []model.Team) model.TeamID {
	slug := idgen.Slug(name)
	if slug == "" {
		return s.suffixedTeamID(name)
	}
	for _, p := range peers {
		if string(p.ID) == slug {
			return s.suffixedTeamID(name)
		}
	}
	return model.TeamID(slug)
}

func (s *Service) suffixedTeamID(name string) model.TeamID {
	slug := idgen.Slug(name)
	if slug == "" {
		slug = "team"
	}
	suffix := strings.ReplaceAll(s.ids.NewID(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return model.TeamID(slug + "-" + suffix)
}

// UpdateTeam merges patch over the stored team and validates the result
func (s *Service) UpdateTeam(ctx context.Context, id model.TeamID, patch model.TeamPatch) (*model.Team, error) {
	existing, err := s.storage.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*existing)
	merged.ID = id
	merged.Name = strings.TrimSpace(merged.Name)

	peers, err := s.storage.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Team(merged, peers).Err(); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateTeam(ctx, &merged); err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventTeamUpdated, merged)
	return &merged, nil
}

// DeleteTeam removes a team that no player references
func (s *Service) DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	if _, err := s.storage.GetTeam(ctx, id); err != nil {
		return nil, err
	}

	players, err := s.storage.ListPlayersByTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validation.TeamDeletion(id, players).Err(); err != nil {
		return nil, err
	}

	deleted, err := s.storage.DeleteTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventTeamDeleted, *deleted)
	return deleted, nil
}

// Players

func (s *Service) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// ListPlayersByTeam returns the team's players, or ErrTeamNotFound for an unknown team
func (s *Service) ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error) {
	if _, err := s.storage.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.storage.ListPlayersByTeam(ctx, teamID)
}

func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

func (s *Service) validatePlayer(ctx context.Context, player model.Player) error {
	teams, err := s.storage.ListTeams(ctx)
	if err != nil {
		return err
	}
	teammates, err := s.storage.ListPlayersByTeam(ctx, player.TeamID)
	if err != nil {
		return err
	}
	if teams == nil {
		teams = []model.Team{}
	}
	return validation.Player(player, validation.PlayerPeers{Players: teammates, Teams: teams}).Err()
}

// CreatePlayer validates and stores a new player under a generated ID.
// Client-supplied IDs and timestamps are ignored.
func (s *Service) CreatePlayer(ctx context.Context, player model.Player) (*model.Player, error) {
	player.ID = model.PlayerID(s.ids.NewID())
	player.Name = strings.TrimSpace(player.Name)

	if err := s.validatePlayer(ctx, player); err != nil {
		return nil, err
	}
	if err := s.storage.CreatePlayer(ctx, &player); err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventPlayerCreated, player)
	return &player, nil
}

// UpdatePlayer merges patch over the stored player and validates the result
func (s *Service) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.Player, error) {
	existing, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*existing)
	merged.ID = id
	merged.Name = strings.TrimSpace(merged.Name)

	if err := s.validatePlayer(ctx, merged); err != nil {
		return nil, err
	}
	if err := s.storage.UpdatePlayer(ctx, &merged); err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventPlayerUpdated, merged)
	return &merged, nil
}

// DeletePlayer removes a player and, best effort, any images uploaded for it
func (s *Service) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	deleted, err := s.storage.DeletePlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if removed, err := blob.DeletePrefix(ctx, s.blobs, imagePrefix(id)); err != nil {
		s.logger.Warn("failed to remove player images",
			slog.String("player_id", string(id)),
			slog.Any("error", err))
	} else if removed > 0 {
		s.logger.Info("player images removed",
			slog.String("player_id", string(id)),
			slog.Int("removed", removed))
	}

	s.publish(ctx, model.EventPlayerDeleted, *deleted)
	return deleted, nil
}

// Images

func imagePrefix(id model.PlayerID) string {
	return validation.ImagePathPrefix + string(id) + "/"
}

// UploadPlayerImage stores an image for the player and points the player's image at it
func (s *Service) UploadPlayerImage(ctx context.Context, id model.PlayerID, filename, contentType string, r io.Reader) (*model.Player, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, model.NewValidationError("Image must be a PNG, JPEG, GIF or WebP file")
	}

	existing, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	stem := idgen.Slug(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if stem == "" {
		stem = "image"
	}
	key := imagePrefix(id) + stem + ext

	if _, err := s.blobs.Put(ctx, key, r, blob.PutOptions{ContentType: contentType}); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	previous := existing.Image
	updated, err := s.UpdatePlayer(ctx, id, model.PlayerPatch{Image: &key})
	if err != nil {
		if key != previous {
			if derr := s.blobs.Delete(ctx, key); derr != nil && !errors.Is(derr, blob.ErrNotFound) {
				s.logger.Warn("failed to remove orphaned image", slog.String("key", key), slog.Any("error", derr))
			}
		}
		return nil, err
	}

	if previous != key && strings.HasPrefix(previous, imagePrefix(id)) {
		if err := s.blobs.Delete(ctx, previous); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.logger.Warn("failed to remove replaced image", slog.String("key", previous), slog.Any("error", err))
		}
	}
	return updated, nil
}

// OpenImage returns a stored image. Only keys under the image prefix are served.
func (s *Service) OpenImage(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if !strings.HasPrefix(key, validation.ImagePathPrefix) {
		return blob.Info{}, nil, blob.ErrNotFound
	}
	return s.blobs.Get(ctx, key)
}

// Site configuration

func (s *Service) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	return s.storage.GetSiteConfig(ctx)
}

// UpdateSiteConfig merges patch over the current configuration and validates the result
func (s *Service) UpdateSiteConfig(ctx context.Context, patch model.SiteConfigPatch) (*model.SiteConfig, error) {
	current, err := s.storage.GetSiteConfig(ctx)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*current)
	if err := validation.SiteConfig(merged).Err(); err != nil {
		return nil, err
	}
	if err := s.storage.SaveSiteConfig(ctx, &merged); err != nil {
		return nil, err
	}

	s.publish(ctx, model.EventConfigUpdated, merged)
	return &merged, nil
}
