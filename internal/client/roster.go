package client

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/mcoot/roster/internal/api/request"
	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/model"
)

// Auth

// Login exchanges the admin password for a session token and keeps it for later requests
func (c *Client) Login(ctx context.Context, password string) (*response.Login, error) {
	var result response.Login
	if err := c.Post(ctx, "/api/auth/login", request.LoginRequest{Password: password}, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Post(ctx, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Session describes the current session
func (c *Client) Session(ctx context.Context) (*response.Session, error) {
	var result response.Session
	if err := c.Get(ctx, "/api/auth/session", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks server health
func (c *Client) Health(ctx context.Context) (*response.Health, error) {
	var result response.Health
	if err := c.Get(ctx, "/api/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Teams

func teamPath(id model.TeamID) string {
	return "/api/teams/" + url.PathEscape(string(id))
}

func (c *Client) ListTeams(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	if err := c.Get(ctx, "/api/teams", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (c *Client) GetTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	var team model.Team
	if err := c.Get(ctx, teamPath(id), &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team. The ID is assigned by the server.
func (c *Client) CreateTeam(ctx context.Context, team model.Team) (*model.Team, error) {
	req := request.CreateTeamRequest{Name: team.Name, Color: team.Color, Description: team.Description}
	var created model.Team
	if err := c.Post(ctx, "/api/teams", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTeam(ctx context.Context, id model.TeamID, patch model.TeamPatch) (*model.Team, error) {
	var updated model.Team
	if err := c.Put(ctx, teamPath(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error) {
	var deleted model.Team
	if err := c.Delete(ctx, teamPath(id), &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Players

func playerPath(id model.PlayerID) string {
	return "/api/players/" + url.PathEscape(string(id))
}

func (c *Client) ListPlayers(ctx context.Context) ([]model.Player, error) {
	var players []model.Player
	if err := c.Get(ctx, "/api/players", &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) ListPlayersByTeam(ctx context.Context, teamID model.TeamID) ([]model.Player, error) {
	var players []model.Player
	if err := c.Get(ctx, teamPath(teamID)+"/players", &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := c.Get(ctx, playerPath(id), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// CreatePlayer creates a player. The ID and timestamps are assigned by the server.
func (c *Client) CreatePlayer(ctx context.Context, player model.Player) (*model.Player, error) {
	req := request.CreatePlayerRequest{
		Name:     player.Name,
		Number:   player.Number,
		TeamID:   player.TeamID,
		Position: player.Position,
		Image:    player.Image,
		Bio:      player.Bio,
		Stats:    player.Stats,
	}
	var created model.Player
	if err := c.Post(ctx, "/api/players", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.Player, error) {
	var updated model.Player
	if err := c.Put(ctx, playerPath(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var deleted model.Player
	if err := c.Delete(ctx, playerPath(id), &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// UploadPlayerImage sends image as the player's picture
func (c *Client) UploadPlayerImage(ctx context.Context, id model.PlayerID, filename string, image io.Reader) (*model.Player, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("image", filename)
		if err == nil {
			_, err = io.Copy(part, image)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	var updated model.Player
	if err := c.do(ctx, http.MethodPost, playerPath(id)+"/image", mw.FormDataContentType(), pr, &updated); err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	return &updated, nil
}

// Site configuration

func (c *Client) GetSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	var cfg model.SiteConfig
	if err := c.Get(ctx, "/api/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) UpdateSiteConfig(ctx context.Context, patch model.SiteConfigPatch) (*model.SiteConfig, error) {
	var cfg model.SiteConfig
	if err := c.Put(ctx, "/api/config", patch, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
