package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roster/internal/dependencies/clock"
)

// Errors
var (
	ErrMissingToken       = errors.New("missing session token")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session represents an authenticated admin session
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service issues and verifies admin session tokens
type Service struct {
	registry Registry
	clock    clock.Clock
	logger   *slog.Logger

	passwordHash    []byte
	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// PasswordHash is the bcrypt hash of the admin password.
	// With no hash configured every login attempt fails.
	PasswordHash string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// HashPassword returns the bcrypt hash of password for use in Config
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// New creates a new auth Service
func New(registry Registry, clock clock.Clock, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		registry:        registry,
		clock:           clock,
		logger:          logger.With(slog.String("component", "auth")),
		passwordHash:    []byte(cfg.PasswordHash),
		sessionDuration: cfg.SessionDuration,
	}
}

// SessionDuration returns how long issued tokens stay valid
func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Authenticate checks the admin secret and mints a new session
func (s *Service) Authenticate(ctx context.Context, secret string) (*Session, error) {
	if len(s.passwordHash) == 0 || secret == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	session := &Session{
		Token:     generateID("sess_"),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}
	if err := s.registry.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Verify returns the session for token. Expired sessions are evicted.
func (s *Service) Verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	session, err := s.registry.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.clock.Now().After(session.ExpiresAt) {
		if err := s.registry.Delete(ctx, token); err != nil {
			s.logger.Warn("failed to evict expired session", slog.Any("error", err))
		}
		return nil, ErrExpiredToken
	}

	return session, nil
}

// Logout removes a session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.registry.Delete(ctx, token)
}

// CleanExpiredSessions removes expired sessions and returns how many were removed
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	return s.registry.DeleteExpired(ctx, s.clock.Now())
}

// RunSweeper calls CleanExpiredSessions every interval until ctx is done
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed, err := s.CleanExpiredSessions(ctx)
			if err != nil {
				s.logger.Error("session sweep failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				s.logger.Info("expired sessions removed", slog.Int("removed", removed))
			}
		}
	}
}

// generateID generates a random ID with a prefix
func generateID(prefix string) string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
