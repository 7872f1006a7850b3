package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/roster/internal/dependencies/clock"
)

// Registry records issued sessions.
// Get returns ErrInvalidToken for unknown tokens.
type Registry interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryRegistry keeps sessions in a process-local map
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryRegistry creates an empty MemoryRegistry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]Session)}
}

func (r *MemoryRegistry) Save(_ context.Context, session *Session) error {
	r.mu.Lock()
	r.sessions[session.Token] = *session
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, token string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidToken
	}
	return &session, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// RedisRegistry stores sessions as keys whose TTL matches the session lifetime,
// so every server instance sharing the Redis sees the same sessions
type RedisRegistry struct {
	client *redis.Client
	clock  clock.Clock
}

// NewRedisRegistry creates a RedisRegistry on an existing client
func NewRedisRegistry(client *redis.Client, clk clock.Clock) *RedisRegistry {
	return &RedisRegistry{client: client, clock: clk}
}

func sessionKey(token string) string {
	return "roster:session:" + token
}

func (r *RedisRegistry) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := session.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, sessionKey(session.Token), data, ttl).Err()
}

func (r *RedisRegistry) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token)).Err()
}

// DeleteExpired is a no-op: Redis expires session keys itself
func (r *RedisRegistry) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
