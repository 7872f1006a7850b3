// Package cache keeps an in-memory mirror of the roster in sync with the API.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/roster/internal/client"
	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/model"
)

// API is the remote the cache mirrors. *client.Client implements it.
type API interface {
	ListTeams(ctx context.Context) ([]model.Team, error)
	ListPlayers(ctx context.Context) ([]model.Player, error)
	GetSiteConfig(ctx context.Context) (*model.SiteConfig, error)

	CreateTeam(ctx context.Context, team model.Team) (*model.Team, error)
	UpdateTeam(ctx context.Context, id model.TeamID, patch model.TeamPatch) (*model.Team, error)
	DeleteTeam(ctx context.Context, id model.TeamID) (*model.Team, error)

	CreatePlayer(ctx context.Context, player model.Player) (*model.Player, error)
	UpdatePlayer(ctx context.Context, id model.PlayerID, patch model.PlayerPatch) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	UpdateSiteConfig(ctx context.Context, patch model.SiteConfigPatch) (*model.SiteConfig, error)
}

var _ API = (*client.Client)(nil)

// State is the lifecycle state of the mirror
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateRetrying
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateRetrying:
		return "retrying"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds the cache's timing settings
type Config struct {
	// RequestTimeout bounds every API call the cache makes
	RequestTimeout time.Duration
	// RetryDelay is multiplied by the attempt number between load retries
	RetryDelay time.Duration
	// MaxRetries is the number of reloads after the first attempt
	MaxRetries int
	// IsTransient decides which load failures are retried. Defaults to client.IsTransient.
	IsTransient func(error) bool
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		RetryDelay:     time.Second,
		MaxRetries:     3,
		IsTransient:    client.IsTransient,
	}
}

// Manager is the client-side mirror of teams, players and the site configuration.
// Reads never touch the network. Writes are validated locally, sent to the API,
// and the server's echo is spliced into the mirror.
type Manager struct {
	api    API
	clock  clock.Clock
	logger *slog.Logger
	cfg    Config
	bus    *Bus

	mu         sync.RWMutex
	state      State
	generation uint64
	ready      chan struct{}
	retry      *pendingRetry
	lastErr    error

	// Writes applied while a load is fetching are journaled and replayed over its snapshot
	writeSeq uint64
	loading  int
	journal  []journalEntry

	teams   []model.Team
	players []model.Player
	config  model.SiteConfig
}

// New creates a Manager in the Uninitialized state
func New(api API, clk clock.Clock, logger *slog.Logger, cfg Config) *Manager {
	defaults := DefaultConfig()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.IsTransient == nil {
		cfg.IsTransient = defaults.IsTransient
	}

	logger = logger.With(slog.String("component", "cache"))
	return &Manager{
		api:     api,
		clock:   clk,
		logger:  logger,
		cfg:     cfg,
		bus:     NewBus(logger),
		ready:   make(chan struct{}),
		teams:   []model.Team{},
		players: []model.Player{},
		config:  model.DefaultSiteConfig(),
	}
}

// On registers a listener for one event type
func (m *Manager) On(eventType model.EventType, fn Listener) func() {
	return m.bus.On(eventType, fn)
}

// OnAny registers a listener for every event
func (m *Manager) OnAny(fn Listener) func() {
	return m.bus.OnAny(fn)
}

func (m *Manager) emit(eventType model.EventType, payload any) {
	m.bus.Emit(model.Event{
		Type:      eventType,
		Timestamp: m.clock.Now(),
		Payload:   payload,
	})
}

// Loading

// Initialize starts a full load and returns the first attempt's error.
// Transient failures are retried in the background; WaitReady blocks until the load settles.
// Calling Initialize again supersedes any load or retry still in flight.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	if m.retry != nil {
		m.retry.cancel()
		m.retry = nil
	}
	if m.state == StateReady {
		m.ready = make(chan struct{})
	}
	m.state = StateLoading
	m.mu.Unlock()

	return m.load(context.WithoutCancel(ctx), gen, 0)
}

type snapshot struct {
	teams     []model.Team
	players   []model.Player
	config    *model.SiteConfig
	teamErr   error
	playerErr error
	configErr error
}

func (s *snapshot) err() error {
	return errors.Join(s.teamErr, s.playerErr, s.configErr)
}

func (m *Manager) fetch(ctx context.Context) *snapshot {
	var snap snapshot
	var g errgroup.Group

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		defer cancel()
		snap.teams, snap.teamErr = m.api.ListTeams(ctx)
		if snap.teamErr != nil {
			snap.teamErr = fmt.Errorf("load teams: %w", snap.teamErr)
		}
		return snap.teamErr
	})
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		defer cancel()
		snap.players, snap.playerErr = m.api.ListPlayers(ctx)
		if snap.playerErr != nil {
			snap.playerErr = fmt.Errorf("load players: %w", snap.playerErr)
		}
		return snap.playerErr
	})
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		defer cancel()
		snap.config, snap.configErr = m.api.GetSiteConfig(ctx)
		if snap.configErr != nil {
			snap.configErr = fmt.Errorf("load site config: %w", snap.configErr)
		}
		return snap.configErr
	})

	_ = g.Wait()
	return &snap
}

func (m *Manager) load(ctx context.Context, gen uint64, attempt int) error {
	m.mu.Lock()
	m.loading++
	since := m.writeSeq
	m.mu.Unlock()

	snap := m.fetch(ctx)
	err := snap.err()

	m.mu.Lock()
	m.loading--
	if gen != m.generation {
		m.trimJournalLocked()
		m.mu.Unlock()
		return err
	}

	// Each type keeps its last good value when its fetch fails
	if snap.teamErr == nil {
		m.teams = append([]model.Team{}, snap.teams...)
		model.SortTeams(m.teams)
	}
	if snap.playerErr == nil {
		m.players = append([]model.Player{}, snap.players...)
		model.SortPlayers(m.players)
	}
	if snap.configErr == nil && snap.config != nil {
		m.config = *snap.config
	}
	m.replayLocked(since)
	m.trimJournalLocked()

	var event model.EventType
	var payload any
	switch {
	case err == nil:
		m.settleLocked(nil)
		event = model.EventCacheLoaded
		payload = model.CacheLoadedPayload{Teams: len(m.teams), Players: len(m.players)}

	case m.cfg.IsTransient(err) && attempt < m.cfg.MaxRetries:
		m.state = StateRetrying
		m.lastErr = err
		next := attempt + 1
		delay := time.Duration(next) * m.cfg.RetryDelay
		m.retry = m.scheduleRetry(delay, func() {
			_ = m.load(ctx, gen, next)
		})
		m.logger.Warn("load failed, retrying",
			slog.Int("attempt", next),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

	default:
		m.settleLocked(err)
		event = model.EventCacheError
		payload = model.CacheErrorPayload{Message: err.Error(), Attempts: attempt + 1}
		m.logger.Error("load failed", slog.Int("attempts", attempt+1), slog.Any("error", err))
	}
	m.mu.Unlock()

	if event != "" {
		m.emit(event, payload)
	}
	return err
}

type journalEntry struct {
	seq   uint64
	apply func()
}

// applyWriteLocked applies a successful write to the mirror. Caller holds mu.
func (m *Manager) applyWriteLocked(apply func()) {
	m.writeSeq++
	apply()
	if m.loading > 0 {
		m.journal = append(m.journal, journalEntry{seq: m.writeSeq, apply: apply})
	}
}

// replayLocked reapplies writes made after seq. Caller holds mu.
func (m *Manager) replayLocked(seq uint64) {
	for _, e := range m.journal {
		if e.seq > seq {
			e.apply()
		}
	}
}

func (m *Manager) trimJournalLocked() {
	if m.loading == 0 {
		m.journal = nil
	}
}

// pendingRetry is a scheduled reload that can be called off
type pendingRetry struct {
	timer clockwork.Timer
	stop  chan struct{}
}

func (r *pendingRetry) cancel() {
	r.timer.Stop()
	close(r.stop)
}

func (m *Manager) scheduleRetry(delay time.Duration, fn func()) *pendingRetry {
	r := &pendingRetry{timer: m.clock.NewTimer(delay), stop: make(chan struct{})}
	go func() {
		select {
		case <-r.timer.Chan():
			fn()
		case <-r.stop:
		}
	}()
	return r
}

// settleLocked moves the mirror to Ready. Caller holds mu.
func (m *Manager) settleLocked(err error) {
	m.state = StateReady
	m.lastErr = err
	m.retry = nil
	select {
	case <-m.ready:
	default:
		close(m.ready)
	}
}

// WaitReady blocks until the current load settles or ctx is done
func (m *Manager) WaitReady(ctx context.Context) error {
	m.mu.RLock()
	ready := m.ready
	m.mu.RUnlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrClosed ends a load that was still running when the Manager was closed
var ErrClosed = errors.New("cache: closed")

// Close calls off any scheduled reload. A load still in progress settles with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	if m.retry != nil {
		m.retry.cancel()
		m.retry = nil
	}
	if m.state == StateLoading || m.state == StateRetrying {
		m.settleLocked(ErrClosed)
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the error that ended the most recent load, or nil
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Reads. Every slice returned is a fresh copy.

func (m *Manager) GetTeams() []model.Team {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Team{}, m.teams...)
}

func (m *Manager) GetTeam(id model.TeamID) (model.Team, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.teams {
		if t.ID == id {
			return t, true
		}
	}
	return model.Team{}, false
}

func (m *Manager) GetPlayers() []model.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Player{}, m.players...)
}

func (m *Manager) GetPlayer(id model.PlayerID) (model.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

func (m *Manager) GetPlayersByTeam(teamID model.TeamID) []model.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	players := []model.Player{}
	for _, p := range m.players {
		if p.TeamID == teamID {
			players = append(players, p)
		}
	}
	return players
}

func (m *Manager) GetSiteConfig() model.SiteConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Splicing helpers. Callers hold mu.

func (m *Manager) upsertTeamLocked(team model.Team) {
	m.removeTeamLocked(team.ID)
	i := sort.Search(len(m.teams), func(i int) bool { return model.TeamLess(team, m.teams[i]) })
	m.teams = append(m.teams, model.Team{})
	copy(m.teams[i+1:], m.teams[i:])
	m.teams[i] = team
}

func (m *Manager) removeTeamLocked(id model.TeamID) {
	for i, t := range m.teams {
		if t.ID == id {
			m.teams = append(m.teams[:i], m.teams[i+1:]...)
			return
		}
	}
}

func (m *Manager) upsertPlayerLocked(player model.Player) {
	m.removePlayerLocked(player.ID)
	i := sort.Search(len(m.players), func(i int) bool { return model.PlayerLess(player, m.players[i]) })
	m.players = append(m.players, model.Player{})
	copy(m.players[i+1:], m.players[i:])
	m.players[i] = player
}

func (m *Manager) removePlayerLocked(id model.PlayerID) {
	for i, p := range m.players {
		if p.ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			return
		}
	}
}

func (m *Manager) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.RequestTimeout)
}
