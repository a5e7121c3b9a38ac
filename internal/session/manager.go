package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"parlor/internal/game"
	"parlor/internal/storage"
)

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	registry *game.Registry
	store    *storage.Store
	clock    clock.Clock
	log      *zap.Logger
	seed     uint64
	onChange func(*Session)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock runs session timers on clk instead of the wall clock.
func WithClock(clk clock.Clock) Option {
	return func(m *Manager) { m.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithSeed fixes the random seed handed to new matches.
func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.seed = seed }
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		store:    store,
		clock:    clock.New(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers fn to run whenever a timer moves a session's match,
// after the new state has been saved.
func (m *Manager) OnChange(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Manager) newSession(code, gameType string, g game.Game) *Session {
	s := NewSession(code, gameType, g, m.clock)
	s.seed = m.seed
	s.onChange = m.timerFired
	return s
}

func (m *Manager) timerFired(s *Session) {
	if err := m.SaveMatchState(s); err != nil {
		m.log.Error("save match state", zap.String("session", s.Code), zap.Error(err))
	}
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

// Create makes a new session and persists it.
func (m *Manager) Create(gameType string) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
	code := generateCode()
	if err := m.store.CreateSession(code, gameType); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := m.newSession(code, gameType, g)
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	m.log.Info("session created", zap.String("session", code), zap.String("game", gameType))
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions, ordered by code.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return infos
}

// SaveMatchState persists the current match state for a session.
func (m *Manager) SaveMatchState(s *Session) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := m.store.UpdateSessionStatus(s.Code, string(s.Status)); err != nil {
		return err
	}
	if s.Match == nil {
		return nil
	}
	data, err := s.Match.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	return m.store.SaveMatchState(s.Code, string(data))
}

// Restore loads sessions from the database on startup and re-arms their
// timers.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			m.log.Warn("skipping session: unknown game type",
				zap.String("session", row.Code), zap.String("game", row.GameType))
			continue
		}
		s := m.newSession(row.Code, row.GameType, g)
		s.Status = Status(row.Status)

		if snap, err := m.loadSessionPlayers(row.Code); err == nil {
			for _, id := range snap.Players {
				s.Players[id] = &Player{ID: id, Send: make(chan []byte, 64)}
			}
			s.HostID = snap.HostID
		}

		if s.Status == StatusPlaying {
			stateJSON, err := m.store.GetMatchState(row.Code)
			if err != nil {
				m.log.Warn("skipping session: no match state", zap.String("session", row.Code), zap.Error(err))
				continue
			}
			match := g.NewMatch(game.MatchConfig{PlayerIDs: []string{"_"}, Seed: m.seed})
			if err := match.UnmarshalJSON([]byte(stateJSON)); err != nil {
				m.log.Warn("skipping session: unmarshal match", zap.String("session", row.Code), zap.Error(err))
				continue
			}
			s.Match = match
			s.mu.Lock()
			s.rescheduleLocked()
			s.mu.Unlock()
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
	}
	return nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()
	if ok {
		s.Stop()
	}
	if err := m.store.DeleteSession(code); err != nil {
		m.log.Error("delete session", zap.String("session", code), zap.Error(err))
	}
}

// CleanupLoop removes stale sessions periodically until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := m.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(maxAge)
		}
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	for code, s := range m.sessions {
		s.mu.RLock()
		empty := len(s.Players) == 0
		finished := s.Status == StatusFinished
		s.mu.RUnlock()

		if !finished && !empty {
			continue
		}
		row, err := m.store.GetSession(code)
		if err != nil {
			s.Stop()
			delete(m.sessions, code)
			continue
		}
		if now.Sub(row.CreatedAt) > maxAge || empty {
			m.log.Info("cleaning up session", zap.String("session", code))
			s.Stop()
			if err := m.store.DeleteSession(code); err != nil {
				m.log.Error("delete session", zap.String("session", code), zap.Error(err))
			}
			delete(m.sessions, code)
		}
	}
}

// Shutdown stops every timer and saves each session's latest state.
func (m *Manager) Shutdown() error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var errs error
	for _, s := range sessions {
		s.Stop()
		if err := m.SaveMatchState(s); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save session %s: %w", s.Code, err))
		}
	}
	return errs
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}

type sessionSnapshot struct {
	Players []string `json:"players"`
	HostID  string   `json:"hostId"`
}

// SaveSessionPlayers persists the player roster so a restored session
// accepts its players back.
func (m *Manager) SaveSessionPlayers(s *Session) error {
	s.mu.RLock()
	snap := sessionSnapshot{
		Players: make([]string, 0, len(s.Players)),
		HostID:  s.HostID,
	}
	for id := range s.Players {
		snap.Players = append(snap.Players, id)
	}
	s.mu.RUnlock()
	sort.Strings(snap.Players)
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.store.SavePlayers(s.Code, string(data))
}

func (m *Manager) loadSessionPlayers(code string) (sessionSnapshot, error) {
	var snap sessionSnapshot
	data, err := m.store.GetPlayers(code)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal([]byte(data), &snap)
	return snap, err
}
