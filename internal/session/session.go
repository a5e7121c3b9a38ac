package session

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"parlor/internal/game"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player represents a connected player.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one game session with its connected player and the timers
// its match is waiting on.
type Session struct {
	mu       sync.RWMutex
	Code     string
	GameType string
	Status   Status
	HostID   string
	Players  map[string]*Player
	Match    game.Match
	game     game.Game
	seed     uint64

	clock    clock.Clock
	timer    *clock.Timer
	timerKey string
	// onChange runs after a timer moved the match, outside the lock.
	onChange func(*Session)
}

// NewSession creates a session in the waiting state. Timers run on clk.
func NewSession(code, gameType string, g game.Game, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.New()
	}
	return &Session{
		Code:     code,
		GameType: gameType,
		Status:   StatusWaiting,
		Players:  make(map[string]*Player),
		game:     g,
		clock:    clk,
	}
}

// AddPlayer adds a player to the session. Returns error if full or already playing.
func (s *Session) AddPlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	info := s.game.Info()
	if len(s.Players) >= info.MaxPlayers {
		return fmt.Errorf("session is full")
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.Players[playerID] = &Player{
		ID:   playerID,
		Send: make(chan []byte, 64),
	}
	if s.HostID == "" {
		s.HostID = playerID
	}
	return nil
}

// RemovePlayer removes a player from the session.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok {
		close(p.Send)
		delete(s.Players, playerID)
	}
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	return true
}

// PlayerIDs returns the list of player IDs.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	return ids
}

// Start transitions the session from waiting to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	if len(s.Players) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(s.Players))
	}

	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	s.Match = s.game.NewMatch(game.MatchConfig{PlayerIDs: ids, Seed: s.seed})
	s.Status = StatusPlaying
	s.rescheduleLocked()
	return nil
}

// Apply runs a player's action against the match. A match that reaches
// its end finishes the session; a reset brings it back to playing.
func (s *Session) Apply(playerID string, action game.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Match == nil {
		return fmt.Errorf("game not started")
	}
	if _, ok := s.Players[playerID]; !ok {
		return fmt.Errorf("player %s not in session", playerID)
	}
	err := s.Match.ApplyAction(playerID, action)
	s.syncStatusLocked()
	s.rescheduleLocked()
	return err
}

func (s *Session) syncStatusLocked() {
	if s.Match == nil {
		return
	}
	if s.Match.IsOver() {
		s.Status = StatusFinished
	} else {
		s.Status = StatusPlaying
	}
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
	s.stopTimerLocked()
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player's send channel, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code     string   `json:"code"`
	GameType string   `json:"gameType"`
	Status   Status   `json:"status"`
	Players  []string `json:"players"`
	HostID   string   `json:"hostId"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	return Info{
		Code:     s.Code,
		GameType: s.GameType,
		Status:   s.Status,
		Players:  ids,
		HostID:   s.HostID,
	}
}

// Snapshot is a consistent read of a session for one player.
type Snapshot struct {
	Info         Info
	State        any
	ValidActions []game.Action
	Results      []game.PlayerResult
}

// Snapshot reads the session as seen by playerID. State is nil until the
// session starts.
func (s *Session) Snapshot(playerID string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Info: s.infoLocked()}
	if s.Match != nil && s.Status != StatusWaiting {
		snap.State = s.Match.State(playerID)
		snap.ValidActions = s.Match.ValidActions(playerID)
		if s.Match.IsOver() {
			snap.Results = s.Match.Results()
		}
	}
	return snap
}
