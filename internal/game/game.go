package game

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"
)

// ErrRejected wraps actions the rules refuse. The wrapped text is the
// message shown to the player.
var ErrRejected = errors.New("action rejected")

// ErrUnknownAction is returned for action types a match does not handle.
var ErrUnknownAction = errors.New("unknown action type")

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	PlayerIDs []string
	// Seed feeds the match's random source. Zero picks a random seed.
	Seed uint64
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// Game describes a game type (block match, crazy eights, ...).
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) Match
}

// Match is one in-progress game session.
type Match interface {
	State(playerID string) any
	ValidActions(playerID string) []Action
	ApplyAction(playerID string, action Action) error
	IsOver() bool
	Results() []PlayerResult
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Timer is a deferred transition a match wants to run.
type Timer struct {
	Key   string
	Delay time.Duration
}

// Clocked is implemented by matches that advance on their own, such as a
// countdown or a scripted opponent's think time.
type Clocked interface {
	// Timer reports the transition the match is waiting on, if any. While
	// the key stays the same an armed timer is kept.
	Timer() (Timer, bool)
	// Fire runs the transition for key. Keys that no longer match the
	// current timer are ignored.
	Fire(key string)
}

// NewAction builds an action with a JSON payload.
func NewAction(actionType string, payload any) Action {
	if payload == nil {
		return Action{Type: actionType}
	}
	data, _ := json.Marshal(payload)
	return Action{Type: actionType, Payload: data}
}

// NewRand returns the random source a match draws from. A zero seed picks
// one at random.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
