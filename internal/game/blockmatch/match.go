package blockmatch

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"parlor/internal/game"
)

// TickInterval is how often the round clock advances.
const TickInterval = time.Second

// BlockMatch implements game.Game.
type BlockMatch struct{}

func (BlockMatch) Info() game.GameInfo {
	return game.GameInfo{
		Name:       "blockmatch",
		Title:      "Block Match",
		MinPlayers: 1,
		MaxPlayers: 1,
	}
}

func (BlockMatch) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{Puzzle: NewState(), rng: game.NewRand(config.Seed)}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m
}

// Match implements game.Match and game.Clocked for one player's puzzle.
type Match struct {
	Player string `json:"player"`
	Puzzle State  `json:"state"`
	// Round counts InitGame calls and Ticks counts clock ticks within the
	// round; together they key the countdown timer.
	Round int `json:"round"`
	Ticks int `json:"ticks"`

	rng *rand.Rand
}

// View is the snapshot handed to presentation layers.
type View struct {
	State
	SelectedSum int  `json:"selectedSum"`
	You         bool `json:"you"`
}

func (m *Match) State(playerID string) any {
	return View{
		State:       m.Puzzle,
		SelectedSum: m.Puzzle.SelectedSum(),
		You:         playerID == m.Player,
	}
}

type initPayload struct {
	Mode Mode `json:"mode"`
}

type clickPayload struct {
	ID int `json:"id"`
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if playerID != m.Player {
		return nil
	}
	actions := []game.Action{
		game.NewAction("init", initPayload{Mode: ModeClassic}),
		game.NewAction("init", initPayload{Mode: ModeTime}),
	}
	if m.Puzzle.Status != StatusPlaying {
		return actions
	}
	for _, b := range m.Puzzle.Grid {
		actions = append(actions, game.NewAction("click", clickPayload{ID: b.ID}))
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.Rejectf("not your game")
	}
	switch action.Type {
	case "init":
		var p initPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid init payload: %w", err)
		}
		if !p.Mode.Valid() {
			return fmt.Errorf("unknown mode %q", p.Mode)
		}
		m.Puzzle = InitGame(p.Mode, m.random())
		m.Round++
		m.Ticks = 0
	case "click":
		var p clickPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid click payload: %w", err)
		}
		// clicks outside a running game or on missing cells are ignored
		m.Puzzle, _ = m.Puzzle.ClickCell(p.ID, m.random())
	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
	return nil
}

func (m *Match) IsOver() bool {
	return m.Puzzle.Status == StatusGameOver
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	return []game.PlayerResult{{PlayerID: m.Player, Rank: 1, Score: m.Puzzle.Score}}
}

// Timer asks for a one-second tick while a time-mode game is running.
func (m *Match) Timer() (game.Timer, bool) {
	if m.Puzzle.Status != StatusPlaying || m.Puzzle.Mode != ModeTime {
		return game.Timer{}, false
	}
	return game.Timer{
		Key:   fmt.Sprintf("countdown/%d/%d", m.Round, m.Ticks),
		Delay: TickInterval,
	}, true
}

func (m *Match) Fire(key string) {
	t, ok := m.Timer()
	if !ok || t.Key != key {
		return
	}
	var ticked bool
	m.Puzzle, ticked = m.Puzzle.Tick(m.random())
	if ticked {
		m.Ticks++
	}
}

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	return json.Unmarshal(data, (*alias)(m))
}

func (m *Match) random() *rand.Rand {
	if m.rng == nil {
		m.rng = game.NewRand(0)
	}
	return m.rng
}
