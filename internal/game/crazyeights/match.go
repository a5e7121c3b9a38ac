package crazyeights

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"parlor/internal/game"
)

// DefaultThinkTime is how long the opponent waits before moving.
const DefaultThinkTime = time.Second

// CrazyEights implements game.Game.
type CrazyEights struct {
	// ThinkTime delays the opponent's move. Zero means DefaultThinkTime.
	ThinkTime time.Duration
}

func (g CrazyEights) Info() game.GameInfo {
	return game.GameInfo{
		Name:       "crazyeights",
		Title:      "Crazy Eights",
		MinPlayers: 1,
		MaxPlayers: 1,
	}
}

func (g CrazyEights) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{
		Table:     NewState(),
		thinkTime: g.ThinkTime,
		rng:       game.NewRand(config.Seed),
	}
	if len(config.PlayerIDs) > 0 {
		m.Player = config.PlayerIDs[0]
	}
	return m
}

// Match implements game.Match and game.Clocked.
type Match struct {
	Player string `json:"player"`
	Table  State  `json:"state"`
	// Seq counts accepted transitions and keys the opponent's timer.
	Seq int `json:"seq"`

	thinkTime time.Duration
	rng       *rand.Rand
}

// View is the player's snapshot of the table: their own hand, the top of
// the pile and counts for everything hidden.
type View struct {
	Phase         Phase  `json:"phase"`
	Hand          []Card `json:"hand"`
	OpponentCards int    `json:"opponentCards"`
	DeckCount     int    `json:"deckCount"`
	Top           *Card  `json:"top,omitempty"`
	DiscardCount  int    `json:"discardCount"`
	Turn          Seat   `json:"currentTurn"`
	ActiveSuit    Suit   `json:"activeSuit,omitempty"`
	Message       string `json:"message"`
	// Playable lists the ids of hand cards that are legal right now.
	Playable []string `json:"playable"`
}

// NewView builds the player's view of s.
func NewView(s State) View {
	v := View{
		Phase:         s.Phase,
		Hand:          s.Player.Hand,
		OpponentCards: len(s.AI.Hand),
		DeckCount:     len(s.Deck),
		DiscardCount:  len(s.Discard),
		Turn:          s.Turn,
		ActiveSuit:    s.ActiveSuit,
		Message:       s.Message,
		Playable:      []string{},
	}
	if top, ok := s.Top(); ok {
		v.Top = &top
		if s.playersTurn() {
			for _, c := range s.Player.Hand {
				if IsValidMove(c, top, s.ActiveSuit) {
					v.Playable = append(v.Playable, c.ID)
				}
			}
		}
	}
	return v
}

func (m *Match) State(playerID string) any {
	return NewView(m.Table)
}

type playPayload struct {
	CardID string `json:"cardId"`
}

type suitPayload struct {
	Suit Suit `json:"suit"`
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if playerID != m.Player {
		return nil
	}
	switch m.Table.Phase {
	case PhaseIntro, PhaseWon, PhaseLost:
		return []game.Action{game.NewAction("start", nil)}
	case PhaseRules:
		return []game.Action{game.NewAction("confirm_rules", nil)}
	case PhaseChoosingSuit:
		actions := make([]game.Action, 0, len(Suits))
		for _, s := range Suits {
			actions = append(actions, game.NewAction("suit", suitPayload{Suit: s}))
		}
		return actions
	}
	if !m.Table.playersTurn() {
		return nil
	}
	var actions []game.Action
	for _, id := range NewView(m.Table).Playable {
		actions = append(actions, game.NewAction("play", playPayload{CardID: id}))
	}
	return append(actions, game.NewAction("draw", nil))
}

// ApplyAction runs one player intent. Out-of-turn actions are ignored;
// illegal plays come back as game.ErrRejected carrying the table message.
func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if playerID != m.Player {
		return game.Rejectf("not your game")
	}
	var changed bool
	switch action.Type {
	case "start":
		m.Table, changed = m.Table.StartGame()
	case "confirm_rules":
		m.Table, changed = m.Table.ConfirmRules(m.random())
	case "play":
		var p playPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid play payload: %w", err)
		}
		var out Outcome
		m.Table, out = m.Table.PlayCard(p.CardID)
		if out == OutcomeInvalid {
			return game.Rejectf("%s", m.Table.Message)
		}
		changed = out != OutcomeIgnored
	case "suit":
		var p suitPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid suit payload: %w", err)
		}
		if !p.Suit.Valid() {
			return fmt.Errorf("unknown suit %q", p.Suit)
		}
		m.Table, changed = m.Table.SelectSuit(p.Suit)
	case "draw":
		m.Table, changed = m.Table.Draw()
	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
	if changed {
		m.Seq++
	}
	return nil
}

func (m *Match) IsOver() bool {
	return m.Table.Phase.Over()
}

// Results scores the winner with the value of the cards left in the
// loser's hand.
func (m *Match) Results() []game.PlayerResult {
	switch m.Table.Phase {
	case PhaseWon:
		return []game.PlayerResult{
			{PlayerID: m.Player, Rank: 1, Score: Score(m.Table.AI.Hand)},
			{PlayerID: m.Table.AI.ID, Rank: 2, Score: 0},
		}
	case PhaseLost:
		return []game.PlayerResult{
			{PlayerID: m.Table.AI.ID, Rank: 1, Score: Score(m.Table.Player.Hand)},
			{PlayerID: m.Player, Rank: 2, Score: 0},
		}
	}
	return nil
}

// Timer asks for the opponent's move while it is the opponent's turn.
func (m *Match) Timer() (game.Timer, bool) {
	if m.Table.Phase != PhasePlaying || m.Table.Turn != SeatAI {
		return game.Timer{}, false
	}
	delay := m.thinkTime
	if delay <= 0 {
		delay = DefaultThinkTime
	}
	return game.Timer{Key: fmt.Sprintf("opponent/%d", m.Seq), Delay: delay}, true
}

func (m *Match) Fire(key string) {
	t, ok := m.Timer()
	if !ok || t.Key != key {
		return
	}
	var changed bool
	if m.Table, changed = m.Table.OpponentTurn(); changed {
		m.Seq++
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
