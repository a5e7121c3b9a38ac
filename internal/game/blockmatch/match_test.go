package blockmatch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlor/internal/game"
)

func newTestMatch() *Match {
	return BlockMatch{}.NewMatch(game.MatchConfig{PlayerIDs: []string{"alice"}, Seed: 42}).(*Match)
}

func TestMatchStartsInMenu(t *testing.T) {
	m := newTestMatch()
	assert.Equal(t, StatusMenu, m.Puzzle.Status)
	_, ok := m.Timer()
	assert.False(t, ok)
	// only the two init actions
	assert.Len(t, m.ValidActions("alice"), 2)
	assert.Nil(t, m.ValidActions("bob"))
}

func TestMatchInitAndClick(t *testing.T) {
	m := newTestMatch()
	require.NoError(t, m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: ModeClassic})))
	assert.Equal(t, StatusPlaying, m.Puzzle.Status)
	assert.Len(t, m.ValidActions("alice"), 2+StartRows*Cols)

	id := m.Puzzle.Grid[0].ID
	require.NoError(t, m.ApplyAction("alice", game.NewAction("click", clickPayload{ID: id})))
	if len(m.Puzzle.Selected) == 1 {
		assert.Equal(t, id, m.Puzzle.Selected[0])
	}

	// missing cell is silently ignored
	before := m.Puzzle
	require.NoError(t, m.ApplyAction("alice", game.NewAction("click", clickPayload{ID: 999})))
	assert.Equal(t, before, m.Puzzle)
}

func TestMatchRejectsBadActions(t *testing.T) {
	m := newTestMatch()
	err := m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: "zen"}))
	assert.Error(t, err)

	err = m.ApplyAction("alice", game.Action{Type: "click", Payload: json.RawMessage(`"x"`)})
	assert.Error(t, err)

	err = m.ApplyAction("alice", game.NewAction("fly", nil))
	assert.True(t, errors.Is(err, game.ErrUnknownAction))

	err = m.ApplyAction("bob", game.NewAction("init", initPayload{Mode: ModeTime}))
	assert.True(t, errors.Is(err, game.ErrRejected))
}

func TestMatchTimerKeys(t *testing.T) {
	m := newTestMatch()
	require.NoError(t, m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: ModeTime})))

	timer, ok := m.Timer()
	require.True(t, ok)
	assert.Equal(t, TickInterval, timer.Delay)

	m.Fire("countdown/0/0") // stale key
	assert.Equal(t, TimeModeStart, m.Puzzle.TimeLeft)

	m.Fire(timer.Key)
	assert.Equal(t, TimeModeStart-1, m.Puzzle.TimeLeft)

	next, ok := m.Timer()
	require.True(t, ok)
	assert.NotEqual(t, timer.Key, next.Key)

	// firing the old key again does nothing
	m.Fire(timer.Key)
	assert.Equal(t, TimeModeStart-1, m.Puzzle.TimeLeft)

	// a reset starts a new round; old keys stay dead
	require.NoError(t, m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: ModeTime})))
	m.Fire(next.Key)
	assert.Equal(t, TimeModeStart, m.Puzzle.TimeLeft)
}

func TestMatchTimerExpiryScenario(t *testing.T) {
	m := newTestMatch()
	require.NoError(t, m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: ModeTime})))
	rows := len(m.Puzzle.Grid)
	for i := 0; i < TimeModeStart; i++ {
		timer, ok := m.Timer()
		require.True(t, ok)
		m.Fire(timer.Key)
	}
	assert.Equal(t, rows+Cols, len(m.Puzzle.Grid))
	assert.Equal(t, PenaltyTime, m.Puzzle.TimeLeft)
	assert.Equal(t, 0, m.Puzzle.Score)
}

func TestMatchResultsAndPersistence(t *testing.T) {
	m := newTestMatch()
	assert.Nil(t, m.Results())
	require.NoError(t, m.ApplyAction("alice", game.NewAction("init", initPayload{Mode: ModeClassic})))
	m.Puzzle.Status = StatusGameOver
	m.Puzzle.Score = 120
	require.True(t, m.IsOver())
	assert.Equal(t, []game.PlayerResult{{PlayerID: "alice", Rank: 1, Score: 120}}, m.Results())

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	restored := &Match{}
	require.NoError(t, restored.UnmarshalJSON(data))
	assert.Equal(t, m.Puzzle, restored.Puzzle)
	assert.Equal(t, "alice", restored.Player)
	assert.Equal(t, 1, restored.Round)
}

func TestMatchStateView(t *testing.T) {
	m := newTestMatch()
	v, ok := m.State("alice").(View)
	require.True(t, ok)
	assert.True(t, v.You)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "menu", decoded["status"])
	assert.Contains(t, decoded, "targetNumber")
	assert.Contains(t, decoded, "selectedSum")
}
