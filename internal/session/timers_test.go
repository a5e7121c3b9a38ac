package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlor/internal/game"
	"parlor/internal/game/blockmatch"
	"parlor/internal/game/crazyeights"
)

func puzzle(s *Session) blockmatch.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Match.(*blockmatch.Match).Puzzle
}

func table(s *Session) crazyeights.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Match.(*crazyeights.Match).Table
}

func timeMode(t *testing.T, mgr *Manager) *Session {
	t.Helper()
	sess := started(t, mgr, "blockmatch")
	require.NoError(t, sess.Apply("alice", game.NewAction("init", map[string]string{"mode": "time"})))
	return sess
}

func TestCountdownTicksOnClock(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	require.Equal(t, blockmatch.TimeModeStart, puzzle(sess).TimeLeft)

	key, ok := sess.PendingTimer()
	require.True(t, ok)
	assert.Equal(t, "countdown/1/0", key)

	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return puzzle(sess).TimeLeft == blockmatch.TimeModeStart-1
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		key, ok := sess.PendingTimer()
		return ok && key == "countdown/1/1"
	}, time.Second, time.Millisecond)
}

func TestClicksDoNotRestartCountdown(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	mock.Add(600 * time.Millisecond)

	id := puzzle(sess).Grid[0].ID
	require.NoError(t, sess.Apply("alice", game.NewAction("click", map[string]int{"id": id})))
	key, _ := sess.PendingTimer()
	assert.Equal(t, "countdown/1/0", key)
	left := puzzle(sess).TimeLeft

	mock.Add(400 * time.Millisecond)
	require.Eventually(t, func() bool {
		return puzzle(sess).TimeLeft == left-1
	}, time.Second, time.Millisecond)
}

func TestResetDropsOldCountdown(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	require.NoError(t, sess.Apply("alice", game.NewAction("init", map[string]string{"mode": "classic"})))

	_, ok := sess.PendingTimer()
	assert.False(t, ok, "classic mode has no countdown")

	mock.Add(5 * time.Second)
	assert.Equal(t, 0, puzzle(sess).TimeLeft)
	assert.Equal(t, blockmatch.ModeClassic, puzzle(sess).Mode)
}

func TestStaleFireIgnored(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	sess.fire("countdown/0/0")
	assert.Equal(t, blockmatch.TimeModeStart, puzzle(sess).TimeLeft)
}

func TestOpponentMovesAfterDelay(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(3))
	defer cleanup()

	var changes atomic.Int32
	mgr.OnChange(func(*Session) { changes.Add(1) })

	sess := started(t, mgr, "crazyeights")
	require.NoError(t, sess.Apply("alice", game.NewAction("start", nil)))
	require.NoError(t, sess.Apply("alice", game.NewAction("confirm_rules", nil)))
	require.Equal(t, crazyeights.PhasePlaying, table(sess).Phase)

	sess.mu.Lock()
	sess.Match.(*crazyeights.Match).Table.Turn = crazyeights.SeatAI
	sess.rescheduleLocked()
	sess.mu.Unlock()

	before := table(sess).CardCount()
	aiBefore := len(table(sess).AI.Hand)

	mock.Add(400 * time.Millisecond)
	assert.Equal(t, crazyeights.SeatAI, table(sess).Turn, "opponent waits for its delay")

	mock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, time.Millisecond)

	after := table(sess)
	assert.NotEqual(t, aiBefore, len(after.AI.Hand))
	assert.Equal(t, before, after.CardCount())
	if !after.Phase.Over() {
		assert.Equal(t, crazyeights.SeatPlayer, after.Turn)
	}

	stored, err := mgr.store.GetMatchState(sess.Code)
	require.NoError(t, err)
	assert.Contains(t, stored, `"seq"`)
}

func TestRemoveStopsTimer(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	mgr.Remove(sess.Code)

	_, ok := sess.PendingTimer()
	assert.False(t, ok)
	mock.Add(3 * time.Second)
	assert.Equal(t, blockmatch.TimeModeStart, puzzle(sess).TimeLeft)
}

func TestRestoreRearmsTimer(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock), WithSeed(7))
	defer cleanup()

	sess := timeMode(t, mgr)
	require.NoError(t, mgr.SaveSessionPlayers(sess))
	require.NoError(t, mgr.SaveMatchState(sess))

	mgr2 := NewManager(newRegistry(), mgr.store, WithClock(mock))
	require.NoError(t, mgr2.Restore())
	sess2, ok := mgr2.Get(sess.Code)
	require.True(t, ok)

	key, ok := sess2.PendingTimer()
	require.True(t, ok)
	assert.Equal(t, "countdown/1/0", key)
}

func TestCleanupLoopStopsWithContext(t *testing.T) {
	mock := clock.NewMock()
	mgr, cleanup := setupTest(t, WithClock(mock))
	defer cleanup()

	sess, err := mgr.Create("blockmatch")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mgr.CleanupLoop(ctx, time.Minute, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		_, ok := mgr.Get(sess.Code)
		return !ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
