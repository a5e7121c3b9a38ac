package session

import "parlor/internal/game"

// rescheduleLocked keeps the session's single timer in line with what the
// match is waiting on. An armed timer survives while its key is unchanged
// so player actions do not restart a running countdown.
func (s *Session) rescheduleLocked() {
	clocked, ok := s.Match.(game.Clocked)
	if !ok || s.Status != StatusPlaying {
		s.stopTimerLocked()
		return
	}
	want, ok := clocked.Timer()
	if ok && s.timer != nil && s.timerKey == want.Key {
		return
	}
	s.stopTimerLocked()
	if !ok {
		return
	}
	key := want.Key
	s.timerKey = key
	s.timer = s.clock.AfterFunc(want.Delay, func() { s.fire(key) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = nil
	s.timerKey = ""
}

// fire runs a timer's transition. Timers replaced or stopped since they
// were armed find a different key and do nothing.
func (s *Session) fire(key string) {
	s.mu.Lock()
	if s.timerKey != key {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.timerKey = ""
	s.Match.(game.Clocked).Fire(key)
	s.syncStatusLocked()
	s.rescheduleLocked()
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(s)
	}
}

// PendingTimer reports the key of the armed timer, if any.
func (s *Session) PendingTimer() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timerKey, s.timer != nil
}

// Stop cancels any armed timer.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}
