package tracking

import "sync"

// PollerState remembers the last status summary that was delivered to chat.
// It is shared between the scheduled tick and request handlers.
type PollerState struct {
	mu   sync.RWMutex
	last string
	set  bool
}

func NewPollerState() *PollerState {
	return &PollerState{}
}

// LastNotified returns the last delivered summary, if any.
func (s *PollerState) LastNotified() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.set
}

// Changed reports whether summary differs from the last delivered one.
// With nothing delivered yet every summary counts as a change.
func (s *PollerState) Changed(summary string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.set || s.last != summary
}

func (s *PollerState) Record(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = summary
	s.set = true
}
