package room

import (
	"sync"
	"time"
)

// Scheduler tracks one pending delayed action per room, used for the pause
// between a round-ended notice and the next word prompt. Scheduling again
// for the same room replaces the pending action.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

func (s *Scheduler) Schedule(roomID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[roomID]; ok {
		prev.Stop()
	}
	s.timers[roomID] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, roomID)
		s.mu.Unlock()
		fn()
	})
}

// Cancel drops the room's pending action, if any.
func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[roomID]; ok {
		prev.Stop()
		delete(s.timers, roomID)
	}
}

func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
