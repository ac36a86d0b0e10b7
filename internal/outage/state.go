// Package outage tracks per-target up/down status across probe cycles and
// reports the transition edges that are worth announcing.
package outage

import (
	"sync"
	"sync/atomic"
)

type Status int32

const (
	Up Status = iota
	Down
)

func (s Status) String() string {
	if s == Down {
		return "DOWN"
	}
	return "UP"
}

// State is the outage machine for one target. Every session starts at UP.
// RecordSuccess and RecordFailure are serialized against each other;
// Status reads the current value without blocking.
type State struct {
	mu     sync.Mutex
	status atomic.Int32
}

func NewState() *State {
	return &State{}
}

// RecordSuccess registers a successful probe. announceRecovery is true on
// exactly the first success after being DOWN.
func (s *State) RecordSuccess() (prev Status, announceRecovery bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = Status(s.status.Load())
	s.status.Store(int32(Up))
	return prev, prev == Down
}

// RecordFailure registers a failed probe. firstOfOutage is true on exactly
// the first failure after being UP.
func (s *State) RecordFailure() (prev Status, firstOfOutage bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = Status(s.status.Load())
	s.status.Store(int32(Down))
	return prev, prev == Up
}

// Status returns the current status without taking the lock. Presentation
// readers tolerate staleness.
func (s *State) Status() Status {
	return Status(s.status.Load())
}
