package config

import "sync"

// Store holds the live monitor settings. The scheduler snapshots it every
// cycle, so changes apply on the next cycle boundary, never mid-cycle.
type Store struct {
	mu sync.RWMutex
	s  Settings
}

func NewStore(s Settings) *Store {
	return &Store{s: s}
}

func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Apply validates and installs new settings.
func (st *Store) Apply(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	st.s = s
	st.mu.Unlock()
	return nil
}
