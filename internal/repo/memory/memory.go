// Package memory is the default in-process target store, seeded from the
// config file at startup.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pingmon/internal/domain"
	"pingmon/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	order   []string // insertion order of aliases
	targets map[string]domain.Target
}

func New() *Store {
	return &Store{
		targets: make(map[string]domain.Target),
	}
}

func (m *Store) List(ctx context.Context) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, 0, len(m.order))
	for _, alias := range m.order {
		out = append(out, m.targets[alias])
	}
	return out, nil
}

func (m *Store) Get(ctx context.Context, alias string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[alias]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (m *Store) Upsert(ctx context.Context, t domain.Target) error {
	t.Normalize()
	if t.Host == "" {
		return fmt.Errorf("target %q: host is required", t.Alias)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[t.Alias]; !ok {
		m.order = append(m.order, t.Alias)
	}
	m.targets[t.Alias] = t
	return nil
}

func (m *Store) Delete(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[alias]; !ok {
		return nil
	}
	delete(m.targets, alias)
	for i, a := range m.order {
		if a == alias {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Store) SetEnabled(ctx context.Context, alias string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[alias]
	if !ok {
		return fmt.Errorf("unknown target %q", alias)
	}
	t.Enabled = enabled
	m.targets[alias] = t
	return nil
}
