package outage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitialStateIsUp(t *testing.T) {
	s := NewState()
	require.Equal(t, Up, s.Status())
}

func TestFirstFailureTransitionsDown(t *testing.T) {
	s := NewState()
	prev, first := s.RecordFailure()
	require.Equal(t, Up, prev)
	require.True(t, first)
	require.Equal(t, Down, s.Status())
}

func TestRepeatFailuresAreSilent(t *testing.T) {
	s := NewState()
	s.RecordFailure()
	for i := 0; i < 3; i++ {
		prev, first := s.RecordFailure()
		require.Equal(t, Down, prev)
		require.False(t, first)
	}
}

func TestRecoveryAnnouncedOnce(t *testing.T) {
	s := NewState()
	s.RecordFailure()
	prev, announce := s.RecordSuccess()
	require.Equal(t, Down, prev)
	require.True(t, announce)

	prev, announce = s.RecordSuccess()
	require.Equal(t, Up, prev)
	require.False(t, announce)
}

func TestSuccessWhileUpIsIdempotent(t *testing.T) {
	s := NewState()
	for i := 0; i < 3; i++ {
		prev, announce := s.RecordSuccess()
		require.Equal(t, Up, prev)
		require.False(t, announce)
	}
}

// failure, failure, success, failure must flag (true, false, true, true).
func TestFullCycleFlags(t *testing.T) {
	s := NewState()

	_, first := s.RecordFailure()
	require.True(t, first)

	_, first = s.RecordFailure()
	require.False(t, first)

	prev, announce := s.RecordSuccess()
	require.Equal(t, Down, prev)
	require.True(t, announce)

	prev, first = s.RecordFailure()
	require.Equal(t, Up, prev)
	require.True(t, first)
}

// Hammer one instance from many goroutines; the returned edge flags must be
// internally consistent (exactly one first-failure per observed UP->DOWN).
func TestConcurrentTransitionsStayConsistent(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts, recoveries := 0, 0

	for i := 0; i < 8; i++ {
		fail := i%2 == 0
		wg.Add(1)
		go func(fail bool) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if fail {
					if _, first := s.RecordFailure(); first {
						mu.Lock()
						firsts++
						mu.Unlock()
					}
				} else {
					if _, rec := s.RecordSuccess(); rec {
						mu.Lock()
						recoveries++
						mu.Unlock()
					}
				}
			}
		}(fail)
	}
	wg.Wait()

	// Edges alternate, so the counts can differ by at most one.
	diff := firsts - recoveries
	if diff < 0 {
		diff = -diff
	}
	require.LessOrEqual(t, diff, 1)
}
