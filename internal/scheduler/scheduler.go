// Package scheduler runs one independent, jittered polling loop per enabled
// target, bounded by a shared probe budget, and turns each probe outcome
// into a notification decision and a display update.
package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"pingmon/internal/config"
	"pingmon/internal/domain"
	"pingmon/internal/notify"
	"pingmon/internal/outage"
	"pingmon/internal/probe"
	"pingmon/internal/repo"
)

const notifyTitle = "pingmon"

type Scheduler struct {
	logger   *zap.Logger
	targets  repo.TargetStore
	pinger   probe.Pinger
	notifier notify.Notifier
	settings *config.Store

	sem     *semaphore.Weighted
	updates chan domain.MonitorUpdate
	dropped atomic.Int64

	mu     sync.Mutex
	states map[string]*outage.State
	active map[string]struct{}
	wg     sync.WaitGroup
}

func New(
	logger *zap.Logger,
	targets repo.TargetStore,
	pinger probe.Pinger,
	notifier notify.Notifier,
	settings *config.Store,
) *Scheduler {
	st := settings.Snapshot()
	conc := st.Concurrency
	if conc < 1 {
		conc = 1
	}
	buf := st.UpdateBuffer
	if buf < 1 {
		buf = 256
	}
	return &Scheduler{
		logger:   logger,
		targets:  targets,
		pinger:   pinger,
		notifier: notifier,
		settings: settings,
		sem:      semaphore.NewWeighted(int64(conc)),
		updates:  make(chan domain.MonitorUpdate, buf),
		states:   make(map[string]*outage.State),
		active:   make(map[string]struct{}),
	}
}

// Updates is the update sink: one MonitorUpdate per completed probe cycle.
// The scheduler never blocks on it; when the buffer is full the newest
// update is dropped.
func (s *Scheduler) Updates() <-chan domain.MonitorUpdate {
	return s.updates
}

// Run starts a loop per enabled target, then keeps resyncing the loop set so
// that targets added or re-enabled at runtime get a fresh loop (with fresh
// startup jitter). Blocks until ctx is cancelled and all loops have unwound.
func (s *Scheduler) Run(ctx context.Context) {
	s.resync(ctx)

	resync := time.Duration(s.settings.Snapshot().ResyncSec) * time.Second
	if resync <= 0 {
		resync = 2 * time.Second
	}
	t := time.NewTicker(resync)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("monitor_stopped", zap.Int64("updates_dropped", s.dropped.Load()))
			return
		case <-t.C:
			s.resync(ctx)
		}
	}
}

// resync starts a loop for every enabled target that has none running.
// Loops terminate on their own when their target disappears or is disabled.
func (s *Scheduler) resync(ctx context.Context) {
	ts, err := s.targets.List(ctx)
	if err != nil {
		s.logger.Warn("target_list_error", zap.Error(err))
		return
	}
	for _, t := range ts {
		if !t.Enabled {
			continue
		}
		s.mu.Lock()
		if _, running := s.active[t.Alias]; running {
			s.mu.Unlock()
			continue
		}
		s.active[t.Alias] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.runTarget(ctx, t.Alias)
	}
}

// runTarget is one target's polling loop: initial jitter, then
// probe / process / sleep, strictly sequential. The target is re-resolved by
// alias each cycle so live edits take effect on the next cycle boundary.
func (s *Scheduler) runTarget(ctx context.Context, alias string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.active, alias)
		s.mu.Unlock()
	}()

	if !sleepCtx(ctx, s.jitter()) {
		return
	}
	for {
		t, err := s.targets.Get(ctx, alias)
		if err != nil {
			s.logger.Warn("target_resolve_error", zap.String("alias", alias), zap.Error(err))
			return
		}
		if t == nil || !t.Enabled {
			s.logger.Debug("target_loop_stopped", zap.String("alias", alias))
			return
		}
		s.runCycle(ctx, *t)
		if !sleepCtx(ctx, t.Interval()+s.jitter()) {
			return
		}
	}
}

// runCycle executes one probe cycle: acquire a budget slot, probe, feed the
// outage machine, decide on notification, publish an update. The decision
// uses the flags returned by the state machine, never a re-read of status.
func (s *Scheduler) runCycle(ctx context.Context, t domain.Target) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return // cancelled while waiting for a slot
	}
	res := s.pinger.Ping(ctx, t.Host, t.Timeout())
	s.sem.Release(1)
	if ctx.Err() != nil {
		return // abandoned mid-probe by shutdown; not a real outcome
	}

	st := s.settings.Snapshot()
	mode := domain.DisplayMode(st.DisplayMode)
	ost := s.stateFor(t.Alias)

	var detail, line string
	if res.Success {
		prev, announce := ost.RecordSuccess()

		lat := 0.0
		if res.LatencyMS != nil {
			lat = *res.LatencyMS
		}
		detail = detailFor(true, fmt.Sprintf("%.0fms", lat), mode)
		line = fmt.Sprintf("%s - OK %s", t.Alias, detail)

		s.logger.Info("probe_ok",
			zap.String("alias", t.Alias),
			zap.String("host", t.Host),
			zap.Float64("latency_ms", lat),
		)
		if prev == outage.Down {
			s.logger.Info("target_recovered",
				zap.String("alias", t.Alias),
				zap.String("host", t.Host),
			)
		}
		if announce && st.NotificationsEnabled {
			s.deliver(ctx, fmt.Sprintf("%s is reachable again.", t.Alias), false)
		}
	} else {
		prev, first := ost.RecordFailure()

		detail = detailFor(false, string(res.Reason), mode)
		line = fmt.Sprintf("%s - DOWN %s", t.Alias, detail)

		s.logger.Info("probe_down",
			zap.String("alias", t.Alias),
			zap.String("host", t.Host),
			zap.String("reason", string(res.Reason)),
		)
		if prev == outage.Up {
			s.logger.Info("target_down",
				zap.String("alias", t.Alias),
				zap.String("host", t.Host),
				zap.String("reason", string(res.Reason)),
			)
		}
		if st.NotificationsEnabled {
			s.deliver(ctx,
				fmt.Sprintf("%s is DOWN: %s.", t.Alias, res.Reason),
				first && st.SoundOnDown,
			)
		}
	}

	s.publish(domain.MonitorUpdate{
		Alias:   t.Alias,
		Host:    t.Host,
		Success: res.Success,
		Detail:  detail,
		Line:    line,
		Mode:    mode,
	})
}

// deliver is best effort: a failing notifier never touches scheduler state.
func (s *Scheduler) deliver(ctx context.Context, message string, playSound bool) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Deliver(ctx, notifyTitle, message, playSound); err != nil {
		s.logger.Warn("notify_error", zap.Error(err))
	}
}

func (s *Scheduler) publish(u domain.MonitorUpdate) {
	select {
	case s.updates <- u:
	default:
		s.dropped.Add(1)
		s.logger.Debug("update_dropped", zap.String("alias", u.Alias))
	}
}

// stateFor lazily creates the outage state for an alias. One instance per
// alias for the lifetime of the session.
func (s *Scheduler) stateFor(alias string) *outage.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	ost, ok := s.states[alias]
	if !ok {
		ost = outage.NewState()
		s.states[alias] = ost
	}
	return ost
}

// Statuses snapshots the current status per alias for presentation use.
func (s *Scheduler) Statuses() map[string]outage.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]outage.Status, len(s.states))
	for alias, ost := range s.states {
		out[alias] = ost.Status()
	}
	return out
}

func (s *Scheduler) jitter() time.Duration {
	st := s.settings.Snapshot()
	lo, hi := st.JitterMinMS, st.JitterMaxMS
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return time.Duration(lo+rand.IntN(hi-lo+1)) * time.Millisecond
}

// sleepCtx sleeps for d; false when ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
