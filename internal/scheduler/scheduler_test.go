package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/domain"
	"pingmon/internal/outage"
	"pingmon/internal/repo/memory"
)

// --- fakes ---

// scriptPinger replays a scripted result sequence (repeating the last entry)
// and tracks how many probes run at once.
type scriptPinger struct {
	mu     sync.Mutex
	script []domain.ProbeResult
	i      int
	delay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (p *scriptPinger) Ping(ctx context.Context, host string, timeout time.Duration) domain.ProbeResult {
	cur := p.inFlight.Add(1)
	for {
		max := p.maxInFlight.Load()
		if cur <= max || p.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	defer p.inFlight.Add(-1)

	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.script) == 0 {
		return okResult(1)
	}
	r := p.script[p.i]
	if p.i < len(p.script)-1 {
		p.i++
	}
	return r
}

type notice struct {
	title   string
	message string
	sound   bool
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notice
}

func (n *recordingNotifier) Deliver(ctx context.Context, title, message string, playSound bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notice{title, message, playSound})
	return nil
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.calls...)
}

// --- helpers ---

func okResult(latMS float64) domain.ProbeResult {
	v := latMS
	return domain.ProbeResult{Success: true, LatencyMS: &v, Reason: domain.ReasonOK}
}

func failResult(r domain.Reason) domain.ProbeResult {
	return domain.ProbeResult{Reason: r}
}

func testSettings(concurrency int, mode string) *config.Store {
	return config.NewStore(config.Settings{
		Concurrency:          concurrency,
		JitterMinMS:          0,
		JitterMaxMS:          1,
		DisplayMode:          mode,
		NotificationsEnabled: true,
		SoundOnDown:          true,
		ResyncSec:            1,
		UpdateBuffer:         64,
	})
}

func testTarget(alias string) domain.Target {
	return domain.Target{Alias: alias, Host: "192.0.2.1", IntervalSec: 1, TimeoutMS: 200, Enabled: true}
}

func drain(ch <-chan domain.MonitorUpdate) []domain.MonitorUpdate {
	var out []domain.MonitorUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

// --- tests ---

// failure, failure, success, failure: sound on the first failure of each
// outage, silent repeats, exactly one recovery notice.
func TestNotificationDecisionSequence(t *testing.T) {
	p := &scriptPinger{script: []domain.ProbeResult{
		failResult(domain.ReasonTimeout),
		failResult(domain.ReasonTimeout),
		okResult(12),
		failResult(domain.ReasonUnreachable),
	}}
	rec := &recordingNotifier{}
	s := New(zap.NewNop(), memory.New(), p, rec, testSettings(2, "latency"))

	ctx := context.Background()
	tgt := testTarget("web")
	for i := 0; i < 4; i++ {
		s.runCycle(ctx, tgt)
	}

	calls := rec.all()
	require.Len(t, calls, 4)
	assert.Equal(t, "web is DOWN: TIMEOUT.", calls[0].message)
	assert.True(t, calls[0].sound)
	assert.Equal(t, "web is DOWN: TIMEOUT.", calls[1].message)
	assert.False(t, calls[1].sound)
	assert.Equal(t, "web is reachable again.", calls[2].message)
	assert.False(t, calls[2].sound)
	assert.Equal(t, "web is DOWN: UNREACHABLE.", calls[3].message)
	assert.True(t, calls[3].sound)
	for _, c := range calls {
		assert.Equal(t, "pingmon", c.title)
	}

	ups := drain(s.Updates())
	require.Len(t, ups, 4)
	assert.Equal(t, "web - DOWN TIMEOUT", ups[0].Line)
	assert.Equal(t, "web - OK 12ms", ups[2].Line)
	assert.Equal(t, "web - DOWN UNREACHABLE", ups[3].Line)
}

func TestNotificationsDisabledStillPublishes(t *testing.T) {
	p := &scriptPinger{script: []domain.ProbeResult{failResult(domain.ReasonTimeout)}}
	rec := &recordingNotifier{}
	set := testSettings(2, "latency")
	st := set.Snapshot()
	st.NotificationsEnabled = false
	require.NoError(t, set.Apply(st))

	s := New(zap.NewNop(), memory.New(), p, rec, set)
	s.runCycle(context.Background(), testTarget("web"))

	assert.Empty(t, rec.all())
	require.Len(t, drain(s.Updates()), 1)
}

func TestSoundOnDownDisabledIsSilentFirstFailure(t *testing.T) {
	p := &scriptPinger{script: []domain.ProbeResult{failResult(domain.ReasonTimeout)}}
	rec := &recordingNotifier{}
	set := testSettings(2, "latency")
	st := set.Snapshot()
	st.SoundOnDown = false
	require.NoError(t, set.Apply(st))

	s := New(zap.NewNop(), memory.New(), p, rec, set)
	s.runCycle(context.Background(), testTarget("web"))

	calls := rec.all()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].sound)
}

func TestCodesDisplayMode(t *testing.T) {
	p := &scriptPinger{script: []domain.ProbeResult{
		okResult(9),
		failResult(domain.ReasonTimeout),
		failResult(domain.ReasonUnreachable),
		failResult(domain.ErrorReason(2)),
	}}
	s := New(zap.NewNop(), memory.New(), p, nil, testSettings(2, "codes"))

	ctx := context.Background()
	tgt := testTarget("web")
	for i := 0; i < 4; i++ {
		s.runCycle(ctx, tgt)
	}

	ups := drain(s.Updates())
	require.Len(t, ups, 4)
	assert.Equal(t, "web - OK 200", ups[0].Line)
	assert.Equal(t, "web - DOWN 408", ups[1].Line)
	assert.Equal(t, "web - DOWN 503", ups[2].Line)
	assert.Equal(t, "web - DOWN 503", ups[3].Line)
}

func TestDetailFor(t *testing.T) {
	assert.Equal(t, "23ms", detailFor(true, "23ms", domain.DisplayLatency))
	assert.Equal(t, "TIMEOUT", detailFor(false, "TIMEOUT", domain.DisplayLatency))
	assert.Equal(t, "200", detailFor(true, "23ms", domain.DisplayCodes))
	assert.Equal(t, "408", detailFor(false, "TIMEOUT", domain.DisplayCodes))
	assert.Equal(t, "503", detailFor(false, "UNREACHABLE", domain.DisplayCodes))
	assert.Equal(t, "503", detailFor(false, "ERROR:2", domain.DisplayCodes))
}

// With budget N and M>N concurrent cycles, never more than N probes in flight.
func TestConcurrencyBound(t *testing.T) {
	p := &scriptPinger{delay: 30 * time.Millisecond}
	s := New(zap.NewNop(), memory.New(), p, nil, testSettings(2, "latency"))

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.runCycle(ctx, testTarget(fmt.Sprintf("t%d", i)))
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, p.maxInFlight.Load(), int32(2))
}

func TestUpdateSinkDropsNewestWhenFull(t *testing.T) {
	set := testSettings(2, "latency")
	st := set.Snapshot()
	st.UpdateBuffer = 1
	require.NoError(t, set.Apply(st))

	p := &scriptPinger{}
	s := New(zap.NewNop(), memory.New(), p, nil, set)

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			s.runCycle(ctx, testTarget("web"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runCycle blocked on a full update sink")
	}
	assert.Len(t, drain(s.Updates()), 1)
	assert.Equal(t, int64(2), s.dropped.Load())
}

func TestOutageStateCreatedLazilyPerAlias(t *testing.T) {
	p := &scriptPinger{}
	s := New(zap.NewNop(), memory.New(), p, nil, testSettings(2, "latency"))

	ctx := context.Background()
	s.runCycle(ctx, testTarget("a"))
	s.runCycle(ctx, testTarget("b"))
	s.runCycle(ctx, testTarget("a"))

	st := s.Statuses()
	require.Len(t, st, 2)
	assert.Equal(t, outage.Up, st["a"])
	assert.Equal(t, outage.Up, st["b"])
}

// Disabling stops further updates for the alias; re-enabling starts a fresh
// loop via resync and updates resume.
func TestDisableStopsAndReenableResumes(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Upsert(ctx, testTarget("web")))

	p := &scriptPinger{}
	s := New(zap.NewNop(), store, p, nil, testSettings(2, "latency"))
	go s.Run(ctx)

	// first cycle lands quickly (jitter <= 1ms)
	select {
	case <-s.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no initial update")
	}

	require.NoError(t, store.SetEnabled(ctx, "web", false))
	// allow any in-flight cycle to publish, then expect silence
	time.Sleep(300 * time.Millisecond)
	drain(s.Updates())
	select {
	case u := <-s.Updates():
		t.Fatalf("update after disable: %+v", u)
	case <-time.After(1500 * time.Millisecond):
	}

	require.NoError(t, store.SetEnabled(ctx, "web", true))
	select {
	case <-s.Updates():
	case <-time.After(4 * time.Second):
		t.Fatal("no update after re-enable")
	}
}

// Cancellation unwinds every loop without waiting for interval sleeps.
func TestStopUnwindsPromptly(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 4; i++ {
		tgt := testTarget(fmt.Sprintf("t%d", i))
		tgt.IntervalSec = 3600
		require.NoError(t, store.Upsert(ctx, tgt))
	}

	p := &scriptPinger{}
	s := New(zap.NewNop(), store, p, nil, testSettings(2, "latency"))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(200 * time.Millisecond) // let loops reach their hour-long sleep
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop promptly")
	}
}
