// Package probe issues single-packet ICMP reachability probes by shelling
// out to the platform ping binary and parsing its exit code and output.
package probe

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"pingmon/internal/domain"
)

// Pinger performs a single reachability probe for a host. Implementations
// never return an error: all failure modes are encoded in the result reason.
type Pinger interface {
	Ping(ctx context.Context, host string, timeout time.Duration) domain.ProbeResult
}

// spawnSlack gives the external ping process a fair chance to report its own
// timeout before the hard deadline fires.
const spawnSlack = 2 * time.Second

// ExecPinger runs the system ping command with one echo request.
type ExecPinger struct{}

func NewExecPinger() *ExecPinger {
	return &ExecPinger{}
}

func (p *ExecPinger) Ping(ctx context.Context, host string, timeout time.Duration) domain.ProbeResult {
	if timeout <= 0 {
		timeout = time.Second
	}
	args, wait := pingArgs(host, timeout)

	cctx, cancel := context.WithTimeout(ctx, wait+spawnSlack)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(cctx, "ping", args...).CombinedOutput()
	elapsedMS := float64(time.Since(start)) / float64(time.Millisecond)

	if cctx.Err() != nil {
		// Hard deadline expired (or the caller cancelled) before the
		// external tool reported anything.
		return domain.ProbeResult{Reason: domain.ReasonTimeout}
	}

	code := 0
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			code = ee.ExitCode()
		} else {
			// Spawn failure: the probe never ran.
			return domain.ProbeResult{Reason: domain.ReasonTimeout}
		}
	}
	return classify(code, string(out), elapsedMS)
}

// pingArgs builds the platform-specific argument list for one echo request
// and returns how long the external tool may legitimately take.
func pingArgs(host string, timeout time.Duration) ([]string, time.Duration) {
	if runtime.GOOS == "windows" {
		ms := int(timeout / time.Millisecond)
		return []string{"-n", "1", "-w", strconv.Itoa(ms), host}, timeout
	}
	// ping -W takes whole seconds on Linux/macOS; round up.
	secs := int((timeout + time.Second - time.Nanosecond) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), host}, time.Duration(secs) * time.Second
}

var (
	latencyRe = regexp.MustCompile(`(?i)time[=:]?\s*([0-9.]+)\s*ms`)
	bareMSRe  = regexp.MustCompile(`([0-9.]+)\s*ms`)
)

// classify maps the probe exit code and raw output to a result. The exit code
// is the primary signal; substring matching only refines the failure reason
// and assumes English tool output, a known limitation on localized systems.
func classify(code int, output string, elapsedMS float64) domain.ProbeResult {
	if code == 0 {
		lat := parseLatency(output)
		if lat == nil {
			v := math.Round(elapsedMS*10) / 10
			lat = &v
		}
		return domain.ProbeResult{Success: true, LatencyMS: lat, Reason: domain.ReasonOK}
	}
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout"):
		return domain.ProbeResult{Reason: domain.ReasonTimeout}
	case strings.Contains(lower, "unreachable"):
		return domain.ProbeResult{Reason: domain.ReasonUnreachable}
	}
	return domain.ProbeResult{Reason: domain.ErrorReason(code)}
}

// parseLatency extracts a millisecond latency from ping output. It accepts
// "time=23ms" (Windows), "time=12.3 ms" (Linux) and falls back to any bare
// "<number> ms" token; nil when nothing matches.
func parseLatency(output string) *float64 {
	for _, re := range []*regexp.Regexp{latencyRe, bareMSRe} {
		if m := re.FindStringSubmatch(output); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}
	return nil
}
