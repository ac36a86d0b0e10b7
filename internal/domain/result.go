package domain

import (
	"fmt"
	"strings"
)

// Reason classifies a probe outcome. Error reasons carry the probe command's
// exit code, e.g. "ERROR:2".
type Reason string

const (
	ReasonOK          Reason = "OK"
	ReasonTimeout     Reason = "TIMEOUT"
	ReasonUnreachable Reason = "UNREACHABLE"
)

// ErrorReason wraps a nonzero probe exit code.
func ErrorReason(code int) Reason {
	return Reason(fmt.Sprintf("ERROR:%d", code))
}

func (r Reason) IsTimeout() bool {
	return strings.Contains(strings.ToUpper(string(r)), "TIMEOUT")
}

// ProbeResult is the outcome of a single reachability probe. LatencyMS is nil
// on failure or when the probe output had no parseable latency.
type ProbeResult struct {
	Success   bool
	LatencyMS *float64
	Reason    Reason
}
