package domain

import (
	"strings"
	"time"
)

// DisplayMode controls how probe details are rendered in update lines.
type DisplayMode string

const (
	DisplayLatency DisplayMode = "latency" // "23ms" / raw failure reason
	DisplayCodes   DisplayMode = "codes"   // 200 / 408 / 503
)

// Target is one monitored host plus its polling parameters. The alias is the
// identity key: the scheduler keys outage state and updates by it.
type Target struct {
	Alias       string `json:"alias"`
	Host        string `json:"host"`
	IntervalSec int    `json:"interval"`
	TimeoutMS   int    `json:"timeout"`
	Enabled     bool   `json:"enabled"`
}

// Normalize trims fields and clamps values to their minimums: a blank alias
// becomes "Unnamed", interval is at least 1s, timeout at least 100ms.
func (t *Target) Normalize() {
	t.Alias = strings.TrimSpace(t.Alias)
	if t.Alias == "" {
		t.Alias = "Unnamed"
	}
	t.Host = strings.TrimSpace(t.Host)
	if t.IntervalSec < 1 {
		t.IntervalSec = 1
	}
	if t.TimeoutMS < 100 {
		t.TimeoutMS = 100
	}
}

func (t Target) Interval() time.Duration {
	return time.Duration(t.IntervalSec) * time.Second
}

func (t Target) Timeout() time.Duration {
	return time.Duration(t.TimeoutMS) * time.Millisecond
}

// MonitorUpdate is a presentation snapshot for one completed probe cycle.
// Updates for the same alias are strictly ordered; ordering across aliases
// is not guaranteed.
type MonitorUpdate struct {
	Alias   string      `json:"alias"`
	Host    string      `json:"host"`
	Success bool        `json:"success"`
	Detail  string      `json:"detail"`
	Line    string      `json:"line"`
	Mode    DisplayMode `json:"display_mode"`
}
