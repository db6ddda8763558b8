// Package funnel reduces the flat analytics event log into funnel steps,
// conversion rates, and the bottleneck between adjacent steps. Everything in
// this package is a pure function over an event snapshot; nothing here
// mutates its inputs or keeps hidden state, except the Refresher which only
// caches the latest computed summary.
package funnel

import (
	"fmt"
	"time"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
)

// TimeRange is the closed set of analytics time windows.
type TimeRange string

// Supported time ranges.
const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	RangeAll    TimeRange = "all"
)

// ParseTimeRange parses a query-string range value. An empty value defaults
// to all-time.
func ParseTimeRange(s string) (TimeRange, error) {
	switch s {
	case "", "all":
		return RangeAll, nil
	case "7d":
		return Range7Days, nil
	case "30d":
		return Range30Days, nil
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

// FilterByTimeRange keeps events inside the window ending at now. The cutoff
// boundary is inclusive: an event timestamped exactly at now minus the window
// is kept. Events without a timestamp are excluded from every range,
// including all-time.
func FilterByTimeRange(evts []events.Event, r TimeRange, now time.Time) []events.Event {
	if r == RangeAll {
		out := make([]events.Event, 0, len(evts))
		for _, e := range evts {
			if e.Timestamp > 0 {
				out = append(out, e)
			}
		}
		return out
	}

	var window time.Duration
	switch r {
	case Range7Days:
		window = 7 * 24 * time.Hour
	case Range30Days:
		window = 30 * 24 * time.Hour
	default:
		return nil
	}
	cutoff := now.Add(-window).UnixMilli()

	out := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if e.Timestamp <= 0 {
			continue
		}
		if e.Timestamp >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

// FilterByType keeps events whose type is in allowed. An empty allowed set
// means "no filter": every event passes.
func FilterByType(evts []events.Event, allowed []string) []events.Event {
	if len(allowed) == 0 {
		out := make([]events.Event, len(evts))
		copy(out, evts)
		return out
	}
	set := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}
	out := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if set[e.Type] {
			out = append(out, e)
		}
	}
	return out
}
