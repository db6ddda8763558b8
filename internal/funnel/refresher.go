package funnel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
)

// Summary is the periodically recomputed analytics overview served by the
// dashboard. It is produced fresh on each refresh and swapped atomically.
type Summary struct {
	Steps             []Step      `json:"steps"`
	OverallConversion float64     `json:"overall_conversion"`
	Bottleneck        *Bottleneck `json:"bottleneck,omitempty"`
	TotalEvents       int         `json:"total_events"`
	ComputedAt        time.Time   `json:"computed_at"`
}

// BuildSummary computes a Summary over the given events.
func BuildSummary(evts []events.Event, defs []StepDefinition, now time.Time) (Summary, error) {
	steps, err := ComputeFunnel(evts, defs)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Steps:             steps,
		OverallConversion: OverallConversionRate(steps),
		TotalEvents:       len(evts),
		ComputedAt:        now,
	}
	if b, ok := FindBottleneck(steps); ok {
		s.Bottleneck = &b
	}
	return s, nil
}

// Refresher recomputes the funnel summary on a fixed interval. It is a
// cancellable repeating timer: Stop halts future recomputations without
// touching the last published summary.
type Refresher struct {
	source   func() []events.Event
	defs     []StepDefinition
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu      sync.RWMutex
	summary Summary

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a refresher reading events from source. It computes
// an initial summary immediately so readers never see a zero value.
func NewRefresher(source func() []events.Event, defs []StepDefinition, interval time.Duration, now func() time.Time, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher{
		source:   source,
		defs:     defs,
		interval: interval,
		now:      now,
		logger:   logger,
	}
	r.refresh()
	return r
}

// Start begins periodic recomputation until Stop is called.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refresh()
			}
		}
	}()
}

// Stop cancels the timer and waits for the loop to exit. The last summary
// stays readable. Safe to call when Start was never called.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

// Refresh recomputes the summary immediately.
func (r *Refresher) Refresh() {
	r.refresh()
}

// Summary returns the latest computed summary.
func (r *Refresher) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary
}

func (r *Refresher) refresh() {
	s, err := BuildSummary(r.source(), r.defs, r.now())
	if err != nil {
		r.logger.Warn("funnel summary refresh failed", "err", err)
		return
	}
	r.mu.Lock()
	r.summary = s
	r.mu.Unlock()
}
