package funnel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
)

func TestBuildSummary(t *testing.T) {
	evts := funnelEvents(map[string]int{
		"quiz_start":    4,
		"quiz_complete": 2,
		"sale":          1,
	})
	now := time.UnixMilli(1_750_000_000_000)

	s, err := BuildSummary(evts, DefaultSteps(), now)
	require.NoError(t, err)

	assert.Len(t, s.Steps, 5)
	assert.Equal(t, 7, s.TotalEvents)
	assert.InDelta(t, 25.0, s.OverallConversion, 0.001)
	assert.Equal(t, now, s.ComputedAt)
	require.NotNil(t, s.Bottleneck)
}

func TestRefresherComputesInitialSummary(t *testing.T) {
	evts := funnelEvents(map[string]int{"quiz_start": 3})
	r := NewRefresher(func() []events.Event { return evts }, DefaultSteps(), time.Minute, time.Now, nil)

	s := r.Summary()
	require.Len(t, s.Steps, 5)
	assert.Equal(t, 3, s.Steps[0].Value)
}

func TestRefresherRefreshPicksUpNewEvents(t *testing.T) {
	var evts []events.Event
	r := NewRefresher(func() []events.Event { return evts }, DefaultSteps(), time.Minute, time.Now, nil)

	assert.Equal(t, 0, r.Summary().TotalEvents)

	evts = funnelEvents(map[string]int{"quiz_start": 2})
	r.Refresh()
	assert.Equal(t, 2, r.Summary().TotalEvents)
}

func TestRefresherStartStop(t *testing.T) {
	r := NewRefresher(func() []events.Event { return nil }, DefaultSteps(), 5*time.Millisecond, time.Now, nil)
	r.Start()
	time.Sleep(20 * time.Millisecond)
	r.Stop()

	// Summary stays readable after Stop.
	assert.Len(t, r.Summary().Steps, 5)
}

func TestRefresherStopWithoutStart(t *testing.T) {
	r := NewRefresher(func() []events.Event { return nil }, DefaultSteps(), time.Minute, time.Now, nil)
	r.Stop()
	r.Stop()
}

func TestRefresherKeepsLastGoodSummaryOnError(t *testing.T) {
	evts := funnelEvents(map[string]int{"quiz_start": 1})
	defs := DefaultSteps()
	r := NewRefresher(func() []events.Event { return evts }, defs, time.Minute, time.Now, nil)
	require.Equal(t, 1, r.Summary().TotalEvents)

	// Corrupt a definition after construction: refresh fails, summary stays.
	defs[0].Match = "type =="
	r.Refresh()
	assert.Equal(t, 1, r.Summary().TotalEvents)
}
