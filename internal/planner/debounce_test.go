package planner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu      sync.Mutex
	queries []string
}

func (f *fireRecorder) fire(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

func (f *fireRecorder) fired() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

func TestDebouncerFiresAfterQuietPeriod(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 2)
	defer d.Stop()
	rec := &fireRecorder{}

	d.Trigger("beans", rec.fire, nil)

	require.Eventually(t, func() bool {
		return len(rec.fired()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"beans"}, rec.fired())
}

func TestDebouncerOnlyLatestTriggerWins(t *testing.T) {
	d := NewDebouncer(40*time.Millisecond, 2)
	defer d.Stop()
	rec := &fireRecorder{}

	d.Trigger("be", rec.fire, nil)
	time.Sleep(10 * time.Millisecond)
	d.Trigger("bea", rec.fire, nil)
	time.Sleep(10 * time.Millisecond)
	d.Trigger("beans", rec.fire, nil)

	require.Eventually(t, func() bool {
		return len(rec.fired()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"beans"}, rec.fired(), "earlier triggers are cancelled")
}

func TestDebouncerShortQueryCancelsPending(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 2)
	defer d.Stop()
	rec := &fireRecorder{}

	d.Trigger("beans", rec.fire, nil)
	d.Trigger("b", rec.fire, nil)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.fired(), "shrinking below the minimum cancels the fetch")
}

func TestDebouncerStopCancels(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 2)
	rec := &fireRecorder{}

	d.Trigger("beans", rec.fire, nil)
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, rec.fired())
}

func TestDebouncerCountdownTicks(t *testing.T) {
	d := NewDebouncer(3*time.Second, 2)
	defer d.Stop()

	ticks := make(chan int, 4)
	d.Trigger("beans", func(string) {}, func(remaining int) {
		select {
		case ticks <- remaining:
		default:
		}
	})

	select {
	case remaining := <-ticks:
		assert.Equal(t, 3, remaining, "the countdown starts at the full quiet period")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the first countdown tick")
	}
}
