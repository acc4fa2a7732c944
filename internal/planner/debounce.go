package planner

import (
	"strings"
	"sync"
	"time"
)

// Debouncer holds a search back until the query has been quiet for a full
// period. Every Trigger cancels the previous pending fire, so only the latest
// quiet period ever completes. Countdown ticks let a caller surface
// "searching in Ns" feedback while the clock runs.
type Debouncer struct {
	quiet    time.Duration
	minRunes int

	mu      sync.Mutex
	pending chan struct{}
}

// NewDebouncer builds a debouncer with the given quiet period and minimum
// query length. Non-positive arguments fall back to 3s and 2 runes.
func NewDebouncer(quiet time.Duration, minRunes int) *Debouncer {
	if quiet <= 0 {
		quiet = 3 * time.Second
	}
	if minRunes <= 0 {
		minRunes = 2
	}
	return &Debouncer{quiet: quiet, minRunes: minRunes}
}

// Trigger schedules fire(query) after the quiet period. A query below the
// minimum length cancels any pending fire without scheduling a new one.
// onTick, when non-nil, receives the whole seconds remaining as the countdown
// runs.
func (d *Debouncer) Trigger(query string, fire func(query string), onTick func(remaining int)) {
	d.mu.Lock()
	if d.pending != nil {
		close(d.pending)
		d.pending = nil
	}
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < d.minRunes {
		d.mu.Unlock()
		return
	}
	cancel := make(chan struct{})
	d.pending = cancel
	d.mu.Unlock()

	go d.wait(trimmed, cancel, fire, onTick)
}

// Stop cancels any pending fire.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		close(d.pending)
		d.pending = nil
	}
}

func (d *Debouncer) wait(query string, cancel chan struct{}, fire func(string), onTick func(int)) {
	deadline := time.NewTimer(d.quiet)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := int(d.quiet / time.Second)
	if onTick != nil && remaining > 0 {
		onTick(remaining)
	}

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			remaining--
			if onTick != nil && remaining > 0 {
				onTick(remaining)
			}
		case <-deadline.C:
			d.mu.Lock()
			if d.pending == cancel {
				d.pending = nil
			}
			d.mu.Unlock()
			fire(query)
			return
		}
	}
}
