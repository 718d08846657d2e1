package scheduler

import (
	"sync"
	"time"

	"github.com/standardbeagle/codepulse/internal/debug"
)

// analysisDebouncer coalesces bursts of per-file schedule calls into one
// fire, keeping only the latest payload per key. Any schedule resets the
// single shared timer (cancel-and-replace).
type analysisDebouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending map[string][]byte
	fire    func(pending map[string][]byte)
}

func newAnalysisDebouncer(delay time.Duration, fire func(map[string][]byte)) *analysisDebouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &analysisDebouncer{
		delay:   delay,
		pending: make(map[string][]byte),
		fire:    fire,
	}
}

// Schedule registers a payload for the key, replacing any earlier one, and
// restarts the quiet-period timer.
func (d *analysisDebouncer) Schedule(key string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[key] = payload

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)

	debug.LogSched("scheduled analysis for %s (pending: %d)", key, len(d.pending))
}

// flush drains the pending set and hands it to the fire callback.
func (d *analysisDebouncer) flush() {
	d.mu.Lock()
	pending := d.pending
	d.pending = make(map[string][]byte)
	d.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	d.fire(pending)
}

// PendingCount reports how many keys await the timer.
func (d *analysisDebouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels the timer. Pending keys are discarded.
func (d *analysisDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string][]byte)
}

// Debouncer is the single-purpose variant: one deferred task, no keys.
// Triggering again within the delay replaces the previous task entirely.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules task after the quiet period, cancelling any task
// scheduled earlier.
func (d *Debouncer) Trigger(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, task)
}

// Stop cancels any scheduled task.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
