package layout

import (
	"sync"
	"time"

	"deckd/internal/clock"
	"deckd/internal/models"
)

// ResizeDebounce is how long the host viewport must stay still before a new
// layout pass runs.
const ResizeDebounce = 150 * time.Millisecond

// Debouncer collapses bursts of viewport resize events into one call of fn
// with the last reported size.
type Debouncer struct {
	mu    sync.Mutex
	clock clock.Clock
	delay time.Duration
	timer clock.Timer
	last  models.Size
	fn    func(models.Size)
}

func NewDebouncer(c clock.Clock, delay time.Duration, fn func(models.Size)) *Debouncer {
	return &Debouncer{clock: c, delay: delay, fn: fn}
}

func (d *Debouncer) Resize(size models.Size) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = size
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	size := d.last
	d.timer = nil
	d.mu.Unlock()
	d.fn(size)
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
