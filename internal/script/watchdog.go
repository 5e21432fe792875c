package script

import (
	"sync"
	"time"
)

// watchdog fires once after its budget is spent. The clock can be paused
// while the script waits on something outside its control.
type watchdog struct {
	mu        sync.Mutex
	fire      func()
	armed     bool
	timer     *time.Timer
	remaining time.Duration
	started   time.Time
	paused    int
	done      bool
}

// startWatchdog arms a watchdog. A budget of zero or less never fires.
func startWatchdog(budget time.Duration, fire func()) *watchdog {
	w := &watchdog{fire: fire, remaining: budget, armed: budget > 0}
	if w.armed {
		w.started = time.Now()
		w.timer = time.AfterFunc(budget, w.expire)
	}
	return w
}

func (w *watchdog) expire() {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	w.mu.Unlock()
	w.fire()
}

// pause stops the clock. Calls nest.
func (w *watchdog) pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused++
	if w.paused > 1 || w.timer == nil {
		return
	}
	if w.timer.Stop() {
		w.remaining -= time.Since(w.started)
	}
	w.timer = nil
}

// resume restarts the clock with whatever budget was left.
func (w *watchdog) resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused == 0 {
		return
	}
	w.paused--
	if w.paused > 0 || !w.armed || w.done {
		return
	}
	left := max(w.remaining, 0)
	w.started = time.Now()
	w.timer = time.AfterFunc(left, w.expire)
}

// stop disarms the watchdog for good.
func (w *watchdog) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
