package draft

import (
	"sync"
	"time"
)

// Autosaver debounces session persistence: every mutation arms the timer,
// and the save callback fires only after the delay elapses with no further
// mutations. A new arm while the timer is pending restarts it rather than
// stacking saves, so at most one save runs per quiet period.
type Autosaver struct {
	mu      sync.Mutex
	delay   time.Duration
	save    func()
	timer   *time.Timer
	stopped bool
}

// NewAutosaver builds an autosaver around the given save callback. The
// callback runs on the timer goroutine; it is responsible for its own error
// handling (a failed autosave only makes crash recovery stale, it never
// loses live session state).
func NewAutosaver(delay time.Duration, save func()) *Autosaver {
	return &Autosaver{delay: delay, save: save}
}

// Arm starts or restarts the debounce timer.
func (a *Autosaver) Arm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.save)
}

// Flush cancels any pending timer and runs the save immediately.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.save()
}

// Stop cancels any pending save permanently. Used on discard, where
// persisting the session again would resurrect cleared state.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Resume re-enables an autosaver that was stopped.
func (a *Autosaver) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = false
}
