package scheduler

import (
	"sync"
	"time"

	"github.com/tmc/lit/shell"
)

// Timer is the per-test timeout helper of spec §4.8/§5, grounded on
// the original BasicTimer/TimeoutHelper: a single-shot timer holding a
// list of PIDs registered by the running test's shell.Executor. On
// fire it kills every registered process group. A PID registered after
// the timer has already fired is killed immediately, so there is no
// race window where a late child survives.
type Timer struct {
	mu     sync.Mutex
	armed  bool
	fired  bool
	pids   map[int]bool
	timer  *time.Timer
	onFire func()
}

// NewTimer starts a Timer that fires after d (if d > 0; d <= 0 means
// no timeout). onFire, if non-nil, is called exactly once when the
// timer fires, after any already-registered PIDs have been killed.
func NewTimer(d time.Duration, onFire func()) *Timer {
	t := &Timer{armed: true, pids: map[int]bool{}, onFire: onFire}
	if d > 0 {
		t.timer = time.AfterFunc(d, t.fire)
	}
	return t
}

func (t *Timer) fire() {
	t.mu.Lock()
	t.fired = true
	pids := make([]int, 0, len(t.pids))
	for pid := range t.pids {
		pids = append(pids, pid)
	}
	t.mu.Unlock()

	for _, pid := range pids {
		shell.KillProcessGroup(pid)
	}
	if t.onFire != nil {
		t.onFire()
	}
}

// Register adds pid to the set killed when the timer fires. If the
// timer has already fired, pid is killed immediately instead.
func (t *Timer) Register(pid int) {
	t.mu.Lock()
	fired := t.fired
	if !fired {
		t.pids[pid] = true
	}
	t.mu.Unlock()
	if fired {
		shell.KillProcessGroup(pid)
	}
}

// Fired reports whether the timer has fired.
func (t *Timer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Stop disarms the timer, preventing a future fire.
func (t *Timer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
