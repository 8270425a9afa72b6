// Package scheduler runs a list of Tests concurrently: a worker pool
// bounded by configured thread count, per-test timeouts, named
// parallelism groups, max-failure cancellation and a global wall-clock
// deadline, per spec §4.8/§5.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tmc/lit/directive"
	"github.com/tmc/lit/format"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

// TimeoutError marks a test that exceeded its per-test or the run's
// global deadline.
type TimeoutError struct {
	Test string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scheduler: %s: timed out", e.Test)
}

// ProgressFunc is invoked exactly once per test with its published
// Result already attached. Calls are serialized by the scheduler, per
// §5's "all calls to it are mutually exclusive even across workers".
type ProgressFunc func(t *littest.Test)

// Scheduler owns the named parallelism-group semaphores shared across
// Run invocations (a fresh Scheduler is typical for one lit invocation).
type Scheduler struct {
	Formats *format.Registry

	groupsMu sync.Mutex
	groups   map[string]*semaphore.Weighted
}

// New returns a Scheduler that resolves each test's format from formats.
func New(formats *format.Registry) *Scheduler {
	return &Scheduler{Formats: formats, groups: map[string]*semaphore.Weighted{}}
}

func (s *Scheduler) groupSem(name string, limit int) *semaphore.Weighted {
	s.groupsMu.Lock()
	defer s.groupsMu.Unlock()
	if sem, ok := s.groups[name]; ok {
		return sem
	}
	n := int64(limit)
	if n <= 0 {
		n = 1 << 30 // effectively uncapped: no configured limit for this group
	}
	sem := semaphore.NewWeighted(n)
	s.groups[name] = sem
	return sem
}

func targetTriple(cfg *litconfig.TestingConfig) string {
	if v, ok := cfg.ExtraConfig["target_triple"].(string); ok {
		return v
	}
	return ""
}

// Run drains tests (already ordered and filtered by the caller) across
// a worker pool of size min(lit.Threads, len(tests)) and publishes
// each outcome through progress.
func (s *Scheduler) Run(ctx context.Context, tests []*littest.Test, lit *litconfig.LitConfig, progress ProgressFunc) error {
	if len(tests) == 0 {
		return nil
	}
	n := lit.Threads
	if n <= 0 {
		n = 1
	}
	if n > len(tests) {
		n = len(tests)
	}

	runCtx := ctx
	if lit.MaxTime > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, lit.MaxTime)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(n)

	var failureCount int64
	var hitMaxFailures int32
	var progressMu sync.Mutex

	publish := func(t *littest.Test, r *littest.Result) {
		t.SetResult(r)
		if r.Code.IsFailure() {
			c := atomic.AddInt64(&failureCount, 1)
			if lit.MaxFailures > 0 && c == int64(lit.MaxFailures) {
				atomic.StoreInt32(&hitMaxFailures, 1)
			}
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		if progress != nil {
			progress(t)
		}
	}

	for _, test := range tests {
		test := test
		g.Go(func() error {
			s.runOne(gctx, test, lit, publish, &hitMaxFailures)
			return nil
		})
	}

	waitErr := g.Wait()

	// Any test whose Result never got published (deadline fired mid
	// flight) is assigned UNRESOLVED, per §4.8.
	for _, t := range tests {
		if t.Result() == nil {
			t.SetResult(&littest.Result{Code: littest.UNRESOLVED, Output: "Test not run"})
		}
	}
	return waitErr
}

func (s *Scheduler) runOne(ctx context.Context, test *littest.Test, lit *litconfig.LitConfig, publish func(*littest.Test, *littest.Result), hitMaxFailures *int32) {
	if atomic.LoadInt32(hitMaxFailures) == 1 {
		publish(test, &littest.Result{Code: littest.UNRESOLVED, Output: "Test not run"})
		return
	}

	groupName := test.Config.ParallelismGroup.Name(test.PathInSuite)
	if groupName != "" {
		sem := s.groupSem(groupName, lit.ParallelismGroups[groupName])
		if err := sem.Acquire(ctx, 1); err != nil {
			publish(test, &littest.Result{Code: littest.UNRESOLVED, Output: "Test not run"})
			return
		}
		defer sem.Release(1)
	}

	f, ok := s.Formats.Get(test.Config.TestFormat)
	if !ok {
		publish(test, &littest.Result{Code: littest.UNRESOLVED, Output: fmt.Sprintf("no test format registered for %q", test.Config.TestFormat)})
		return
	}

	var timer *Timer
	if lit.Timeout > 0 {
		timer = NewTimer(lit.Timeout, func() {})
		defer timer.Stop()
	}

	start := time.Now()
	result, err := f.Execute(ctx, test, lit, func(pid int) {
		if timer != nil {
			timer.Register(pid)
		}
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		result = &littest.Result{Code: littest.UNRESOLVED, Output: fmt.Sprintf("Exception during script execution:\n%v", err)}
	}
	if timer != nil && timer.Fired() && result.Code != littest.TIMEOUT {
		result.Code = littest.TIMEOUT
	}
	result.Elapsed = elapsed
	result.HasElapsed = true

	if remapped, rerr := directive.RemapXFail(result.Code, test.XFails, test.Config.AvailableFeatures, targetTriple(test.Config)); rerr == nil {
		result.Code = remapped
	}

	publish(test, result)
}
