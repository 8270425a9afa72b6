// Package format defines the TestFormat interface consumed by
// discovery and the scheduler, its registry, and the built-in ShTest
// format that drives directive scanning, substitution and shell
// execution for one test file.
package format

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

// Format is the interface the core calls on each registered test
// format, per spec §6.
type Format interface {
	// GetTestsInDirectory enumerates tests in a directory that the
	// format recognizes beyond simple suffix matching. Most formats
	// (including ShTest) return nil, nil, relying on discovery's
	// suffix-based enumeration instead.
	GetTestsInDirectory(suite *littest.TestSuite, pathInSuite []string, lit *litconfig.LitConfig, local *litconfig.TestingConfig) ([]*littest.Test, error)

	// Execute runs one test and returns its Result. registerPID, if
	// non-nil, must be called with the PID of every external process
	// spawned, so the scheduler's per-test Timer can kill it on
	// timeout.
	Execute(ctx context.Context, test *littest.Test, lit *litconfig.LitConfig, registerPID func(pid int)) (*littest.Result, error)
}

// Registry maps a name (as used in a TestingConfig's test_format
// field and config loaders) to a Format implementation, grounded on
// the teacher's parser registry shape.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{formats: map[string]Format{}}
}

// Register adds a named format, erroring if the name is taken.
func (r *Registry) Register(name string, f Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("format: %q already registered", name)
	}
	r.formats[name] = f
	return nil
}

// Get looks up a format by name.
func (r *Registry) Get(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	return f, ok
}

// Default is the process-wide format registry.
var Default = NewRegistry()
