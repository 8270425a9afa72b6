// Package litconfig holds the two configuration objects that flow
// through every other package: the process-wide LitConfig (§3/§6 of the
// spec) and the inheritable, per-suite/per-directory TestingConfig
// frame (§3).
package litconfig

import (
	"log/slog"
	"regexp"
	"time"
)

// FatalError marks an unrecoverable configuration problem — a named
// config file that doesn't exist, a malformed config script — that
// should make the process exit with code 2, per spec §7.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

// LitConfig is the process-wide, read-only-after-setup configuration:
// CLI-derived settings plus the diagnostics sink threaded explicitly
// through Discovery/Scheduler/Reporter instead of the source's global
// sg_litCfg pointer (spec §9).
type LitConfig struct {
	Threads     int
	Quiet       bool
	Succinct    bool
	Verbose     bool
	ShowAll     bool
	NoExecute   bool
	TimeTests   bool
	Incremental bool
	Shuffle     bool
	Filter      *regexp.Regexp
	MaxTests    int
	MaxTime     time.Duration
	MaxFailures int
	Timeout     time.Duration
	NumShards   int
	RunShard    int
	Debug       bool

	// Params holds -Dk=v / --param values, visible to config loaders
	// and to %{key} substitution extras.
	Params map[string]string

	// ConfigMap optionally remaps a discovered config file's canonical
	// path to a different loader name, per spec §4.7 step 3.
	ConfigMap map[string]string

	// ParallelismGroups caps the number of tests that may run
	// concurrently within a named parallelism group; a name absent
	// here has no cap.
	ParallelismGroups map[string]int

	Logger *slog.Logger
}

// NewLitConfig returns a LitConfig with empty collections and the
// default slog logger.
func NewLitConfig() *LitConfig {
	return &LitConfig{
		Params:            map[string]string{},
		ConfigMap:         map[string]string{},
		ParallelismGroups: map[string]int{},
		Logger:            slog.Default(),
		Threads:           1,
	}
}

// Warning logs a non-fatal diagnostic.
func (lc *LitConfig) Warning(msg string, args ...any) {
	lc.Logger.Warn(msg, args...)
}

// Note logs an informational diagnostic (shown under --debug/-v).
func (lc *LitConfig) Note(msg string, args ...any) {
	if lc.Debug || lc.Verbose {
		lc.Logger.Info(msg, args...)
	}
}

// Fatal builds a FatalError for an unrecoverable configuration problem.
func (lc *LitConfig) Fatal(msg string) error {
	return &FatalError{Msg: msg}
}
