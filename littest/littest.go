// Package littest defines the data model shared by discovery,
// execution and reporting: TestSuite, Test, Result and ResultCode.
package littest

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tmc/lit/litconfig"
)

// ResultCode classifies the outcome of running a single Test.
type ResultCode int

const (
	PASS ResultCode = iota
	FLAKYPASS
	XFAIL
	FAIL
	XPASS
	UNRESOLVED
	UNSUPPORTED
	TIMEOUT
)

var resultCodeNames = [...]string{
	PASS:        "PASS",
	FLAKYPASS:   "FLAKYPASS",
	XFAIL:       "XFAIL",
	FAIL:        "FAIL",
	XPASS:       "XPASS",
	UNRESOLVED:  "UNRESOLVED",
	UNSUPPORTED: "UNSUPPORTED",
	TIMEOUT:     "TIMEOUT",
}

func (c ResultCode) String() string {
	if int(c) >= 0 && int(c) < len(resultCodeNames) {
		return resultCodeNames[c]
	}
	return "UNKNOWN(" + strconv.Itoa(int(c)) + ")"
}

// IsFailure reports whether c should count against --max-failures and
// make the process exit with a nonzero status.
func (c ResultCode) IsFailure() bool {
	switch c {
	case FAIL, XPASS, UNRESOLVED, TIMEOUT:
		return true
	default:
		return false
	}
}

// MetricValue is a single named measurement attached to a Result, such
// as a wall-clock time or a counter recorded by the test itself.
type MetricValue float64

func (m MetricValue) String() string {
	return strconv.FormatFloat(float64(m), 'g', -1, 64)
}

// Result is the outcome of executing one Test.
type Result struct {
	Code       ResultCode
	Output     string
	Elapsed    float64 // seconds; meaningful only when HasElapsed is set
	HasElapsed bool

	Metrics      map[string]MetricValue
	MicroResults map[string]*Result
}

// NewResult builds a Result with initialized collections.
func NewResult(code ResultCode, output string) *Result {
	return &Result{
		Code:         code,
		Output:       output,
		Metrics:      map[string]MetricValue{},
		MicroResults: map[string]*Result{},
	}
}

// TestSuite is a discovered directory tree sharing one TestingConfig.
type TestSuite struct {
	ID         int64
	Name       string
	SourceRoot string
	ExecRoot   string
	Config     *litconfig.TestingConfig
}

var suiteCounter int64

// NewTestSuite allocates a TestSuite with a process-unique, monotonic ID.
func NewTestSuite(name, sourceRoot, execRoot string, cfg *litconfig.TestingConfig) *TestSuite {
	return &TestSuite{
		ID:         atomic.AddInt64(&suiteCounter, 1),
		Name:       name,
		SourceRoot: sourceRoot,
		ExecRoot:   execRoot,
		Config:     cfg,
	}
}

// Test is a single unit of work: one file (or synthetic name) within a
// TestSuite, along with the directive-derived metadata needed to run it.
type Test struct {
	Suite       *TestSuite
	PathInSuite []string
	FilePath    string

	Config *litconfig.TestingConfig

	XFails      []string
	Requires    []string
	Unsupported []string

	mu     sync.Mutex
	result *Result
}

// FullName renders the test's suite-qualified display name, matching
// the "<suite> :: <a>/<b>" form used throughout reporting.
func (t *Test) FullName() string {
	return t.Suite.Name + " :: " + strings.Join(t.PathInSuite, "/")
}

// SetResult records the outcome of running t. Only the first call takes
// effect; later calls are ignored, since a Test is only ever run once
// per invocation of lit.
func (t *Test) SetResult(r *Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result == nil {
		t.result = r
	}
}

// Result returns the recorded outcome, or nil if the test has not run.
func (t *Test) Result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}
