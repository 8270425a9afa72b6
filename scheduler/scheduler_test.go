package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/tmc/lit/format"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

type fakeFormat struct {
	codes []littest.ResultCode
	i     int
	mu    sync.Mutex
}

func (f *fakeFormat) GetTestsInDirectory(*littest.TestSuite, []string, *litconfig.LitConfig, *litconfig.TestingConfig) ([]*littest.Test, error) {
	return nil, nil
}

func (f *fakeFormat) Execute(ctx context.Context, test *littest.Test, lit *litconfig.LitConfig, registerPID func(int)) (*littest.Result, error) {
	f.mu.Lock()
	idx := f.i
	f.i++
	f.mu.Unlock()
	code := littest.PASS
	if idx < len(f.codes) {
		code = f.codes[idx]
	}
	return littest.NewResult(code, ""), nil
}

func newTests(n int, cfg *litconfig.TestingConfig, suite *littest.TestSuite) []*littest.Test {
	tests := make([]*littest.Test, n)
	for i := range tests {
		tests[i] = &littest.Test{Suite: suite, PathInSuite: []string{"t"}, Config: cfg}
	}
	return tests
}

func TestMaxFailuresCancellation(t *testing.T) {
	codes := make([]littest.ResultCode, 10)
	for i := 0; i < 3; i++ {
		codes[i] = littest.FAIL
	}
	for i := 3; i < 10; i++ {
		codes[i] = littest.PASS
	}
	ff := &fakeFormat{codes: codes}
	formats := format.NewRegistry()
	formats.Register("fake", ff)

	cfg := litconfig.NewTestingConfig("s")
	cfg.TestFormat = "fake"
	suite := littest.NewTestSuite("s", "/src", "/exec", cfg)
	tests := newTests(10, cfg, suite)

	lit := litconfig.NewLitConfig()
	lit.Threads = 1
	lit.MaxFailures = 2

	s := New(formats)
	var published []*littest.Test
	var mu sync.Mutex
	err := s.Run(context.Background(), tests, lit, func(test *littest.Test) {
		mu.Lock()
		published = append(published, test)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	failures := 0
	unresolved := 0
	for _, test := range tests {
		switch test.Result().Code {
		case littest.FAIL:
			failures++
		case littest.UNRESOLVED:
			unresolved++
		}
	}
	if failures != 2 {
		t.Errorf("got %d failures, want 2", failures)
	}
	if unresolved < 5 {
		t.Errorf("got %d unresolved, want at least 5", unresolved)
	}
}

func TestXFailRemap(t *testing.T) {
	ff := &fakeFormat{codes: []littest.ResultCode{littest.PASS}}
	formats := format.NewRegistry()
	formats.Register("fake", ff)

	cfg := litconfig.NewTestingConfig("s")
	cfg.TestFormat = "fake"
	suite := littest.NewTestSuite("s", "/src", "/exec", cfg)
	test := &littest.Test{Suite: suite, PathInSuite: []string{"t"}, Config: cfg, XFails: []string{"*"}}

	lit := litconfig.NewLitConfig()
	lit.Threads = 1

	s := New(formats)
	if err := s.Run(context.Background(), []*littest.Test{test}, lit, nil); err != nil {
		t.Fatal(err)
	}
	if test.Result().Code != littest.XPASS {
		t.Errorf("got %v, want XPASS", test.Result().Code)
	}
}
