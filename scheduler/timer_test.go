//go:build unix

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tmc/lit/format"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

func TestPerTestTimeout(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "slow.t")
	if err := os.WriteFile(testFile, []byte("// RUN: sleep 30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	formats := format.NewRegistry()
	formats.Register("ShTest", format.NewShTest())

	cfg := litconfig.NewTestingConfig("s")
	cfg.TestFormat = "ShTest"
	cfg.TestExecRoot = dir
	suite := littest.NewTestSuite("s", dir, dir, cfg)
	test := &littest.Test{Suite: suite, PathInSuite: []string{"slow.t"}, FilePath: testFile, Config: cfg}

	lit := litconfig.NewLitConfig()
	lit.Threads = 1
	lit.Timeout = 1 * time.Second

	start := time.Now()
	s := New(formats)
	if err := s.Run(context.Background(), []*littest.Test{test}, lit, nil); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	r := test.Result()
	if r == nil || r.Code != littest.TIMEOUT {
		t.Fatalf("result = %+v, want TIMEOUT", r)
	}
	if elapsed >= 5*time.Second {
		t.Errorf("run took %v, want < 5s", elapsed)
	}
}

func TestTimerRegisterAfterFire(t *testing.T) {
	timer := NewTimer(time.Millisecond, nil)
	deadline := time.Now().Add(2 * time.Second)
	for !timer.Fired() {
		if time.Now().After(deadline) {
			t.Fatal("timer never fired")
		}
		time.Sleep(time.Millisecond)
	}
	// A PID registered after the fire must be killed immediately; a
	// long-gone PID just makes the kill a no-op, which is all this
	// asserts (no panic, no blocking).
	timer.Register(1 << 30)
}
