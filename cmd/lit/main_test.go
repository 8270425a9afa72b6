package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParamsSet(t *testing.T) {
	p := params{}
	if err := p.Set("key=value"); err != nil {
		t.Fatal(err)
	}
	if p["key"] != "value" {
		t.Fatalf("got %q, want %q", p["key"], "value")
	}
	if err := p.Set("novalue"); err == nil {
		t.Fatal("want error for missing '='")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("LIT_TEST_ENVINT", "7")
	if got := envInt("LIT_TEST_ENVINT", 3); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	if got := envInt("LIT_TEST_ENVINT_UNSET", 3); got != 3 {
		t.Errorf("got %d, want default 3", got)
	}
}

// TestRunEndToEnd discovers and executes a tiny suite through the
// public entry point, exercising discovery, the declarative config
// loader, the shell executor and the reporter together.
func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lit.cfg"), strings.Join([]string{
		"suffixes: .t",
		"test_format: ShTest",
	}, "\n"))
	writeFile(t, filepath.Join(root, "pass.t"), "// RUN: true\n")
	writeFile(t, filepath.Join(root, "fail.t"), "// RUN: false\n")

	out := filepath.Join(root, "results.json")
	code := run([]string{"-j", "2", "-o", out, root})
	if code != 1 {
		t.Fatalf("run() = %d, want 1 (one failing test)", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected JSON report at %s: %v", out, err)
	}
}

func TestRunNoInputs(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Errorf("run(nil) = %d, want 2", code)
	}
}
