// Package shelltest is a txtar-driven integration harness exercising
// the shell and directive packages end to end, mirroring the
// teacher's scripttest.Test/initScriptDirs structure: glob the
// archives, unpack each into a fresh temp dir, run it, compare.
package shelltest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/tmc/lit/directive"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/shell"
)

// Test runs every txtar archive matching pattern as a subtest.
func Test(t *testing.T, pattern string) {
	t.Helper()
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatalf("no testdata matching %s", pattern)
	}
	for _, file := range files {
		file := file
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) { run(t, file) })
	}
}

func run(t *testing.T, file string) {
	t.Helper()
	a, err := txtar.ParseFile(file)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	var testFile string
	for _, f := range a.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			t.Fatal(err)
		}
		if f.Name == "test.txt" {
			testFile = path
		}
	}
	if testFile == "" {
		t.Fatalf("%s: archive has no test.txt file", file)
	}

	wantOutput, wantExit := parseExpectation(a.Comment)

	d, err := directive.Scan(testFile, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	env := shell.NewEnvironment(dir, nil)
	ex := shell.NewExecutor(env)

	subs, err := buildSubstitutions(testFile, dir)
	if err != nil {
		t.Fatalf("substitutions: %v", err)
	}

	var exit int
	for _, rl := range d.RunLines {
		line := directive.ApplySubstitutions(rl, subs)
		node, perr := shell.Parse(line, false, false)
		if perr != nil {
			t.Fatalf("Parse(%q): %v", line, perr)
		}
		exit, err = ex.Execute(context.Background(), node)
		if err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
	}

	if exit != wantExit {
		t.Errorf("exit = %d, want %d", exit, wantExit)
	}
	var got strings.Builder
	for _, r := range ex.Records {
		got.WriteString(r.Stdout)
	}
	if strings.TrimRight(got.String(), "\n") != strings.TrimRight(wantOutput, "\n") {
		t.Errorf("output = %q, want %q", got.String(), wantOutput)
	}
}

func buildSubstitutions(testFile, dir string) ([]directive.Substitution, error) {
	cfg := litconfig.NewTestingConfig("shelltest")
	cfg.TestExecRoot = dir
	counter := 0
	namer := func() string {
		counter++
		return filepath.Join(dir, fmt.Sprintf("tmp-%d", counter))
	}
	return directive.DefaultSubstitutions(testFile, dir, namer, cfg)
}

// parseExpectation reads the archive comment header for "OUTPUT: ..."
// lines (joined in order) and an "EXIT: N" line.
func parseExpectation(comment []byte) (output string, exit int) {
	var lines []string
	for _, line := range strings.Split(string(comment), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "OUTPUT:"):
			lines = append(lines, strings.TrimSpace(strings.TrimPrefix(line, "OUTPUT:")))
		case strings.HasPrefix(line, "EXIT:"):
			n, _ := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "EXIT:")))
			exit = n
		}
	}
	return strings.Join(lines, "\n"), exit
}
