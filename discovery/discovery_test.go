package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
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

func TestDiscoverSuffixAndInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lit.cfg"), "root")
	writeFile(t, filepath.Join(root, "a.t"), "// RUN: true\n")
	writeFile(t, filepath.Join(root, "sub", "lit.local.cfg"), "local")
	writeFile(t, filepath.Join(root, "sub", "b.t"), "// RUN: true\n")
	writeFile(t, filepath.Join(root, "sub", "skipme.t"), "// RUN: true\n")

	loaders := litconfig.NewLoaderRegistry()
	loaders.Register("lit.cfg", func(cfg *litconfig.TestingConfig, lit *litconfig.LitConfig) error {
		cfg.Suffixes[".t"] = true
		return nil
	})
	loaders.Register("lit.local.cfg", func(cfg *litconfig.TestingConfig, lit *litconfig.LitConfig) error {
		cfg.Excludes["skipme.t"] = true
		return nil
	})

	lit := litconfig.NewLitConfig()
	tests, errs := Discover([]string{root}, lit, Options{Loaders: loaders})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tests) != 2 {
		t.Fatalf("got %d tests, want 2: %+v", len(tests), tests)
	}

	for _, tc := range tests {
		if tc.PathInSuite[len(tc.PathInSuite)-1] == "b.t" {
			if !tc.Config.Excludes["skipme.t"] {
				t.Errorf("subdirectory config missing local exclude")
			}
		}
	}
	// Root config's excludes must be untouched by the child clone.
	rootSuite := tests[0].Suite
	if rootSuite.Config.Excludes["skipme.t"] {
		t.Errorf("parent config mutated by child clone")
	}
}

func TestDiscoverInputNotInSuite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.t"), "x")
	lit := litconfig.NewLitConfig()
	_, errs := Discover([]string{dir}, lit, Options{Loaders: litconfig.NewLoaderRegistry()})
	if len(errs) == 0 {
		t.Fatal("want a discovery error for an input with no suite config")
	}
}

func TestApplyShard(t *testing.T) {
	suite := littest.NewTestSuite("s", "/src", "/exec", litconfig.NewTestingConfig("s"))
	var tests []*littest.Test
	for i := 0; i < 100; i++ {
		tests = append(tests, &littest.Test{Suite: suite, PathInSuite: []string{"t"}})
	}
	lit := litconfig.NewLitConfig()
	lit.NumShards = 4
	lit.RunShard = 1
	shard := ApplyShard(tests, lit)
	if len(shard) != 25 {
		t.Fatalf("got %d tests, want 25", len(shard))
	}
}
