package directive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tmc/lit/litconfig"
)

// TempNamer produces a fresh %t path each time it's called; format
// implementations typically back it with a counter so repeated uses of
// %t within one test don't collide.
type TempNamer func() string

// DefaultSubstitutions builds the standard %s/%S/%t/%T/%p/%{pathsep}
// substitutions for one test, followed by cfg's own extra
// substitutions (earlier entries win when patterns overlap, since
// ApplySubstitutions runs them in order and text replaced by one entry
// no longer matches a later one). tempDir is the test's own
// unique temp directory (%T); tempName mints a fresh path under it
// each time %t is substituted.
func DefaultSubstitutions(sourcePath, tempDir string, tempName TempNamer, cfg *litconfig.TestingConfig) ([]Substitution, error) {
	sourceDir := filepath.Dir(sourcePath)

	subs := []Substitution{
		{regexp.MustCompile(`%s`), sourcePath},
		{regexp.MustCompile(`%S`), sourceDir},
		{regexp.MustCompile(`%t`), tempName()},
		{regexp.MustCompile(`%T`), tempDir},
		{regexp.MustCompile(`%p`), sourceDir},
		{regexp.MustCompile(`%\{pathsep\}`), string(os.PathListSeparator)},
	}

	for _, e := range cfg.Substitutions {
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("directive: bad substitution pattern %q: %w", e.Pattern, err)
		}
		subs = append(subs, Substitution{Pattern: re, Replacement: e.Replacement})
	}
	return subs, nil
}
