package shell

import (
	"os"
	"path/filepath"
	"strings"
)

func expandTilde(pattern string) string {
	if pattern == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return pattern
	}
	if strings.HasPrefix(pattern, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, pattern[2:])
		}
	}
	return pattern
}

func joinForGlob(pattern, cwd string) string {
	if strings.HasPrefix(pattern, "~") {
		return expandTilde(pattern)
	}
	if filepath.IsAbs(pattern) {
		return pattern
	}
	return filepath.Join(cwd, pattern)
}

// Resolve expands a glob pattern (containing unquoted * or ?) against
// cwd. Per spec §4.4, a pattern yielding zero matches is not an error:
// the unexpanded joined path is returned as the sole result, matching
// the shell's nullglob-off behavior.
func Resolve(pattern, cwd string) ([]string, error) {
	joined := joinForGlob(pattern, cwd)
	matches, err := filepath.Glob(joined)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []string{joined}, nil
	}
	return matches, nil
}
