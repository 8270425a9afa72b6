package litconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseDeclarative is the default ConfigLoader (§9's "CfgSetter" note):
// rather than dlopen'ing a compiled shared library keyed by a mangled
// path, it reads a small "key: value" config file, one setting per
// line, and applies it to cfg. It is registered under the default
// config file names by cmd/lit; a project wanting richer config logic
// registers its own named Loader in place of (or in addition to) this
// one, the same way discovery's tests register ad hoc loaders.
//
// Recognized keys: suffixes, excludes, test_format, pipefail,
// unsupported, is_early, available_features, limit_to_features,
// parallelism_group, environment, substitution (repeatable,
// "pattern=>replacement"), test_source_root, test_exec_root, and
// extra.<name> (stored into ExtraConfig as a string).
func ParseDeclarative(path string, cfg *TestingConfig, lit *LitConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return &FatalError{Msg: fmt.Sprintf("litconfig: reading %s: %v", path, err)}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return &FatalError{Msg: fmt.Sprintf("litconfig: %s: malformed line %q", path, line)}
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if err := applyDeclarativeKey(cfg, key, val); err != nil {
			return &FatalError{Msg: fmt.Sprintf("litconfig: %s: %v", path, err)}
		}
	}
	return sc.Err()
}

func applyDeclarativeKey(cfg *TestingConfig, key, val string) error {
	switch {
	case key == "suffixes":
		for _, s := range splitCSV(val) {
			cfg.Suffixes[s] = true
		}
	case key == "excludes":
		for _, s := range splitCSV(val) {
			cfg.Excludes[s] = true
		}
	case key == "test_format":
		cfg.TestFormat = val
	case key == "pipefail":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("pipefail: %w", err)
		}
		cfg.Pipefail = b
	case key == "unsupported":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("unsupported: %w", err)
		}
		cfg.Unsupported = b
	case key == "is_early":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("is_early: %w", err)
		}
		cfg.IsEarly = b
	case key == "available_features":
		for _, s := range splitCSV(val) {
			cfg.AvailableFeatures[s] = true
		}
	case key == "limit_to_features":
		for _, s := range splitCSV(val) {
			cfg.LimitToFeatures[s] = true
		}
	case key == "parallelism_group":
		cfg.ParallelismGroup = ParallelismGroup{Fixed: val}
	case key == "environment":
		cfg.Environment = append(cfg.Environment, splitCSV(val)...)
	case key == "substitution":
		pattern, repl, ok := strings.Cut(val, "=>")
		if !ok {
			return fmt.Errorf("substitution: expected 'pattern=>replacement', got %q", val)
		}
		cfg.Substitutions = append(cfg.Substitutions, Substitution{
			Pattern:     strings.TrimSpace(pattern),
			Replacement: strings.TrimSpace(repl),
		})
	case key == "test_source_root":
		cfg.TestSourceRoot = val
	case key == "test_exec_root":
		cfg.TestExecRoot = val
	case strings.HasPrefix(key, "extra."):
		cfg.ExtraConfig[strings.TrimPrefix(key, "extra.")] = val
	default:
		return fmt.Errorf("unrecognized config key %q", key)
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
