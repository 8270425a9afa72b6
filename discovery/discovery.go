// Package discovery walks the test-suite directory trees named on the
// command line, loading TestingConfig frames and building the flat
// list of Tests the scheduler will run, per spec §4.7.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
)

// Error is a non-fatal discovery problem: an input not contained in
// any suite, an unreadable directory, a config file that failed to
// load. It aborts only the affected input, per spec §7, but its mere
// presence makes cmd/lit exit with code 2.
type Error struct {
	Input string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("discovery: %s: %s", e.Input, e.Msg)
}

// ConfigNames lists the recognized config file names for one
// discovery run. Site names are checked, in order, before the root
// name; Local names the per-directory override file.
type ConfigNames struct {
	Site  []string
	Root  string
	Local string
}

// DefaultConfigNames mirrors llvm-lit's convention, generalized to a
// project-neutral name.
var DefaultConfigNames = ConfigNames{
	Site:  []string{"lit.site.cfg"},
	Root:  "lit.cfg",
	Local: "lit.local.cfg",
}

// Options configures one Discover call.
type Options struct {
	ConfigNames ConfigNames
	// ConfigMap remaps a config file's path or base name to the
	// loader name used to look it up in Loaders, per spec §4.7 step 3.
	ConfigMap map[string]string
	Loaders   *litconfig.LoaderRegistry
}

type suiteEntry struct {
	suite *littest.TestSuite
	cfg   *litconfig.TestingConfig
}

type discoverer struct {
	lit        *litconfig.LitConfig
	opts       Options
	suiteCache map[string]*suiteEntry
}

// Discover walks each input (a file, directory, or @-prefixed list
// file) and returns the flattened list of discovered Tests along with
// any non-fatal errors encountered.
func Discover(inputs []string, lit *litconfig.LitConfig, opts Options) ([]*littest.Test, []error) {
	if opts.Loaders == nil {
		opts.Loaders = litconfig.DefaultLoaders
	}
	if len(opts.ConfigNames.Site) == 0 && opts.ConfigNames.Root == "" {
		opts.ConfigNames = DefaultConfigNames
	}
	d := &discoverer{lit: lit, opts: opts, suiteCache: map[string]*suiteEntry{}}

	expanded, err := expandAtFiles(inputs)
	if err != nil {
		return nil, []error{err}
	}

	var tests []*littest.Test
	var errs []error
	for _, in := range expanded {
		ts, es := d.discoverInput(in)
		tests = append(tests, ts...)
		errs = append(errs, es...)
	}
	return tests, errs
}

func expandAtFiles(inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		if !strings.HasPrefix(in, "@") {
			out = append(out, in)
			continue
		}
		data, err := os.ReadFile(in[1:])
		if err != nil {
			return nil, fmt.Errorf("discovery: reading %s: %w", in, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out, nil
}

func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (d *discoverer) discoverInput(input string) ([]*littest.Test, []error) {
	resolved := canonicalize(input)
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, []error{&Error{Input: input, Msg: err.Error()}}
	}

	dir := resolved
	if !info.IsDir() {
		dir = filepath.Dir(resolved)
	}

	suite, cfg, err := d.findOrLoadSuite(dir)
	if err != nil {
		return nil, []error{&Error{Input: input, Msg: err.Error()}}
	}
	if suite == nil {
		d.lit.Warning("input not contained in any test suite", "input", input)
		return nil, []error{&Error{Input: input, Msg: "not contained in any test suite"}}
	}

	if info.IsDir() {
		return d.walk(suite, cfg, resolved, []string{suite.SourceRoot})
	}

	t := d.maybeMakeTest(suite, cfg, resolved)
	if t == nil {
		return nil, []error{&Error{Input: input, Msg: "not recognized by any test format"}}
	}
	return []*littest.Test{t}, nil
}

// findConfigFile looks for a site config, then a root config, in dir.
func (d *discoverer) findConfigFile(dir string) string {
	for _, name := range d.opts.ConfigNames.Site {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	p := filepath.Join(dir, d.opts.ConfigNames.Root)
	if fileExists(p) {
		return p
	}
	return ""
}

func (d *discoverer) loaderName(path string) string {
	if n, ok := d.opts.ConfigMap[path]; ok {
		return n
	}
	base := filepath.Base(path)
	if n, ok := d.opts.ConfigMap[base]; ok {
		return n
	}
	return base
}

func (d *discoverer) loadConfig(path string, cfg *litconfig.TestingConfig) error {
	cfg.ConfigPath = path
	return d.opts.Loaders.Load(d.loaderName(path), cfg, d.lit)
}

// newSuiteFrom loads dir's config file into a fresh TestingConfig and
// registers the resulting suite in the cache.
func (d *discoverer) newSuiteFrom(dir, cfgPath string) (*littest.TestSuite, *litconfig.TestingConfig, error) {
	cfg := litconfig.NewTestingConfig(filepath.Base(dir))
	if err := d.loadConfig(cfgPath, cfg); err != nil {
		return nil, nil, err
	}
	srcRoot := cfg.TestSourceRoot
	if srcRoot == "" {
		srcRoot = dir
	}
	execRoot := cfg.TestExecRoot
	if execRoot == "" {
		execRoot = dir
	}
	suite := littest.NewTestSuite(cfg.Name, srcRoot, execRoot, cfg)
	d.suiteCache[dir] = &suiteEntry{suite: suite, cfg: cfg}
	return suite, cfg, nil
}

// findOrLoadSuite implements §4.7 steps 1-4: walk up from dir until a
// site/root config is found (or the filesystem root is reached).
func (d *discoverer) findOrLoadSuite(dir string) (*littest.TestSuite, *litconfig.TestingConfig, error) {
	cur := dir
	for {
		if entry, ok := d.suiteCache[cur]; ok {
			return entry.suite, entry.cfg, nil
		}
		if cfgPath := d.findConfigFile(cur); cfgPath != "" {
			return d.newSuiteFrom(cur, cfgPath)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, nil, nil
		}
		cur = parent
	}
}

// checkNestedSuite implements §4.7 step 6: dir itself, not some
// ancestor, must directly contain a site/root config to start a new
// nested suite.
func (d *discoverer) checkNestedSuite(dir string) (*littest.TestSuite, *litconfig.TestingConfig, bool, error) {
	if entry, ok := d.suiteCache[dir]; ok {
		return entry.suite, entry.cfg, true, nil
	}
	cfgPath := d.findConfigFile(dir)
	if cfgPath == "" {
		return nil, nil, false, nil
	}
	suite, cfg, err := d.newSuiteFrom(dir, cfgPath)
	return suite, cfg, true, err
}

// isAnyOf reports whether path is exactly one of roots.
func isAnyOf(path string, roots []string) bool {
	for _, root := range roots {
		if path == root {
			return true
		}
	}
	return false
}

// walk implements §4.7 steps 5-6. ancestorRoots holds the canonical
// source roots of every suite on the current recursion path, used to
// detect an exec root nested inside its own source root resolving
// back to the suite already being walked.
func (d *discoverer) walk(suite *littest.TestSuite, cfg *litconfig.TestingConfig, dir string, ancestorRoots []string) ([]*littest.Test, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{&Error{Input: dir, Msg: err.Error()}}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var tests []*littest.Test
	var errs []error

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if name == "Output" || name == ".svn" || name == ".git" || cfg.IsExcluded(name) {
				continue
			}
			sub := filepath.Join(dir, name)
			canon := canonicalize(sub)

			nestedSuite, nestedCfg, isNested, nerr := d.checkNestedSuite(canon)
			if nerr != nil {
				errs = append(errs, &Error{Input: sub, Msg: nerr.Error()})
				continue
			}
			if isNested {
				if isAnyOf(nestedSuite.SourceRoot, ancestorRoots) {
					continue
				}
				subTests, subErrs := d.walk(nestedSuite, nestedCfg, sub, append(append([]string{}, ancestorRoots...), nestedSuite.SourceRoot))
				tests = append(tests, subTests...)
				errs = append(errs, subErrs...)
				continue
			}

			childCfg := cfg
			localPath := filepath.Join(sub, d.opts.ConfigNames.Local)
			if fileExists(localPath) {
				childCfg = cfg.Clone()
				if err := d.loadConfig(localPath, childCfg); err != nil {
					errs = append(errs, &Error{Input: localPath, Msg: err.Error()})
					continue
				}
			}
			subTests, subErrs := d.walk(suite, childCfg, sub, ancestorRoots)
			tests = append(tests, subTests...)
			errs = append(errs, subErrs...)
			continue
		}

		if cfg.IsExcluded(name) {
			continue
		}
		if t := d.maybeMakeTest(suite, cfg, filepath.Join(dir, name)); t != nil {
			tests = append(tests, t)
		}
	}
	return tests, errs
}

func (d *discoverer) maybeMakeTest(suite *littest.TestSuite, cfg *litconfig.TestingConfig, path string) *littest.Test {
	if !cfg.HasSuffix(filepath.Base(path)) {
		return nil
	}
	rel, err := filepath.Rel(suite.SourceRoot, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return &littest.Test{
		Suite:       suite,
		PathInSuite: strings.Split(filepath.ToSlash(rel), "/"),
		FilePath:    path,
		Config:      cfg,
	}
}
