package litconfig

// Substitution is one (pattern, replacement) pair applied, in order, to
// each RUN line before it is parsed as a shell command line.
type Substitution struct {
	Pattern     string
	Replacement string
}

// ParallelismGroup controls how many copies of a test may run
// concurrently. Dynamic, if set, derives the group name from the
// test's path within its suite (e.g. to bucket GPU tests onto a
// single-slot group); otherwise Fixed names a static group.
//
// Dynamic takes the path components rather than a *littest.Test to
// avoid an import cycle between litconfig and littest.
type ParallelismGroup struct {
	Fixed   string
	Dynamic func(pathInSuite []string) string
}

// Name resolves the group name for a test at the given path.
func (g ParallelismGroup) Name(pathInSuite []string) string {
	if g.Dynamic != nil {
		return g.Dynamic(pathInSuite)
	}
	return g.Fixed
}

// TestingConfig is the inheritable configuration frame produced by each
// discovered directory's config script, per spec §3. A child directory
// clones its parent's frame and may freely mutate the clone without
// affecting the parent.
type TestingConfig struct {
	Name string

	Suffixes map[string]bool
	Excludes map[string]bool

	// TestFormat names the format.Registry entry that runs this suite's
	// tests. Held as a string rather than format.Format so litconfig
	// does not need to import format (which already imports litconfig
	// for this type and for LitConfig).
	TestFormat string

	Environment   []string
	Substitutions []Substitution

	AvailableFeatures map[string]bool
	LimitToFeatures   map[string]bool

	Unsupported bool
	Pipefail    bool
	IsEarly     bool

	ParallelismGroup ParallelismGroup

	ExtraConfig map[string]any

	TestSourceRoot string
	TestExecRoot   string

	// ConfigPath is the on-disk path of the config file that produced
	// this frame, set by discovery before invoking the Loader. A
	// Loader that needs to read the file itself (rather than acting
	// purely as compiled logic keyed by name) uses this field.
	ConfigPath string

	Parent *TestingConfig
}

// NewTestingConfig returns an empty root frame.
func NewTestingConfig(name string) *TestingConfig {
	return &TestingConfig{
		Name:              name,
		Suffixes:          map[string]bool{},
		Excludes:          map[string]bool{},
		AvailableFeatures: map[string]bool{},
		LimitToFeatures:   map[string]bool{},
		ExtraConfig:       map[string]any{},
	}
}

// Clone returns a deep-enough copy of c suitable for a child directory:
// its own collections, so mutating the child never touches the parent,
// with Parent set to c.
func (c *TestingConfig) Clone() *TestingConfig {
	clone := *c
	clone.Parent = c
	clone.Suffixes = copyBoolSet(c.Suffixes)
	clone.Excludes = copyBoolSet(c.Excludes)
	clone.AvailableFeatures = copyBoolSet(c.AvailableFeatures)
	clone.LimitToFeatures = copyBoolSet(c.LimitToFeatures)
	clone.Environment = append([]string(nil), c.Environment...)
	clone.Substitutions = append([]Substitution(nil), c.Substitutions...)
	clone.ExtraConfig = make(map[string]any, len(c.ExtraConfig))
	for k, v := range c.ExtraConfig {
		clone.ExtraConfig[k] = v
	}
	return &clone
}

func copyBoolSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HasSuffix reports whether name's extension (or full name, for
// extension-less files) is registered as a test suffix.
func (c *TestingConfig) HasSuffix(name string) bool {
	for suf := range c.Suffixes {
		if len(name) >= len(suf) && name[len(name)-len(suf):] == suf {
			return true
		}
	}
	return false
}

// IsExcluded reports whether base (a file or directory base name) is
// excluded from discovery.
func (c *TestingConfig) IsExcluded(base string) bool {
	return c.Excludes[base]
}
