// Command lit is a parallel integrated-test driver: it discovers test
// suites, runs each test's RUN lines through the in-process shell
// interpreter, and reports aggregate results, per spec §6.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/lit/discovery"
	"github.com/tmc/lit/format"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
	"github.com/tmc/lit/report"
	"github.com/tmc/lit/scheduler"
)

const engineVersion = "lit 1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// params implements flag.Value to collect repeatable -Dk=v / --param
// k=v user parameters.
type params map[string]string

func (p params) String() string { return "" }

func (p params) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	p[k] = v
	return nil
}

func run(args []string) int {
	fs := flag.NewFlagSet("lit", flag.ContinueOnError)

	threads := fs.Int("j", runtime.NumCPU(), "worker count")
	fs.IntVar(threads, "threads", runtime.NumCPU(), "worker count")
	quiet := fs.Bool("q", false, "suppress non-failure summary")
	fs.BoolVar(quiet, "quiet", false, "suppress non-failure summary")
	succinct := fs.Bool("s", false, "shrink progress output")
	fs.BoolVar(succinct, "succinct", false, "shrink progress output")
	verbose := fs.Bool("v", false, "show failure output")
	fs.BoolVar(verbose, "verbose", false, "show failure output")
	showAll := fs.Bool("a", false, "show output of every test")
	fs.BoolVar(showAll, "show-all", false, "show output of every test")
	noExecute := fs.Bool("no-execute", false, "assume PASS for every test")
	xunitPath := fs.String("xunit-xml-output", "", "write JUnit XML to PATH")
	jsonPath := fs.String("o", "", "write JSON results to PATH")
	fs.StringVar(jsonPath, "output", "", "write JSON results to PATH")
	timeTests := fs.Bool("time-tests", false, "include a timing histogram")
	incremental := fs.Bool("i", false, "sort by descending mtime")
	fs.BoolVar(incremental, "incremental", false, "sort by descending mtime")
	shuffle := fs.Bool("shuffle", false, "randomize test order")
	filterFlag := fs.String("filter", os.Getenv("LIT_FILTER"), "keep only tests whose full name matches REGEX")
	maxTests := fs.Int("max-tests", 0, "truncate the test list to N tests")
	maxTimeSec := fs.Float64("max-time", 0, "global deadline in seconds")
	maxFailures := fs.Int("max-failures", 0, "stop after N failures")
	timeoutSec := fs.Float64("timeout", 0, "per-test budget in seconds (0 = none)")
	numShards := fs.Int("num-shards", envInt("LIT_NUM_SHARDS", 0), "select the K-th of M stripes")
	runShard := fs.Int("run-shard", envInt("LIT_RUN_SHARD", 0), "1-based shard index to run")
	debug := fs.Bool("debug", false, "increase diagnostic verbosity")

	userParams := params{}
	fs.Var(userParams, "D", "k=v user parameter (repeatable)")
	fs.Var(userParams, "param", "k=v user parameter (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "lit: no inputs specified")
		return 2
	}

	level := slog.LevelWarn
	if *debug || *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	lit := litconfig.NewLitConfig()
	lit.Threads = *threads
	lit.Quiet = *quiet
	lit.Succinct = *succinct
	lit.Verbose = *verbose
	lit.ShowAll = *showAll
	lit.NoExecute = *noExecute
	lit.TimeTests = *timeTests
	lit.Incremental = *incremental
	lit.Shuffle = *shuffle
	lit.MaxTests = *maxTests
	lit.MaxTime = time.Duration(*maxTimeSec * float64(time.Second))
	lit.MaxFailures = *maxFailures
	lit.Timeout = time.Duration(*timeoutSec * float64(time.Second))
	lit.NumShards = *numShards
	lit.Debug = *debug
	lit.Params = userParams
	lit.Logger = logger

	// §6: --run-shard is the 1-based K-th shard; discovery.ApplyShard
	// compares against a 0-based index, per spec.md §8 scenario 10.
	if *runShard > 0 {
		lit.RunShard = *runShard - 1
	}

	if *filterFlag != "" {
		re, err := regexp.Compile(*filterFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lit: invalid --filter: %v\n", err)
			return 2
		}
		lit.Filter = re
	}

	registerDefaults()

	tests, discErrs := discovery.Discover(inputs, lit, discovery.Options{
		ConfigNames: discovery.DefaultConfigNames,
		ConfigMap:   lit.ConfigMap,
		Loaders:     litconfig.DefaultLoaders,
	})
	for _, e := range discErrs {
		logger.Warn(e.Error())
	}

	tests = discovery.Order(tests, lit, func(ts []*littest.Test) {
		rand.New(rand.NewSource(time.Now().UnixNano())).Shuffle(len(ts), func(i, j int) {
			ts[i], ts[j] = ts[j], ts[i]
		})
	})
	tests = discovery.ApplyFilter(tests, lit)
	tests = discovery.ApplyShard(tests, lit)
	tests = discovery.ApplyMaxTests(tests, lit)

	if len(discErrs) > 0 {
		return 2
	}
	if len(tests) == 0 {
		fmt.Fprintln(os.Stderr, "lit: no tests discovered")
		return 2
	}

	sched := scheduler.New(format.Default)
	start := time.Now()

	progress := func(t *littest.Test) {
		r := t.Result()
		if lit.Quiet && !r.Code.IsFailure() {
			return
		}
		if lit.Succinct {
			fmt.Printf("%s: %s\n", r.Code, t.FullName())
			return
		}
		fmt.Printf("%s: %s (%.2fs)\n", r.Code, t.FullName(), r.Elapsed)
		if (lit.ShowAll || (lit.Verbose && r.Code.IsFailure())) && r.Output != "" {
			fmt.Println(r.Output)
		}
	}

	if err := sched.Run(context.Background(), tests, lit, progress); err != nil {
		fmt.Fprintf(os.Stderr, "lit: scheduler: %v\n", err)
		return 2
	}
	elapsed := time.Since(start).Seconds()

	var sb strings.Builder
	report.WriteGroupedListing(&sb, tests)
	if lit.TimeTests {
		report.WriteHistogram(&sb, tests)
	}
	report.WriteSummary(&sb, tests, lit.Quiet)
	fmt.Print(sb.String())

	if *xunitPath != "" {
		bySuite := map[int64][]*littest.Test{}
		var suites []*littest.TestSuite
		seen := map[int64]bool{}
		for _, t := range tests {
			bySuite[t.Suite.ID] = append(bySuite[t.Suite.ID], t)
			if !seen[t.Suite.ID] {
				seen[t.Suite.ID] = true
				suites = append(suites, t.Suite)
			}
		}
		data, err := report.BuildJUnit(suites, bySuite)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lit: building JUnit XML: %v\n", err)
			return 2
		}
		if err := os.WriteFile(*xunitPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "lit: writing %s: %v\n", *xunitPath, err)
			return 2
		}
	}

	if *jsonPath != "" {
		data, err := report.BuildJSON(engineVersion, elapsed, tests)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lit: building JSON: %v\n", err)
			return 2
		}
		if err := os.WriteFile(*jsonPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "lit: writing %s: %v\n", *jsonPath, err)
			return 2
		}
	}

	for _, t := range tests {
		if r := t.Result(); r != nil && r.Code.IsFailure() {
			return 1
		}
	}
	return 0
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// registerDefaults wires the built-in ShTest format and the
// declarative ConfigLoader (§9's "single concrete implementation") into
// the process-wide registries under the conventional config file
// names, so a plain invocation of the lit binary works without the
// caller writing Go glue first.
func registerDefaults() {
	format.Default.Register("ShTest", format.NewShTest())

	for _, name := range append(append([]string{}, discovery.DefaultConfigNames.Site...), discovery.DefaultConfigNames.Root, discovery.DefaultConfigNames.Local) {
		litconfig.DefaultLoaders.Register(name, func(cfg *litconfig.TestingConfig, lit *litconfig.LitConfig) error {
			return litconfig.ParseDeclarative(cfg.ConfigPath, cfg, lit)
		})
	}
}
