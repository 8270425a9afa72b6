package format

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tmc/lit/directive"
	"github.com/tmc/lit/litconfig"
	"github.com/tmc/lit/littest"
	"github.com/tmc/lit/shell"
)

// ShTest is the built-in test format: each file is scanned for RUN
// lines and metadata (directive.Scan), the lines are substituted
// (directive.ApplySubstitutions) and run in order against a shared
// shell.Executor (shell.Parse/Execute), per spec §4.5/§4.6.
type ShTest struct {
	// ExtraKeywords lets a suite register additional directive
	// keywords beyond directive.DefaultKeywords.
	ExtraKeywords []directive.KeywordSpec
}

// NewShTest returns a ready-to-register ShTest format.
func NewShTest() *ShTest { return &ShTest{} }

// GetTestsInDirectory is unused by ShTest: discovery enumerates test
// files by suffix match and constructs Tests itself.
func (f *ShTest) GetTestsInDirectory(suite *littest.TestSuite, pathInSuite []string, lit *litconfig.LitConfig, local *litconfig.TestingConfig) ([]*littest.Test, error) {
	return nil, nil
}

func targetTriple(cfg *litconfig.TestingConfig) string {
	if v, ok := cfg.ExtraConfig["target_triple"].(string); ok {
		return v
	}
	return ""
}

func unresolved(msg string) *littest.Result {
	return littest.NewResult(littest.UNRESOLVED, msg)
}

// Execute implements Format.
func (f *ShTest) Execute(ctx context.Context, test *littest.Test, lit *litconfig.LitConfig, registerPID func(pid int)) (*littest.Result, error) {
	if lit.NoExecute {
		return littest.NewResult(littest.PASS, ""), nil
	}
	if test.Config.Unsupported {
		return littest.NewResult(littest.UNSUPPORTED, "Test is unsupported"), nil
	}

	d, err := directive.Scan(test.FilePath, f.ExtraKeywords)
	if err != nil {
		return unresolved(fmt.Sprintf("Exception during script execution:\n%v", err)), nil
	}
	test.XFails = d.XFails
	test.Requires = d.Requires
	test.Unsupported = d.Unsupported

	triple := targetTriple(test.Config)
	unsup, reasons, err := directive.Unsupported(d, test.Config.AvailableFeatures, test.Config.LimitToFeatures, triple)
	if err != nil {
		return unresolved(fmt.Sprintf("Exception during script execution:\n%v", err)), nil
	}
	if unsup {
		r := littest.NewResult(littest.UNSUPPORTED, "Skipping because of: "+strings.Join(reasons, ", "))
		return r, nil
	}

	if len(d.RunLines) == 0 {
		return littest.NewResult(littest.UNRESOLVED, "Test has no RUN line"), nil
	}

	sourceDir := filepath.Dir(test.FilePath)
	env := shell.NewEnvironment(sourceDir, test.Config.Environment)
	ex := shell.NewExecutor(env)
	ex.RegisterPID = registerPID

	// testTempDir is this test's own %T: unique per test so that
	// parallel tests never collide when a RUN line writes under it.
	execRoot := test.Config.TestExecRoot
	if execRoot == "" && test.Suite != nil {
		execRoot = test.Suite.ExecRoot
	}
	if execRoot == "" {
		execRoot = sourceDir
	}
	testTempDir := filepath.Join(execRoot, "Output", strings.Join(test.PathInSuite, "_")+".tmp")
	if err := os.MkdirAll(testTempDir, 0777); err != nil {
		return unresolved(fmt.Sprintf("Exception during script execution:\n%v", err)), nil
	}
	tempCounter := 0
	tempNamer := func() string {
		tempCounter++
		return filepath.Join(testTempDir, strconv.Itoa(tempCounter))
	}

	hadSuccess := false
	for _, rawLine := range d.RunLines {
		subs, err := directive.DefaultSubstitutions(test.FilePath, testTempDir, tempNamer, test.Config)
		if err != nil {
			return unresolved(fmt.Sprintf("Exception during script execution:\n%v", err)), nil
		}
		subs = append(subs, paramSubstitutions(lit)...)
		line := directive.ApplySubstitutions(rawLine, subs)

		node, perr := shell.Parse(line, false, test.Config.Pipefail)
		if perr != nil {
			code := littest.FAIL
			if !hadSuccess {
				code = littest.UNRESOLVED
			}
			return &littest.Result{
				Code:   code,
				Output: formatRecords(ex.Records) + fmt.Sprintf("\n%s: shell parser error on: %s: %v\n", shell.InternalShellErrorMarker, line, perr),
			}, nil
		}

		exit, rerr := ex.Execute(ctx, node)
		if rerr != nil {
			code := littest.FAIL
			if !hadSuccess {
				code = littest.UNRESOLVED
			}
			return &littest.Result{
				Code:   code,
				Output: formatRecords(ex.Records) + "\n" + rerr.Error() + "\n",
			}, nil
		}
		if ctx.Err() != nil {
			// The run-wide context only ends on the global deadline or an
			// external cancel; a per-test timeout is detected by the
			// scheduler via its Timer instead.
			return littest.NewResult(littest.UNRESOLVED, formatRecords(ex.Records)), nil
		}
		if exit != 0 {
			return &littest.Result{Code: littest.FAIL, Output: formatRecords(ex.Records)}, nil
		}
		hadSuccess = true
	}

	return &littest.Result{Code: littest.PASS, Output: formatRecords(ex.Records)}, nil
}

// paramSubstitutions maps each -Dk=v user parameter to a %{k}
// substitution, in sorted key order so repeated runs substitute
// identically.
func paramSubstitutions(lit *litconfig.LitConfig) []directive.Substitution {
	if len(lit.Params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lit.Params))
	for k := range lit.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	subs := make([]directive.Substitution, 0, len(keys))
	for _, k := range keys {
		subs = append(subs, directive.Substitution{
			Pattern:     regexp.MustCompile(`%\{` + regexp.QuoteMeta(k) + `\}`),
			Replacement: lit.Params[k],
		})
	}
	return subs
}

func formatRecords(records []shell.ExecRecord) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString("$ ")
		sb.WriteString(shell.Reconstruct(r.Command))
		sb.WriteString("\n")
		sb.WriteString(r.Stdout)
		sb.WriteString(r.Stderr)
	}
	return sb.String()
}
