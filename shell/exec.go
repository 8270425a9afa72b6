package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// InternalShellErrorMarker tags diagnostics produced by a fatal,
// pre-execution or execution-setup failure, per spec §4.5/§7.
const InternalShellErrorMarker = "InternalShellError"

// InternalError is a fatal failure of the current command tree: a
// missing built-in argument, an unreadable redirect source, an empty
// command, or a malformed glob pattern. (A program that fails to spawn
// is not an InternalError: it yields exit 127.) Its Error text is the
// "shell parser error on:
// <reconstructed command line>" diagnostic spec §4.5 calls for.
type InternalError struct {
	Line string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: shell parser error on: %s: %v", InternalShellErrorMarker, e.Line, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// ExecRecord is a diagnostic trace of one Command's execution, appended
// to Executor.Records in execution order for inclusion in failure output.
type ExecRecord struct {
	Command  *Command
	Stdout   string
	Stderr   string
	Exit     int
	TimedOut bool
}

// Executor runs a parsed command tree against a single Environment.
type Executor struct {
	Env     *Environment
	Records []ExecRecord

	// RegisterPID, if set, is called with the PID of every external
	// process spawned, so a caller (typically the scheduler's per-test
	// Timer) can track and kill it on timeout.
	RegisterPID func(pid int)
}

// NewExecutor creates an Executor bound to env.
func NewExecutor(env *Environment) *Executor {
	return &Executor{Env: env}
}

// Execute runs a command tree to completion, returning its exit code.
// A non-nil error is always an *InternalError: a fatal, unrecoverable
// failure that aborted the remainder of the tree.
func (ex *Executor) Execute(ctx context.Context, n Node) (int, error) {
	return ex.run(ctx, n)
}

func (ex *Executor) run(ctx context.Context, n Node) (int, error) {
	switch v := n.(type) {
	case *Seq:
		return ex.runSeq(ctx, v)
	case *Pipeline:
		return ex.runPipeline(ctx, v)
	case *Command:
		return ex.runPipeline(ctx, &Pipeline{Commands: []*Command{v}})
	default:
		return -1, fmt.Errorf("shell: unsupported node type %T", n)
	}
}

func (ex *Executor) runSeq(ctx context.Context, s *Seq) (int, error) {
	lhs, err := ex.run(ctx, s.LHS)
	if err != nil {
		return lhs, err
	}
	switch s.Op {
	case ";", "&":
		// "&" is deliberately synchronous, identical to ";" — preserved
		// verbatim per spec §9.
		return ex.run(ctx, s.RHS)
	case "&&":
		if lhs == 0 {
			return ex.run(ctx, s.RHS)
		}
		return lhs, nil
	case "||":
		if lhs != 0 {
			return ex.run(ctx, s.RHS)
		}
		return lhs, nil
	default:
		return lhs, nil
	}
}

type pipelineResult struct {
	exit     int
	stdout   string
	stderr   string
	timedOut bool
}

func (ex *Executor) runPipeline(ctx context.Context, p *Pipeline) (int, error) {
	n := len(p.Commands)
	readers := make([]*io.PipeReader, n)
	writers := make([]*io.PipeWriter, n-1)
	for i := 0; i < n-1; i++ {
		r, w := io.Pipe()
		readers[i+1] = r
		writers[i] = w
	}

	results := make([]pipelineResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, cmd := range p.Commands {
		i, cmd := i, cmd
		wg.Add(1)
		go func() {
			defer wg.Done()
			var stdin io.Reader = readers[i]
			if readers[i] == nil {
				stdin = strings.NewReader("")
			}
			var outBuf, errBuf bytes.Buffer
			var out io.Writer = &outBuf
			if i < n-1 {
				out = io.MultiWriter(&outBuf, writers[i])
			}
			exit, timedOut, ferr := ex.runCommand(ctx, cmd, stdin, out, &errBuf)
			if i < n-1 {
				writers[i].Close()
			}
			if readers[i] != nil {
				// Unblock an upstream writer whose reader exited early.
				readers[i].Close()
			}
			results[i] = pipelineResult{exit: exit, stdout: outBuf.String(), stderr: errBuf.String(), timedOut: timedOut}
			errs[i] = ferr
		}()
	}
	wg.Wait()

	for i, cmd := range p.Commands {
		ex.Records = append(ex.Records, ExecRecord{
			Command:  cmd,
			Stdout:   results[i].stdout,
			Stderr:   results[i].stderr,
			Exit:     results[i].exit,
			TimedOut: results[i].timedOut,
		})
	}
	for _, e := range errs {
		if e != nil {
			return -1, e
		}
	}

	switch {
	case p.Negate:
		for _, r := range results {
			if r.exit == 0 {
				return 1, nil
			}
		}
		return 0, nil
	case p.PipeError:
		for _, r := range results {
			if r.exit != 0 {
				return r.exit, nil
			}
		}
		return 0, nil
	default:
		return results[n-1].exit, nil
	}
}

func (ex *Executor) runCommand(ctx context.Context, cmd *Command, stdin io.Reader, stdout, stderr io.Writer) (exit int, timedOut bool, ferr error) {
	var argv []string
	for _, a := range cmd.Args {
		if a.Kind == ArgGlob {
			matches, err := Resolve(a.Value, ex.Env.Cwd)
			if err != nil {
				return -1, false, ex.fatal(cmd, err)
			}
			argv = append(argv, matches...)
		} else {
			argv = append(argv, a.Value)
		}
	}
	if len(argv) == 0 {
		return -1, false, ex.fatal(cmd, fmt.Errorf("empty command"))
	}
	name, rawArgs := argv[0], argv[1:]

	ios, closers, err := applyRedirects(&ioSet{stdin: stdin, stdout: stdout, stderr: stderr}, cmd.Redirects, ex.Env.Cwd)
	if err != nil {
		return -1, false, ex.fatal(cmd, err)
	}
	defer closeAll(closers)

	if fn, ok := builtins[name]; ok {
		code, err := fn(ex, rawArgs, ios)
		if err != nil {
			return -1, false, ex.fatal(cmd, err)
		}
		return code, false, nil
	}

	substituted := make([]string, len(rawArgs))
	for i, a := range rawArgs {
		substituted[i] = ex.Env.expandVars(a)
	}
	c := exec.CommandContext(ctx, name, substituted...)
	c.Dir = ex.Env.Cwd
	c.Env = ex.Env.Env
	c.Stdin = ios.stdin
	c.Stdout = ios.stdout
	c.Stderr = ios.stderr
	setProcessGroup(c)

	if err := c.Start(); err != nil {
		fmt.Fprintf(ios.stderr, "%s: %v\n", name, err)
		return 127, false, nil
	}
	if ex.RegisterPID != nil {
		ex.RegisterPID(c.Process.Pid)
	}
	waitErr := c.Wait()
	code := 0
	if waitErr != nil {
		if c.ProcessState != nil {
			code = c.ProcessState.ExitCode()
		} else {
			code = -1
		}
	}
	return code, ctx.Err() == context.DeadlineExceeded, nil
}

func (ex *Executor) fatal(cmd *Command, err error) error {
	return &InternalError{Line: Reconstruct(cmd), Err: err}
}

// Reconstruct rebuilds an approximate source line for a node, for use
// in diagnostics.
func Reconstruct(n Node) string {
	switch v := n.(type) {
	case *Command:
		var parts []string
		for _, a := range v.Args {
			parts = append(parts, a.Value)
		}
		for _, r := range v.Redirects {
			if r.FD >= 0 {
				parts = append(parts, fmt.Sprintf("%d%s%s", r.FD, r.Op, r.Target))
			} else {
				parts = append(parts, r.Op+r.Target)
			}
		}
		return strings.Join(parts, " ")
	case *Pipeline:
		var parts []string
		for _, c := range v.Commands {
			parts = append(parts, Reconstruct(c))
		}
		return strings.Join(parts, " | ")
	case *Seq:
		return Reconstruct(v.LHS) + " " + v.Op + " " + Reconstruct(v.RHS)
	default:
		return ""
	}
}
