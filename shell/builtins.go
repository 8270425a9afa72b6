package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type builtinFunc func(ex *Executor, args []string, ios *ioSet) (int, error)

var builtins = map[string]builtinFunc{
	"cd":     cdBuiltin,
	"export": exportBuiltin,
	"set":    setBuiltin,
	"unset":  unsetBuiltin,
	"echo":   echoBuiltin,
	"mkdir":  mkdirBuiltin,
	"rm":     rmBuiltin,
	"diff":   diffBuiltin,
}

func cdBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("cd: command requires exactly one argument")
	}
	target := args[0]
	if !filepath.IsAbs(target) {
		target = filepath.Join(ex.Env.Cwd, target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("cd: %s is not a directory", args[0])
	}
	ex.Env.Cwd = target
	return 0, nil
}

func exportBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("export: command requires exactly one argument")
	}
	idx := strings.IndexByte(args[0], '=')
	if idx < 0 {
		return 0, fmt.Errorf("export: argument %q must be of the form NAME=value", args[0])
	}
	ex.Env.Setenv(args[0][:idx], args[0][idx+1:])
	return 0, nil
}

func setBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	for _, a := range args {
		idx := strings.IndexByte(a, '=')
		if idx < 0 {
			return 0, fmt.Errorf("set: argument %q must be of the form NAME=value", a)
		}
		ex.Env.Setenv(a[:idx], a[idx+1:])
	}
	return 0, nil
}

func unsetBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("unset: command requires at least one argument")
	}
	for _, a := range args {
		ex.Env.Unsetenv(a)
	}
	return 0, nil
}

func echoBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	noNewline := false
	interpret := false
	i := 0
	for i < len(args) && isEchoFlag(args[i]) {
		for _, c := range args[i][1:] {
			switch c {
			case 'n':
				noNewline = true
			case 'e':
				interpret = true
			}
		}
		i++
	}
	text := strings.Join(args[i:], " ")
	if interpret {
		text = interpretEscapes(text)
	}
	fmt.Fprint(ios.stdout, text)
	if !noNewline {
		fmt.Fprint(ios.stdout, "\n")
	}
	return 0, nil
}

func isEchoFlag(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	for _, c := range s[1:] {
		if c != 'n' && c != 'e' {
			return false
		}
	}
	return true
}

func interpretEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func mkdirBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	parents := false
	var paths []string
	for _, a := range args {
		if a == "-p" {
			parents = true
			continue
		}
		paths = append(paths, a)
	}
	for _, p := range paths {
		target := p
		if !filepath.IsAbs(target) {
			target = filepath.Join(ex.Env.Cwd, target)
		}
		var err error
		if parents {
			err = os.MkdirAll(target, 0777)
		} else {
			err = os.Mkdir(target, 0777)
		}
		if err != nil {
			fmt.Fprintf(ios.stderr, "mkdir: %v\n", err)
			return 1, nil
		}
	}
	return 0, nil
}

func rmBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	recursive := false
	force := false
	var paths []string
	for _, a := range args {
		switch {
		case a == "-r" || a == "-rf" || a == "-fr":
			recursive = true
			force = force || strings.Contains(a, "f")
		case a == "-f":
			force = true
		default:
			paths = append(paths, a)
		}
	}
	exit := 0
	for _, p := range paths {
		target := p
		if !filepath.IsAbs(target) {
			target = filepath.Join(ex.Env.Cwd, target)
		}
		var err error
		if recursive {
			err = os.RemoveAll(target)
		} else {
			err = os.Remove(target)
		}
		if err != nil && !force {
			fmt.Fprintf(ios.stderr, "rm: %v\n", err)
			exit = 1
		}
	}
	return exit, nil
}

// diffBuiltin performs a line-by-line comparison of two files (or, with
// -r, two directory trees file by file), per spec §4.5. It is not a
// general unified-diff algorithm (no LCS alignment) — a plain
// line-by-line compare is all the spec calls for.
func diffBuiltin(ex *Executor, args []string, ios *ioSet) (int, error) {
	var ignoreSpace, ignoreAllSpace, unified, recursive bool
	var paths []string
	for _, a := range args {
		switch a {
		case "-b":
			ignoreSpace = true
		case "-w":
			ignoreAllSpace = true
		case "-u":
			unified = true
		case "-r":
			recursive = true
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) != 2 {
		fmt.Fprintf(ios.stderr, "diff: expected exactly two paths\n")
		return 2, nil
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(ex.Env.Cwd, p)
	}
	a, b := resolve(paths[0]), resolve(paths[1])
	if recursive {
		return diffTrees(a, b, ios, unified, ignoreSpace, ignoreAllSpace)
	}
	return diffFiles(a, b, ios, unified, ignoreSpace, ignoreAllSpace)
}

func diffTrees(a, b string, ios *ioSet, unified, ignoreSpace, ignoreAllSpace bool) (int, error) {
	entries, err := os.ReadDir(a)
	if err != nil {
		fmt.Fprintf(ios.stderr, "diff: %v\n", err)
		return 2, nil
	}
	exit := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		code, _ := diffFiles(filepath.Join(a, e.Name()), filepath.Join(b, e.Name()), ios, unified, ignoreSpace, ignoreAllSpace)
		if code > exit {
			exit = code
		}
	}
	return exit, nil
}

func diffFiles(a, b string, ios *ioSet, unified, ignoreSpace, ignoreAllSpace bool) (int, error) {
	aLines, err := readLines(a)
	if err != nil {
		fmt.Fprintf(ios.stderr, "diff: %s: %v\n", a, err)
		return 2, nil
	}
	bLines, err := readLines(b)
	if err != nil {
		fmt.Fprintf(ios.stderr, "diff: %s: %v\n", b, err)
		return 2, nil
	}
	normalize := func(s string) string {
		if ignoreAllSpace {
			return strings.Join(strings.Fields(s), "")
		}
		if ignoreSpace {
			return strings.TrimRight(s, " \t")
		}
		return s
	}
	differs := false
	max := len(aLines)
	if len(bLines) > max {
		max = len(bLines)
	}
	if unified {
		fmt.Fprintf(ios.stdout, "--- %s\n+++ %s\n", a, b)
	}
	for i := 0; i < max; i++ {
		var al, bl string
		var aok, bok bool
		if i < len(aLines) {
			al, aok = aLines[i], true
		}
		if i < len(bLines) {
			bl, bok = bLines[i], true
		}
		if normalize(al) == normalize(bl) && aok == bok {
			continue
		}
		differs = true
		if aok {
			fmt.Fprintf(ios.stdout, "< %s\n", al)
		}
		if bok {
			fmt.Fprintf(ios.stdout, "> %s\n", bl)
		}
	}
	if differs {
		return 1, nil
	}
	return 0, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
