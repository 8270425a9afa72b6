// Package directive scans a test file's trailing "KEYWORD:" comments
// into RUN lines and boolean-expression metadata (XFAIL, REQUIRES,
// REQUIRES-ANY, UNSUPPORTED), and applies the RUN-line substitutions
// (%s, %t, %dbg(...), ...) described in spec §4.6.
package directive

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tmc/lit/boolexpr"
)

// KeywordKind classifies how a directive's trailing text is parsed.
type KeywordKind int

const (
	KeywordCommand KeywordKind = iota
	KeywordBooleanExpr
	KeywordList
	KeywordTag
	KeywordCustom
)

// KeywordSpec names one recognized directive keyword.
type KeywordSpec struct {
	Name string
	Kind KeywordKind
}

// DefaultKeywords are the directives every ShTest-style file supports
// without further configuration.
var DefaultKeywords = []KeywordSpec{
	{"RUN", KeywordCommand},
	{"XFAIL", KeywordBooleanExpr},
	{"REQUIRES", KeywordBooleanExpr},
	{"REQUIRES-ANY", KeywordList},
	{"UNSUPPORTED", KeywordBooleanExpr},
	{"END", KeywordTag},
}

// Directives is the full set of metadata scanned out of one test file.
type Directives struct {
	RunLines    []string
	XFails      []string
	Requires    []string
	Unsupported []string
	Custom      map[string][]string
}

func newDirectives() *Directives {
	return &Directives{Custom: map[string][]string{}}
}

// Scan reads path and extracts its Directives, using DefaultKeywords
// plus any extraKeywords a format or config has registered.
func Scan(path string, extraKeywords []KeywordSpec) (*Directives, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ScanContent(string(data), extraKeywords)
}

func isIdentChar(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// findDirective looks for the first registered "KEYWORD:" marker in a
// trimmed source line, requiring that it not be preceded by an
// identifier character (so e.g. a keyword spelled inside a larger
// token is not mistaken for a directive).
func findDirective(trimmed string, byName map[string]KeywordSpec) (name, rest string, ok bool) {
	best := -1
	for kw := range byName {
		marker := kw + ":"
		idx := strings.Index(trimmed, marker)
		if idx < 0 {
			continue
		}
		if idx > 0 && isIdentChar(trimmed[idx-1]) {
			continue
		}
		if best == -1 || idx < best || (idx == best && len(kw) > len(name)) {
			best = idx
			name = kw
			rest = trimmed[idx+len(marker):]
			ok = true
		}
	}
	return name, rest, ok
}

func splitCSV(s string) []string {
	fields := strings.Split(s, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ScanContent parses already-read file content into Directives.
func ScanContent(content string, extraKeywords []KeywordSpec) (*Directives, error) {
	keywords := append(append([]KeywordSpec{}, DefaultKeywords...), extraKeywords...)
	byName := make(map[string]KeywordSpec, len(keywords))
	for _, k := range keywords {
		byName[k.Name] = k
	}

	d := newDirectives()
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		name, rest, ok := findDirective(trimmed, byName)
		if !ok {
			continue
		}
		kw := byName[name]
		switch kw.Kind {
		case KeywordCommand:
			text := strings.TrimSpace(rest)
			for strings.HasSuffix(text, `\`) && i+1 < len(lines) {
				text = strings.TrimSpace(strings.TrimSuffix(text, `\`))
				i++
				next := strings.TrimSpace(lines[i])
				// A continuation usually repeats the directive marker
				// ("// RUN: b"); strip it so only the command text joins.
				if n2, rest2, ok2 := findDirective(next, byName); ok2 && n2 == name {
					next = strings.TrimSpace(rest2)
				}
				text += "\n" + next
			}
			d.RunLines = append(d.RunLines, text)

		case KeywordBooleanExpr:
			expr := strings.TrimSpace(rest)
			if expr != "*" {
				if _, err := boolexpr.Parse(expr); err != nil {
					return nil, fmt.Errorf("directive: %s: %w", name, err)
				}
			}
			switch name {
			case "XFAIL":
				d.XFails = append(d.XFails, expr)
			case "REQUIRES":
				d.Requires = append(d.Requires, expr)
			case "UNSUPPORTED":
				d.Unsupported = append(d.Unsupported, expr)
			default:
				d.Custom[name] = append(d.Custom[name], expr)
			}

		case KeywordList:
			parts := splitCSV(rest)
			if name == "REQUIRES-ANY" {
				if len(parts) > 0 {
					d.Requires = append(d.Requires, strings.Join(parts, " || "))
				}
			} else {
				d.Custom[name] = append(d.Custom[name], parts...)
			}

		case KeywordTag:
			if name == "END" {
				return d, nil
			}

		case KeywordCustom:
			d.Custom[name] = append(d.Custom[name], strings.TrimSpace(rest))
		}
	}
	return d, nil
}

var dbgMarkerRe = regexp.MustCompile(`%dbg\([^)]*\)`)

// Substitution is a compiled (pattern, replacement) pair.
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// ApplySubstitutions strips %dbg(...) markers, then applies subs in
// order to line.
func ApplySubstitutions(line string, subs []Substitution) string {
	line = dbgMarkerRe.ReplaceAllString(line, "")
	for _, s := range subs {
		line = s.Pattern.ReplaceAllString(line, s.Replacement)
	}
	return line
}
