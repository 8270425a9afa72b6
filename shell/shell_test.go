package shell

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lexTexts(t *testing.T, data string) []Token {
	t.Helper()
	toks, err := Lex(data, false, nil)
	if err != nil {
		t.Fatalf("Lex(%q): %v", data, err)
	}
	return toks
}

func TestLexRedirectPrefix(t *testing.T) {
	toks := lexTexts(t, "a2>c")
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[0].Text != "a2" || toks[0].Kind != KindNormal {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Text != ">" || toks[1].Kind != KindNormal {
		t.Errorf("token 1 = %+v", toks[1])
	}
	if toks[2].Text != "c" || toks[2].Kind != KindNormal {
		t.Errorf("token 2 = %+v", toks[2])
	}
}

func TestLexRedirectWithFD(t *testing.T) {
	toks := lexTexts(t, "a 2>c")
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[0].Text != "a" || toks[0].Kind != KindNormal {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Text != ">" || toks[1].Kind != 2 {
		t.Errorf("token 1 = %+v, want fd=2", toks[1])
	}
	if toks[2].Text != "c" {
		t.Errorf("token 2 = %+v", toks[2])
	}
}

func TestLexQuotedEscape(t *testing.T) {
	toks := lexTexts(t, `"hello\"world"`)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1: %+v", len(toks), toks)
	}
	if toks[0].Text != `hello"world` {
		t.Errorf("got %q, want %q", toks[0].Text, `hello"world`)
	}
}

func TestParsePipelineWithRedirects(t *testing.T) {
	node, err := Parse("echo hello > c >> d", false, false)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := node.(*Pipeline)
	if !ok {
		t.Fatalf("got %T, want *Pipeline", node)
	}

	want := &Pipeline{
		Commands: []*Command{{
			Args: []Arg{{Kind: ArgLiteral, Value: "echo"}, {Kind: ArgLiteral, Value: "hello"}},
			Redirects: []Redirect{
				{Op: ">", Target: "c", FD: -1},
				{Op: ">>", Target: "d", FD: -1},
			},
		}},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("parsed pipeline mismatch (-want +got):\n%s", diff)
	}
}

func runLine(t *testing.T, dir, line string, pipeError bool) (string, int) {
	t.Helper()
	node, err := Parse(line, false, pipeError)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	env := NewEnvironment(dir, nil)
	ex := NewExecutor(env)
	exit, err := ex.Execute(context.Background(), node)
	if err != nil {
		t.Fatalf("Execute(%q): %v", line, err)
	}
	var sb strings.Builder
	for _, r := range ex.Records {
		sb.WriteString(r.Stdout)
	}
	return sb.String(), exit
}

func TestSeqShortCircuit(t *testing.T) {
	dir := t.TempDir()
	out, exit := runLine(t, dir, "false && echo X ; echo Y", false)
	if out != "Y\n" {
		t.Errorf("output = %q, want %q", out, "Y\n")
	}
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}

	out, exit = runLine(t, dir, "true || echo X ; echo Y", false)
	if out != "Y\n" {
		t.Errorf("output = %q, want %q", out, "Y\n")
	}
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
}

func TestPipefail(t *testing.T) {
	dir := t.TempDir()
	_, exit := runLine(t, dir, "false | true", true)
	if exit == 0 {
		t.Errorf("pipefail: exit = 0, want nonzero")
	}
	_, exit = runLine(t, dir, "false | true", false)
	if exit != 0 {
		t.Errorf("no pipefail: exit = %d, want 0", exit)
	}
}
