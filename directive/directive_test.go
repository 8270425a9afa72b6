package directive

import (
	"regexp"
	"testing"

	"github.com/tmc/lit/littest"
)

func TestScanContentBasic(t *testing.T) {
	content := `// RUN: echo hello
// RUN: echo world
// REQUIRES: x86
// XFAIL: linux
// UNSUPPORTED: windows
some other line
`
	d, err := ScanContent(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.RunLines) != 2 {
		t.Fatalf("got %d run lines, want 2: %+v", len(d.RunLines), d.RunLines)
	}
	if d.RunLines[0] != "echo hello" || d.RunLines[1] != "echo world" {
		t.Errorf("run lines = %+v", d.RunLines)
	}
	if len(d.Requires) != 1 || d.Requires[0] != "x86" {
		t.Errorf("requires = %v", d.Requires)
	}
	if len(d.XFails) != 1 || d.XFails[0] != "linux" {
		t.Errorf("xfails = %v", d.XFails)
	}
	if len(d.Unsupported) != 1 || d.Unsupported[0] != "windows" {
		t.Errorf("unsupported = %v", d.Unsupported)
	}
}

func TestScanContentContinuation(t *testing.T) {
	content := "// RUN: echo a \\\n// RUN: b\n"
	d, err := ScanContent(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.RunLines) != 1 || d.RunLines[0] != "echo a\nb" {
		t.Errorf("run lines = %+v", d.RunLines)
	}
}

func TestScanContentRequiresAny(t *testing.T) {
	content := "// REQUIRES-ANY: a, b, c\n"
	d, err := ScanContent(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Requires) != 1 || d.Requires[0] != "a || b || c" {
		t.Errorf("requires = %v", d.Requires)
	}
}

func TestScanContentEnd(t *testing.T) {
	content := "// RUN: a\n// END:\n// RUN: b\n"
	d, err := ScanContent(content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.RunLines) != 1 {
		t.Fatalf("run lines past END: %v", d.RunLines)
	}
}

func TestUnsupportedUnmetRequires(t *testing.T) {
	d := &Directives{Requires: []string{"x86"}}
	unsup, reasons, err := Unsupported(d, map[string]bool{}, nil, "aarch64-unknown-linux-gnu")
	if err != nil {
		t.Fatal(err)
	}
	if !unsup || len(reasons) != 1 {
		t.Errorf("unsup=%v reasons=%v", unsup, reasons)
	}
}

func TestUnsupportedMatched(t *testing.T) {
	d := &Directives{Unsupported: []string{"windows"}}
	unsup, _, err := Unsupported(d, map[string]bool{"windows": true}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !unsup {
		t.Errorf("want unsupported")
	}
}

func TestRemapXFail(t *testing.T) {
	code, err := RemapXFail(littest.FAIL, []string{"linux"}, map[string]bool{"linux": true}, "")
	if err != nil {
		t.Fatal(err)
	}
	if code != littest.XFAIL {
		t.Errorf("got %v, want XFAIL", code)
	}

	code, err = RemapXFail(littest.PASS, []string{"*"}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if code != littest.XPASS {
		t.Errorf("got %v, want XPASS", code)
	}
}

func TestApplySubstitutions(t *testing.T) {
	subs := []Substitution{
		{regexp.MustCompile("%s"), "/tmp/x.c"},
	}
	got := ApplySubstitutions("clang %dbg(compile) %s -o %t", subs)
	if got != "clang  /tmp/x.c -o %t" {
		t.Errorf("got %q", got)
	}
}
