package boolexpr

import (
	"strings"
	"testing"
)

func TestEvaluateBasics(t *testing.T) {
	cases := []struct {
		expr     string
		features map[string]bool
		triple   string
		want     bool
	}{
		{"true || false", nil, "", true},
		{"a && !b", map[string]bool{"a": true}, "", true},
		{"x", nil, "arch-vendor-os", false},
	}
	for _, c := range cases {
		got, err := Evaluate(c.expr, c.features, c.triple)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", c.expr, err)
		}
		if got != c.want {
			t.Errorf("Evaluate(%q, %v, %q) = %v, want %v", c.expr, c.features, c.triple, got, c.want)
		}
	}
}

func TestEvaluateTripleSubstring(t *testing.T) {
	got, err := Evaluate("-vendor-", nil, "arch-vendor-os")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Errorf("Evaluate(%q, nil, %q) = false, want true (substring match)", "-vendor-", "arch-vendor-os")
	}

	got, err = Evaluate("arch-os", nil, "arch-vendor-os")
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Errorf("Evaluate(%q, nil, %q) = true, want false (not a contiguous substring)", "arch-os", "arch-vendor-os")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	_, err := Evaluate("true and true", nil, "")
	if err == nil {
		t.Fatal("expected error for invalid operator 'and'")
	}
	if !strings.Contains(err.Error(), "expected: <end of expression>") {
		t.Errorf("error missing 'expected: <end of expression>': %v", err)
	}
	if !strings.Contains(err.Error(), "have: 'and'") {
		t.Errorf("error missing \"have: 'and'\": %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	exprs := []string{
		"a && b",
		"a || b && c",
		"!(a || b)",
		"(a && b) || c",
		"!a && !b",
	}
	features := map[string]bool{"a": true, "c": true}
	for _, expr := range exprs {
		node, err := Parse(expr)
		if err != nil {
			t.Fatalf("Parse(%q): %v", expr, err)
		}
		reprinted := node.String()
		node2, err := Parse(reprinted)
		if err != nil {
			t.Fatalf("Parse(reprint of %q = %q): %v", expr, reprinted, err)
		}
		ctx := &Context{Features: features}
		if node.Eval(ctx) != node2.Eval(ctx) {
			t.Errorf("round-trip mismatch for %q (reprinted %q)", expr, reprinted)
		}
	}
}
