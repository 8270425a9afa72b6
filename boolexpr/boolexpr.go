// Package boolexpr parses and evaluates the small boolean-expression
// grammar used throughout lit for feature gates (REQUIRES, UNSUPPORTED,
// XFAIL) and for matching against a target triple.
//
// Grammar:
//
//	expr := or
//	or   := and ('||' and)*
//	and  := not ('&&' not)*
//	not  := '!' not | '(' or ')' | identifier
//
// An identifier is true iff it is the literal "true", a member of the
// active feature set, or occurs as a substring of the triple.
package boolexpr

import (
	"fmt"
	"regexp"
	"strings"
)

// endMark is the sentinel token appended to every token stream, mirroring
// the original parser's "end of expression" marker.
const endMark = "END_PARSE_MARK"

// ValueError reports a malformed boolean expression: an unparsable token
// stream or a token that doesn't match what the grammar expects.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string { return e.Msg }

var tokenPattern = regexp.MustCompile(`^\s*([()]|[-+=._A-Za-z0-9]+|&&|\|\||!)\s*(.*)$`)

func quote(token string) string {
	if token == endMark {
		return "<end of expression>"
	}
	return "'" + token + "'"
}

func tokenize(s string) ([]string, error) {
	var tokens []string
	for {
		m := tokenPattern.FindStringSubmatch(s)
		if m == nil {
			if s == "" {
				tokens = append(tokens, endMark)
				return tokens, nil
			}
			return nil, &ValueError{fmt.Sprintf("couldn't parse text: %s", quote(s))}
		}
		tokens = append(tokens, m[1])
		s = m[2]
	}
}

func isIdentifier(token string) bool {
	switch token {
	case endMark, "&&", "||", "!", "(", ")":
		return false
	}
	return true
}

// Node is a parsed boolean-expression AST node.
type Node interface {
	// Eval reports whether the node is true under the given context.
	Eval(ctx *Context) bool
	// String reconstructs source text for the node; Parse(n.String())
	// yields a tree that evaluates identically. Right-nested chains of
	// the same operator (e.g. "a && (b && c)") reparse left-nested, so
	// the tree is not always structurally equal.
	String() string
}

// Context carries the evaluation environment: the active feature set
// and an optional target triple.
type Context struct {
	Features map[string]bool
	Triple   string
}

// Ident is a bare identifier: true, a feature name, or a triple substring.
type Ident string

// Eval implements Node.
func (n Ident) Eval(ctx *Context) bool {
	if string(n) == "true" {
		return true
	}
	if ctx.Features[string(n)] {
		return true
	}
	if ctx.Triple != "" && strings.Contains(ctx.Triple, string(n)) {
		return true
	}
	return false
}

func (n Ident) String() string { return string(n) }

// Not negates its operand.
type Not struct{ X Node }

// Eval implements Node.
func (n *Not) Eval(ctx *Context) bool { return !n.X.Eval(ctx) }

func (n *Not) String() string { return "!" + wrapFactor(n.X) }

// And is a short-circuit-free conjunction: both operands are always
// evaluated before being combined. This matches the associativity bug
// called out in spec §4.1/§9 — harmless for a side-effect-free grammar.
type And struct{ L, R Node }

// Eval implements Node.
func (n *And) Eval(ctx *Context) bool {
	left := n.L.Eval(ctx)
	right := n.R.Eval(ctx)
	return left && right
}

func (n *And) String() string { return wrapTerm(n.L) + " && " + wrapTerm(n.R) }

// Or is a short-circuit-free disjunction, for the same reason as And.
type Or struct{ L, R Node }

// Eval implements Node.
func (n *Or) Eval(ctx *Context) bool {
	left := n.L.Eval(ctx)
	right := n.R.Eval(ctx)
	return left || right
}

func (n *Or) String() string { return n.L.String() + " || " + n.R.String() }

func wrapFactor(n Node) string {
	switch n.(type) {
	case *And, *Or:
		return "(" + n.String() + ")"
	}
	return n.String()
}

func wrapTerm(n Node) string {
	if _, ok := n.(*Or); ok {
		return "(" + n.String() + ")"
	}
	return n.String()
}

type parser struct {
	tokens []string
	pos    int
	cur    string
}

func newParser(tokens []string) *parser {
	p := &parser{tokens: tokens}
	if len(tokens) > 0 {
		p.cur = tokens[0]
		p.pos = 1
	} else {
		p.cur = endMark
	}
	return p
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.cur = p.tokens[p.pos]
		p.pos++
	}
}

func (p *parser) accept(tok string) bool {
	if p.cur == tok {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(tok string) error {
	if p.cur != tok {
		return &ValueError{fmt.Sprintf("expected: %s\nhave: %s", quote(tok), quote(p.cur))}
	}
	if p.cur != endMark {
		p.advance()
	}
	return nil
}

func (p *parser) parseNot() (Node, error) {
	if p.accept("!") {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	if p.accept("(") {
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return x, nil
	}
	if !isIdentifier(p.cur) {
		return nil, &ValueError{fmt.Sprintf("expected: '!' or '(' or identifier\nhave: %s", quote(p.cur))}
	}
	tok := p.cur
	p.advance()
	return Ident(tok), nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &And{L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{L: left, R: right}
	}
	return left, nil
}

// Parse parses a boolean expression into an AST, without evaluating it.
func Parse(expr string) (Node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, &ValueError{err.Error() + "\nin expression: " + quote(expr)}
	}
	p := newParser(tokens)
	node, err := p.parseOr()
	if err != nil {
		return nil, &ValueError{err.Error() + "\nin expression: " + quote(expr)}
	}
	if err := p.expect(endMark); err != nil {
		return nil, &ValueError{err.Error() + "\nin expression: " + quote(expr)}
	}
	return node, nil
}

// Evaluate parses and evaluates expr against the given feature set and
// optional target triple.
func Evaluate(expr string, features map[string]bool, triple string) (bool, error) {
	node, err := Parse(expr)
	if err != nil {
		return false, err
	}
	return node.Eval(&Context{Features: features, Triple: triple}), nil
}
