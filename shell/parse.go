package shell

import "fmt"

var seqOps = map[string]bool{";": true, "&": true, "&&": true, "||": true}
var pipeOps = map[string]bool{"|": true}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func tokenToArg(tok Token) Arg {
	if tok.IsGlob {
		return Arg{Kind: ArgGlob, Value: tok.Text}
	}
	return Arg{Kind: ArgLiteral, Value: tok.Text}
}

func (p *parser) parseCommand() (*Command, error) {
	first, ok := p.next()
	if !ok {
		return nil, &SyntaxError{"empty command!"}
	}
	if first.Kind == KindRedirect && (seqOps[first.Text] || pipeOps[first.Text]) {
		return nil, &SyntaxError{fmt.Sprintf("syntax error near token '%s'", first.Text)}
	}
	args := []Arg{tokenToArg(first)}
	var redirects []Redirect
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		if tok.Kind == KindNormal {
			p.pos++
			args = append(args, tokenToArg(tok))
			continue
		}
		if tok.Kind == KindRedirect && (seqOps[tok.Text] || pipeOps[tok.Text]) {
			break
		}
		// A redirect operator (possibly fd-prefixed): consume it and its target.
		opTok, _ := p.next()
		argTok, ok := p.next()
		if !ok {
			return nil, &SyntaxError{fmt.Sprintf("syntax error near token '%s'", opTok.Text)}
		}
		fd := -1
		if opTok.Kind >= 0 {
			fd = opTok.Kind
		}
		redirects = append(redirects, Redirect{Op: opTok.Text, FD: fd, Target: argTok.Text})
	}
	return &Command{Args: args, Redirects: redirects}, nil
}

func (p *parser) parsePipeline(pipeError bool) (*Pipeline, error) {
	cmd, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	commands := []*Command{cmd}
	for {
		tok, ok := p.peek()
		if !ok || tok.Text != "|" {
			break
		}
		p.pos++
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return &Pipeline{Commands: commands, PipeError: pipeError}, nil
}

func (p *parser) parseSeq(pipeError bool) (Node, error) {
	lhs, err := p.parsePipeline(pipeError)
	if err != nil {
		return nil, err
	}
	var node Node = lhs
	for {
		opTok, ok := p.next()
		if !ok {
			break
		}
		if !seqOps[opTok.Text] {
			return nil, &SyntaxError{fmt.Sprintf("syntax error near token '%s'", opTok.Text)}
		}
		if _, ok := p.peek(); !ok {
			return nil, &SyntaxError{fmt.Sprintf("missing argument to operator %s", opTok.Text)}
		}
		rhs, err := p.parsePipeline(pipeError)
		if err != nil {
			return nil, err
		}
		node = &Seq{LHS: node, Op: opTok.Text, RHS: rhs}
	}
	return node, nil
}

// Parse lexes and parses a RUN line into a command tree. pipeError
// becomes the PipeError field of every Pipeline in the tree, taken from
// the enclosing TestingConfig's Pipefail setting per spec §4.3.
func Parse(data string, win32Escapes, pipeError bool) (Node, error) {
	tokens, err := Lex(data, win32Escapes, nil)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseSeq(pipeError)
}
