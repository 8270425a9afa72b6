package shell

// ArgKind distinguishes a literal argument from one containing an
// unquoted glob metacharacter, per spec §9's "Arg = Literal(String) |
// Glob(String)" re-architecture of the source's std::any-typed args.
type ArgKind int

const (
	ArgLiteral ArgKind = iota
	ArgGlob
)

// Arg is one argument of a Command.
type Arg struct {
	Kind  ArgKind
	Value string
}

// Redirect is one redirection attached to a Command: an operator
// (one of <, >, >>, >&, <&, &>), an optional fd prefix (-1 if absent,
// as in "2>"), and a target (a file path or, for >&/<&, another fd
// number as a string).
type Redirect struct {
	Op     string
	FD     int
	Target string
}

// Node is any node of a parsed command tree: *Command, *Pipeline, or *Seq.
type Node interface {
	node()
}

// Command is a single external or built-in invocation with its
// arguments and redirects.
type Command struct {
	Args      []Arg
	Redirects []Redirect
}

func (*Command) node() {}

// Pipeline connects one or more Commands via OS pipes. Negate is always
// false from the parser (the grammar has no pipeline-negation syntax,
// only boolexpr's unrelated "!"); PipeError mirrors the enclosing
// TestingConfig's Pipefail flag, per spec §4.3.
type Pipeline struct {
	Commands  []*Command
	Negate    bool
	PipeError bool
}

func (*Pipeline) node() {}

// Seq sequences two nodes with one of ";", "&", "&&", "||".
//
// "&" behaves identically to ";" — background execution is deliberately
// synchronous here, preserved verbatim from the source per spec §9.
type Seq struct {
	LHS, RHS Node
	Op       string
}

func (*Seq) node() {}
