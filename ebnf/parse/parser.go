package parse

import (
	"fmt"
	"io"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// symbol is one element of a compiled right-hand side.
type symbol struct {
	name     string // nonterminal name, or terminal class for lexical names
	literal  string // literal text for quoted tokens
	terminal bool
}

func (s symbol) String() string {
	if s.terminal && s.name == "" {
		return fmt.Sprintf("%q", s.literal)
	}
	return s.name
}

// rule is a BNF rule produced from an EBNF production. Hidden rules are
// synthesized for repetitions; their children are spliced into the parent
// node when building trees.
type rule struct {
	id     int
	lhs    string
	rhs    []symbol
	hidden bool
}

// Grammar is an EBNF grammar compiled to epsilon-free BNF rules.
//
// Following golang.org/x/exp/ebnf, productions whose name starts with an
// upper-case letter are syntactic; all others are lexical. Lexical
// productions are terminals for the parser: a token matches them by class.
// Quoted tokens in syntactic productions match by literal text.
type Grammar struct {
	start   string
	rules   map[string][]*rule
	all     []*rule
	lexical map[string]bool
	nextRep int
}

// ParseGrammar reads, verifies and compiles an EBNF grammar.
func ParseGrammar(filename string, r io.Reader, start string) (*Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	if err := ebnf.Verify(g, start); err != nil {
		return nil, fmt.Errorf("verify grammar: %w", err)
	}
	return Compile(g, start)
}

// Compile converts a verified grammar into BNF rules. Options are expanded
// into separate alternatives and repetitions into left-recursive hidden
// rules, so no rule derives the empty string.
func Compile(g ebnf.Grammar, start string) (*Grammar, error) {
	cg := &Grammar{
		start:   start,
		rules:   make(map[string][]*rule),
		lexical: make(map[string]bool),
	}

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if isLexical(name) {
			cg.lexical[name] = true
		}
	}

	for _, name := range names {
		if cg.lexical[name] {
			continue
		}
		prod := g[name]
		seqs, err := cg.expand(prod.Expr)
		if err != nil {
			return nil, fmt.Errorf("production %s: %w", name, err)
		}
		for _, seq := range seqs {
			if len(seq) == 0 {
				return nil, fmt.Errorf("production %s derives the empty string", name)
			}
			cg.addRule(name, seq, false)
		}
	}

	if len(cg.rules[start]) == 0 {
		return nil, fmt.Errorf("production %q not found in grammar", start)
	}
	return cg, nil
}

func isLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

func (g *Grammar) addRule(lhs string, rhs []symbol, hidden bool) {
	r := &rule{id: len(g.all), lhs: lhs, rhs: rhs, hidden: hidden}
	g.rules[lhs] = append(g.rules[lhs], r)
	g.all = append(g.all, r)
}

// expand returns the alternative symbol sequences an expression derives.
func (g *Grammar) expand(expr ebnf.Expression) ([][]symbol, error) {
	switch e := expr.(type) {
	case nil:
		return [][]symbol{nil}, nil

	case *ebnf.Name:
		if g.lexical[e.String] {
			return [][]symbol{{{name: e.String, terminal: true}}}, nil
		}
		return [][]symbol{{{name: e.String}}}, nil

	case *ebnf.Token:
		return [][]symbol{{{literal: e.String, terminal: true}}}, nil

	case ebnf.Sequence:
		out := [][]symbol{nil}
		for _, item := range e {
			alts, err := g.expand(item)
			if err != nil {
				return nil, err
			}
			var next [][]symbol
			for _, prefix := range out {
				for _, alt := range alts {
					seq := make([]symbol, 0, len(prefix)+len(alt))
					seq = append(seq, prefix...)
					seq = append(seq, alt...)
					next = append(next, seq)
				}
			}
			out = next
		}
		return out, nil

	case ebnf.Alternative:
		var out [][]symbol
		for _, alt := range e {
			seqs, err := g.expand(alt)
			if err != nil {
				return nil, err
			}
			out = append(out, seqs...)
		}
		return out, nil

	case *ebnf.Group:
		return g.expand(e.Body)

	case *ebnf.Option:
		seqs, err := g.expand(e.Body)
		if err != nil {
			return nil, err
		}
		return append(seqs, nil), nil

	case *ebnf.Repetition:
		body, err := g.expand(e.Body)
		if err != nil {
			return nil, err
		}
		g.nextRep++
		name := fmt.Sprintf("{%d}", g.nextRep)
		self := symbol{name: name}
		for _, seq := range body {
			if len(seq) == 0 {
				return nil, fmt.Errorf("repetition body derives the empty string")
			}
			g.addRule(name, seq, true)
			g.addRule(name, append([]symbol{self}, seq...), true)
		}
		return [][]symbol{{self}, nil}, nil

	case *ebnf.Range:
		return nil, fmt.Errorf("character range outside a lexical production")

	case *ebnf.Bad:
		return nil, fmt.Errorf("%s", e.Error)
	}
	return nil, fmt.Errorf("unexpected expression %T", expr)
}

// Start returns the start production.
func (g *Grammar) Start() string {
	return g.start
}

// Terminals returns the lexical production names the grammar references.
func (g *Grammar) Terminals() []string {
	out := make([]string, 0, len(g.lexical))
	for name := range g.lexical {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
