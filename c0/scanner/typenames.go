package scanner

import (
	"sort"

	"github.com/dhamidi/c0ls/c0/source"
)

// TypeNames is the live set of typedef names for one file's parse. It is
// owned by a single parse driver and must not be shared between parses that
// run concurrently.
type TypeNames struct {
	names map[string]bool
}

func NewTypeNames(names ...string) *TypeNames {
	t := &TypeNames{names: make(map[string]bool)}
	t.Add(names...)
	return t
}

func (t *TypeNames) Add(names ...string) {
	for _, n := range names {
		t.names[n] = true
	}
}

func (t *TypeNames) Has(name string) bool {
	return t.names[name]
}

func (t *TypeNames) Len() int {
	return len(t.names)
}

// Names returns the set in sorted order.
func (t *TypeNames) Names() []string {
	out := make([]string, 0, len(t.names))
	for n := range t.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t *TypeNames) Clone() *TypeNames {
	return NewTypeNames(t.Names()...)
}

// PragmaFunc receives the raw text of a pragma and returns the type names
// it makes visible.
type PragmaFunc func(pragma string) []string

// Scanner wraps a Lexer with the typedef-name reclassification: a plain
// identifier found in the TypeNames set is handed out as TokenTypeIdent.
// Pragma tokens are passed to the PragmaFunc, whose result is merged into
// the set before the next token is read.
type Scanner struct {
	lexer  *Lexer
	names  *TypeNames
	pragma PragmaFunc
}

func NewScanner(input string, start source.Position, names *TypeNames, pragma PragmaFunc) *Scanner {
	if names == nil {
		names = NewTypeNames()
	}
	return &Scanner{
		lexer:  NewLexer(input, start),
		names:  names,
		pragma: pragma,
	}
}

// Next returns the next token, trivia included.
func (s *Scanner) Next() Token {
	tok := s.lexer.NextToken()
	switch tok.Kind {
	case TokenIdent:
		if s.names.Has(tok.Literal) {
			tok.Kind = TokenTypeIdent
		}
	case TokenPragma:
		if s.pragma != nil {
			s.names.Add(s.pragma(tok.Literal)...)
		}
	}
	return tok
}

func (s *Scanner) Position() source.Position {
	return s.lexer.Position()
}

func (s *Scanner) Names() *TypeNames {
	return s.names
}
