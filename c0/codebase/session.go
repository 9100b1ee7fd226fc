package codebase

import (
	"path/filepath"
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

// sessionFile names the input of a session in spans and logs. It lives in
// the root directory so that #use "file" resolves against it.
const sessionFile = "<input>"

// Session checks declarations and expressions one input at a time against
// a single growing environment.
type Session struct {
	c     *Codebase
	a     *Analysis
	names *scanner.TypeNames
}

// Reply is the outcome of one input. Exactly one of Type and Decls is set
// when the input has no errors.
type Reply struct {
	Expr        ast.Expr
	Type        typecheck.Type
	Decls       []ast.Decl
	Diagnostics []source.Diagnostic
}

func (r *Reply) HasErrors() bool {
	return source.HasErrors(r.Diagnostics)
}

func (c *Codebase) NewSession() *Session {
	e := env.New()
	path := sessionFile
	if c.rootDir != "" {
		path = filepath.Join(c.rootDir, sessionFile)
	}
	return &Session{
		c: c,
		a: &Analysis{
			Path:    path,
			Lang:    c.langFor(""),
			Env:     e,
			Checker: typecheck.NewChecker(e, nil),
		},
		names: scanner.NewTypeNames(),
	}
}

func (s *Session) Env() *env.Env {
	return s.a.Env
}

// Eval checks input as an expression if it is one, and as a sequence of
// declarations otherwise. Declarations are kept for later inputs only when
// all of them check.
func (s *Session) Eval(input string) *Reply {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	text := strings.TrimSpace(input)
	if r, ok := s.expr(strings.TrimSuffix(text, ";")); ok {
		return r
	}

	ld := newLoader(s.c, s.a, s.a.Path)
	res := parser.Parse(text,
		parser.WithTypeNames(s.names),
		parser.WithPragmaNames(ld.pragma))
	decls, rerrs := restrict.Program(res.Decls, res.Comments, s.a.Lang)
	r := &Reply{Decls: decls}
	r.Diagnostics = append(res.Diagnostics, restrict.Diagnostics(rerrs)...)
	if ld.failed() {
		r.Diagnostics = append(r.Diagnostics, ld.report(decls)...)
		return r
	}
	for _, d := range decls {
		if diag, ok := ld.problem(d); ok {
			r.Diagnostics = append(r.Diagnostics, diag)
		}
	}
	if source.HasErrors(r.Diagnostics) {
		return r
	}

	// Rejected inputs must leave the environment as it was, so the
	// declarations are tried on a copy first.
	trial := typecheck.NewChecker(s.a.Env.Clone(), nil)
	for _, d := range decls {
		r.Diagnostics = append(r.Diagnostics, typecheck.Diagnostics(trial.Decl(d, false))...)
	}
	if source.HasErrors(r.Diagnostics) {
		return r
	}
	for _, d := range decls {
		s.a.Checker.Decl(d, false)
	}
	return r
}

func (s *Session) expr(text string) (*Reply, bool) {
	if text == "" {
		return nil, false
	}
	n, err := parser.ParseExpression(text, parser.WithTypeNames(s.names.Clone()))
	if err != nil {
		return nil, false
	}
	r := &Reply{}
	x, rerrs := restrict.Expr(n, s.a.Lang)
	if len(rerrs) > 0 {
		r.Diagnostics = restrict.Diagnostics(rerrs)
		return r, true
	}
	r.Expr = x
	t, terrs := s.a.Checker.Expr(x, nil)
	r.Diagnostics = typecheck.Diagnostics(terrs)
	if len(terrs) == 0 {
		r.Type = t
	}
	return r, true
}

// Finish reports the functions used in the session but never defined.
func (s *Session) Finish() []source.Diagnostic {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return typecheck.Diagnostics(s.a.Checker.Finish())
}

// Balanced reports whether every brace and parenthesis opened in text is
// closed, ignoring comments and literals. Interactive front ends use it to
// decide when an input is complete.
func Balanced(text string) bool {
	sc := scanner.NewScanner(text, source.Position{Line: 1, Column: 1}, nil, nil)
	depth := 0
	for {
		tok := sc.Next()
		if tok.Kind == scanner.TokenEOF {
			return depth <= 0
		}
		switch tok.Literal {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
		}
	}
}
