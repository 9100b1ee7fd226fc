package typecheck

import (
	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/source"
)

type scope struct {
	parent *scope
	vars   map[string]*Local
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*Local)}
}

func (s *scope) lookup(name string) *Local {
	for ; s != nil; s = s.parent {
		if l, ok := s.vars[name]; ok {
			return l
		}
	}
	return nil
}

// ctx is what expression and statement checks need to know about where
// they are.
type ctx struct {
	scope *scope
	// ret is the return type of the enclosing function.
	ret Type
	// result is the type of \result, or nil where it is not allowed.
	result Type
	anno   bool
	loops  int
	fn     string
	// scopeEnd is the innermost enclosing block; bindings made in scope
	// are visible until its end.
	scopeEnd source.Span
}

func (cx *ctx) nested(span source.Span) *ctx {
	n := *cx
	n.scope = newScope(cx.scope)
	n.scopeEnd = span
	return &n
}

func (cx *ctx) annotation() *ctx {
	n := *cx
	n.anno = true
	n.result = nil
	return &n
}

func (c *Checker) bind(sc *scope, name *ast.Name, t Type, visible source.Span) *Local {
	l := &Local{
		Name: name,
		Type: t,
		Scope: source.Span{
			File:  name.Span().File,
			Start: name.Span().Start,
			End:   visible.End,
		},
	}
	sc.vars[name.Value] = l
	c.info.Locals = append(c.info.Locals, l)
	return l
}

// Expr synthesizes the type of x with the given locals in scope. Problems
// are returned and not kept by the checker.
func (c *Checker) Expr(x ast.Expr, locals []*Local) (Type, []*Error) {
	start := len(c.errs)
	sc := newScope(nil)
	for _, l := range locals {
		sc.vars[l.Name.Value] = l
	}
	t := c.synth(x, &ctx{scope: sc, anno: true})
	errs := append([]*Error(nil), c.errs[start:]...)
	c.errs = c.errs[:start]
	return t, errs
}

// TryResolve is Resolve for callers outside a check. Problems are returned
// and not kept by the checker.
func (c *Checker) TryResolve(t ast.Type) (Type, []*Error) {
	start := len(c.errs)
	r := c.Resolve(t)
	errs := append([]*Error(nil), c.errs[start:]...)
	c.errs = c.errs[:start]
	return r, errs
}
