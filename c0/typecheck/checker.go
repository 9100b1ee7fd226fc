// Package typecheck checks restricted C0 declarations against a global
// environment.
//
// Declarations are checked one at a time in source order and committed to
// the environment as they pass. What the checker learns about expressions
// is recorded in an Info side table. Problems are collected as *Error
// values; a panic with *ImpossibleError means a checked tree was ill-typed
// after all.
package typecheck

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/source"
)

// log is resolved on each use; the backend is installed by main.
func log() commonlog.Logger {
	return commonlog.GetLogger("c0ls.typecheck")
}

type Checker struct {
	env  *env.Env
	info *Info
	errs []*Error

	// current is the function whose body is being checked. It is visible
	// to its own body before it is committed, which allows recursion.
	current *ast.FunDecl
	sigs    map[ast.Decl]*Signature

	used     []usedFunc
	usedSeen map[string]bool

	// damaged holds where the parser dropped text.
	damaged []source.Span
}

type usedFunc struct {
	name string
	span source.Span
}

func NewChecker(e *env.Env, info *Info) *Checker {
	if info == nil {
		info = NewInfo()
	}
	return &Checker{
		env:      e,
		info:     info,
		sigs:     make(map[ast.Decl]*Signature),
		usedSeen: make(map[string]bool),
	}
}

func (c *Checker) Env() *env.Env { return c.env }
func (c *Checker) Info() *Info   { return c.info }

// Damaged records the positions of syntax errors. A function whose body
// contains one is not required to return on every path: the dropped text
// may have held the return.
func (c *Checker) Damaged(diags []source.Diagnostic) {
	for _, d := range diags {
		if d.Stage == source.StageParse && !d.Span.IsZero() {
			c.damaged = append(c.damaged, d.Span)
		}
	}
}

func (c *Checker) isDamaged(span source.Span) bool {
	for _, s := range c.damaged {
		if s.File != "" && span.File != "" && s.File != span.File {
			continue
		}
		if span.Contains(s.Start) {
			return true
		}
	}
	return false
}

// Check checks decls in order, commits them to e and verifies that every
// function they use is defined.
func Check(e *env.Env, decls []ast.Decl, info *Info) []*Error {
	c := NewChecker(e, info)
	var errs []*Error
	for _, d := range decls {
		errs = append(errs, c.Decl(d, false)...)
	}
	return append(errs, c.Finish()...)
}

func (c *Checker) errorf(span source.Span, hints []string, format string, args ...any) {
	c.errs = append(c.errs, &Error{Msg: fmt.Sprintf(format, args...), Hints: hints, Span: span})
}

// Decl checks one declaration and commits it to the environment unless its
// header conflicts with an earlier declaration. It returns the problems
// found in d.
func (c *Checker) Decl(d ast.Decl, fromLibrary bool) []*Error {
	start := len(c.errs)
	ok := true
	switch d := d.(type) {
	case *ast.UseLib, *ast.UseFile:
	case *ast.StructDecl:
		ok = c.structDecl(d)
	case *ast.TypedefDecl:
		ok = c.typedefDecl(d)
	case *ast.FunTypedefDecl:
		ok = c.funTypedefDecl(d)
	case *ast.FunDecl:
		ok = c.funDecl(d, fromLibrary)
	default:
		Impossible(d.Span(), "unknown declaration %T", d)
	}
	if ok {
		c.env.Add(d, fromLibrary)
	}
	errs := c.errs[start:len(c.errs):len(c.errs)]
	log().Debugf("checked %s: %d errors", ast.DeclName(d), len(errs))
	return errs
}

// Finish reports functions that were used but never defined. Library
// functions need no definition.
func (c *Checker) Finish() []*Error {
	start := len(c.errs)
	for _, u := range c.used {
		if c.env.IsLibraryFunction(u.name) {
			continue
		}
		if f := c.env.Function(u.name); f == nil || f.Body == nil {
			c.errorf(u.span, []string{"add a definition of " + u.name}, "function %s is used but never defined", u.name)
		}
	}
	return c.errs[start:len(c.errs):len(c.errs)]
}

func (c *Checker) use(name string, span source.Span) {
	if c.usedSeen[name] {
		return
	}
	c.usedSeen[name] = true
	c.used = append(c.used, usedFunc{name: name, span: span})
}

// function resolves a function name, including the one being defined.
func (c *Checker) function(name string) *ast.FunDecl {
	if f := c.env.Function(name); f != nil {
		return f
	}
	if c.current != nil && c.current.Name.Value == name {
		return c.current
	}
	return nil
}

// ----------------------------------------------------------------------------
// Types

// Resolve converts a syntactic type, expanding typedefs.
func (c *Checker) Resolve(t ast.Type) Type {
	switch t := t.(type) {
	case *ast.BasicType:
		return &Basic{Kind: t.Kind}
	case *ast.NamedType:
		switch d := c.env.Typedef(t.Name).(type) {
		case *ast.TypedefDecl:
			return c.Resolve(d.Type)
		case *ast.FunTypedefDecl:
			return &Func{Name: d.Name.Value, Sig: c.signature(d, d.Ret, d.Params)}
		}
		c.errorf(t.Span(), nil, "unknown type name %s", t.Name)
		return Invalid
	case *ast.StructType:
		return &Struct{Name: t.Name.Value}
	case *ast.PointerType:
		return &Pointer{Elem: c.Resolve(t.Elem)}
	case *ast.ArrayType:
		return &Array{Elem: c.Resolve(t.Elem)}
	}
	Impossible(source.Span{}, "unknown type node %T", t)
	return nil
}

func (c *Checker) signature(d ast.Decl, ret ast.Type, params []*ast.Param) *Signature {
	if s, ok := c.sigs[d]; ok {
		return s
	}
	s := &Signature{Ret: c.Resolve(ret)}
	for _, p := range params {
		s.Params = append(s.Params, c.Resolve(p.Type))
	}
	c.sigs[d] = s
	return s
}

// Signature returns the resolved signature of a function declaration.
func (c *Checker) Signature(f *ast.FunDecl) *Signature {
	return c.signature(f, f.Ret, f.Params)
}

// small reports an error unless t can be stored in a variable, passed or
// returned.
func (c *Checker) small(t Type, span source.Span, what string) bool {
	switch t := t.(type) {
	case *Struct:
		c.errorf(span, []string{fmt.Sprintf("use a pointer: %s*", t)}, "%s cannot have type %s", what, t)
		return false
	case *Func:
		c.errorf(span, []string{fmt.Sprintf("use a pointer: %s*", t)}, "%s cannot have function type %s", what, t)
		return false
	}
	return true
}

func (c *Checker) notVoid(t Type, span source.Span, what string) bool {
	if isBasic(t, ast.Void) {
		c.errorf(span, nil, "%s cannot have type void", what)
		return false
	}
	return true
}

// ----------------------------------------------------------------------------
// Declarations

func (c *Checker) structDecl(d *ast.StructDecl) bool {
	name := d.Name.Value
	if !d.Defined {
		return true
	}
	if prev := c.env.Struct(name); prev != nil && prev.Defined {
		c.errorf(d.Name.Span(), []string{"previous definition at " + prev.Span().String()}, "struct %s is already defined", name)
		return false
	}
	seen := make(map[string]bool)
	for _, f := range d.Fields {
		what := "field " + f.Name.Value
		if seen[f.Name.Value] {
			c.errorf(f.Name.Span(), nil, "duplicate field %s in struct %s", f.Name.Value, name)
		}
		seen[f.Name.Value] = true

		t := c.Resolve(f.Type)
		switch t := t.(type) {
		case *Struct:
			if s := c.env.Struct(t.Name); s == nil || !s.Defined {
				c.errorf(f.Type.Span(),
					[]string{fmt.Sprintf("define struct %s before struct %s, or use a pointer", t.Name, name)},
					"struct %s is not defined", t.Name)
			}
		case *Func:
			c.errorf(f.Type.Span(), []string{fmt.Sprintf("use a pointer: %s*", t)}, "%s cannot have function type %s", what, t)
		default:
			c.notVoid(t, f.Type.Span(), what)
		}
	}
	return true
}

// freeTypeName reports an error if name is already a type or function name.
func (c *Checker) freeTypeName(name *ast.Name) bool {
	if prev := c.env.Typedef(name.Value); prev != nil {
		c.errorf(name.Span(), []string{"previous definition at " + prev.Span().String()}, "type name %s is already defined", name.Value)
		return false
	}
	if f := c.env.Function(name.Value); f != nil {
		c.errorf(name.Span(), []string{"previous declaration at " + f.Span().String()}, "%s is already declared as a function", name.Value)
		return false
	}
	return true
}

func (c *Checker) typedefDecl(d *ast.TypedefDecl) bool {
	if !c.freeTypeName(d.Name) {
		return false
	}
	t := c.Resolve(d.Type)
	c.notVoid(t, d.Type.Span(), "type name "+d.Name.Value)
	return true
}

func (c *Checker) funTypedefDecl(d *ast.FunTypedefDecl) bool {
	if !c.freeTypeName(d.Name) {
		return false
	}
	sig := c.signature(d, d.Ret, d.Params)
	sc := c.params(d.Span(), d.Params, sig, d.Ret.Span())
	c.contracts(d.Requires, &ctx{scope: sc, anno: true})
	c.contracts(d.Ensures, &ctx{scope: sc, anno: true, result: sig.Ret})
	return true
}

// params checks a signature and binds its parameters in a fresh scope.
func (c *Checker) params(span source.Span, params []*ast.Param, sig *Signature, retSpan source.Span) *scope {
	c.small(sig.Ret, retSpan, "return value")
	sc := newScope(nil)
	for i, p := range params {
		what := "parameter " + p.Name.Value
		t := sig.Params[i]
		if c.small(t, p.Type.Span(), what) {
			c.notVoid(t, p.Type.Span(), what)
		}
		if sc.vars[p.Name.Value] != nil {
			c.errorf(p.Name.Span(), nil, "duplicate parameter %s", p.Name.Value)
			continue
		}
		c.bind(sc, p.Name, t, span)
	}
	return sc
}

func (c *Checker) funDecl(d *ast.FunDecl, fromLibrary bool) bool {
	name := d.Name.Value
	ok := true
	if prev := c.env.Typedef(name); prev != nil {
		c.errorf(d.Name.Span(), []string{"previous definition at " + prev.Span().String()}, "%s is already declared as a type name", name)
		return false
	}

	sig := c.signature(d, d.Ret, d.Params)
	if prevs := c.env.FunctionDecls(name); len(prevs) > 0 {
		prev := prevs[0]
		if psig := c.Signature(prev); !SameSignature(sig, psig) {
			c.errorf(d.Name.Span(),
				[]string{fmt.Sprintf("previously declared as %s at %s", psig, prev.Span())},
				"conflicting types for %s: %s", name, sig)
			ok = false
		}
	}
	if d.Body != nil {
		if def := c.env.Function(name); def != nil && def.Body != nil {
			c.errorf(d.Name.Span(), []string{"previous definition at " + def.Span().String()}, "function %s is already defined", name)
			ok = false
		}
		if c.env.IsLibraryFunction(name) && !fromLibrary {
			c.errorf(d.Name.Span(), nil, "cannot define library function %s", name)
			ok = false
		}
	}

	sc := c.params(d.Span(), d.Params, sig, d.Ret.Span())
	c.contracts(d.Requires, &ctx{scope: sc, anno: true})
	c.contracts(d.Ensures, &ctx{scope: sc, anno: true, result: sig.Ret})

	if d.Body != nil {
		if ok {
			c.current = d
		}
		start := len(c.errs)
		cx := &ctx{scope: newScope(sc), ret: sig.Ret, fn: name, scopeEnd: d.Body.Span()}
		c.block(d.Body, cx)
		c.current = nil
		if len(c.errs) == start {
			c.flow(d, sc)
		}
	}
	return ok
}

func (c *Checker) contracts(cs []*ast.Contract, cx *ctx) {
	for _, k := range cs {
		c.expect(k.Cond, Bool, cx, "@"+k.Kind.String()+" condition")
	}
}
