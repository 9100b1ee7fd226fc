package typecheck

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/ast"
)

func (c *Checker) block(b *ast.BlockStmt, cx *ctx) {
	inner := cx.nested(b.Span())
	for _, s := range b.Stmts {
		c.stmt(s, inner)
	}
}

// body checks the branch of an if or the body of a loop in its own scope.
func (c *Checker) body(s ast.Stmt, cx *ctx) {
	c.stmt(s, cx.nested(s.Span()))
}

func (c *Checker) stmt(s ast.Stmt, cx *ctx) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		name := s.Name.Value
		what := "variable " + name
		t := c.Resolve(s.Type)
		if c.small(t, s.Type.Span(), what) {
			c.notVoid(t, s.Type.Span(), what)
		}
		if prev := cx.scope.lookup(name); prev != nil {
			c.errorf(s.Name.Span(), []string{"previous declaration at " + prev.Name.Span().String()}, "variable %s is already declared", name)
		}
		if s.Init != nil {
			c.expect(s.Init, t, cx, "initializer of "+name)
		}
		c.bind(cx.scope, s.Name, t, cx.scopeEnd)

	case *ast.AssignStmt:
		lt := c.value(s.LHS, cx)
		if s.Op == "=" {
			if !IsSmall(lt) {
				c.errorf(s.LHS.Span(), []string{"assign the fields one by one"}, "cannot assign values of type %s", lt)
			}
			c.expect(s.RHS, lt, cx, "right-hand side")
			return
		}
		if !Equal(lt, Int) {
			c.errorf(s.LHS.Span(), nil, "%s requires an int target, found %s", s.Op, lt)
		}
		c.expect(s.RHS, Int, cx, "right operand of "+s.Op)

	case *ast.UpdateStmt:
		c.expect(s.X, Int, cx, "operand of "+s.Op)

	case *ast.ExprStmt:
		c.synth(s.X, cx)

	case *ast.AssertStmt:
		c.expect(s.Cond, Bool, cx, "assertion")

	case *ast.ErrorStmt:
		c.expect(s.Msg, String, cx, "error message")

	case *ast.IfStmt:
		c.expect(s.Cond, Bool, cx, "condition")
		c.body(s.Then, cx)
		if s.Else != nil {
			c.body(s.Else, cx)
		}

	case *ast.WhileStmt:
		c.expect(s.Cond, Bool, cx, "loop condition")
		c.contracts(s.Invariants, cx.annotation())
		loop := cx.nested(s.Body.Span())
		loop.loops++
		c.stmt(s.Body, loop)

	case *ast.ForStmt:
		head := cx.nested(s.Span())
		if s.Init != nil {
			c.stmt(s.Init, head)
		}
		c.expect(s.Cond, Bool, head, "loop condition")
		if s.Post != nil {
			c.stmt(s.Post, head)
		}
		c.contracts(s.Invariants, head.annotation())
		loop := head.nested(s.Body.Span())
		loop.loops++
		c.stmt(s.Body, loop)

	case *ast.ReturnStmt:
		if cx.ret == nil {
			Impossible(s.Span(), "return outside of a function")
		}
		if isBasic(cx.ret, ast.Void) {
			if s.Value != nil {
				c.errorf(s.Value.Span(), nil, "function %s returns void and cannot return a value", cx.fn)
			}
			return
		}
		if s.Value == nil {
			c.errorf(s.Span(), nil, "function %s must return a value of type %s", cx.fn, cx.ret)
			return
		}
		c.expect(s.Value, cx.ret, cx, "return value")

	case *ast.BreakStmt:
		if cx.loops == 0 {
			c.errorf(s.Span(), nil, "break outside of a loop")
		}

	case *ast.ContinueStmt:
		if cx.loops == 0 {
			c.errorf(s.Span(), nil, "continue outside of a loop")
		}

	case *ast.BlockStmt:
		c.block(s, cx)

	case *ast.AnnoStmt:
		c.contracts(s.Contracts, cx.annotation())

	default:
		Impossible(s.Span(), "unknown statement %T", s)
	}
}

// describe renders a function signature for hover text.
func describe(name string, sig *Signature, params []*ast.Param) string {
	s := sig.Ret.String() + " " + name + "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s %s", sig.Params[i], p.Name.Value)
	}
	return s + ")"
}

// Describe renders the signature of f, resolving typedefs.
func (c *Checker) Describe(f *ast.FunDecl) string {
	return describe(f.Name.Value, c.Signature(f), f.Params)
}
